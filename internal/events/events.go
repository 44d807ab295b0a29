package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCompleted        = "order.completed"
	OrderCancelled        = "order.cancelled"
	OrderGroupCompleted   = "order_group.completed"
	OrderGroupCancelled   = "order_group.cancelled"
	SellerRequestApproved = "seller_request.approved"
	SellerRequestRejected = "seller_request.rejected"
)

// Event is the JSON envelope published for every domain change.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// New builds an event keyed by the aggregate it describes.
func New(typ string, key uuid.UUID, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Key:        key.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

type Options struct {
	Driver       string
	RabbitURL    string
	Exchange     string
	KafkaBrokers []string
	KafkaTopic   string
}

// Open builds the publisher selected by o.Driver: none, rabbitmq or kafka.
func Open(o Options) (Publisher, error) {
	switch o.Driver {
	case "", "none":
		return Nop{}, nil
	case "rabbitmq":
		p, err := NewRabbitPublisher(o.RabbitURL, o.Exchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "kafka":
		if len(o.KafkaBrokers) == 0 {
			return nil, errors.New("events: kafka driver needs at least one broker")
		}
		return NewKafkaPublisher(o.KafkaTopic, o.KafkaBrokers...), nil
	}
	return nil, fmt.Errorf("events: unknown driver %q", o.Driver)
}
