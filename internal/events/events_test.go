package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestKafkaPublisherKeysByAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	orderID := uuid.New()

	ev := New(OrderCompleted, orderID, map[string]string{"status": "COMPLETED"})
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, orderID.String(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, OrderCompleted, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, OrderCompleted, decoded.Type)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestRabbitPublisherRoutesByType(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitPublisher{channel: ch, exchange: "pokeshop.events"}

	ev := New(SellerRequestApproved, uuid.New(), nil)
	require.NoError(t, p.Publish(context.Background(), ev))

	assert.Equal(t, "pokeshop.events", ch.exchange)
	assert.Equal(t, SellerRequestApproved, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, ev.ID, ch.msg.MessageId)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), New(OrderCancelled, uuid.New(), nil)))
	assert.NoError(t, p.Close())
}

func TestOpen(t *testing.T) {
	p, err := Open(Options{Driver: "none"})
	require.NoError(t, err)
	assert.Equal(t, Nop{}, p)

	p, err = Open(Options{Driver: "kafka", KafkaTopic: "pokeshop.events", KafkaBrokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = Open(Options{Driver: "kafka"})
	assert.Error(t, err)
	_, err = Open(Options{Driver: "sqs"})
	assert.Error(t, err)
}
