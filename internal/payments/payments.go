package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionComplete SessionStatus = "complete"
	SessionExpired  SessionStatus = "expired"
)

// MaxMetadataValue is the longest value Stripe accepts for one metadata key.
const MaxMetadataValue = 500

var (
	ErrInvalidSignature = errors.New("payments: invalid webhook signature")
	ErrUnknownTarget    = errors.New("payments: session metadata matches no order")
	ErrMetadataTooLong  = errors.New("payments: metadata value too long")
)

// CheckMetadata reports the first value longer than MaxMetadataValue.
func CheckMetadata(md map[string]string) error {
	for k, v := range md {
		if len(v) > MaxMetadataValue {
			return fmt.Errorf("%w: %s has %d characters", ErrMetadataTooLong, k, len(v))
		}
	}
	return nil
}

// LineItem is one quantity-1 product on a hosted checkout page. UnitAmount
// is in cents.
type LineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64
}

type SessionRequest struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type Session struct {
	ID              string
	URL             string
	Status          SessionStatus
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
}

// Event is a verified webhook delivery. Session is set for checkout events.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// Gateway is the hosted-checkout provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// Target identifies what a checkout session pays for. It is either a
// SingleOrder or an OrderGroup.
type Target interface {
	Metadata() map[string]string
	isTarget()
}

type SingleOrder struct {
	OrderID   uuid.UUID
	ListingID uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
}

func (SingleOrder) isTarget() {}

func (t SingleOrder) Metadata() map[string]string {
	return map[string]string{
		"orderId":   t.OrderID.String(),
		"listingId": t.ListingID.String(),
		"buyerId":   t.BuyerID.String(),
		"sellerId":  t.SellerID.String(),
	}
}

// MaxGroupListings is how many listing ids fit in the listingIds metadata
// value: a JSON array of n quoted UUIDs is 39n+1 characters long.
const MaxGroupListings = (MaxMetadataValue - 1) / 39

type OrderGroup struct {
	GroupID    uuid.UUID
	BuyerID    uuid.UUID
	ListingIDs []uuid.UUID
}

func (OrderGroup) isTarget() {}

func (t OrderGroup) Metadata() map[string]string {
	ids := make([]string, 0, len(t.ListingIDs))
	for _, id := range t.ListingIDs {
		ids = append(ids, id.String())
	}
	raw, _ := json.Marshal(ids)
	return map[string]string{
		"orderGroupId": t.GroupID.String(),
		"buyerId":      t.BuyerID.String(),
		"listingIds":   string(raw),
	}
}

// DecodeTarget reads session metadata written by Metadata. A group id takes
// precedence over an order id.
func DecodeTarget(md map[string]string) (Target, error) {
	if v, ok := md["orderGroupId"]; ok && v != "" {
		groupID, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: orderGroupId: %v", ErrUnknownTarget, err)
		}
		t := OrderGroup{GroupID: groupID}
		if t.BuyerID, err = optionalUUID(md["buyerId"]); err != nil {
			return nil, fmt.Errorf("%w: buyerId: %v", ErrUnknownTarget, err)
		}
		if raw := md["listingIds"]; raw != "" {
			var ids []string
			if err := json.Unmarshal([]byte(raw), &ids); err != nil {
				return nil, fmt.Errorf("%w: listingIds: %v", ErrUnknownTarget, err)
			}
			for _, s := range ids {
				id, err := uuid.Parse(s)
				if err != nil {
					return nil, fmt.Errorf("%w: listingIds: %v", ErrUnknownTarget, err)
				}
				t.ListingIDs = append(t.ListingIDs, id)
			}
		}
		return t, nil
	}

	if v, ok := md["orderId"]; ok && v != "" {
		orderID, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: orderId: %v", ErrUnknownTarget, err)
		}
		t := SingleOrder{OrderID: orderID}
		for key, dst := range map[string]*uuid.UUID{"listingId": &t.ListingID, "buyerId": &t.BuyerID, "sellerId": &t.SellerID} {
			if *dst, err = optionalUUID(md[key]); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnknownTarget, key, err)
			}
		}
		return t, nil
	}

	return nil, ErrUnknownTarget
}

func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
