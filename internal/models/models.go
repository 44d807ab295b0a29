package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the closed set of account roles. Higher roles include the
// permissions of lower ones: ADMIN ⊇ SELLER ⊇ BUYER.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return r, true
	}
	return "", false
}

func (r Role) rank() int {
	switch r {
	case RoleBuyer:
		return 1
	case RoleSeller:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// Allows reports whether a holder of r may use a route that requires the
// given role.
func (r Role) Allows(required Role) bool {
	return r.rank() > 0 && r.rank() >= required.rank()
}

type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingSold      ListingStatus = "SOLD"
	ListingCancelled ListingStatus = "CANCELLED"
)

func ParseListingStatus(s string) (ListingStatus, bool) {
	switch st := ListingStatus(s); st {
	case ListingActive, ListingSold, ListingCancelled:
		return st, true
	}
	return "", false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type SellerRequestStatus string

const (
	RequestPending  SellerRequestStatus = "PENDING"
	RequestApproved SellerRequestStatus = "APPROVED"
	RequestRejected SellerRequestStatus = "REJECTED"
)

func ParseSellerRequestStatus(s string) (SellerRequestStatus, bool) {
	switch st := SellerRequestStatus(s); st {
	case RequestPending, RequestApproved, RequestRejected:
		return st, true
	}
	return "", false
}

type User struct {
	ID              uuid.UUID `json:"id"`
	Subject         string    `json:"auth0Id"`
	Email           *string   `json:"email"`
	Username        string    `json:"username"`
	FavoritePokemon *string   `json:"favoritePokemon"`
	Role            Role      `json:"role"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UserRef is the public projection of a user embedded in other resources.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type UserFilter struct {
	Role   *Role
	Active *bool
}

type SellerSummary struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	FavoritePokemon *string   `json:"favoritePokemon"`
	CreatedAt       time.Time `json:"createdAt"`
	ActiveListings  int       `json:"activeListings"`
}

type Listing struct {
	ID        uuid.UUID       `json:"id"`
	SellerID  uuid.UUID       `json:"sellerId"`
	CardName  string          `json:"cardName"`
	SetName   string          `json:"setName"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  *string         `json:"imageUrl"`
	Status    ListingStatus   `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Seller    *UserRef        `json:"seller,omitempty"`
}

type CartItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	ListingID uuid.UUID `json:"-"`
	AddedAt   time.Time `json:"addedAt"`
	Listing   *Listing  `json:"listing,omitempty"`
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	BuyerID           uuid.UUID       `json:"buyerId"`
	SellerID          uuid.UUID       `json:"sellerId"`
	ListingID         uuid.UUID       `json:"listingId"`
	Amount            decimal.Decimal `json:"amount"`
	Status            OrderStatus     `json:"status"`
	CheckoutSessionID *string         `json:"stripeCheckoutSessionId"`
	PaymentIntentID   *string         `json:"stripePaymentIntentId"`
	PaidAt            *time.Time      `json:"paidAt"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	Listing           *Listing        `json:"listing,omitempty"`
	Buyer             *UserRef        `json:"buyer,omitempty"`
	Seller            *UserRef        `json:"seller,omitempty"`
}

type OrderGroup struct {
	ID                uuid.UUID       `json:"id"`
	BuyerID           uuid.UUID       `json:"buyerId"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Status            OrderStatus     `json:"status"`
	CheckoutSessionID *string         `json:"stripeCheckoutSessionId"`
	PaymentIntentID   *string         `json:"stripePaymentIntentId"`
	PaidAt            *time.Time      `json:"paidAt"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	Items             []*OrderItem    `json:"items"`
}

type OrderItem struct {
	ID           uuid.UUID       `json:"id"`
	OrderGroupID uuid.UUID       `json:"orderGroupId"`
	ListingID    uuid.UUID       `json:"listingId"`
	SellerID     uuid.UUID       `json:"sellerId"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"createdAt"`
	Listing      *Listing        `json:"listing,omitempty"`
	Seller       *UserRef        `json:"seller,omitempty"`
}

// ListingIDs returns the listing of every item in group order.
func (g *OrderGroup) ListingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Items))
	for _, it := range g.Items {
		ids = append(ids, it.ListingID)
	}
	return ids
}

type SellerRequest struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"userId"`
	Status       SellerRequestStatus `json:"status"`
	Reason       *string             `json:"reason"`
	ReviewNote   *string             `json:"reviewNote"`
	ReviewedByID *uuid.UUID          `json:"reviewedById"`
	ReviewedAt   *time.Time          `json:"reviewedAt"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	User         *User               `json:"user,omitempty"`
}

type CheckoutKind string

const (
	CheckoutOrder      CheckoutKind = "order"
	CheckoutOrderGroup CheckoutKind = "order_group"
)

// PendingCheckout is a PENDING order or order group that already has a
// checkout session attached.
type PendingCheckout struct {
	Kind      CheckoutKind
	ID        uuid.UUID
	BuyerID   uuid.UUID
	SessionID string
	CreatedAt time.Time
}
