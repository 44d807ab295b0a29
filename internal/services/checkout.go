package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"PokeShop/internal/metrics"
	"PokeShop/internal/models"
	"PokeShop/internal/payments"
	"PokeShop/internal/pricing"
	"PokeShop/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrSessionFailed = errors.New("checkout session request failed")

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// SessionView is either a single order or an order group.
type SessionView struct {
	Order      *models.Order      `json:"order,omitempty"`
	OrderGroup *models.OrderGroup `json:"orderGroup,omitempty"`
}

// Verification is the public summary shown on the checkout success page.
type Verification struct {
	Status         models.OrderStatus `json:"status"`
	CardName       string             `json:"cardName"`
	SetName        string             `json:"setName"`
	ImageURL       *string            `json:"imageUrl"`
	SellerUsername string             `json:"sellerUsername"`
	Amount         decimal.Decimal    `json:"amount"`
}

type CheckoutService struct {
	Store       CheckoutStore
	Gateway     payments.Gateway
	FrontendURL string
	Now         func() time.Time
}

func NewCheckoutService(st CheckoutStore, gw payments.Gateway, frontendURL string) *CheckoutService {
	return &CheckoutService{Store: st, Gateway: gw, FrontendURL: strings.TrimRight(frontendURL, "/"), Now: utcNow}
}

func (s *CheckoutService) successURL() string {
	return s.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

func lineItem(l *models.Listing, amount decimal.Decimal) payments.LineItem {
	seller := ""
	if l.Seller != nil {
		seller = l.Seller.Username
	}
	item := payments.LineItem{
		Name:        l.CardName,
		Description: fmt.Sprintf("%s - Sold by %s", l.SetName, seller),
		UnitAmount:  pricing.Cents(amount),
	}
	if l.ImageURL != nil {
		item.ImageURL = *l.ImageURL
	}
	return item
}

// CreateSession starts a hosted checkout for one listing. Every check runs
// before the PENDING order is written.
func (s *CheckoutService) CreateSession(ctx context.Context, buyer *models.User, listingID uuid.UUID) (*CheckoutResult, error) {
	l, err := s.Store.GetListing(ctx, listingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Listing not found")
	}
	if err != nil {
		return nil, err
	}
	if l.Status != models.ListingActive {
		return nil, invalid("This listing is no longer available")
	}
	if l.SellerID == buyer.ID {
		return nil, invalid("You cannot purchase your own listing")
	}

	now := s.Now()
	o := &models.Order{
		ID:        uuid.New(),
		BuyerID:   buyer.ID,
		SellerID:  l.SellerID,
		ListingID: l.ID,
		Amount:    l.Price,
		Status:    models.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	sellerName := ""
	if l.Seller != nil {
		sellerName = l.Seller.Username
	}
	target := payments.SingleOrder{OrderID: o.ID, ListingID: l.ID, BuyerID: buyer.ID, SellerID: l.SellerID}
	sess, err := s.Gateway.CreateCheckoutSession(ctx, payments.SessionRequest{
		LineItems:  []payments.LineItem{lineItem(l, o.Amount)},
		SuccessURL: s.successURL(),
		CancelURL:  s.FrontendURL + "/shop/" + sellerName,
		Metadata:   target.Metadata(),
	})
	metrics.RecordCheckoutSession(string(models.CheckoutOrder), err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s: %v", ErrSessionFailed, o.ID, err)
	}
	if err := s.Store.SetOrderSession(ctx, o.ID, sess.ID); err != nil {
		return nil, err
	}

	log.Printf("checkout session %s created for %s (order %s)", sess.ID, l.CardName, o.ID)
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// CreateCartSession starts one hosted checkout for several listings. The
// group and its items are written in one transaction after every listing
// passes validation.
func (s *CheckoutService) CreateCartSession(ctx context.Context, buyer *models.User, listingIDs []uuid.UUID) (*CheckoutResult, error) {
	if len(listingIDs) == 0 {
		return nil, invalid("At least one listing ID is required")
	}
	found, err := s.Store.ListListingsByIDs(ctx, listingIDs)
	if err != nil {
		return nil, err
	}
	if len(found) != len(listingIDs) {
		return nil, invalid("One or more listings not found")
	}
	byID := make(map[uuid.UUID]*models.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}

	listings := make([]*models.Listing, 0, len(listingIDs))
	var problems []string
	for _, id := range listingIDs {
		l := byID[id]
		listings = append(listings, l)
		if l.Status != models.ListingActive {
			problems = append(problems, fmt.Sprintf("%q is no longer available", l.CardName))
		}
		if l.SellerID == buyer.ID {
			problems = append(problems, fmt.Sprintf("Cannot purchase your own listing %q", l.CardName))
		}
	}
	if len(problems) > 0 {
		return nil, invalid(strings.Join(problems, ". "))
	}

	now := s.Now()
	g := &models.OrderGroup{
		ID:        uuid.New(),
		BuyerID:   buyer.ID,
		Status:    models.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	amounts := make([]decimal.Decimal, 0, len(listings))
	lines := make([]payments.LineItem, 0, len(listings))
	for _, l := range listings {
		g.Items = append(g.Items, &models.OrderItem{
			ID:           uuid.New(),
			OrderGroupID: g.ID,
			ListingID:    l.ID,
			SellerID:     l.SellerID,
			Amount:       l.Price,
			CreatedAt:    now,
		})
		amounts = append(amounts, l.Price)
		lines = append(lines, lineItem(l, l.Price))
	}
	g.TotalAmount = pricing.Sum(amounts...)

	target := payments.OrderGroup{GroupID: g.ID, BuyerID: buyer.ID, ListingIDs: g.ListingIDs()}
	if err := payments.CheckMetadata(target.Metadata()); err != nil {
		log.Printf("cart checkout for %s: %v", buyer.ID, err)
		return nil, invalid(fmt.Sprintf("Too many items for one checkout (maximum %d)", payments.MaxGroupListings))
	}
	if err := s.Store.CreateOrderGroup(ctx, g); err != nil {
		return nil, err
	}

	sess, err := s.Gateway.CreateCheckoutSession(ctx, payments.SessionRequest{
		LineItems:  lines,
		SuccessURL: s.successURL(),
		CancelURL:  s.FrontendURL + "/cart",
		Metadata:   target.Metadata(),
	})
	metrics.RecordCheckoutSession(string(models.CheckoutOrderGroup), err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: order group %s: %v", ErrSessionFailed, g.ID, err)
	}
	if err := s.Store.SetOrderGroupSession(ctx, g.ID, sess.ID); err != nil {
		return nil, err
	}

	log.Printf("cart checkout session %s created (order group %s, %d items)", sess.ID, g.ID, len(g.Items))
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// Session returns the order or group paid through sessionID. Only the buyer
// may see it.
func (s *CheckoutService) Session(ctx context.Context, buyer *models.User, sessionID string) (*SessionView, error) {
	o, err := s.Store.GetOrderBySession(ctx, sessionID)
	if err == nil {
		if o.BuyerID != buyer.ID {
			return nil, forbidden("You do not have access to this order")
		}
		return &SessionView{Order: o}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	g, err := s.Store.GetOrderGroupBySession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if g.BuyerID != buyer.ID {
		return nil, forbidden("You do not have access to this order")
	}
	return &SessionView{OrderGroup: g}, nil
}

func (s *CheckoutService) Verify(ctx context.Context, sessionID string) (*Verification, error) {
	o, err := s.Store.GetOrderBySession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	v := &Verification{Status: o.Status, Amount: o.Amount}
	if o.Listing != nil {
		v.CardName, v.SetName, v.ImageURL = o.Listing.CardName, o.Listing.SetName, o.Listing.ImageURL
	}
	if o.Seller != nil {
		v.SellerUsername = o.Seller.Username
	}
	return v, nil
}
