package services

import (
	"context"
	"errors"
	"log"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/store"

	"github.com/google/uuid"
)

type CartView struct {
	Items        []*models.CartItem `json:"items"`
	RemovedCount int                `json:"removedCount"`
}

type CartService struct {
	Store CartStore
	Now   func() time.Time
}

func NewCartService(st CartStore) *CartService {
	return &CartService{Store: st, Now: utcNow}
}

// Get returns the cart's ACTIVE listings newest first and deletes the
// items whose listing left ACTIVE. Nothing is deleted when every item is
// still purchasable.
func (s *CartService) Get(ctx context.Context, u *models.User) (*CartView, error) {
	items, err := s.Store.ListCartItems(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: []*models.CartItem{}}
	var stale []uuid.UUID
	for _, it := range items {
		if it.Listing != nil && it.Listing.Status == models.ListingActive {
			view.Items = append(view.Items, it)
			continue
		}
		stale = append(stale, it.ID)
	}

	if len(stale) > 0 {
		if err := s.Store.DeleteCartItems(ctx, stale); err != nil {
			return nil, err
		}
		log.Printf("cart %s: pruned %d unavailable items", u.ID, len(stale))
	}
	view.RemovedCount = len(stale)
	return view, nil
}

func (s *CartService) Add(ctx context.Context, u *models.User, listingID uuid.UUID) (*models.CartItem, error) {
	l, err := s.Store.GetListing(ctx, listingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Listing not found")
	}
	if err != nil {
		return nil, err
	}
	if l.SellerID == u.ID {
		return nil, invalid("Cannot add your own listing to cart")
	}
	if l.Status != models.ListingActive {
		return nil, invalid("This listing is no longer available")
	}

	if _, err := s.Store.GetCartItem(ctx, u.ID, listingID); err == nil {
		return nil, invalid("Item already in cart")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	item := &models.CartItem{ID: uuid.New(), UserID: u.ID, ListingID: listingID, AddedAt: s.Now()}
	if err := s.Store.AddCartItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, invalid("Item already in cart")
		}
		return nil, err
	}
	item.Listing = l
	log.Printf("cart %s: added %s", u.ID, l.CardName)
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, u *models.User, listingID uuid.UUID) error {
	err := s.Store.RemoveCartItem(ctx, u.ID, listingID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Item not found in cart")
	}
	return err
}

func (s *CartService) Clear(ctx context.Context, u *models.User) (int64, error) {
	n, err := s.Store.ClearCart(ctx, u.ID)
	if err != nil {
		return 0, err
	}
	log.Printf("cart %s: cleared %d items", u.ID, n)
	return n, nil
}
