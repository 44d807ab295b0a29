package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/pricing"
	"PokeShop/internal/storage"
	"PokeShop/internal/store"

	"github.com/google/uuid"
)

const MaxImageBytes = 5 << 20

var imageTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Image struct {
	ContentType string
	Data        []byte
}

type ListingInput struct {
	CardName string
	SetName  string
	Price    string
}

type ListingPatch struct {
	CardName *string
	SetName  *string
	Price    *string
	Status   *string
}

type ListingService struct {
	Store   ListingStore
	Objects storage.ObjectStore
	Now     func() time.Time
}

func NewListingService(st ListingStore, objects storage.ObjectStore) *ListingService {
	return &ListingService{Store: st, Objects: objects, Now: utcNow}
}

// CheckImage validates an upload before it is read into memory.
func CheckImage(contentType string, size int64) error {
	if _, ok := imageTypes[contentType]; !ok {
		return invalid("Invalid file type. Only JPEG, PNG, and WebP are allowed.")
	}
	if size > MaxImageBytes {
		return invalid("Image must be 5MB or smaller")
	}
	return nil
}

func priceErr(err error) error {
	if errors.Is(err, pricing.ErrPriceTooHigh) {
		return invalid("Price exceeds maximum allowed value")
	}
	return invalid("Price must be a positive number")
}

func (s *ListingService) Create(ctx context.Context, seller *models.User, in ListingInput, img *Image) (*models.Listing, error) {
	cardName := strings.TrimSpace(in.CardName)
	if cardName == "" {
		return nil, invalid("Card name is required")
	}
	setName := strings.TrimSpace(in.SetName)
	if setName == "" {
		return nil, invalid("Set name is required")
	}
	price, err := pricing.ParsePrice(in.Price)
	if err != nil {
		return nil, priceErr(err)
	}

	now := s.Now()
	l := &models.Listing{
		ID:        uuid.New(),
		SellerID:  seller.ID,
		CardName:  cardName,
		SetName:   setName,
		Price:     price,
		Status:    models.ListingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if img != nil {
		if err := CheckImage(img.ContentType, int64(len(img.Data))); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("listings/%s/%d.%s", seller.ID, now.UnixMilli(), imageTypes[img.ContentType])
		url, err := s.Objects.Put(ctx, key, img.ContentType, img.Data)
		if err != nil {
			return nil, fmt.Errorf("upload listing image: %w", err)
		}
		l.ImageURL = &url
	}

	if err := s.Store.CreateListing(ctx, l); err != nil {
		return nil, err
	}
	log.Printf("listing %s created: %s by %s", l.ID, l.CardName, seller.Username)
	return l, nil
}

// List returns the seller's listings newest first. Unknown status values
// are ignored rather than rejected.
func (s *ListingService) List(ctx context.Context, seller *models.User, status string) ([]*models.Listing, error) {
	var filter *models.ListingStatus
	if st, ok := models.ParseListingStatus(status); ok {
		filter = &st
	}
	listings, err := s.Store.ListListingsBySeller(ctx, seller.ID, filter)
	if listings == nil {
		listings = []*models.Listing{}
	}
	return listings, err
}

func (s *ListingService) Get(ctx context.Context, seller *models.User, id uuid.UUID) (*models.Listing, error) {
	l, err := s.Store.GetListing(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Listing not found")
	}
	if err != nil {
		return nil, err
	}
	if l.SellerID != seller.ID {
		return nil, forbidden("You do not own this listing")
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, seller *models.User, id uuid.UUID, p ListingPatch) (*models.Listing, error) {
	l, err := s.Get(ctx, seller, id)
	if err != nil {
		return nil, err
	}

	if p.CardName != nil {
		v := strings.TrimSpace(*p.CardName)
		if v == "" {
			return nil, invalid("Card name cannot be empty")
		}
		l.CardName = v
	}
	if p.SetName != nil {
		v := strings.TrimSpace(*p.SetName)
		if v == "" {
			return nil, invalid("Set name cannot be empty")
		}
		l.SetName = v
	}
	if p.Price != nil {
		price, err := pricing.ParsePrice(*p.Price)
		if err != nil {
			return nil, priceErr(err)
		}
		l.Price = price
	}
	if p.Status != nil {
		st, ok := models.ParseListingStatus(*p.Status)
		if !ok {
			return nil, invalid("Invalid status")
		}
		l.Status = st
	}
	l.UpdatedAt = s.Now()

	if err := s.Store.UpdateListing(ctx, l); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Listing not found")
		}
		return nil, err
	}
	return l, nil
}

// Delete removes the listing, then its image. Image removal failures are
// logged only.
func (s *ListingService) Delete(ctx context.Context, seller *models.User, id uuid.UUID) error {
	l, err := s.Get(ctx, seller, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteListing(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return notFound("Listing not found")
		case errors.Is(err, store.ErrConflict):
			return invalid("Listing has orders and cannot be deleted")
		}
		return err
	}

	if l.ImageURL != nil {
		if key, ok := s.Objects.KeyFromURL(*l.ImageURL); ok {
			if err := s.Objects.Delete(ctx, key); err != nil {
				log.Printf("delete image %s for listing %s: %v", key, l.ID, err)
			}
		}
	}
	log.Printf("listing %s deleted: %s by %s", l.ID, l.CardName, seller.Username)
	return nil
}
