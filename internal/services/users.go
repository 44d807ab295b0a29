package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/store"

	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type ProfileInput struct {
	Username        string
	FavoritePokemon *string
	Email           *string
}

type ProfilePatch struct {
	Username        *string
	FavoritePokemon OptionalString
}

// Storefront is the public page of one seller.
type Storefront struct {
	ID              uuid.UUID         `json:"id"`
	Username        string            `json:"username"`
	FavoritePokemon *string           `json:"favoritePokemon"`
	Role            models.Role       `json:"role"`
	CreatedAt       time.Time         `json:"createdAt"`
	Listings        []*models.Listing `json:"cardListings"`
}

type UserService struct {
	Store UserStore
	Now   func() time.Time
}

func NewUserService(st UserStore) *UserService {
	return &UserService{Store: st, Now: utcNow}
}

func validateUsername(name string) error {
	if n := len(name); n < 3 || n > 20 {
		return invalid("Username must be 3-20 characters")
	}
	if !usernamePattern.MatchString(name) {
		return invalid("Username can only contain letters, numbers, and underscores")
	}
	return nil
}

// CreateProfile registers the first profile for an identity subject. New
// profiles always start as BUYER.
func (s *UserService) CreateProfile(ctx context.Context, subject string, in ProfileInput) (*models.User, error) {
	if _, err := s.Store.GetUserBySubject(ctx, subject); err == nil {
		return nil, invalid("Profile already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if taken, err := s.usernameTaken(ctx, in.Username, uuid.Nil); err != nil {
		return nil, err
	} else if taken {
		return nil, invalid("Username is already taken")
	}

	now := s.Now()
	u := &models.User{
		ID:              uuid.New(),
		Subject:         subject,
		Email:           emptyToNil(in.Email),
		Username:        in.Username,
		FavoritePokemon: emptyToNil(in.FavoritePokemon),
		Role:            models.RoleBuyer,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, invalid("Username is already taken")
		}
		return nil, err
	}
	log.Printf("user %s created profile %s", u.ID, u.Username)
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, u *models.User, p ProfilePatch) (*models.User, error) {
	next := *u
	if p.Username != nil {
		if err := validateUsername(*p.Username); err != nil {
			return nil, err
		}
		if taken, err := s.usernameTaken(ctx, *p.Username, u.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, invalid("Username is already taken")
		}
		next.Username = *p.Username
	}
	if p.FavoritePokemon.Set {
		next.FavoritePokemon = emptyToNil(p.FavoritePokemon.Value)
	}
	next.UpdatedAt = s.Now()

	if err := s.Store.UpdateUserProfile(ctx, &next); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, invalid("Username is already taken")
		}
		return nil, err
	}
	return &next, nil
}

func (s *UserService) UsernameAvailable(ctx context.Context, name string) (bool, error) {
	taken, err := s.usernameTaken(ctx, name, uuid.Nil)
	return !taken, err
}

func (s *UserService) usernameTaken(ctx context.Context, name string, self uuid.UUID) (bool, error) {
	u, err := s.Store.GetUserByUsername(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != self, nil
}

func (s *UserService) RequestSeller(ctx context.Context, u *models.User, reason *string) (*models.SellerRequest, error) {
	if u.Role.Allows(models.RoleSeller) {
		return nil, invalid("You already have seller permissions")
	}
	if _, err := s.Store.GetPendingSellerRequest(ctx, u.ID); err == nil {
		return nil, invalid("You already have a pending request")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := s.Now()
	req := &models.SellerRequest{
		ID:        uuid.New(),
		UserID:    u.ID,
		Status:    models.RequestPending,
		Reason:    emptyToNil(reason),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.CreateSellerRequest(ctx, req); err != nil {
		return nil, err
	}
	log.Printf("seller request %s from %s", req.ID, u.Username)
	return req, nil
}

func (s *UserService) SellerRequests(ctx context.Context, u *models.User) ([]*models.SellerRequest, error) {
	reqs, err := s.Store.ListSellerRequestsByUser(ctx, u.ID)
	if reqs == nil {
		reqs = []*models.SellerRequest{}
	}
	return reqs, err
}

func (s *UserService) Sellers(ctx context.Context, exclude *uuid.UUID) ([]*models.SellerSummary, error) {
	sellers, err := s.Store.ListSellers(ctx, exclude)
	if sellers == nil {
		sellers = []*models.SellerSummary{}
	}
	return sellers, err
}

// Storefront returns an active seller with their ACTIVE listings. Buyers
// and deactivated accounts are reported as missing.
func (s *UserService) Storefront(ctx context.Context, username string) (*Storefront, error) {
	u, err := s.Store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Seller not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !u.Role.Allows(models.RoleSeller) {
		return nil, notFound("Seller not found")
	}

	active := models.ListingActive
	listings, err := s.Store.ListListingsBySeller(ctx, u.ID, &active)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []*models.Listing{}
	}
	return &Storefront{
		ID:              u.ID,
		Username:        u.Username,
		FavoritePokemon: u.FavoritePokemon,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
		Listings:        listings,
	}, nil
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
