package services

import (
	"context"
	"time"

	"PokeShop/internal/models"

	"github.com/google/uuid"
)

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserBySubject(ctx context.Context, subject string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserProfile(ctx context.Context, u *models.User) error
	ListSellers(ctx context.Context, exclude *uuid.UUID) ([]*models.SellerSummary, error)
	ListListingsBySeller(ctx context.Context, sellerID uuid.UUID, status *models.ListingStatus) ([]*models.Listing, error)
	CreateSellerRequest(ctx context.Context, r *models.SellerRequest) error
	GetPendingSellerRequest(ctx context.Context, userID uuid.UUID) (*models.SellerRequest, error)
	ListSellerRequestsByUser(ctx context.Context, userID uuid.UUID) ([]*models.SellerRequest, error)
}

type AdminStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
	ListSellerRequests(ctx context.Context, status *models.SellerRequestStatus) ([]*models.SellerRequest, error)
	ApproveSellerRequest(ctx context.Context, id, reviewerID uuid.UUID, note *string, at time.Time) (*models.SellerRequest, error)
	RejectSellerRequest(ctx context.Context, id, reviewerID uuid.UUID, note string, at time.Time) (*models.SellerRequest, error)
}

type ListingStore interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListingsBySeller(ctx context.Context, sellerID uuid.UUID, status *models.ListingStatus) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, l *models.Listing) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
}

type CartStore interface {
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListCartItems(ctx context.Context, userID uuid.UUID) ([]*models.CartItem, error)
	DeleteCartItems(ctx context.Context, ids []uuid.UUID) error
	GetCartItem(ctx context.Context, userID, listingID uuid.UUID) (*models.CartItem, error)
	AddCartItem(ctx context.Context, item *models.CartItem) error
	RemoveCartItem(ctx context.Context, userID, listingID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) (int64, error)
}

type CheckoutStore interface {
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListingsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Listing, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	SetOrderSession(ctx context.Context, id uuid.UUID, sessionID string) error
	GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error)
	CreateOrderGroup(ctx context.Context, g *models.OrderGroup) error
	SetOrderGroupSession(ctx context.Context, id uuid.UUID, sessionID string) error
	GetOrderGroupBySession(ctx context.Context, sessionID string) (*models.OrderGroup, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error)
	ListOrderGroupsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.OrderGroup, error)
	ListSalesBySeller(ctx context.Context, sellerID uuid.UUID) ([]*models.Order, error)
}

func utcNow() time.Time { return time.Now().UTC() }
