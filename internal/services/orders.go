package services

import (
	"context"
	"errors"

	"PokeShop/internal/models"
	"PokeShop/internal/store"

	"github.com/google/uuid"
)

type OrderHistory struct {
	Orders      []*models.Order      `json:"orders"`
	OrderGroups []*models.OrderGroup `json:"orderGroups"`
}

type OrderService struct {
	Store OrderStore
}

func NewOrderService(st OrderStore) *OrderService {
	return &OrderService{Store: st}
}

// History returns the buyer's single orders and cart orders, newest first.
func (s *OrderService) History(ctx context.Context, buyer *models.User) (*OrderHistory, error) {
	orders, err := s.Store.ListOrdersByBuyer(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	groups, err := s.Store.ListOrderGroupsByBuyer(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	h := &OrderHistory{Orders: orders, OrderGroups: groups}
	if h.Orders == nil {
		h.Orders = []*models.Order{}
	}
	if h.OrderGroups == nil {
		h.OrderGroups = []*models.OrderGroup{}
	}
	return h, nil
}

// Sales returns the seller's COMPLETED orders, most recently paid first.
func (s *OrderService) Sales(ctx context.Context, seller *models.User) ([]*models.Order, error) {
	orders, err := s.Store.ListSalesBySeller(ctx, seller.ID)
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, err
}

func (s *OrderService) GetOrder(ctx context.Context, u *models.User, id uuid.UUID) (*models.Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if o.BuyerID != u.ID && o.SellerID != u.ID {
		return nil, forbidden("You do not have access to this order")
	}
	return o, nil
}
