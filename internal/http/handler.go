package http

import (
	"context"

	"PokeShop/internal/catalog"
	"PokeShop/internal/notify"
	"PokeShop/internal/payments"
	"PokeShop/internal/services"

	"github.com/gorilla/websocket"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// WebhookHandler applies verified payment events.
type WebhookHandler interface {
	HandleEvent(ctx context.Context, ev *payments.Event) (payments.Outcome, error)
}

type Handler struct {
	Auth       *Authenticator
	Users      *services.UserService
	Admin      *services.AdminService
	Listings   *services.ListingService
	Cart       *services.CartService
	Checkout   *services.CheckoutService
	Orders     *services.OrderService
	Catalog    *catalog.Service
	Payments   payments.Gateway
	Reconciler WebhookHandler
	Hub        *notify.Hub
	Upgrader   *websocket.Upgrader
	DB         Pinger
}
