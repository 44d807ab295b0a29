package http

import (
	"net/http"
	"strings"
	"time"

	"PokeShop/internal/metrics"
	"PokeShop/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// UploadsDir serves locally stored images when set.
	UploadsDir    string
	UploadsPrefix string
}

type Server struct {
	Router *chi.Mux
}

func NewServer(h *Handler, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(metrics.Middleware)
	r.Use(cors(opts.AllowedOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())
	if opts.UploadsDir != "" {
		prefix := "/" + strings.Trim(opts.UploadsPrefix, "/")
		if prefix == "/" {
			prefix = "/uploads"
		}
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.UploadsDir)))
		r.Handle(prefix+"/*", fs)
	}

	r.Route("/api", func(r chi.Router) {
		// Websocket connections outlive the request timeout.
		r.With(h.Auth.Authenticate, RequireProfile("Profile setup required")).
			Get("/orders/ws", h.OrderUpdates)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(opts.RequestTimeout))
			h.routes(r)
		})
	})

	return &Server{Router: r}
}

func (h *Handler) routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Get("/featured-cards", h.FeaturedCards)
	r.Get("/featured-sets", h.FeaturedSets)
	r.Get("/cards", h.ListCards)
	r.Get("/cards/{id}", h.GetCard)
	r.Get("/sets", h.ListSets)
	r.Get("/sets/{id}", h.GetSet)

	r.Post("/webhook/stripe", h.StripeWebhook)

	r.Route("/users", func(r chi.Router) {
		r.Get("/check-username/{username}", h.CheckUsername)
		r.Get("/sellers", h.ListSellers)
		r.Get("/sellers/{username}", h.GetStorefront)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate)
			r.Get("/profile", h.GetProfile)
			r.Post("/profile", h.CreateProfile)

			r.Group(func(r chi.Router) {
				r.Use(RequireProfile("Profile setup required"))
				r.Patch("/profile", h.UpdateProfile)
				r.Post("/seller-request", h.CreateSellerRequest)
				r.Get("/seller-request", h.ListMySellerRequests)
			})
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Auth.Authenticate, RequireRole(models.RoleAdmin))
		r.Get("/seller-requests", h.ListSellerRequests)
		r.Post("/seller-requests/{id}/approve", h.ApproveSellerRequest)
		r.Post("/seller-requests/{id}/reject", h.RejectSellerRequest)
		r.Get("/users", h.ListUsers)
		r.Post("/users/{id}/deactivate", h.DeactivateUser)
		r.Post("/users/{id}/reactivate", h.ReactivateUser)
		r.Patch("/users/{id}/role", h.UpdateUserRole)
	})

	r.Route("/seller", func(r chi.Router) {
		r.Use(h.Auth.Authenticate, RequireRole(models.RoleSeller))
		r.Post("/listings", h.CreateListing)
		r.Get("/listings", h.ListListings)
		r.Get("/listings/{id}", h.GetListing)
		r.Patch("/listings/{id}", h.UpdateListing)
		r.Delete("/listings/{id}", h.DeleteListing)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(h.Auth.Authenticate, RequireProfile("Profile setup required"))
		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Delete("/clear", h.ClearCart)
		r.Delete("/{listingId}", h.RemoveFromCart)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/verify/{sessionId}", h.VerifyCheckout)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate, RequireProfile("Profile setup required to make purchases"))
			r.Post("/create-session", h.CreateCheckoutSession)
			r.Post("/create-cart-session", h.CreateCartCheckoutSession)
			r.Get("/session/{sessionId}", h.GetCheckoutSession)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Authenticate, RequireProfile("Profile setup required"))
		r.Get("/orders", h.ListOrders)
		r.With(RequireRole(models.RoleSeller)).Get("/orders/sales", h.ListSales)
		r.Get("/orders/{id}", h.GetOrder)
	})
}
