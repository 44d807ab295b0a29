package http

import (
	"net/http"

	"PokeShop/internal/auth"

	"github.com/google/uuid"
)

type addCartRequest struct {
	ListingID string `json:"listingId" validate:"required"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.Cart.Get(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch cart")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, "Listing ID is required"))
		return
	}
	id, err := uuid.Parse(req.ListingID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	item, err := h.Cart.Add(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to add item to cart")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	n, err := h.Cart.Clear(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Failed to clear cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Cart cleared", "deletedCount": n})
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "listingId")
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	if err := h.Cart.Remove(r.Context(), auth.UserFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, err, "Failed to remove item from cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}
