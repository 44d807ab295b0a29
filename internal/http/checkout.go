package http

import (
	"errors"
	"net/http"

	"PokeShop/internal/auth"
	"PokeShop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	ListingID string `json:"listingId" validate:"required"`
}

type createCartSessionRequest struct {
	ListingIDs []string `json:"listingIds" validate:"required,min=1"`
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrSessionFailed) {
		logRequestError(r, err)
		writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}
	writeServiceError(w, r, err, "Failed to create checkout session")
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, "Listing ID is required"))
		return
	}
	id, err := uuid.Parse(req.ListingID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	res, err := h.Checkout.CreateSession(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CreateCartCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req createCartSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, "At least one listing ID is required"))
		return
	}
	ids := make([]uuid.UUID, 0, len(req.ListingIDs))
	for _, raw := range req.ListingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "One or more listings not found")
			return
		}
		ids = append(ids, id)
	}
	res, err := h.Checkout.CreateCartSession(r.Context(), auth.UserFrom(r.Context()), ids)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.Checkout.Session(r.Context(), auth.UserFrom(r.Context()), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch order status")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// VerifyCheckout is public: the success page may load before the buyer's
// token is available.
func (h *Handler) VerifyCheckout(w http.ResponseWriter, r *http.Request) {
	v, err := h.Checkout.Verify(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to verify checkout")
		return
	}
	writeJSON(w, http.StatusOK, v)
}
