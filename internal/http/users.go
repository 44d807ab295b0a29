package http

import (
	"net/http"

	"PokeShop/internal/auth"
	"PokeShop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createProfileRequest struct {
	Username        string  `json:"username"`
	FavoritePokemon *string `json:"favoritePokemon"`
	Email           *string `json:"email"`
}

type updateProfileRequest struct {
	Username        *string                 `json:"username"`
	FavoritePokemon services.OptionalString `json:"favoritePokemon"`
}

type sellerRequestBody struct {
	Reason *string `json:"reason"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if u == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"user":            nil,
			"profileComplete": false,
			"auth":            map[string]string{"auth0Id": auth.ClaimsFrom(r.Context()).Subject},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "profileComplete": u.Username != ""})
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, ""))
		return
	}
	claims := auth.ClaimsFrom(r.Context())
	email := req.Email
	if email == nil && claims.Email != "" {
		email = &claims.Email
	}

	u, err := h.Users.CreateProfile(r.Context(), claims.Subject, services.ProfileInput{
		Username:        req.Username,
		FavoritePokemon: req.FavoritePokemon,
		Email:           email,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "profileComplete": true})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, ""))
		return
	}
	u, err := h.Users.UpdateProfile(r.Context(), auth.UserFrom(r.Context()), services.ProfilePatch{
		Username:        req.Username,
		FavoritePokemon: req.FavoritePokemon,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Users.UsernameAvailable(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to check username")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

func (h *Handler) CreateSellerRequest(w http.ResponseWriter, r *http.Request) {
	var req sellerRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, ""))
		return
	}
	sr, err := h.Users.RequestSeller(r.Context(), auth.UserFrom(r.Context()), req.Reason)
	if err != nil {
		writeServiceError(w, r, err, "Failed to submit request")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"request": sr})
}

func (h *Handler) ListMySellerRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Users.SellerRequests(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	var exclude *uuid.UUID
	if v := r.URL.Query().Get("exclude"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			exclude = &id
		}
	}
	sellers, err := h.Users.Sellers(r.Context(), exclude)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch sellers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sellers": sellers})
}

func (h *Handler) GetStorefront(w http.ResponseWriter, r *http.Request) {
	front, err := h.Users.Storefront(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch seller")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seller": front})
}
