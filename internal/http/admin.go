package http

import (
	"net/http"

	"PokeShop/internal/auth"
)

type reviewRequest struct {
	ReviewNote *string `json:"reviewNote"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=BUYER SELLER ADMIN"`
}

func (h *Handler) ListSellerRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Admin.SellerRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) ApproveSellerRequest(w http.ResponseWriter, r *http.Request) {
	h.reviewSellerRequest(w, r, true)
}

func (h *Handler) RejectSellerRequest(w http.ResponseWriter, r *http.Request) {
	h.reviewSellerRequest(w, r, false)
}

func (h *Handler) reviewSellerRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, ""))
		return
	}

	admin := auth.UserFrom(r.Context())
	review := h.Admin.Reject
	if approve {
		review = h.Admin.Approve
	}
	sr, err := review(r.Context(), admin, id, req.ReviewNote)
	if err != nil {
		writeServiceError(w, r, err, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"request": sr})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.Admin.Users(r.Context(), q.Get("role"), q.Get("active"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u, err := h.Admin.Deactivate(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to deactivate user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u, err := h.Admin.Reactivate(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to reactivate user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, "Invalid role"))
		return
	}
	u, err := h.Admin.SetRole(r.Context(), auth.UserFrom(r.Context()), id, req.Role)
	if err != nil {
		writeServiceError(w, r, err, "Failed to change role")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}
