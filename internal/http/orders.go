package http

import (
	"net/http"

	"PokeShop/internal/auth"
)

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	hist, err := h.Orders.History(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.Sales(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch sales")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	o, err := h.Orders.GetOrder(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

// OrderUpdates streams the caller's order status changes over a websocket.
func (h *Handler) OrderUpdates(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if err := h.Hub.Serve(h.Upgrader, w, r, u.ID); err != nil {
		// Upgrade already wrote the error response.
		logRequestError(r, err)
	}
}
