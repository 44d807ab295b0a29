package http

import (
	"errors"
	"net/http"

	"PokeShop/internal/catalog"

	"github.com/go-chi/chi/v5"
)

func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) writeCatalog(w http.ResponseWriter, r *http.Request, body []byte, err error, msg string) {
	if err == nil {
		writeRaw(w, body)
		return
	}
	var se *catalog.StatusError
	switch {
	case errors.Is(err, catalog.ErrUnknownFeatured):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "Not found")
	case r.Context().Err() != nil:
		// client went away
	default:
		logRequestError(r, err)
		writeError(w, http.StatusBadGateway, msg)
	}
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	body, err := h.Catalog.Cards(r.Context(), r.URL.Query())
	h.writeCatalog(w, r, body, err, "Failed to fetch cards")
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	body, err := h.Catalog.Card(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	h.writeCatalog(w, r, body, err, "Failed to fetch card")
}

func (h *Handler) ListSets(w http.ResponseWriter, r *http.Request) {
	body, err := h.Catalog.Sets(r.Context(), r.URL.Query())
	h.writeCatalog(w, r, body, err, "Failed to fetch sets")
}

func (h *Handler) GetSet(w http.ResponseWriter, r *http.Request) {
	body, err := h.Catalog.Set(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	h.writeCatalog(w, r, body, err, "Failed to fetch set")
}

func (h *Handler) FeaturedCards(w http.ResponseWriter, r *http.Request) {
	body, err := h.Catalog.Featured(r.Context(), "featured-cards")
	h.writeCatalog(w, r, body, err, "Failed to fetch featured cards")
}

func (h *Handler) FeaturedSets(w http.ResponseWriter, r *http.Request) {
	body, err := h.Catalog.Featured(r.Context(), "featured-sets")
	h.writeCatalog(w, r, body, err, "Failed to fetch featured sets")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cacheSize": h.Catalog.CacheSize(r.Context())})
}

// Ready reports whether the database is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		logRequestError(r, err)
		writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
