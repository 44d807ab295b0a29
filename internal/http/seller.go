package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"PokeShop/internal/auth"
	"PokeShop/internal/services"

	"github.com/gabriel-vasile/mimetype"
)

// formOverhead leaves room for the text fields next to a maximum-size image.
const formOverhead = 1 << 20

// looseString accepts a JSON string or number, keeping the literal text.
type looseString struct {
	Value *string
}

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		s.Value = nil
		return nil
	}
	var v string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		v = n.String()
	}
	s.Value = &v
	return nil
}

type updateListingRequest struct {
	CardName *string     `json:"cardName"`
	SetName  *string     `json:"setName"`
	Price    looseString `json:"price"`
	Status   *string     `json:"status"`
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+formOverhead)
	if err := r.ParseMultipartForm(services.MaxImageBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "Image must be 5MB or smaller")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	img, err := readImage(r)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create listing")
		return
	}

	l, err := h.Listings.Create(r.Context(), auth.UserFrom(r.Context()), services.ListingInput{
		CardName: r.FormValue("cardName"),
		SetName:  r.FormValue("setName"),
		Price:    r.FormValue("price"),
	}, img)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create listing")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"listing": l})
}

// readImage returns the optional "image" part. The content type is
// sniffed from the bytes, not taken from the client.
func readImage(r *http.Request) (*services.Image, error) {
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	size := hdr.Size
	if int64(len(data)) > size {
		size = int64(len(data))
	}
	contentType := mimetype.Detect(data).String()
	if err := services.CheckImage(contentType, size); err != nil {
		return nil, err
	}
	return &services.Image{ContentType: contentType, Data: data}, nil
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Listings.List(r.Context(), auth.UserFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch listings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": listings})
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	l, err := h.Listings.Get(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch listing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"listing": l})
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	var req updateListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, bodyError(err, ""))
		return
	}
	l, err := h.Listings.Update(r.Context(), auth.UserFrom(r.Context()), id, services.ListingPatch{
		CardName: req.CardName,
		SetName:  req.SetName,
		Price:    req.Price.Value,
		Status:   req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to update listing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"listing": l})
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Listing not found")
		return
	}
	if err := h.Listings.Delete(r.Context(), auth.UserFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, err, "Failed to delete listing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
