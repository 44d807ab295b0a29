package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"PokeShop/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps user-facing service errors to their status and
// logs everything else behind a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if se, ok := services.AsError(err); ok {
		status := http.StatusBadRequest
		switch se.Kind {
		case services.KindForbidden:
			status = http.StatusForbidden
		case services.KindNotFound:
			status = http.StatusNotFound
		}
		writeError(w, status, se.Msg)
		return
	}
	logRequestError(r, err)
	writeError(w, http.StatusInternalServerError, fallback)
}

func logRequestError(r *http.Request, err error) {
	id := middleware.GetReqID(r.Context())
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		id += " trace=" + sc.TraceID().String()
	}
	log.Printf("[%s] %s %s: %v", id, r.Method, r.URL.Path, err)
}

// decodeJSON reads a JSON body and checks its validate tags. An empty body
// decodes as an empty object.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return validate.Struct(v)
}

// pathUUID parses a URL parameter. ok is false for malformed ids.
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// bodyError picks the client message for a decodeJSON failure: msg for a
// failed validation, a generic one for malformed JSON.
func bodyError(err error, msg string) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return msg
	}
	return "invalid json body"
}
