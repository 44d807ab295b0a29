package http

import (
	"errors"
	"io"
	"log"
	"net/http"

	"PokeShop/internal/metrics"
	"PokeShop/internal/payments"
)

// maxWebhookBytes matches the provider's documented payload ceiling.
const maxWebhookBytes = 1 << 16

func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Webhook Error: unreadable body")
		return
	}

	ev, err := h.Payments.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("webhook rejected: %v", err)
		metrics.RecordWebhook("unknown", "rejected")
		if errors.Is(err, payments.ErrInvalidSignature) {
			writeError(w, http.StatusBadRequest, "Webhook Error: invalid signature")
			return
		}
		writeError(w, http.StatusBadRequest, "Webhook Error: malformed event")
		return
	}

	outcome, err := h.Reconciler.HandleEvent(r.Context(), ev)
	if err != nil {
		log.Printf("webhook %s (%s): %v", ev.ID, ev.Type, err)
		metrics.RecordWebhook(ev.Type, "error")
		writeError(w, http.StatusInternalServerError, "Webhook handler failed")
		return
	}
	metrics.RecordWebhook(ev.Type, string(outcome))
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
