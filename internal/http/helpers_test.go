package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"PokeShop/internal/auth"
	"PokeShop/internal/cache"
	"PokeShop/internal/catalog"
	"PokeShop/internal/notify"
	"PokeShop/internal/payments"
	"PokeShop/internal/services"
	"PokeShop/internal/storage"
	"PokeShop/internal/storetest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	testSecret    = "test-secret"
	webhookSecret = "whsec_test_secret"
	frontendURL   = "http://localhost:5173"
)

// testGateway creates sessions locally but verifies webhooks exactly like
// production.
type testGateway struct {
	*payments.StripeGateway

	mu   sync.Mutex
	n    int
	fail bool
}

func (g *testGateway) CreateCheckoutSession(_ context.Context, req payments.SessionRequest) (*payments.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("stripe: connection reset")
	}
	if err := payments.CheckMetadata(req.Metadata); err != nil {
		return nil, err
	}
	g.n++
	id := fmt.Sprintf("cs_test_%d", g.n)
	return &payments.Session{ID: id, URL: "https://checkout.stripe.test/" + id, Status: payments.SessionOpen, Metadata: req.Metadata}, nil
}

func (g *testGateway) GetCheckoutSession(context.Context, string) (*payments.Session, error) {
	return nil, errors.New("not implemented")
}

type harness struct {
	t       *testing.T
	mem     *storetest.Memory
	gw      *testGateway
	hub     *notify.Hub
	handler *Handler
	router  http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := storetest.NewMemory()
	gw := &testGateway{StripeGateway: payments.NewStripeGateway("sk_test_123", webhookSecret, "usd")}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/sets":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
		}
	}))
	t.Cleanup(upstream.Close)
	client := catalog.NewClient(upstream.URL, catalog.Options{})
	cat := catalog.NewService(client, client, cache.NewTTL(time.Hour, 100, time.Now))

	uploads := t.TempDir()
	objects, err := storage.NewLocalStore(uploads, "/uploads")
	require.NoError(t, err)

	hub := notify.NewHub()
	up := notify.Upgrader([]string{frontendURL})
	h := &Handler{
		Auth:       &Authenticator{Verifier: auth.NewVerifier(auth.Options{DevSecret: testSecret}), Users: mem},
		Users:      services.NewUserService(mem),
		Admin:      services.NewAdminService(mem, nil, hub),
		Listings:   services.NewListingService(mem, objects),
		Cart:       services.NewCartService(mem),
		Checkout:   services.NewCheckoutService(mem, gw, frontendURL),
		Orders:     services.NewOrderService(mem),
		Catalog:    cat,
		Payments:   gw,
		Reconciler: payments.NewReconciler(mem, nil, hub),
		Hub:        hub,
		Upgrader:   &up,
		DB:         mem,
	}
	srv := NewServer(h, Options{
		AllowedOrigins: []string{frontendURL},
		UploadsDir:     uploads,
		UploadsPrefix:  "/uploads",
	})
	return &harness{t: t, mem: mem, gw: gw, hub: hub, handler: h, router: srv.Router}
}

func (h *harness) token(subject string) string {
	h.t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "trainer@example.com",
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(h.t, err)
	return s
}

func (h *harness) send(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.send(req)
}

// deliver posts a signed Stripe event carrying session.
func (h *harness) deliver(eventType string, session map[string]any) *httptest.ResponseRecorder {
	h.t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":     "evt_" + uuid.NewString(),
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": session},
	})
	require.NoError(h.t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: webhookSecret})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return h.send(req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["error"].(string)
	return msg
}
