package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PokeShop/internal/models"
	"PokeShop/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/health", "/api/health"} {
		rec := h.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, float64(0), body["cacheSize"])
	}
}

func TestReady(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.mem.Err = assert.AnError
	rec = h.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database unavailable", errorOf(t, rec))
}

func TestCatalogPassthrough(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/cards/base1-4?q=name:charizard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"path":"/cards/base1-4"}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/featured-cards", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"path":"/cache/featured-cards.json"}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, float64(2), decodeBody(t, rec)["cacheSize"])

	rec = h.do(http.MethodGet, "/api/cards/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/sets", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch sets", errorOf(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", frontendURL)
	rec := h.send(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, frontendURL, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = h.send(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/health", "", nil)

	rec := h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pokeshop_")
}

func TestOrderUpdatesWebsocket(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.hub.Run(ctx)

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	seller := h.mem.AddUser("misty", models.RoleSeller)
	buyer := h.mem.AddUser("ash", models.RoleBuyer)
	l := h.mem.AddListing(seller, "Lapras", "30")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/orders/ws?access_token=" + h.token(buyer.Subject)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.hub.Connections(buyer.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := h.do(http.MethodPost, "/api/checkout/create-session", h.token(buyer.Subject), map[string]any{"listingId": l.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	order, err := h.mem.GetOrderBySession(ctx, decodeBody(t, rec)["sessionId"].(string))
	require.NoError(t, err)

	rec = h.deliver("checkout.session.completed", map[string]any{
		"id":       "cs_ws",
		"object":   "checkout.session",
		"metadata": map[string]string{"orderId": order.ID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg notify.Message
	require.NoError(t, json.NewDecoder(bytes.NewReader(raw)).Decode(&msg))
	assert.Equal(t, "order.updated", msg.Type)
}

func TestOrderUpdatesRequiresToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/orders/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
