package http

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prev)
		log.SetFlags(flags)
	})
	return &buf
}

func TestLogRequestErrorIncludesTraceID(t *testing.T) {
	buf := captureLog(t)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	req := httptest.NewRequest(http.MethodPost, "/api/cart", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	logRequestError(req, errors.New("db gone"))
	assert.Contains(t, buf.String(), "trace=4bf92f3577b34da6a3ce929d0e0e4736")
	assert.Contains(t, buf.String(), "POST /api/cart: db gone")

	buf.Reset()
	logRequestError(httptest.NewRequest(http.MethodGet, "/api/orders", nil), errors.New("boom"))
	assert.NotContains(t, buf.String(), "trace=")
}
