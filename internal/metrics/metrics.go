package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeshop_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pokeshop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeshop_checkout_sessions_total",
			Help: "Checkout sessions requested, by kind and result",
		},
		[]string{"kind", "result"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeshop_webhook_events_total",
			Help: "Payment webhook deliveries, by event type and outcome",
		},
		[]string{"type", "outcome"},
	)

	catalogUpstream = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeshop_catalog_upstream_requests_total",
			Help: "Requests to the card-data API, by result",
		},
		[]string{"result"},
	)

	catalogCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeshop_catalog_cache_lookups_total",
			Help: "Catalog cache lookups, by hit or miss",
		},
		[]string{"result"},
	)

	staleCheckouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeshop_stale_checkouts_total",
			Help: "Stale PENDING checkouts examined by the reconciler, by outcome",
		},
		[]string{"outcome"},
	)
)

// unmatchedRoute labels requests no chi route matched, keeping raw paths
// out of the label set.
const unmatchedRoute = "unmatched"

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		httpRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordCheckoutSession(kind string, success bool) {
	checkoutSessions.WithLabelValues(kind, result(success)).Inc()
}

func RecordWebhook(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordCatalogUpstream takes one of ok, retry, error, open.
func RecordCatalogUpstream(res string) {
	catalogUpstream.WithLabelValues(res).Inc()
}

func RecordCatalogCache(hit bool) {
	if hit {
		catalogCache.WithLabelValues("hit").Inc()
		return
	}
	catalogCache.WithLabelValues("miss").Inc()
}

func RecordStaleCheckout(outcome string) {
	staleCheckouts.WithLabelValues(outcome).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
