package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PokeShop/internal/metrics"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

var ErrUpstreamUnavailable = errors.New("catalog: upstream unavailable")

// StatusError is a non-2xx answer from the upstream API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("catalog http status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("catalog http status %d", e.Code)
}

type Options struct {
	APIKey        string
	Timeout       time.Duration
	Budget        time.Duration
	MaxAttempts   int
	RatePerSecond float64
	Burst         int
}

// Client performs GETs against the card-data API. Responses of 503 and 504
// are retried up to MaxAttempts times with a linear backoff; the whole
// retry loop runs behind a circuit breaker and a client-side rate limiter.
// Timeout bounds one attempt; Budget bounds a whole Get, and a retry whose
// backoff would overrun it is not attempted.
type Client struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	budget      time.Duration
	maxAttempts int
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]

	// Backoff returns the delay before retrying after the given attempt.
	Backoff func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Budget <= 0 {
		opts.Budget = 25 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      opts.APIKey,
		client:      &http.Client{Timeout: opts.Timeout},
		budget:      opts.Budget,
		maxAttempts: opts.MaxAttempts,
		limiter:     rate.NewLimiter(limit, opts.Burst),
		Backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * 2 * time.Second },
		Sleep:       sleepContext,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog " + c.baseURL,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.Code < 500) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit %s: %s -> %s", name, from, to)
		},
	})
	return c
}

// Get fetches path with query and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	endpoint := u.String()

	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.getWithRetry(ctx, endpoint)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordCatalogUpstream("open")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return body, err
}

func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := c.get(ctx, endpoint)
		if err == nil {
			metrics.RecordCatalogUpstream("ok")
			return body, nil
		}

		var se *StatusError
		retryable := errors.As(err, &se) && (se.Code == http.StatusServiceUnavailable || se.Code == http.StatusGatewayTimeout)
		if !retryable || attempt >= c.maxAttempts {
			metrics.RecordCatalogUpstream("error")
			return nil, err
		}

		delay := c.Backoff(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			metrics.RecordCatalogUpstream("error")
			return nil, err
		}
		log.Printf("catalog %s: status %d, retry %d/%d in %s", endpoint, se.Code, attempt, c.maxAttempts-1, delay)
		metrics.RecordCatalogUpstream("retry")
		if err := c.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg}
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
