package services

import (
	"context"
	"errors"
	"sync"

	"PokeShop/internal/events"
	"PokeShop/internal/payments"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []payments.SessionRequest
	err      error
	next     int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.SessionRequest) (*payments.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	g.next++
	id := "cs_test_" + string(rune('a'+g.next-1))
	return &payments.Session{ID: id, URL: "https://checkout.stripe.test/" + id, Status: payments.SessionOpen, Metadata: req.Metadata}, nil
}

func (g *fakeGateway) GetCheckoutSession(context.Context, string) (*payments.Session, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*payments.Event, error) {
	return nil, payments.ErrInvalidSignature
}

func (g *fakeGateway) last() payments.SessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func strPtr(s string) *string { return &s }
