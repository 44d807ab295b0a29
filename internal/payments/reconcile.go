package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"PokeShop/internal/events"
	"PokeShop/internal/models"
	"PokeShop/internal/notify"
	"PokeShop/internal/store"

	"github.com/google/uuid"
)

type Outcome string

const (
	// OutcomeApplied means a PENDING order or group changed state.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoop means the target was already terminal or unknown.
	OutcomeNoop Outcome = "noop"
	// OutcomeIgnored means the event is not one we act on.
	OutcomeIgnored Outcome = "ignored"
)

// ReconcileStore applies guarded PENDING transitions. Implementations return
// store.ErrNotPending when the row already left PENDING and
// store.ErrNotFound when it does not exist.
type ReconcileStore interface {
	CompleteOrder(ctx context.Context, id uuid.UUID, paymentIntent string, paidAt time.Time) (*models.Order, error)
	CompleteOrderGroup(ctx context.Context, id uuid.UUID, paymentIntent string, paidAt time.Time) (*models.OrderGroup, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CancelOrderGroup(ctx context.Context, id uuid.UUID) (*models.OrderGroup, error)
}

// Reconciler turns checkout outcomes into order state. It is shared by the
// webhook handler and the stale-checkout worker.
type Reconciler struct {
	Store    ReconcileStore
	Events   events.Publisher
	Notifier notify.Notifier
	Now      func() time.Time
}

func NewReconciler(st ReconcileStore, pub events.Publisher, n notify.Notifier) *Reconciler {
	if pub == nil {
		pub = events.Nop{}
	}
	if n == nil {
		n = notify.Nop{}
	}
	return &Reconciler{Store: st, Events: pub, Notifier: n, Now: func() time.Time { return time.Now().UTC() }}
}

// HandleEvent dispatches a verified webhook event. A returned error means
// the provider should retry the delivery.
func (r *Reconciler) HandleEvent(ctx context.Context, ev *Event) (Outcome, error) {
	switch ev.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
	default:
		return OutcomeIgnored, nil
	}
	if ev.Session == nil {
		log.Printf("webhook %s: %s without session payload", ev.ID, ev.Type)
		return OutcomeNoop, nil
	}

	target, err := DecodeTarget(ev.Session.Metadata)
	if err != nil {
		log.Printf("webhook %s: session %s: %v", ev.ID, ev.Session.ID, err)
		return OutcomeNoop, nil
	}

	if ev.Type == EventCheckoutCompleted {
		return r.Complete(ctx, target, ev.Session.PaymentIntentID)
	}
	return r.Expire(ctx, target)
}

// Complete moves target from PENDING to COMPLETED.
func (r *Reconciler) Complete(ctx context.Context, target Target, paymentIntent string) (Outcome, error) {
	paidAt := r.Now()
	switch t := target.(type) {
	case SingleOrder:
		o, err := r.Store.CompleteOrder(ctx, t.OrderID, paymentIntent, paidAt)
		if out, done, err := r.settle(err, "order", t.OrderID, "complete"); done {
			return out, err
		}
		log.Printf("order %s completed (payment %s)", o.ID, paymentIntent)
		r.publish(ctx, events.New(events.OrderCompleted, o.ID, o))
		r.Notifier.Notify(o.BuyerID, notify.Message{Type: "order.updated", Data: o})
		r.Notifier.Notify(o.SellerID, notify.Message{Type: "sale.completed", Data: o})
		return OutcomeApplied, nil

	case OrderGroup:
		g, err := r.Store.CompleteOrderGroup(ctx, t.GroupID, paymentIntent, paidAt)
		if out, done, err := r.settle(err, "order group", t.GroupID, "complete"); done {
			return out, err
		}
		log.Printf("order group %s completed (%d items, payment %s)", g.ID, len(g.Items), paymentIntent)
		r.publish(ctx, events.New(events.OrderGroupCompleted, g.ID, g))
		r.Notifier.Notify(g.BuyerID, notify.Message{Type: "order_group.updated", Data: g})
		notified := map[uuid.UUID]bool{}
		for _, it := range g.Items {
			if notified[it.SellerID] {
				continue
			}
			notified[it.SellerID] = true
			r.Notifier.Notify(it.SellerID, notify.Message{Type: "sale.completed", Data: it})
		}
		return OutcomeApplied, nil
	}
	return OutcomeNoop, fmt.Errorf("unsupported target %T", target)
}

// Expire moves target from PENDING to CANCELLED. Listings are untouched.
func (r *Reconciler) Expire(ctx context.Context, target Target) (Outcome, error) {
	switch t := target.(type) {
	case SingleOrder:
		o, err := r.Store.CancelOrder(ctx, t.OrderID)
		if out, done, err := r.settle(err, "order", t.OrderID, "cancel"); done {
			return out, err
		}
		log.Printf("order %s cancelled (checkout expired)", o.ID)
		r.publish(ctx, events.New(events.OrderCancelled, o.ID, o))
		r.Notifier.Notify(o.BuyerID, notify.Message{Type: "order.updated", Data: o})
		return OutcomeApplied, nil

	case OrderGroup:
		g, err := r.Store.CancelOrderGroup(ctx, t.GroupID)
		if out, done, err := r.settle(err, "order group", t.GroupID, "cancel"); done {
			return out, err
		}
		log.Printf("order group %s cancelled (checkout expired)", g.ID)
		r.publish(ctx, events.New(events.OrderGroupCancelled, g.ID, g))
		r.Notifier.Notify(g.BuyerID, notify.Message{Type: "order_group.updated", Data: g})
		return OutcomeApplied, nil
	}
	return OutcomeNoop, fmt.Errorf("unsupported target %T", target)
}

// settle classifies a transition error. done is false only on success.
func (r *Reconciler) settle(err error, kind string, id uuid.UUID, action string) (Outcome, bool, error) {
	switch {
	case err == nil:
		return "", false, nil
	case errors.Is(err, store.ErrNotPending):
		log.Printf("%s %s: %s skipped, already terminal", kind, id, action)
		return OutcomeNoop, true, nil
	case errors.Is(err, store.ErrNotFound):
		log.Printf("%s %s: %s skipped, not found", kind, id, action)
		return OutcomeNoop, true, nil
	default:
		return "", true, fmt.Errorf("%s %s %s: %w", action, kind, id, err)
	}
}

func (r *Reconciler) publish(ctx context.Context, ev events.Event) {
	if err := r.Events.Publish(ctx, ev); err != nil {
		log.Printf("publish %s %s: %v", ev.Type, ev.Key, err)
	}
}
