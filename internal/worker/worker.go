package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"PokeShop/internal/metrics"
	"PokeShop/internal/models"
	"PokeShop/internal/payments"
)

type StaleLister interface {
	ListStaleCheckouts(ctx context.Context, before time.Time, limit int) ([]models.PendingCheckout, error)
}

type SessionLookup interface {
	GetCheckoutSession(ctx context.Context, id string) (*payments.Session, error)
}

type Settler interface {
	Complete(ctx context.Context, target payments.Target, paymentIntent string) (payments.Outcome, error)
	Expire(ctx context.Context, target payments.Target) (payments.Outcome, error)
}

// Worker settles PENDING checkouts whose webhook never arrived by asking
// the payment provider for the session state.
type Worker struct {
	Store      StaleLister
	Sessions   SessionLookup
	Reconciler Settler
	Interval   time.Duration
	StaleAfter time.Duration
	BatchSize  int
	Now        func() time.Time
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := w.SyncOnce(ctx); err != nil {
			log.Printf("sync error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce examines one batch of stale checkouts. Per-checkout failures are
// logged and left for the next tick.
func (w *Worker) SyncOnce(ctx context.Context) error {
	now := time.Now().UTC()
	if w.Now != nil {
		now = w.Now()
	}
	pending, err := w.Store.ListStaleCheckouts(ctx, now.Add(-w.StaleAfter), w.BatchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	log.Printf("sync stale checkouts=%d", len(pending))

	for _, pc := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		outcome, err := w.settle(ctx, pc)
		if err != nil {
			log.Printf("settle %s %s (session %s) failed: %v", pc.Kind, pc.ID, pc.SessionID, err)
			outcome = "error"
		}
		metrics.RecordStaleCheckout(outcome)
	}
	return nil
}

func (w *Worker) settle(ctx context.Context, pc models.PendingCheckout) (string, error) {
	target, err := targetOf(pc)
	if err != nil {
		return "", err
	}
	sess, err := w.Sessions.GetCheckoutSession(ctx, pc.SessionID)
	if err != nil {
		return "", fmt.Errorf("fetch session: %w", err)
	}

	switch {
	case sess.Status == payments.SessionComplete && sess.PaymentStatus == "paid":
		out, err := w.Reconciler.Complete(ctx, target, sess.PaymentIntentID)
		if err != nil {
			return "", err
		}
		if out == payments.OutcomeApplied {
			log.Printf("%s %s -> COMPLETED (session %s)", pc.Kind, pc.ID, pc.SessionID)
			return "completed", nil
		}
		return string(out), nil
	case sess.Status == payments.SessionExpired:
		out, err := w.Reconciler.Expire(ctx, target)
		if err != nil {
			return "", err
		}
		if out == payments.OutcomeApplied {
			log.Printf("%s %s -> CANCELLED (session %s)", pc.Kind, pc.ID, pc.SessionID)
			return "cancelled", nil
		}
		return string(out), nil
	case sess.Status == payments.SessionComplete:
		// Delayed payment methods settle later through the webhook.
		return "unpaid", nil
	}
	return "open", nil
}

var errUnknownKind = errors.New("unknown checkout kind")

func targetOf(pc models.PendingCheckout) (payments.Target, error) {
	switch pc.Kind {
	case models.CheckoutOrder:
		return payments.SingleOrder{OrderID: pc.ID, BuyerID: pc.BuyerID}, nil
	case models.CheckoutOrderGroup:
		return payments.OrderGroup{GroupID: pc.ID, BuyerID: pc.BuyerID}, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownKind, pc.Kind)
}
