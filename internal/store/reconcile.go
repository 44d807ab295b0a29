package store

import (
	"context"
	"errors"
	"time"

	"PokeShop/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CompleteOrder moves a PENDING order to COMPLETED and its listing to SOLD in
// one transaction. Orders that already left PENDING yield ErrNotPending and
// nothing is written.
func (s *Store) CompleteOrder(ctx context.Context, id uuid.UUID, paymentIntent string, paidAt time.Time) (*models.Order, error) {
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		var listingID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE orders
			SET status='COMPLETED', stripe_payment_intent_id=$2, paid_at=$3, updated_at=$3
			WHERE id=$1 AND status='PENDING'
			RETURNING listing_id
		`, id, nilIfEmpty(paymentIntent), paidAt).Scan(&listingID)
		if errors.Is(err, pgx.ErrNoRows) {
			return pendingMiss(ctx, tx, "orders", id)
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE card_listings SET status='SOLD', updated_at=$2 WHERE id=$1`, listingID, paidAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// CompleteOrderGroup moves a PENDING group to COMPLETED, marks every item's
// listing SOLD and drops those listings from the buyer's cart, atomically.
func (s *Store) CompleteOrderGroup(ctx context.Context, id uuid.UUID, paymentIntent string, paidAt time.Time) (*models.OrderGroup, error) {
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		var buyerID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE order_groups
			SET status='COMPLETED', stripe_payment_intent_id=$2, paid_at=$3, updated_at=$3
			WHERE id=$1 AND status='PENDING'
			RETURNING buyer_id
		`, id, nilIfEmpty(paymentIntent), paidAt).Scan(&buyerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return pendingMiss(ctx, tx, "order_groups", id)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE card_listings SET status='SOLD', updated_at=$2
			WHERE id IN (SELECT listing_id FROM order_items WHERE order_group_id=$1)
		`, id, paidAt); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			DELETE FROM cart_items
			WHERE user_id=$2 AND listing_id IN (SELECT listing_id FROM order_items WHERE order_group_id=$1)
		`, id, buyerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrderGroup(ctx, id)
}

// CancelOrder moves a PENDING order to CANCELLED. The listing is untouched.
func (s *Store) CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET status='CANCELLED', updated_at=now() WHERE id=$1 AND status='PENDING'
	`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pendingMiss(ctx, s.Pool, "orders", id)
	}
	return s.GetOrder(ctx, id)
}

func (s *Store) CancelOrderGroup(ctx context.Context, id uuid.UUID) (*models.OrderGroup, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE order_groups SET status='CANCELLED', updated_at=now() WHERE id=$1 AND status='PENDING'
	`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, pendingMiss(ctx, s.Pool, "order_groups", id)
	}
	return s.GetOrderGroup(ctx, id)
}

// ListStaleCheckouts returns PENDING orders and groups with a checkout
// session that were created before the cutoff, oldest first.
func (s *Store) ListStaleCheckouts(ctx context.Context, before time.Time, limit int) ([]models.PendingCheckout, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT kind, id, buyer_id, session_id, created_at FROM (
			SELECT 'order' AS kind, id, buyer_id, stripe_checkout_session_id AS session_id, created_at
			FROM orders
			WHERE status='PENDING' AND stripe_checkout_session_id IS NOT NULL AND created_at < $1
			UNION ALL
			SELECT 'order_group', id, buyer_id, stripe_checkout_session_id, created_at
			FROM order_groups
			WHERE status='PENDING' AND stripe_checkout_session_id IS NOT NULL AND created_at < $1
		) p
		ORDER BY created_at
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PendingCheckout
	for rows.Next() {
		var pc models.PendingCheckout
		if err := rows.Scan(&pc.Kind, &pc.ID, &pc.BuyerID, &pc.SessionID, &pc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
