package store

import (
	"context"

	"PokeShop/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const groupColumns = `g.id, g.buyer_id, g.total_amount, g.status,
	g.stripe_checkout_session_id, g.stripe_payment_intent_id, g.paid_at, g.created_at, g.updated_at`

func scanGroup(row rowScanner) (*models.OrderGroup, error) {
	var g models.OrderGroup
	err := row.Scan(
		&g.ID,
		&g.BuyerID,
		&g.TotalAmount,
		&g.Status,
		&g.CheckoutSessionID,
		&g.PaymentIntentID,
		&g.PaidAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateOrderGroup inserts the group and all of its items in one
// transaction.
func (s *Store) CreateOrderGroup(ctx context.Context, g *models.OrderGroup) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_groups (id, buyer_id, total_amount, status, stripe_checkout_session_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, g.ID, g.BuyerID, g.TotalAmount, g.Status, g.CheckoutSessionID, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			return constraintErr(err)
		}
		for _, it := range g.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, order_group_id, listing_id, seller_id, amount, created_at)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, it.ID, g.ID, it.ListingID, it.SellerID, it.Amount, it.CreatedAt)
			if err != nil {
				return constraintErr(err)
			}
		}
		return nil
	})
}

func (s *Store) SetOrderGroupSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE order_groups SET stripe_checkout_session_id=$2, updated_at=now() WHERE id=$1
	`, id, sessionID)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetOrderGroup(ctx context.Context, id uuid.UUID) (*models.OrderGroup, error) {
	return s.getGroup(ctx, `g.id=$1`, id)
}

func (s *Store) GetOrderGroupBySession(ctx context.Context, sessionID string) (*models.OrderGroup, error) {
	return s.getGroup(ctx, `g.stripe_checkout_session_id=$1`, sessionID)
}

func (s *Store) getGroup(ctx context.Context, where string, arg any) (*models.OrderGroup, error) {
	g, err := scanGroup(s.Pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM order_groups g WHERE `+where, arg))
	if err != nil {
		return nil, notFound(err)
	}
	if g.Items, err = s.listGroupItems(ctx, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) ListOrderGroupsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.OrderGroup, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+groupColumns+` FROM order_groups g WHERE g.buyer_id=$1 ORDER BY g.created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	var groups []*models.OrderGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		if g.Items, err = s.listGroupItems(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *Store) listGroupItems(ctx context.Context, groupID uuid.UUID) ([]*models.OrderItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT i.id, i.order_group_id, i.listing_id, i.seller_id, i.amount, i.created_at, `+listingColumns+`
		FROM order_items i
		JOIN card_listings l ON l.id=i.listing_id
		JOIN users ls ON ls.id=l.seller_id
		WHERE i.order_group_id=$1
		ORDER BY i.created_at, i.id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.OrderItem{}
	for rows.Next() {
		it := &models.OrderItem{Listing: &models.Listing{}}
		dest := append([]any{&it.ID, &it.OrderGroupID, &it.ListingID, &it.SellerID, &it.Amount, &it.CreatedAt}, listingDest(it.Listing)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		it.Listing.Seller.ID = it.Listing.SellerID
		it.Seller = it.Listing.Seller
		items = append(items, it)
	}
	return items, rows.Err()
}
