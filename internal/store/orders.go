package store

import (
	"context"

	"PokeShop/internal/models"

	"github.com/google/uuid"
)

const orderColumns = `o.id, o.buyer_id, o.seller_id, o.listing_id, o.amount, o.status,
	o.stripe_checkout_session_id, o.stripe_payment_intent_id, o.paid_at, o.created_at, o.updated_at`

const orderSelect = `SELECT ` + orderColumns + `, ` + listingColumns + `, ob.username
	FROM orders o
	JOIN card_listings l ON l.id=o.listing_id
	JOIN users ls ON ls.id=l.seller_id
	JOIN users ob ON ob.id=o.buyer_id`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := models.Order{Listing: &models.Listing{}, Buyer: &models.UserRef{}}
	dest := []any{
		&o.ID,
		&o.BuyerID,
		&o.SellerID,
		&o.ListingID,
		&o.Amount,
		&o.Status,
		&o.CheckoutSessionID,
		&o.PaymentIntentID,
		&o.PaidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	dest = append(dest, listingDest(o.Listing)...)
	dest = append(dest, &o.Buyer.Username)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.Listing.Seller.ID = o.Listing.SellerID
	o.Buyer.ID = o.BuyerID
	o.Seller = &models.UserRef{ID: o.SellerID, Username: o.Listing.Seller.Username}
	return &o, nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO orders (
			id, buyer_id, seller_id, listing_id, amount, status,
			stripe_checkout_session_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		o.ID,
		o.BuyerID,
		o.SellerID,
		o.ListingID,
		o.Amount,
		o.Status,
		o.CheckoutSessionID,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return constraintErr(err)
}

func (s *Store) SetOrderSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET stripe_checkout_session_id=$2, updated_at=now() WHERE id=$1
	`, id, sessionID)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx, orderSelect+` WHERE o.id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *Store) GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx, orderSelect+` WHERE o.stripe_checkout_session_id=$1`, sessionID))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*models.Order, error) {
	return s.queryOrders(ctx, orderSelect+` WHERE o.buyer_id=$1 ORDER BY o.created_at DESC`, buyerID)
}

// ListSalesBySeller returns the seller's completed orders, most recently
// paid first.
func (s *Store) ListSalesBySeller(ctx context.Context, sellerID uuid.UUID) ([]*models.Order, error) {
	return s.queryOrders(ctx, orderSelect+`
		WHERE o.seller_id=$1 AND o.status='COMPLETED'
		ORDER BY o.paid_at DESC`, sellerID)
}
