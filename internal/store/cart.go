package store

import (
	"context"

	"PokeShop/internal/models"

	"github.com/google/uuid"
)

func (s *Store) ListCartItems(ctx context.Context, userID uuid.UUID) ([]*models.CartItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT c.id, c.user_id, c.listing_id, c.added_at, `+listingColumns+`
		FROM cart_items c
		JOIN card_listings l ON l.id=c.listing_id
		JOIN users ls ON ls.id=l.seller_id
		WHERE c.user_id=$1
		ORDER BY c.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{Listing: &models.Listing{}}
		dest := append([]any{&item.ID, &item.UserID, &item.ListingID, &item.AddedAt}, listingDest(item.Listing)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		item.Listing.Seller.ID = item.Listing.SellerID
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCartItems(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	return err
}

func (s *Store) GetCartItem(ctx context.Context, userID, listingID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, listing_id, added_at FROM cart_items WHERE user_id=$1 AND listing_id=$2
	`, userID, listingID).Scan(&item.ID, &item.UserID, &item.ListingID, &item.AddedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) AddCartItem(ctx context.Context, item *models.CartItem) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, listing_id, added_at) VALUES ($1,$2,$3,$4)
	`, item.ID, item.UserID, item.ListingID, item.AddedAt)
	return constraintErr(err)
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, listingID uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND listing_id=$2`, userID, listingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
