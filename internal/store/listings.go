package store

import (
	"context"

	"PokeShop/internal/models"

	"github.com/google/uuid"
)

const listingColumns = `l.id, l.seller_id, l.card_name, l.set_name, l.price, l.image_url, l.status, l.created_at, l.updated_at, ls.username`

const listingFrom = ` FROM card_listings l JOIN users ls ON ls.id=l.seller_id`

func listingDest(l *models.Listing) []any {
	l.Seller = &models.UserRef{}
	return []any{
		&l.ID,
		&l.SellerID,
		&l.CardName,
		&l.SetName,
		&l.Price,
		&l.ImageURL,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.Seller.Username,
	}
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	if err := row.Scan(listingDest(&l)...); err != nil {
		return nil, err
	}
	l.Seller.ID = l.SellerID
	return &l, nil
}

func (s *Store) queryListings(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) CreateListing(ctx context.Context, l *models.Listing) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO card_listings (id, seller_id, card_name, set_name, price, image_url, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		l.ID,
		l.SellerID,
		l.CardName,
		l.SetName,
		l.Price,
		l.ImageURL,
		l.Status,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return constraintErr(err)
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+listingColumns+listingFrom+` WHERE l.id=$1`, id)
	l, err := scanListing(row)
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

// ListListingsBySeller returns the seller's listings newest first,
// optionally narrowed to one status.
func (s *Store) ListListingsBySeller(ctx context.Context, sellerID uuid.UUID, status *models.ListingStatus) ([]*models.Listing, error) {
	return s.queryListings(ctx, `SELECT `+listingColumns+listingFrom+`
		WHERE l.seller_id=$1 AND ($2::text IS NULL OR l.status=$2::text)
		ORDER BY l.created_at DESC`, sellerID, status)
}

func (s *Store) ListListingsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Listing, error) {
	return s.queryListings(ctx, `SELECT `+listingColumns+listingFrom+`
		WHERE l.id = ANY($1::uuid[])`, uuidStrings(ids))
}

func (s *Store) UpdateListing(ctx context.Context, l *models.Listing) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE card_listings
		SET card_name=$2, set_name=$3, price=$4, image_url=$5, status=$6, updated_at=$7
		WHERE id=$1
	`, l.ID, l.CardName, l.SetName, l.Price, l.ImageURL, l.Status, l.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteListing returns ErrConflict when orders still reference the listing.
func (s *Store) DeleteListing(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM card_listings WHERE id=$1`, id)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
