package store

import (
	"context"
	"errors"
	"time"

	"PokeShop/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const requestColumns = `r.id, r.user_id, r.status, r.reason, r.review_note, r.reviewed_by_id, r.reviewed_at, r.created_at, r.updated_at`

func requestDest(r *models.SellerRequest) []any {
	return []any{
		&r.ID,
		&r.UserID,
		&r.Status,
		&r.Reason,
		&r.ReviewNote,
		&r.ReviewedByID,
		&r.ReviewedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

func scanRequest(row rowScanner) (*models.SellerRequest, error) {
	var r models.SellerRequest
	if err := row.Scan(requestDest(&r)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateSellerRequest(ctx context.Context, r *models.SellerRequest) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO seller_requests (id, user_id, status, reason, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, r.ID, r.UserID, r.Status, r.Reason, r.CreatedAt, r.UpdatedAt)
	return constraintErr(err)
}

func (s *Store) GetPendingSellerRequest(ctx context.Context, userID uuid.UUID) (*models.SellerRequest, error) {
	r, err := scanRequest(s.Pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM seller_requests r
		WHERE r.user_id=$1 AND r.status='PENDING'
		ORDER BY r.created_at DESC LIMIT 1
	`, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

func (s *Store) ListSellerRequestsByUser(ctx context.Context, userID uuid.UUID) ([]*models.SellerRequest, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+requestColumns+` FROM seller_requests r WHERE r.user_id=$1 ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SellerRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListSellerRequests returns requests with their users, newest first,
// optionally narrowed to one status.
func (s *Store) ListSellerRequests(ctx context.Context, status *models.SellerRequestStatus) ([]*models.SellerRequest, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+requestColumns+`, `+userColumns+`
		FROM seller_requests r JOIN users u ON u.id=r.user_id
		WHERE ($1::text IS NULL OR r.status=$1::text)
		ORDER BY r.created_at DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SellerRequest
	for rows.Next() {
		r := &models.SellerRequest{User: &models.User{}}
		u := r.User
		dest := append(requestDest(r),
			&u.ID, &u.Subject, &u.Email, &u.Username, &u.FavoritePokemon,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ApproveSellerRequest resolves a PENDING request as APPROVED and promotes
// its user to SELLER in one transaction. Admins keep their role.
func (s *Store) ApproveSellerRequest(ctx context.Context, id, reviewerID uuid.UUID, note *string, at time.Time) (*models.SellerRequest, error) {
	var out *models.SellerRequest
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		r, err := scanRequest(tx.QueryRow(ctx, `
			UPDATE seller_requests r
			SET status='APPROVED', reviewed_by_id=$2, reviewed_at=$3, review_note=$4, updated_at=$3
			WHERE r.id=$1 AND r.status='PENDING'
			RETURNING `+requestColumns, id, reviewerID, at, note))
		if errors.Is(err, pgx.ErrNoRows) {
			return pendingMiss(ctx, tx, "seller_requests", id)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE users SET role='SELLER', updated_at=$2 WHERE id=$1 AND role <> 'ADMIN'
		`, r.UserID, at); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func (s *Store) RejectSellerRequest(ctx context.Context, id, reviewerID uuid.UUID, note string, at time.Time) (*models.SellerRequest, error) {
	r, err := scanRequest(s.Pool.QueryRow(ctx, `
		UPDATE seller_requests r
		SET status='REJECTED', reviewed_by_id=$2, reviewed_at=$3, review_note=$4, updated_at=$3
		WHERE r.id=$1 AND r.status='PENDING'
		RETURNING `+requestColumns, id, reviewerID, at, note))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pendingMiss(ctx, s.Pool, "seller_requests", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
