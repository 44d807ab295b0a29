package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PokeShop/internal/models"

	"github.com/google/uuid"
)

const userColumns = `u.id, u.auth0_id, u.email, u.username, u.favorite_pokemon, u.role, u.is_active, u.created_at, u.updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Subject,
		&u.Email,
		&u.Username,
		&u.FavoritePokemon,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, "u.id=$1", id)
}

func (s *Store) GetUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	return s.getUser(ctx, "u.auth0_id=$1", subject)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "u.username=$1", username)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO users (id, auth0_id, email, username, favorite_pokemon, role, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Subject,
		u.Email,
		u.Username,
		u.FavoritePokemon,
		u.Role,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return constraintErr(err)
}

// UpdateUserProfile writes the user-editable profile fields.
func (s *Store) UpdateUserProfile(ctx context.Context, u *models.User) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE users SET username=$2, favorite_pokemon=$3, updated_at=$4 WHERE id=$1
	`, u.ID, u.Username, u.FavoritePokemon, u.UpdatedAt)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE users u SET is_active=$2, updated_at=$3 WHERE u.id=$1
		RETURNING `+userColumns, id, active, time.Now().UTC())
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE users u SET role=$2, updated_at=$3 WHERE u.id=$1
		RETURNING `+userColumns, id, role, time.Now().UTC())
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	var (
		where []string
		args  []any
	)
	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("u.role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("u.is_active=$%d", len(args)))
	}
	query := `SELECT ` + userColumns + ` FROM users u`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY u.created_at DESC`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListSellers returns active sellers and admins ordered by username, with
// their ACTIVE listing counts. exclude, when set, is left out.
func (s *Store) ListSellers(ctx context.Context, exclude *uuid.UUID) ([]*models.SellerSummary, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT u.id, u.username, u.favorite_pokemon, u.created_at,
			COUNT(l.id) FILTER (WHERE l.status='ACTIVE')
		FROM users u
		LEFT JOIN card_listings l ON l.seller_id=u.id
		WHERE u.role IN ('SELLER','ADMIN') AND u.is_active
			AND ($1::uuid IS NULL OR u.id <> $1::uuid)
		GROUP BY u.id
		ORDER BY u.username
	`, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SellerSummary
	for rows.Next() {
		var sm models.SellerSummary
		if err := rows.Scan(&sm.ID, &sm.Username, &sm.FavoritePokemon, &sm.CreatedAt, &sm.ActiveListings); err != nil {
			return nil, err
		}
		out = append(out, &sm)
	}
	return out, rows.Err()
}
