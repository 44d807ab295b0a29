package auth

import (
	"context"

	"PokeShop/internal/models"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	userKey
)

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// WithUser attaches the database profile of the caller. u may be nil when
// the caller has a valid token but no profile yet.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
