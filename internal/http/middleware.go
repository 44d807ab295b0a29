package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"PokeShop/internal/auth"
	"PokeShop/internal/models"
	"PokeShop/internal/store"
)

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*auth.Claims, error)
}

type SubjectLookup interface {
	GetUserBySubject(ctx context.Context, subject string) (*models.User, error)
}

// Authenticator verifies bearer tokens and attaches the caller's profile.
type Authenticator struct {
	Verifier TokenVerifier
	Users    SubjectLookup
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	// Browsers cannot set headers on websocket upgrades.
	return r.URL.Query().Get("access_token")
}

// Authenticate rejects requests without a valid token. A caller without a
// profile passes with a nil user; deactivated accounts are refused.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "Invalid or missing token")
			return
		}
		claims, err := a.Verifier.Verify(r.Context(), raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or missing token")
			return
		}

		user, err := a.Users.GetUserBySubject(r.Context(), claims.Subject)
		switch {
		case errors.Is(err, store.ErrNotFound):
			user = nil
		case err != nil:
			log.Printf("attach user %s: %v", claims.Subject, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		case !user.IsActive:
			writeError(w, http.StatusForbidden, "Account has been deactivated")
			return
		}

		ctx := auth.WithUser(auth.WithClaims(r.Context(), claims), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireProfile refuses callers that have not created a profile yet.
func RequireProfile(msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.UserFrom(r.Context()) == nil {
				writeError(w, http.StatusForbidden, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := auth.UserFrom(r.Context())
			if u == nil {
				writeError(w, http.StatusForbidden, "Profile setup required")
				return
			}
			if !u.Role.Allows(required) {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cors(allowed []string) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		origins[strings.TrimRight(o, "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (wildcard || origins[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Stripe-Signature")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
