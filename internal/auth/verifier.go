package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("auth: invalid token")

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type Options struct {
	JWKSURL  string
	Issuer   string
	Audience string
	// DevSecret accepts HS256 tokens signed with this secret.
	DevSecret string
}

type Verifier struct {
	jwks   *JWKS
	secret []byte
	opts   []jwt.ParserOption
}

func NewVerifier(o Options) *Verifier {
	v := &Verifier{}
	if o.JWKSURL != "" {
		v.jwks = NewJWKS(o.JWKSURL)
	}
	if o.DevSecret != "" {
		v.secret = []byte(o.DevSecret)
	}

	var methods []string
	if v.jwks != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if v.secret != nil {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	v.opts = []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if o.Issuer != "" {
		v.opts = append(v.opts, jwt.WithIssuer(o.Issuer))
	}
	if o.Audience != "" {
		v.opts = append(v.opts, jwt.WithAudience(o.Audience))
	}
	return v
}

// Verify checks the token signature and registered claims and returns the
// claims. The subject is always non-empty on success.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			kid, _ := t.Header["kid"].(string)
			return v.jwks.Key(ctx, kid)
		case *jwt.SigningMethodHMAC:
			return v.secret, nil
		}
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
