package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"turfbook/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

const AccessTokenCookie = "accessToken"

var (
	ErrEmptyJWTSecret = errors.New("JWT secret cannot be empty")
	ErrMissingToken   = errors.New("access token is missing")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrMissingSubject = errors.New("token carries no principal id")
)

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	ID   string
	Role string
}

func (p *Principal) IsSuper() bool {
	return p != nil && p.Role == config.SuperRole
}

func (p *Principal) IsAdmin() bool {
	return p != nil && (p.Role == config.AdminRole || p.Role == config.SuperRole)
}

type Claims struct {
	ID   string `json:"id,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// PrincipalID prefers the identity provider's "id" claim and falls back to "sub".
func (c *Claims) PrincipalID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Subject
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}
	return &Verifier{secret: []byte(secret)}, nil
}

func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return v.secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	id := claims.PrincipalID()
	if id == "" {
		return nil, ErrMissingSubject
	}

	return &Principal{ID: id, Role: claims.Role}, nil
}

// TokenFromRequest reads the access token cookie first, then the bearer header.
func TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), "Bearer") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
