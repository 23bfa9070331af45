// Package auth resolves the calling user from a bearer token or, behind a
// trusted gateway, from the forwarded x-user-id header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GatewayHeader is the header set by the API gateway.
const GatewayHeader = "x-user-id"

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Claims is the token contract shared with the identity service.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingToken = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator validates HS256 tokens signed with a shared secret.
type Authenticator struct {
	secret      []byte
	trustHeader bool
}

// New returns an Authenticator. When trustHeader is set, a request carrying
// x-user-id is accepted without a token.
func New(secret string, trustHeader bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), trustHeader: trustHeader}
}

// Authenticate extracts the caller identity from r.
func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	if a.trustHeader {
		if id := strings.TrimSpace(r.Header.Get(GatewayHeader)); id != "" {
			return Identity{UserID: id}, nil
		}
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, ErrMissingToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return Identity{}, ErrMissingToken
	}
	return a.Verify(strings.TrimSpace(raw))
}

// Verify parses and validates a raw token.
func (a *Authenticator) Verify(raw string) (Identity, error) {
	if len(a.secret) == 0 {
		return Identity{}, ErrInvalidToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Sign issues a token for id. Used by tests and local tooling.
func (a *Authenticator) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

type ctxKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// UserID is a shortcut for FromContext(ctx).UserID.
func UserID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.UserID
}
