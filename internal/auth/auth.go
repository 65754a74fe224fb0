// Package auth checks administrator bearer tokens.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/a3tai/mcp-pdf-signer/internal/errors"
)

// RoleAdmin is the role claim required on administrator tokens
const RoleAdmin = "admin"

// DefaultTTL is the lifetime of minted tokens
const DefaultTTL = 12 * time.Hour

// AdminClaims are the claims of an administrator token
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Gate verifies HS256 administrator tokens signed with a shared secret
type Gate struct {
	secret []byte
}

// NewGate creates a gate. A gate without a secret denies every token.
func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(secret)}
}

// Enabled reports whether the gate can accept any token
func (g *Gate) Enabled() bool {
	return len(g.secret) > 0
}

// Authenticate verifies a token and returns the administrator subject
func (g *Gate) Authenticate(token string) (string, error) {
	if !g.Enabled() {
		return "", errors.New(errors.ErrorTypeUnauthorized, "administrator access is not configured")
	}
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", errors.New(errors.ErrorTypeUnauthorized, "administrator token is required")
	}

	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeUnauthorized, err, "administrator token is invalid")
	}
	if !parsed.Valid {
		return "", errors.New(errors.ErrorTypeUnauthorized, "administrator token is invalid")
	}

	if claims.Role != RoleAdmin {
		return "", errors.New(errors.ErrorTypeUnauthorized, "token does not carry the admin role")
	}
	if claims.Subject == "" {
		return "", errors.New(errors.ErrorTypeUnauthorized, "token has no subject")
	}
	return claims.Subject, nil
}

// Mint signs an administrator token for subject
func (g *Gate) Mint(subject string, ttl time.Duration, now time.Time) (string, error) {
	if !g.Enabled() {
		return "", fmt.Errorf("admin secret is not configured")
	}
	if subject == "" {
		return "", fmt.Errorf("subject cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}
