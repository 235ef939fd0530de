// Package auth mints and verifies the signed access tokens that prove a
// user's identity and role membership for a bounded window.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/server/models"
)

// ClaimPolicy selects the secondary identity claim embedded next to the
// subject: the user's email or their assigned display name.
type ClaimPolicy string

const (
	ClaimPolicyEmail ClaimPolicy = "email"
	ClaimPolicyName  ClaimPolicy = "name"
)

// Valid reports whether p is a known policy value.
func (p ClaimPolicy) Valid() bool {
	return p == ClaimPolicyEmail || p == ClaimPolicyName
}

// Claims carries the subject's identity and role memberships. Either Email
// or Name is set, per the configured ClaimPolicy, never both.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Minter produces HS256-signed access tokens.
type Minter struct {
	secret   []byte
	validity time.Duration
	policy   ClaimPolicy
}

// NewMinter constructs a Minter. An empty secret is a configuration error
// and must never survive past startup.
func NewMinter(secret []byte, validity time.Duration, policy ClaimPolicy) (*Minter, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt: signing secret is empty")
	}
	if !policy.Valid() {
		return nil, errors.New("jwt: unknown claim policy")
	}
	return &Minter{secret: secret, validity: validity, policy: policy}, nil
}

// Mint builds and signs a token for the user with one role entry per role
// held at mint time. It returns the compact token string and its absolute
// expiry (now + validity).
func (m *Minter) Mint(user *models.User, roles []string, now time.Time) (string, time.Time, error) {
	expiry := now.Add(m.validity)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Roles: roles,
	}
	switch m.policy {
	case ClaimPolicyName:
		claims.Name = user.UserName
	default:
		claims.Email = user.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// ParseUserID validates a token string and returns its subject. Expired
// tokens yield common.ErrTokenExpired, anything else invalid yields
// common.ErrInvalidToken.
func (m *Minter) ParseUserID(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
