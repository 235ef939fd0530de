package auth

import (
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/server/models"
)

func newTestMinter(t *testing.T, policy ClaimPolicy) *Minter {
	t.Helper()
	m, err := NewMinter([]byte("super-secret"), 2*time.Hour, policy)
	if err != nil {
		t.Fatalf("NewMinter error: %v", err)
	}
	return m
}

func parseClaims(t *testing.T, tokenString, secret string) *Claims {
	t.Helper()
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return claims
}

func TestMint_SubjectAndExpiry(t *testing.T) {
	t.Parallel()

	m := newTestMinter(t, ClaimPolicyEmail)
	user := &models.User{ID: "user-123", Email: "a@example.com"}
	now := time.Now()

	tok, expiry, err := m.Mint(user, nil, now)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if want := now.Add(2 * time.Hour); !expiry.Equal(want) {
		t.Fatalf("expiry = %v, want %v", expiry, want)
	}

	claims := parseClaims(t, tok, "super-secret")
	if claims.Subject != "user-123" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	// NumericDate truncates to whole seconds.
	if got := claims.ExpiresAt.Time; got.Sub(expiry) > time.Second || expiry.Sub(got) > time.Second {
		t.Fatalf("claim expiry = %v, want ~%v", got, expiry)
	}
}

func TestMint_RoleSetMatchesHeldRoles(t *testing.T) {
	t.Parallel()

	m := newTestMinter(t, ClaimPolicyEmail)
	user := &models.User{ID: "u1", Email: "a@example.com"}

	tok, _, err := m.Mint(user, []string{"Admin", "User"}, time.Now())
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	claims := parseClaims(t, tok, "super-secret")
	got := append([]string(nil), claims.Roles...)
	sort.Strings(got)
	want := []string{"Admin", "User"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("roles = %v, want %v", got, want)
	}
}

func TestMint_ClaimPolicy(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "u1", Email: "a@example.com", UserName: "AB2C"}

	tok, _, err := newTestMinter(t, ClaimPolicyEmail).Mint(user, nil, time.Now())
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	claims := parseClaims(t, tok, "super-secret")
	if claims.Email != "a@example.com" || claims.Name != "" {
		t.Fatalf("email policy claims = %+v", claims)
	}

	tok, _, err = newTestMinter(t, ClaimPolicyName).Mint(user, nil, time.Now())
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	claims = parseClaims(t, tok, "super-secret")
	if claims.Name != "AB2C" || claims.Email != "" {
		t.Fatalf("name policy claims = %+v", claims)
	}
}

func TestParseUserID_Roundtrip(t *testing.T) {
	t.Parallel()

	m := newTestMinter(t, ClaimPolicyEmail)
	tok, _, err := m.Mint(&models.User{ID: "user-123", Email: "a@example.com"}, nil, time.Now())
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	got, err := m.ParseUserID(tok)
	if err != nil {
		t.Fatalf("ParseUserID error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("userID = %q, want %q", got, "user-123")
	}
}

func TestParseUserID_Expired(t *testing.T) {
	t.Parallel()

	m := newTestMinter(t, ClaimPolicyEmail)
	tok, _, err := m.Mint(&models.User{ID: "u1"}, nil, time.Now().Add(-3*time.Hour))
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = m.ParseUserID(tok)
	if err != common.ErrTokenExpired {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseUserID_WrongSecret(t *testing.T) {
	t.Parallel()

	m := newTestMinter(t, ClaimPolicyEmail)
	tok, _, err := m.Mint(&models.User{ID: "u2"}, nil, time.Now())
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	other, err := NewMinter([]byte("wrong-secret"), time.Hour, ClaimPolicyEmail)
	if err != nil {
		t.Fatalf("NewMinter error: %v", err)
	}
	if _, err := other.ParseUserID(tok); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseUserID_Malformed(t *testing.T) {
	t.Parallel()

	m := newTestMinter(t, ClaimPolicyEmail)
	if _, err := m.ParseUserID("not.a.jwt"); err != common.ErrInvalidToken {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestNewMinter_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewMinter(nil, time.Hour, ClaimPolicyEmail); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestNewMinter_UnknownPolicy(t *testing.T) {
	t.Parallel()

	if _, err := NewMinter([]byte("k"), time.Hour, ClaimPolicy("phone")); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
