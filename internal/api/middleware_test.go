package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerifyAdminToken(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s := signToken(t, secret, "admin@example.com", now.Add(10*time.Minute))

	got, err := VerifyAdminToken(s, secret, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Email != "admin@example.com" {
		t.Fatalf("email mismatch: %q", got.Email)
	}
}

func TestVerifyAdminToken_Expired(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s := signToken(t, secret, "admin@example.com", now.Add(-time.Minute))

	if _, err := VerifyAdminToken(s, secret, now); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyAdminToken_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := signToken(t, "test_secret", "admin@example.com", now.Add(10*time.Minute))

	if _, err := VerifyAdminToken(s, "other_secret", now); err == nil {
		t.Fatal("expected bad signature to be rejected")
	}
}

func TestVerifyAdminToken_MissingSubject(t *testing.T) {
	secret := "test_secret"
	now := time.Unix(1700000000, 0)
	s := signToken(t, secret, "", now.Add(10*time.Minute))

	if _, err := VerifyAdminToken(s, secret, now); err == nil {
		t.Fatal("expected token without subject to be rejected")
	}
}
