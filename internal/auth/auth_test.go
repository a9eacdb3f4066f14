package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)

	token, exp, err := ti.Generate(42, "official")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry must be in the future, got %v", exp)
	}

	claims, err := ti.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "official" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, _, _ := NewTokenIssuer("a", time.Hour).Generate(1, "citizen")
	if _, err := NewTokenIssuer("b", time.Hour).Parse(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestTokenExpired(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Minute)
	ti.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := ti.Generate(1, "citizen")
	if err != nil {
		t.Fatal(err)
	}

	ti.now = time.Now
	_, err = ti.Parse(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	hash, err := HashPassword("Citizen123!")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "Citizen123!") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "citizen123!") {
		t.Error("wrong password accepted")
	}
}
