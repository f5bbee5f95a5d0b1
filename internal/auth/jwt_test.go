package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	s := NewJWTService("secret", 1)
	token, err := s.Generate(42, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := s.Validate(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.AccountID != 42 || claims.Email != "a@example.com" || claims.Subject != "42" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestJWTRejects(t *testing.T) {
	s := NewJWTService("secret", 1)
	token, _ := s.Generate(1, "a@example.com")

	if _, err := NewJWTService("other", 1).Validate(token); err != ErrInvalidToken {
		t.Fatalf("wrong secret: %v", err)
	}
	if _, err := s.Validate("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("garbage: %v", err)
	}

	later := NewJWTService("secret", 1)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := later.Validate(token); err != ErrInvalidToken {
		t.Fatalf("expired: %v", err)
	}
}
