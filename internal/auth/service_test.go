package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/sqlite"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/storagetest"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/utils"
)

func newAccount(t *testing.T, s *sqlite.Store, username, email, password string) *models.Account {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	a := &models.Account{Username: username, Email: email, PasswordHash: hash}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestLogin(t *testing.T) {
	store := storagetest.Open(t)
	jwt := NewJWTService("secret", 1)
	svc := NewService(store, jwt, nil)
	acc := newAccount(t, store, "maria", "maria@example.com", "senha-forte")

	for _, login := range []string{"maria", "maria@example.com"} {
		token, got, err := svc.Login(context.Background(), login, "senha-forte")
		if err != nil {
			t.Fatalf("login %q: %v", login, err)
		}
		if got.ID != acc.ID {
			t.Fatalf("account = %d", got.ID)
		}
		claims, err := jwt.Validate(token)
		if err != nil || claims.AccountID != acc.ID {
			t.Fatalf("token claims = %+v, %v", claims, err)
		}
	}
	if _, _, err := svc.Login(context.Background(), "maria", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ninguem", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	svc := NewService(store, NewJWTService("secret", 1), nil)
	a := newAccount(t, store, "ana", "ana@example.com", "12345678")
	newAccount(t, store, "bruno", "bruno@example.com", "12345678")
	v := identity.Viewer{AccountID: a.ID}

	first := "Ana"
	got, err := svc.UpdateAccount(ctx, v, AccountUpdate{FirstName: &first})
	if err != nil {
		t.Fatal(err)
	}
	if got.FirstName != "Ana" || got.Username != "ana" {
		t.Fatalf("got %+v", got)
	}

	taken := "bruno"
	if _, err := svc.UpdateAccount(ctx, v, AccountUpdate{Username: &taken}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("taken username: %v", err)
	}
	bad := "not-an-email"
	if _, err := svc.UpdateAccount(ctx, v, AccountUpdate{Email: &bad}); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("bad email: %v", err)
	}
	if _, err := svc.UpdateAccount(ctx, identity.Anonymous(), AccountUpdate{}); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Fatalf("anonymous: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	store := storagetest.Open(t)
	svc := NewService(store, NewJWTService("secret", 1), nil)
	a := newAccount(t, store, "caio", "caio@example.com", "antiga123")
	v := identity.Viewer{AccountID: a.ID}

	if err := svc.ChangePassword(ctx, v, "errada", "novasenha1"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong current: %v", err)
	}
	if err := svc.ChangePassword(ctx, v, "antiga123", "curta"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak: %v", err)
	}
	if err := svc.ChangePassword(ctx, v, "antiga123", "novasenha1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "caio", "novasenha1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "caio", "antiga123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
}
