package postgres

import (
	"context"
	"fmt"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const accountColumns = `id, username, email, first_name, last_name, password_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CreateAccount inserts an account; the username is unique.
func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	const q = `INSERT INTO accounts (username, email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := s.db.QueryRow(ctx, q, a.Username, a.Email, a.FirstName, a.LastName, a.PasswordHash).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isCode(err, codeUniqueViolation) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetAccountByLogin returns an account by username or email.
func (s *Store) GetAccountByLogin(ctx context.Context, login string) (*models.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts
		WHERE username = $1 OR (email <> '' AND email = $1) ORDER BY id LIMIT 1`
	return scanAccount(s.db.QueryRow(ctx, q, login))
}

// UpdateAccount updates username, email and names.
func (s *Store) UpdateAccount(ctx context.Context, a *models.Account) error {
	const q = `UPDATE accounts SET username = $1, email = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE id = $5 RETURNING updated_at`
	err := s.db.QueryRow(ctx, q, a.Username, a.Email, a.FirstName, a.LastName, a.ID).Scan(&a.UpdatedAt)
	if isCode(err, codeUniqueViolation) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return notFound(err)
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(tag)
}

// DeleteAccount removes an account; profiles, events and enrollments cascade.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireAffected(tag)
}
