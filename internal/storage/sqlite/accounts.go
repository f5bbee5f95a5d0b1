package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const accountColumns = `id, username, email, first_name, last_name, password_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	var created, updated int64
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &created, &updated); err != nil {
		return nil, notFound(err)
	}
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return &a, nil
}

// CreateAccount inserts an account; the username is unique.
func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, first_name, last_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Username, a.Email, a.FirstName, a.LastName, a.PasswordHash, toMillis(now), toMillis(now))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create account id: %w", err)
	}
	a.ID = id
	a.CreatedAt = fromMillis(toMillis(now))
	a.UpdatedAt = a.CreatedAt
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

// GetAccountByLogin returns an account by username or email.
func (s *Store) GetAccountByLogin(ctx context.Context, login string) (*models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ? OR (email <> '' AND email = ?) ORDER BY id LIMIT 1`,
		login, login))
}

// UpdateAccount updates username, email and names.
func (s *Store) UpdateAccount(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, email = ?, first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
		a.Username, a.Email, a.FirstName, a.LastName, toMillis(now), a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update account: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	a.UpdatedAt = fromMillis(toMillis(now))
	return nil
}

// UpdatePassword replaces the password hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res)
}

// DeleteAccount removes an account; profiles, events and enrollments cascade.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireAffected(res)
}
