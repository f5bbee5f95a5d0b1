// Package postgres provides the PostgreSQL storage implementation backed by pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	// serializableAttempts bounds retries of a serializable transaction that lost a conflict.
	serializableAttempts = 3
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store handles persistence on a pgx pool, or on a transaction when scoped by InTx.
type Store struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

var _ storage.Store = (*Store)(nil)

// New creates a Postgres store. The pool is owned by the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Close is a no-op; the pool is closed by its owner.
func (s *Store) Close() error { return nil }

// InTx runs fn in a transaction. serializable uses SERIALIZABLE isolation and retries
// the whole function when Postgres aborts it with a serialization failure.
func (s *Store) InTx(ctx context.Context, serializable bool, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	opts := pgx.TxOptions{}
	attempts := 1
	if serializable {
		opts.IsoLevel = pgx.Serializable
		attempts = serializableAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = s.runTx(ctx, opts, fn)
		if !isCode(err, codeSerializationFailure) {
			return err
		}
	}
	return err
}

func (s *Store) runTx(ctx context.Context, opts pgx.TxOptions, fn func(tx storage.Store) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(&Store{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
