// Package backend opens the store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/config"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/postgres"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/sqlite"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/database"
)

// Open connects to the configured database, applies migrations and returns the store
// with a function releasing its connections.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("SQLite store opened", zap.String("path", cfg.SQLitePath))
		return s, func() { _ = s.Close() }, nil
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DSN(), cfg.MaxConns, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
