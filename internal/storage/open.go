package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rickgao/easybook-chat/internal/config"
	"github.com/rickgao/easybook-chat/internal/database"
	"github.com/rickgao/easybook-chat/internal/session"
)

// Open builds the store selected by cfg. The returned close function is never nil.
// The memory driver returns a nil store, which keeps history in memory only.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (session.Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("chat history kept in memory only")
		return nil, noop, nil

	case config.DriverFile:
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("chat history stored in files", "dir", cfg.Path)
		return s, noop, nil

	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
				return nil, noop, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("chat history stored in sqlite", "path", cfg.Path)
		return s, func() { s.Close() }, nil

	case config.DriverPostgres:
		logger.Info("connecting to database",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		s, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil
	}

	return nil, noop, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
