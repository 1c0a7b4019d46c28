package config

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"task-tracker/internal/repository/sqlite"
)

// OpenStore opens the store at the configured database path, creating its
// directory when needed.
func OpenStore(ctx context.Context, config *Config, logger log.FieldLogger) (*sqlite.Store, error) {
	if err := os.MkdirAll(config.Database.Dir, os.FileMode(config.Database.DirPermissions)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := sqlite.Open(ctx, config.GetDatabasePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// OpenTestStore opens an in-memory store for testing
func OpenTestStore(ctx context.Context, logger log.FieldLogger) (*sqlite.Store, error) {
	store, err := sqlite.Open(ctx, sqlite.MemoryDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}

	return store, nil
}
