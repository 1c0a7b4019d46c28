package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"task-tracker/internal/api"
	"task-tracker/internal/config"
	"task-tracker/internal/repository/sqlite"
	"task-tracker/internal/services"
)

// Environment represents the current environment
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// StoreFactory opens stores based on environment
type StoreFactory struct {
	env Environment
}

// NewStoreFactory creates a new store factory for the given environment
func NewStoreFactory(env Environment) *StoreFactory {
	return &StoreFactory{env: env}
}

// OpenStore opens a store for the current environment
func (sf *StoreFactory) OpenStore(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (*sqlite.Store, error) {
	switch sf.env {
	case Development:
		// Development keeps the database next to the working directory.
		store, err := sqlite.Open(ctx, "tk.db", logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize development database: %w", err)
		}
		return store, nil
	case Testing:
		return config.OpenTestStore(ctx, logger)
	default:
		return config.OpenStore(ctx, cfg, logger)
	}
}

// API opens the store and builds the API on top of it. It satisfies
// cli.APIFactory.
func (sf *StoreFactory) API(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (api.API, func() error, error) {
	store, err := sf.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ops := services.NewOperationService(store, logger)
	return api.New(ops, cfg), store.Close, nil
}

// getEnvironment determines the current environment
func getEnvironment() Environment {
	switch os.Getenv("TK_ENV") {
	case "development":
		return Development
	case "testing":
		return Testing
	default:
		// Default to production for safety
		return Production
	}
}
