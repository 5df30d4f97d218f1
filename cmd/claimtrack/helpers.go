package main

import (
	"context"
	"fmt"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/config"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/service"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/storage"
)

// initStorage opens the configured database and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
