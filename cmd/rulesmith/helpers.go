package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/config"
	"github.com/Veraticus/rulesmith/internal/engine"
	"github.com/Veraticus/rulesmith/internal/storage"
)

// envKeyReplacer maps nested keys onto env names: database.path -> RULESMITH_DATABASE_PATH.
var envKeyReplacer = strings.NewReplacer(".", "_")

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	if err := ensureDatabaseDir(cfg.Database.Path); err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// ensureDatabaseDir creates the directory holding the database file.
func ensureDatabaseDir(path string) error {
	if path == config.MemoryDatabase {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// newEngine builds the lifecycle engine from configuration. A nil registerer
// leaves the metrics unregistered.
func newEngine(store *storage.SQLiteStorage, cfg config.Config, reg prometheus.Registerer) *engine.Engine {
	engineCfg := engine.DefaultConfig()
	engineCfg.Registerer = reg
	engineCfg.ConflictExemptTypes = cfg.Lifecycle.ConflictExemptTypes
	return engine.NewWithConfig(store, engineCfg)
}

// openEngine loads configuration, opens storage and returns an engine with a
// cleanup function that closes the store.
func openEngine(ctx context.Context) (*engine.Engine, config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, config.Config{}, nil, common.NewUserError("cannot open rule database "+cfg.Database.Path, err)
	}

	return newEngine(store, cfg, nil), cfg, func() { _ = store.Close() }, nil
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(raw string) []string {
	var values []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	return values
}
