// Package testutil provides shared test fixtures for the rulesmith packages.
// It offers an isolated in-memory store and builders for rule data.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
	"github.com/Veraticus/rulesmith/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with the given
// live rules. It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewRule("r1", testutil.WithScope(model.ScopeTeam, "core")),
//	)
func SetupTestDB(t *testing.T, rules ...model.Rule) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Rules: rules})
}

// TestDBOptions lists the rows seeded before a test runs.
type TestDBOptions struct {
	Rules     []model.Rule
	Proposals []model.Proposal
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range opts.Rules {
		if err := store.InsertRule(ctx, &opts.Rules[i]); err != nil {
			t.Fatalf("failed to seed rule %q: %v", opts.Rules[i].ID, err)
		}
	}
	for i := range opts.Proposals {
		if err := store.CreateProposal(ctx, &opts.Proposals[i]); err != nil {
			t.Fatalf("failed to seed proposal %q: %v", opts.Proposals[i].ID, err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustGetRule returns the live rule with the given ID or fails the test.
func (db *TestDB) MustGetRule(id string) *model.Rule {
	db.t.Helper()
	rule, err := db.Storage.GetRule(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get rule %q: %v", id, err)
	}
	return rule
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
