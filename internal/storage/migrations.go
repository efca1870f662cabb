package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS rules (
					id TEXT PRIMARY KEY,
					rule_type TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					diff TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'approved',
					submitted_by TEXT NOT NULL DEFAULT '',
					added_by TEXT NOT NULL DEFAULT '',
					project TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					version INTEGER NOT NULL DEFAULT 1 CHECK (version >= 1),
					categories TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '',
					examples TEXT NOT NULL DEFAULT '',
					applies_to TEXT NOT NULL DEFAULT '',
					applies_to_rationale TEXT NOT NULL DEFAULT '',
					user_story TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX idx_rules_rule_type ON rules(rule_type)`,
				`CREATE INDEX idx_rules_project ON rules(project)`,

				`CREATE TABLE IF NOT EXISTS proposals (
					id TEXT PRIMARY KEY,
					rule_id TEXT,
					rule_type TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					diff TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'pending',
					submitted_by TEXT NOT NULL DEFAULT '',
					project TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					categories TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '',
					examples TEXT NOT NULL DEFAULT '',
					applies_to TEXT NOT NULL DEFAULT '',
					applies_to_rationale TEXT NOT NULL DEFAULT '',
					reason_for_change TEXT NOT NULL DEFAULT '',
					"references" TEXT NOT NULL DEFAULT '',
					current_rule TEXT NOT NULL DEFAULT '',
					user_story TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX idx_proposals_status ON proposals(status)`,

				`CREATE TABLE IF NOT EXISTS rule_versions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					rule_id TEXT NOT NULL,
					version INTEGER NOT NULL,
					rule_type TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					diff TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'approved',
					submitted_by TEXT NOT NULL DEFAULT '',
					added_by TEXT NOT NULL DEFAULT '',
					project TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					categories TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '',
					examples TEXT NOT NULL DEFAULT '',
					applies_to TEXT NOT NULL DEFAULT '',
					applies_to_rationale TEXT NOT NULL DEFAULT '',
					user_story TEXT NOT NULL DEFAULT '',
					archived_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (rule_id, version)
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add enhancements and proposal feedback",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS enhancements (
					id TEXT PRIMARY KEY,
					description TEXT NOT NULL,
					suggested_by TEXT NOT NULL DEFAULT '',
					page TEXT NOT NULL DEFAULT '',
					project TEXT NOT NULL DEFAULT '',
					diff TEXT NOT NULL DEFAULT '',
					user_story TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'open',
					proposal_id TEXT,
					categories TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '',
					examples TEXT NOT NULL DEFAULT '',
					applies_to TEXT NOT NULL DEFAULT '',
					applies_to_rationale TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_enhancements_status ON enhancements(status)`,
				`CREATE INDEX idx_enhancements_project ON enhancements(project)`,

				`CREATE TABLE IF NOT EXISTS proposal_feedback (
					id TEXT PRIMARY KEY,
					rule_proposal_id TEXT NOT NULL,
					user_id TEXT NOT NULL DEFAULT '',
					feedback_type TEXT NOT NULL,
					comments TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					FOREIGN KEY (rule_proposal_id) REFERENCES proposals(id)
				)`,
				`CREATE INDEX idx_proposal_feedback_proposal ON proposal_feedback(rule_proposal_id)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add scope fields to rules, proposals and rule versions",
		Up: func(tx *sql.Tx) error {
			queries := []string{}
			for _, table := range []string{"rules", "proposals", "rule_versions"} {
				queries = append(queries,
					fmt.Sprintf(`ALTER TABLE %s ADD COLUMN scope_level TEXT NOT NULL DEFAULT 'global'`, table),
					fmt.Sprintf(`ALTER TABLE %s ADD COLUMN scope_id TEXT`, table),
					fmt.Sprintf(`ALTER TABLE %s ADD COLUMN parent_rule_id TEXT`, table),
					fmt.Sprintf(`CREATE INDEX idx_%s_scope ON %s(scope_level, scope_id)`, table, table),
				)
			}
			return execAll(tx, queries)
		},
	},
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate runs all database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
