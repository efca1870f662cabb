package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))
}

func TestMigrate_ScopeColumnsDefaultToGlobal(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO rules (id, rule_type, timestamp) VALUES ('legacy', 'style', CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	rule, err := store.GetRule(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "global", rule.ScopeLevel.String())
	assert.Empty(t, rule.ScopeID)
	assert.Equal(t, 1, rule.Version)
	assert.Equal(t, []string{}, rule.Tags)
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	store := createTestStorage(t)

	for _, name := range []string{
		"idx_proposals_status",
		"idx_rules_scope",
		"idx_rule_versions_scope",
		"idx_enhancements_status",
		"idx_proposal_feedback_proposal",
	} {
		var count int
		err := store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?
		`, name).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "index %s", name)
	}
}

func TestMigrate_RuleVersionUniqueness(t *testing.T) {
	store := createTestStorage(t)

	insert := `INSERT INTO rule_versions (rule_id, version, rule_type, timestamp) VALUES ('r1', 1, 'style', CURRENT_TIMESTAMP)`
	_, err := store.db.Exec(insert)
	require.NoError(t, err)
	_, err = store.db.Exec(insert)
	require.Error(t, err)
	assert.True(t, isConstraintViolation(err))
}
