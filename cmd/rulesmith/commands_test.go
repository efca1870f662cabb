package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rulesmith/internal/testutil"
)

// useTempDatabase points the global configuration at a fresh database.
func useTempDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Set("database.path", filepath.Join(dir, "rules.db"))
	viper.Set("export.dir", filepath.Join(dir, "exported"))
	t.Cleanup(viper.Reset)
	return dir
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func proposeArgs(id, ruleType string) []string {
	return []string{
		"--id", id,
		"--type", ruleType,
		"--description", "Rule " + id,
		"--diff", testutil.MDCDiff(id),
		"--by", "alex",
		"--applies-to", "*.go, *.md",
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "go", want: []string{"go"}},
		{name: "trims", raw: " go , sql ", want: []string{"go", "sql"}},
		{name: "drops blanks", raw: "go,,  ,sql,", want: []string{"go", "sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.raw))
		})
	}
}

func TestEnsureDatabaseDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "rules.db")

	require.NoError(t, ensureDatabaseDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, ensureDatabaseDir(":memory:"))
}

func TestCollectMDCFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o750))
	for _, name := range []string{"a.mdc", "core/b.MDC", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	single := filepath.Join(dir, "notes.txt")

	files, err := collectMDCFiles([]string{dir, single})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.mdc"),
		filepath.Join(dir, "core", "b.MDC"),
		single,
	}, files)

	_, err = collectMDCFiles([]string{filepath.Join(dir, "missing")})
	require.Error(t, err)
}

func TestCommands_ProposalLifecycle(t *testing.T) {
	dir := useTempDatabase(t)

	out, err := runCommand(t, proposeCmd(), proposeArgs("wrap-errors", "errors")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Proposal wrap-errors submitted")

	_, err = runCommand(t, proposeCmd(), proposeArgs("tabs", "style")...)
	require.NoError(t, err)

	out, err = runCommand(t, proposalsCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "wrap-errors")
	assert.Contains(t, out, "tabs")

	out, err = runCommand(t, proposalsCmd(), "show", "tabs")
	require.NoError(t, err)
	assert.Contains(t, out, "Proposal tabs")
	assert.Contains(t, out, "# Rule: tabs")

	out, err = runCommand(t, proposalsCmd(), "show", "tabs", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "pending"`)

	_, err = runCommand(t, proposalsCmd(), "approve", "wrap-errors")
	require.NoError(t, err)

	out, err = runCommand(t, proposalsCmd(), "approve", "--all-pending", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Approved 1 of 1 proposals")

	out, err = runCommand(t, rulesCmd(), "list", "--type", "style")
	require.NoError(t, err)
	assert.Contains(t, out, "tabs")
	assert.NotContains(t, out, "wrap-errors")

	out, err = runCommand(t, exportCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 rules")
	assert.FileExists(t, filepath.Join(dir, "exported", "approved_rules.json"))

	out, err = runCommand(t, lintCmd(), filepath.Join(dir, "exported", "mdc"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 files passed lint")
}

func TestCommands_ApproveArguments(t *testing.T) {
	useTempDatabase(t)

	_, err := runCommand(t, proposalsCmd(), "approve")
	require.Error(t, err)

	_, err = runCommand(t, proposalsCmd(), "approve", "some-id", "--all-pending")
	require.Error(t, err)

	_, err = runCommand(t, proposalsCmd(), "approve", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to approve missing")
}

func TestCommands_ApproveAllPending_Declined(t *testing.T) {
	useTempDatabase(t)

	_, err := runCommand(t, proposeCmd(), proposeArgs("tabs", "style")...)
	require.NoError(t, err)

	cmd := proposalsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString("n\n"))
	cmd.SetArgs([]string{"approve", "--all-pending"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Nothing approved.")

	listOut, err := runCommand(t, proposalsCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, listOut, "tabs")
}

func TestCommands_ProposeValidation(t *testing.T) {
	useTempDatabase(t)

	_, err := runCommand(t, proposeCmd(), "--type", "style", "--description", "No body", "--by", "alex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit proposal")

	_, err = runCommand(t, proposeCmd(), "--diff", "x", "--diff-file", "y.md")
	require.Error(t, err)
}

func TestCommands_Enhancements(t *testing.T) {
	useTempDatabase(t)

	out, err := runCommand(t, enhancementsCmd(), "suggest", "Prefer table tests", "--by", "sam", "--tags", "testing")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded")

	out, err = runCommand(t, enhancementsCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Prefer table tests")

	_, err = runCommand(t, enhancementsCmd(), "complete", "missing")
	require.Error(t, err)
}

func TestCommands_RulesPromoteAndHistory(t *testing.T) {
	useTempDatabase(t)

	_, err := runCommand(t, proposeCmd(), append(proposeArgs("tabs", "style"), "--scope", "machine", "--scope-id", "laptop")...)
	require.NoError(t, err)
	_, err = runCommand(t, proposalsCmd(), "approve", "tabs")
	require.NoError(t, err)

	out, err := runCommand(t, rulesCmd(), "promote", "tabs", "team", "--scope-id", "core")
	require.NoError(t, err)
	assert.Contains(t, out, "promoted to team:core")

	out, err = runCommand(t, rulesCmd(), "history", "tabs")
	require.NoError(t, err)
	assert.Contains(t, out, "No archived versions for tabs.")

	_, err = runCommand(t, proposeCmd(),
		"--id", "tabs-v2", "--rule-id", "tabs", "--description", "Tabs, revised",
		"--diff", testutil.MDCDiff("tabs"), "--by", "alex")
	require.NoError(t, err)
	_, err = runCommand(t, proposalsCmd(), "approve", "tabs-v2")
	require.NoError(t, err)

	out, err = runCommand(t, rulesCmd(), "history", "tabs")
	require.NoError(t, err)
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "team:core")

	out, err = runCommand(t, rulesCmd(), "list", "--scope", "team")
	require.NoError(t, err)
	assert.Contains(t, out, "tabs", "an update without --scope keeps the rule at team:core")

	_, err = runCommand(t, rulesCmd(), "list", "--scope", "galaxy")
	require.Error(t, err)
}

func TestCommands_Feedback(t *testing.T) {
	useTempDatabase(t)

	_, err := runCommand(t, proposeCmd(), proposeArgs("tabs", "style")...)
	require.NoError(t, err)

	out, err := runCommand(t, feedbackCmd(), "add", "tabs", "needs_changes", "-m", "Mention gofmt", "--user", "rev")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded on tabs")

	out, err = runCommand(t, feedbackCmd(), "list", "tabs")
	require.NoError(t, err)
	assert.Contains(t, out, "Mention gofmt")

	_, err = runCommand(t, feedbackCmd(), "add", "tabs", "maybe")
	require.Error(t, err)
}

func TestCommands_Seed(t *testing.T) {
	dir := useTempDatabase(t)
	path := filepath.Join(dir, "seed.yaml")
	content := "proposals:\n" +
		"  - id: seeded\n" +
		"    rule_type: style\n" +
		"    description: Seeded rule\n" +
		"    submitted_by: seed\n" +
		"    diff: |\n" +
		"      # Rule: seeded\n" +
		"      ## Description\n" +
		"      Seeded.\n" +
		"      ## Enforcement\n" +
		"      Review.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := runCommand(t, seedCmd(), path, "--approve")
	require.NoError(t, err)
	assert.Contains(t, out, "Proposed 1, approved 1 of 1 entries")

	out, err = runCommand(t, rulesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded")
}

func TestMigrateCmd_Status(t *testing.T) {
	useTempDatabase(t)

	_, err := runCommand(t, migrateCmd())
	require.NoError(t, err)

	out, err := runCommand(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}
