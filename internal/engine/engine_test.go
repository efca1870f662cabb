package engine

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/testutil"
)

// newTestEngine returns an engine over a fresh in-memory store seeded with
// rules. IDs are sequential and the clock advances one second per call.
func newTestEngine(t *testing.T, rules ...model.Rule) (*Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t, rules...)

	var ids, ticks atomic.Int64
	cfg := DefaultConfig()
	cfg.NewID = func() string { return fmt.Sprintf("id-%d", ids.Add(1)) }
	cfg.Now = func() time.Time {
		return testutil.FixedTime.Add(time.Duration(ticks.Add(1)) * time.Second)
	}
	return NewWithConfig(db.Storage, cfg), db
}

func validInput(ruleType, description string) ProposalInput {
	return ProposalInput{
		RuleType:    ruleType,
		Description: description,
		Diff:        testutil.MDCDiff(ruleType),
		SubmittedBy: "u",
	}
}
