package engine

import (
	"context"
	"time"

	"github.com/Veraticus/rulesmith/internal/model"
)

// Archive copies a rule's full state into a snapshot stamped with the rule's
// current version. The rule itself is not modified.
func Archive(rule *model.Rule, archivedAt time.Time) *model.RuleVersion {
	content := rule.RuleContent
	content.Categories = cloneList(rule.Categories)
	content.Tags = cloneList(rule.Tags)
	content.Examples = cloneList(rule.Examples)
	content.AppliesTo = cloneList(rule.AppliesTo)

	return &model.RuleVersion{
		RuleID:       rule.ID,
		Version:      rule.Version,
		Status:       rule.Status,
		SubmittedBy:  rule.SubmittedBy,
		AddedBy:      rule.AddedBy,
		ParentRuleID: rule.ParentRuleID,
		ScopeLevel:   rule.ScopeLevel,
		ScopeID:      rule.ScopeID,
		Timestamp:    rule.Timestamp,
		ArchivedAt:   archivedAt,
		RuleContent:  content,
	}
}

// History returns a rule's archived versions, most recent first. A rule that
// never existed has an empty history.
func (e *Engine) History(ctx context.Context, ruleID string) ([]model.RuleVersion, error) {
	return e.storage.ListRuleVersions(ctx, ruleID)
}

func cloneList(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
