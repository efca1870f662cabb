package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/rulesmith/internal/model"
)

// FixedTime is the timestamp stamped on fixture data.
var FixedTime = time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

// MDCDiff returns a well-formed MDC body for a rule titled title.
func MDCDiff(title string) string {
	return fmt.Sprintf("# Rule: %s\n## Description\n%s applies.\n## Enforcement\nReviewers block violations.", title, title)
}

// RuleOption customizes a fixture rule.
type RuleOption func(*model.Rule)

// WithScope places the rule at level with the given scope id.
func WithScope(level model.ScopeLevel, id string) RuleOption {
	return func(r *model.Rule) {
		r.ScopeLevel = level
		r.ScopeID = id
	}
}

// WithRuleType sets the rule type.
func WithRuleType(ruleType string) RuleOption {
	return func(r *model.Rule) {
		r.RuleType = ruleType
	}
}

// WithParent links the rule to a broader rule it overrides.
func WithParent(parentID string) RuleOption {
	return func(r *model.Rule) {
		r.ParentRuleID = parentID
	}
}

// WithProject sets the rule's project grouping.
func WithProject(project string) RuleOption {
	return func(r *model.Rule) {
		r.Project = project
	}
}

// NewRule builds a live global rule at version 1.
func NewRule(id string, opts ...RuleOption) model.Rule {
	rule := model.Rule{
		ID:          id,
		Status:      model.RuleApproved,
		SubmittedBy: "fixture",
		AddedBy:     "fixture",
		ScopeLevel:  model.ScopeGlobal,
		Version:     1,
		Timestamp:   FixedTime,
		RuleContent: model.RuleContent{
			RuleType:    "style",
			Description: "Fixture rule " + id,
			Diff:        MDCDiff(id),
			Categories:  []string{},
			Tags:        []string{},
			Examples:    []string{},
			AppliesTo:   []string{},
		},
	}
	for _, opt := range opts {
		opt(&rule)
	}
	return rule
}
