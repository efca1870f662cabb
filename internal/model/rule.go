// Package model defines the core data structures for rule governance.
package model

import (
	"time"
)

// RuleContent holds the descriptive fields shared by rules, their history
// and the proposals that change them.
type RuleContent struct {
	RuleType           string   `json:"rule_type"`
	Description        string   `json:"description"`
	Diff               string   `json:"diff"`
	Project            string   `json:"project,omitempty"`
	AppliesToRationale string   `json:"applies_to_rationale,omitempty"`
	UserStory          string   `json:"user_story,omitempty"`
	Categories         []string `json:"categories"`
	Tags               []string `json:"tags"`
	Examples           []string `json:"examples"`
	AppliesTo          []string `json:"applies_to"`
}

// Rule is the currently effective statement of a policy.
type Rule struct {
	Timestamp    time.Time  `json:"timestamp"`
	ID           string     `json:"id"`
	Status       RuleStatus `json:"status"`
	SubmittedBy  string     `json:"submitted_by"`
	AddedBy      string     `json:"added_by"`
	ParentRuleID string     `json:"parent_rule_id,omitempty"`
	ScopeLevel   ScopeLevel `json:"scope_level"`
	ScopeID      string     `json:"scope_id,omitempty"`
	RuleContent
	Version int `json:"version"`
}

// Scope returns the rule's governance scope.
func (r *Rule) Scope() Scope {
	return Scope{Level: r.ScopeLevel, ID: r.ScopeID}
}

// RuleVersion is an immutable snapshot of a rule superseded by a later approval.
type RuleVersion struct {
	Timestamp    time.Time  `json:"timestamp"`
	ArchivedAt   time.Time  `json:"archived_at"`
	RuleID       string     `json:"rule_id"`
	Status       RuleStatus `json:"status"`
	SubmittedBy  string     `json:"submitted_by"`
	AddedBy      string     `json:"added_by"`
	ParentRuleID string     `json:"parent_rule_id,omitempty"`
	ScopeLevel   ScopeLevel `json:"scope_level"`
	ScopeID      string     `json:"scope_id,omitempty"`
	RuleContent
	ID      int64 `json:"id"`
	Version int   `json:"version"`
}

// Proposal is a request to create or update a rule.
// RuleID is empty when approval should create a new rule.
type Proposal struct {
	Timestamp       time.Time      `json:"timestamp"`
	ID              string         `json:"id"`
	RuleID          string         `json:"rule_id,omitempty"`
	Status          ProposalStatus `json:"status"`
	SubmittedBy     string         `json:"submitted_by"`
	ParentRuleID    string         `json:"parent_rule_id,omitempty"`
	ReasonForChange string         `json:"reason_for_change,omitempty"`
	References      string         `json:"references,omitempty"`
	CurrentRule     string         `json:"current_rule,omitempty"`
	// ScopeLevel is empty on an update proposal that keeps the rule's scope.
	ScopeLevel ScopeLevel `json:"scope_level"`
	ScopeID    string     `json:"scope_id,omitempty"`
	RuleContent
}

// Scope returns the scope the proposal asks for.
func (p *Proposal) Scope() Scope {
	return Scope{Level: p.ScopeLevel, ID: p.ScopeID}
}

// KeepsScope reports whether an update proposal leaves the target rule's
// scope as it is.
func (p *Proposal) KeepsScope() bool {
	return p.RuleID != "" && p.ScopeLevel == ""
}

// TargetRuleID returns the identifier of the rule an approval will write.
func (p *Proposal) TargetRuleID() string {
	if p.RuleID != "" {
		return p.RuleID
	}
	return p.ID
}

// Enhancement is an informal suggestion, convertible to and from proposals.
type Enhancement struct {
	Timestamp          time.Time         `json:"timestamp"`
	ID                 string            `json:"id"`
	Description        string            `json:"description"`
	SuggestedBy        string            `json:"suggested_by,omitempty"`
	Page               string            `json:"page,omitempty"`
	Project            string            `json:"project,omitempty"`
	Diff               string            `json:"diff,omitempty"`
	UserStory          string            `json:"user_story,omitempty"`
	AppliesToRationale string            `json:"applies_to_rationale,omitempty"`
	Status             EnhancementStatus `json:"status"`
	ProposalID         string            `json:"proposal_id,omitempty"`
	Categories         []string          `json:"categories"`
	Tags               []string          `json:"tags"`
	Examples           []string          `json:"examples"`
	AppliesTo          []string          `json:"applies_to"`
}

// Feedback is reviewer commentary attached to a proposal.
type Feedback struct {
	CreatedAt  time.Time    `json:"created_at"`
	ID         string       `json:"id"`
	ProposalID string       `json:"rule_proposal_id"`
	UserID     string       `json:"user_id,omitempty"`
	Type       FeedbackType `json:"feedback_type"`
	Comments   string       `json:"comments,omitempty"`
}
