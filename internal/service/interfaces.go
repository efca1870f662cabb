// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/rulesmith/internal/model"
)

// RuleFilter narrows rule listings. Zero values match everything.
type RuleFilter struct {
	Project    string
	Tag        string
	ScopeLevel model.ScopeLevel
	ScopeID    string
	RuleType   string
	// Categories matches rules carrying any of the listed categories.
	Categories []string
}

// ProposalFilter narrows proposal listings.
type ProposalFilter struct {
	Status *model.ProposalStatus
	// NewestFirst reverses the default insertion order.
	NewestFirst bool
}

// Store holds every entity operation. It is satisfied both by the storage
// itself and by an open transaction.
type Store interface {
	// Proposal operations
	CreateProposal(ctx context.Context, proposal *model.Proposal) error
	GetProposal(ctx context.Context, id string) (*model.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]model.Proposal, error)
	// TransitionProposal moves a proposal to `to` only if its current status
	// is one of `from`.
	TransitionProposal(ctx context.Context, id string, from []model.ProposalStatus, to model.ProposalStatus) error

	// Rule operations
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	ListRules(ctx context.Context, filter RuleFilter) ([]model.Rule, error)
	InsertRule(ctx context.Context, rule *model.Rule) error
	// UpdateRule rewrites descriptive fields if the stored version still
	// equals expectedVersion.
	UpdateRule(ctx context.Context, rule *model.Rule, expectedVersion int) error
	// UpdateRuleScope moves a rule if its stored scope level still equals expected.
	UpdateRuleScope(ctx context.Context, id string, expected model.ScopeLevel, scope model.Scope) error
	// DeleteRule removes a rule if its stored version still equals expectedVersion.
	DeleteRule(ctx context.Context, id string, expectedVersion int) error

	// Version history
	InsertRuleVersion(ctx context.Context, version *model.RuleVersion) error
	ListRuleVersions(ctx context.Context, ruleID string) ([]model.RuleVersion, error)
	CountRuleVersions(ctx context.Context, ruleID string) (int, error)

	// Enhancement operations
	CreateEnhancement(ctx context.Context, enhancement *model.Enhancement) error
	GetEnhancement(ctx context.Context, id string) (*model.Enhancement, error)
	ListEnhancements(ctx context.Context) ([]model.Enhancement, error)
	UpdateEnhancement(ctx context.Context, enhancement *model.Enhancement) error
	TransitionEnhancement(ctx context.Context, id string, from []model.EnhancementStatus, to model.EnhancementStatus) error
	LinkEnhancementProposal(ctx context.Context, id, proposalID string) error

	// Feedback operations
	CreateFeedback(ctx context.Context, feedback *model.Feedback) error
	ListFeedback(ctx context.Context, proposalID string) ([]model.Feedback, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Store

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	Store
}
