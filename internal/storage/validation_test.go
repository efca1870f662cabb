package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Veraticus/rulesmith/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		rule    *model.Rule
		target  error
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid global rule",
			rule: &model.Rule{ID: "r1", Version: 1, ScopeLevel: model.ScopeGlobal},
		},
		{
			name: "valid team rule",
			rule: &model.Rule{ID: "r1", Version: 3, ScopeLevel: model.ScopeTeam, ScopeID: "platform"},
		},
		{
			name:    "nil rule",
			rule:    nil,
			wantErr: true,
			target:  ErrNilParameter,
			errMsg:  "rule",
		},
		{
			name:    "missing ID",
			rule:    &model.Rule{Version: 1, ScopeLevel: model.ScopeGlobal},
			wantErr: true,
			target:  ErrInvalidRule,
			errMsg:  "missing ID",
		},
		{
			name:    "version zero",
			rule:    &model.Rule{ID: "r1", ScopeLevel: model.ScopeGlobal},
			wantErr: true,
			target:  ErrInvalidRule,
			errMsg:  "version must be at least 1",
		},
		{
			name:    "project scope without id",
			rule:    &model.Rule{ID: "r1", Version: 1, ScopeLevel: model.ScopeProject},
			wantErr: true,
			target:  ErrInvalidRule,
			errMsg:  "scope_id required",
		},
		{
			name:    "unknown scope level",
			rule:    &model.Rule{ID: "r1", Version: 1, ScopeLevel: "galaxy"},
			wantErr: true,
			target:  ErrInvalidRule,
			errMsg:  "unknown scope level",
		},
		{
			name:    "self parent",
			rule:    &model.Rule{ID: "r1", Version: 1, ScopeLevel: model.ScopeGlobal, ParentRuleID: "r1"},
			wantErr: true,
			target:  ErrInvalidRule,
			errMsg:  "own parent",
		},
		{
			name: "comma in tag",
			rule: &model.Rule{
				ID: "r1", Version: 1, ScopeLevel: model.ScopeGlobal,
				RuleContent: model.RuleContent{Tags: []string{"ok", "a,b"}},
			},
			wantErr: true,
			target:  ErrInvalidRule,
			errMsg:  "tags entry \"a,b\" cannot contain a comma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRule(tt.rule)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, tt.target) {
				t.Errorf("validateRule() error = %v, want %v", err, tt.target)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateRule() error should contain %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateProposal(t *testing.T) {
	tests := []struct {
		proposal *model.Proposal
		name     string
		errMsg   string
		wantErr  bool
	}{
		{
			name:     "valid proposal",
			proposal: &model.Proposal{ID: "p1", Status: model.ProposalPending, ScopeLevel: model.ScopeGlobal},
		},
		{
			name:    "nil proposal",
			wantErr: true,
			errMsg:  "proposal",
		},
		{
			name:     "missing ID",
			proposal: &model.Proposal{Status: model.ProposalPending, ScopeLevel: model.ScopeGlobal},
			wantErr:  true,
			errMsg:   "missing ID",
		},
		{
			name:     "unknown status",
			proposal: &model.Proposal{ID: "p1", Status: "merged", ScopeLevel: model.ScopeGlobal},
			wantErr:  true,
			errMsg:   "unknown proposal status",
		},
		{
			name:     "machine scope without id",
			proposal: &model.Proposal{ID: "p1", Status: model.ProposalPending, ScopeLevel: model.ScopeMachine},
			wantErr:  true,
			errMsg:   "scope_id required",
		},
		{
			name:     "update keeping rule scope",
			proposal: &model.Proposal{ID: "p1", RuleID: "r1", Status: model.ProposalPending},
		},
		{
			name:     "new rule without scope level",
			proposal: &model.Proposal{ID: "p1", Status: model.ProposalPending},
			wantErr:  true,
			errMsg:   "unknown scope level",
		},
		{
			name:     "update with scope id but no level",
			proposal: &model.Proposal{ID: "p1", RuleID: "r1", Status: model.ProposalPending, ScopeID: "p2"},
			wantErr:  true,
			errMsg:   "scope_id set without scope_level",
		},
		{
			name: "comma in applies_to",
			proposal: &model.Proposal{
				ID: "p1", Status: model.ProposalPending, ScopeLevel: model.ScopeGlobal,
				RuleContent: model.RuleContent{AppliesTo: []string{"a,b"}},
			},
			wantErr: true,
			errMsg:  "applies_to entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProposal(tt.proposal)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateProposal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateProposal() error should contain %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateEnhancementAndFeedback(t *testing.T) {
	if err := validateEnhancement(&model.Enhancement{ID: "e1", Status: model.EnhancementOpen}); err != nil {
		t.Errorf("validateEnhancement() unexpected error: %v", err)
	}
	if err := validateEnhancement(&model.Enhancement{ID: "e1", Status: "pending"}); !errors.Is(err, ErrInvalidEnhancement) {
		t.Errorf("validateEnhancement() error = %v, want %v", err, ErrInvalidEnhancement)
	}
	if err := validateEnhancement(&model.Enhancement{ID: "e1", Status: model.EnhancementOpen, Categories: []string{"x,y"}}); !errors.Is(err, ErrInvalidEnhancement) {
		t.Errorf("validateEnhancement() error = %v, want %v", err, ErrInvalidEnhancement)
	}
	if err := validateFeedback(&model.Feedback{ID: "f1", ProposalID: "p1", Type: model.FeedbackAccept}); err != nil {
		t.Errorf("validateFeedback() unexpected error: %v", err)
	}
	if err := validateFeedback(&model.Feedback{ID: "f1", Type: model.FeedbackAccept}); !errors.Is(err, ErrInvalidFeedback) {
		t.Errorf("validateFeedback() error = %v, want %v", err, ErrInvalidFeedback)
	}
	if err := validateFeedback(&model.Feedback{ID: "f1", ProposalID: "p1", Type: "meh"}); !errors.Is(err, ErrInvalidFeedback) {
		t.Errorf("validateFeedback() error = %v, want %v", err, ErrInvalidFeedback)
	}
}
