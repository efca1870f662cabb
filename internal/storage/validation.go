// Package storage provides the data persistence layer for rule governance.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/rulesmith/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidRule        = errors.New("invalid rule")
	ErrInvalidProposal    = errors.New("invalid proposal")
	ErrInvalidEnhancement = errors.New("invalid enhancement")
	ErrInvalidFeedback    = errors.New("invalid feedback")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateList rejects list entries that would not survive the comma
// separated storage encoding.
func validateList(name string, values []string) error {
	for _, v := range values {
		if strings.Contains(v, ",") {
			return fmt.Errorf("%s entry %q cannot contain a comma", name, v)
		}
	}
	return nil
}

func validateLists(kind error, content model.RuleContent) error {
	lists := []struct {
		name   string
		values []string
	}{
		{"categories", content.Categories},
		{"tags", content.Tags},
		{"examples", content.Examples},
		{"applies_to", content.AppliesTo},
	}
	for _, l := range lists {
		if err := validateList(l.name, l.values); err != nil {
			return fmt.Errorf("%w: %w", kind, err)
		}
	}
	return nil
}

func validateScope(level model.ScopeLevel, scopeID string) error {
	if !level.IsValid() {
		return fmt.Errorf("unknown scope level %q", level)
	}
	if level != model.ScopeGlobal && scopeID == "" {
		return fmt.Errorf("scope_id required for %s scope", level)
	}
	return nil
}

// validateRule checks the row invariants the schema cannot express.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRule)
	}
	if rule.Version < 1 {
		return fmt.Errorf("%w: version must be at least 1, got %d", ErrInvalidRule, rule.Version)
	}
	if err := validateScope(rule.ScopeLevel, rule.ScopeID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	if rule.ParentRuleID == rule.ID {
		return fmt.Errorf("%w: rule cannot be its own parent", ErrInvalidRule)
	}
	return validateLists(ErrInvalidRule, rule.RuleContent)
}

func validateRuleVersion(version *model.RuleVersion) error {
	if version == nil {
		return fmt.Errorf("%w: rule version", ErrNilParameter)
	}
	if strings.TrimSpace(version.RuleID) == "" {
		return fmt.Errorf("%w: missing rule ID", ErrInvalidRule)
	}
	if version.Version < 1 {
		return fmt.Errorf("%w: archived version must be at least 1, got %d", ErrInvalidRule, version.Version)
	}
	return nil
}

func validateProposal(proposal *model.Proposal) error {
	if proposal == nil {
		return fmt.Errorf("%w: proposal", ErrNilParameter)
	}
	if strings.TrimSpace(proposal.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidProposal)
	}
	if _, err := model.ParseProposalStatus(string(proposal.Status)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	if proposal.KeepsScope() {
		if proposal.ScopeID != "" {
			return fmt.Errorf("%w: scope_id set without scope_level", ErrInvalidProposal)
		}
	} else if err := validateScope(proposal.ScopeLevel, proposal.ScopeID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	return validateLists(ErrInvalidProposal, proposal.RuleContent)
}

func validateEnhancement(enhancement *model.Enhancement) error {
	if enhancement == nil {
		return fmt.Errorf("%w: enhancement", ErrNilParameter)
	}
	if strings.TrimSpace(enhancement.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEnhancement)
	}
	if _, err := model.ParseEnhancementStatus(string(enhancement.Status)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnhancement, err)
	}
	return validateLists(ErrInvalidEnhancement, model.RuleContent{
		Categories: enhancement.Categories,
		Tags:       enhancement.Tags,
		Examples:   enhancement.Examples,
		AppliesTo:  enhancement.AppliesTo,
	})
}

func validateFeedback(feedback *model.Feedback) error {
	if feedback == nil {
		return fmt.Errorf("%w: feedback", ErrNilParameter)
	}
	if strings.TrimSpace(feedback.ID) == "" || strings.TrimSpace(feedback.ProposalID) == "" {
		return fmt.Errorf("%w: missing ID or proposal ID", ErrInvalidFeedback)
	}
	if _, err := model.ParseFeedbackType(string(feedback.Type)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, err)
	}
	return nil
}
