package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/mdc"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

// ApprovalResult describes the rule written by an approval.
type ApprovalResult struct {
	Rule *model.Rule
	// Archived is the superseded snapshot, nil when the approval created the rule.
	Archived *model.RuleVersion
	Version  int
}

// Propose validates input and stores it as a pending proposal.
func (e *Engine) Propose(ctx context.Context, in ProposalInput) (*model.Proposal, error) {
	in.normalize()

	problems := inputProblems(&in)
	if in.Diff != "" {
		problems = append(problems, mdc.Check(in.Diff)...)
	}

	var level model.ScopeLevel
	switch {
	case in.ScopeLevel != "":
		// Unknown levels are reported by the scope_level validator.
		level, _ = model.ParseScopeLevel(in.ScopeLevel)
	case in.RuleID != "":
		if in.ScopeID != "" {
			problems = append(problems, "scope_level is required when scope_id is set")
		}
	default:
		level = model.ScopeGlobal
	}
	if level != "" && level != model.ScopeGlobal && in.ScopeID == "" {
		problems = append(problems, fmt.Sprintf("scope_id is required for %s scope", level))
	}
	if level == model.ScopeGlobal {
		in.ScopeID = ""
	}
	if in.ParentRuleID != "" && in.ParentRuleID == in.RuleID {
		problems = append(problems, "parent_rule_id cannot reference the rule itself")
	}
	if err := validationFailure(problems); err != nil {
		logFailure(ctx, err, "proposal rejected at submission", common.Fields{"submitted_by": in.SubmittedBy})
		return nil, err
	}

	proposal := &model.Proposal{
		ID:              in.ID,
		RuleID:          in.RuleID,
		Status:          model.ProposalPending,
		SubmittedBy:     in.SubmittedBy,
		ParentRuleID:    in.ParentRuleID,
		ReasonForChange: in.ReasonForChange,
		References:      in.References,
		CurrentRule:     in.CurrentRule,
		ScopeLevel:      level,
		ScopeID:         in.ScopeID,
		Timestamp:       e.now(),
		RuleContent: model.RuleContent{
			RuleType:           in.RuleType,
			Description:        in.Description,
			Diff:               in.Diff,
			Project:            in.Project,
			AppliesToRationale: in.AppliesToRationale,
			UserStory:          in.UserStory,
			Categories:         cloneList(in.Categories),
			Tags:               cloneList(in.Tags),
			Examples:           cloneList(in.Examples),
			AppliesTo:          cloneList(in.AppliesTo),
		},
	}
	if proposal.ID == "" {
		proposal.ID = e.newID()
	}

	err := e.withTx(ctx, func(tx service.Transaction) error {
		if _, err := tx.GetProposal(ctx, proposal.ID); err == nil {
			return common.NewValidationError(fmt.Sprintf("proposal id %s already exists", proposal.ID))
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		if proposal.RuleType == "" {
			rule, err := tx.GetRule(ctx, proposal.RuleID)
			if errors.Is(err, common.ErrNotFound) {
				return common.NewValidationError("rule_type is required")
			}
			if err != nil {
				return err
			}
			proposal.RuleType = rule.RuleType
		}

		return tx.CreateProposal(ctx, proposal)
	})
	if err != nil {
		logFailure(ctx, err, "failed to store proposal", common.Fields{"proposal_id": proposal.ID})
		return nil, err
	}

	common.LogInfo(ctx, "proposal submitted", common.Fields{
		"proposal_id": proposal.ID,
		"rule_id":     proposal.TargetRuleID(),
		"rule_type":   proposal.RuleType,
	})
	return proposal, nil
}

// ListPending returns pending proposals in submission order.
func (e *Engine) ListPending(ctx context.Context) ([]model.Proposal, error) {
	status := model.ProposalPending
	return e.storage.ListProposals(ctx, service.ProposalFilter{Status: &status})
}

// ListProposals returns proposals, optionally restricted to one status.
func (e *Engine) ListProposals(ctx context.Context, status *model.ProposalStatus, newestFirst bool) ([]model.Proposal, error) {
	return e.storage.ListProposals(ctx, service.ProposalFilter{Status: status, NewestFirst: newestFirst})
}

// GetProposal returns a single proposal.
func (e *Engine) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	return e.storage.GetProposal(ctx, id)
}

// Approve turns a pending proposal into the current version of its target rule.
// The previous rule, if any, is archived and replaced in the same transaction,
// and the proposal status is compare-and-set from pending to approved.
func (e *Engine) Approve(ctx context.Context, proposalID string) (*ApprovalResult, error) {
	start := time.Now()

	var result *ApprovalResult
	err := e.withTx(ctx, func(tx service.Transaction) error {
		proposal, err := tx.GetProposal(ctx, proposalID)
		if err != nil {
			return err
		}
		if proposal.Status != model.ProposalPending {
			return &common.TransitionError{
				Entity: "proposal",
				ID:     proposal.ID,
				From:   string(proposal.Status),
				To:     string(model.ProposalApproved),
			}
		}

		targetID := proposal.TargetRuleID()
		now := e.now()

		existing, err := tx.GetRule(ctx, targetID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}

		scope, parentID, err := approvalScope(proposal, existing)
		if err != nil {
			return err
		}

		result = &ApprovalResult{}
		if existing != nil {
			if err := ValidatePromotionContext(existing, scope); err != nil {
				return err
			}

			snapshot := Archive(existing, now)
			if err := tx.InsertRuleVersion(ctx, snapshot); err != nil {
				return err
			}
			if err := tx.DeleteRule(ctx, existing.ID, existing.Version); err != nil {
				return err
			}
			result.Archived = snapshot
			result.Version = existing.Version + 1
		} else {
			prior, err := tx.CountRuleVersions(ctx, targetID)
			if err != nil {
				return err
			}
			result.Version = prior + 1
		}

		if err := validateParent(ctx, tx, targetID, parentID, scope); err != nil {
			return err
		}
		if err := e.CheckConflict(ctx, tx, targetID, proposal.RuleType, scope, parentID); err != nil {
			return err
		}

		rule := &model.Rule{
			ID:           targetID,
			Status:       model.RuleApproved,
			SubmittedBy:  proposal.SubmittedBy,
			AddedBy:      proposal.SubmittedBy,
			ParentRuleID: parentID,
			ScopeLevel:   scope.Level,
			ScopeID:      scope.ID,
			RuleContent:  proposal.RuleContent,
			Version:      result.Version,
			Timestamp:    now,
		}
		if err := tx.InsertRule(ctx, rule); err != nil {
			return err
		}

		if err := tx.TransitionProposal(ctx, proposal.ID, []model.ProposalStatus{model.ProposalPending}, model.ProposalApproved); err != nil {
			return err
		}

		result.Rule = rule
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrConflict):
			e.metrics.conflicts.Inc()
		case errors.Is(err, common.ErrStaleRule):
			e.metrics.staleRules.Inc()
		}
		logFailure(ctx, err, "approval failed", common.Fields{"proposal_id": proposalID})
		return nil, err
	}

	e.metrics.proposalTransitions.WithLabelValues(string(model.ProposalApproved)).Inc()
	e.metrics.approvalDuration.Observe(time.Since(start).Seconds())
	common.LogInfo(ctx, "proposal approved", common.Fields{
		"proposal_id": proposalID,
		"rule_id":     result.Rule.ID,
		"version":     result.Version,
	})
	return result, nil
}

// approvalScope resolves the scope and parent link an approval writes. An
// update that names no scope keeps the live rule's own, falling back to global
// when there is no live rule to inherit from.
func approvalScope(proposal *model.Proposal, existing *model.Rule) (model.Scope, string, error) {
	if !proposal.KeepsScope() {
		scope, err := ValidateScope(string(proposal.ScopeLevel), proposal.ScopeID)
		return scope, proposal.ParentRuleID, err
	}
	if existing == nil {
		return model.Scope{Level: model.ScopeGlobal}, proposal.ParentRuleID, nil
	}

	parentID := proposal.ParentRuleID
	if parentID == "" {
		parentID = existing.ParentRuleID
	}
	return existing.Scope(), parentID, nil
}

// Reject marks a pending proposal rejected.
func (e *Engine) Reject(ctx context.Context, proposalID string) error {
	err := e.withTx(ctx, func(tx service.Transaction) error {
		return tx.TransitionProposal(ctx, proposalID, []model.ProposalStatus{model.ProposalPending}, model.ProposalRejected)
	})
	if err != nil {
		logFailure(ctx, err, "rejection failed", common.Fields{"proposal_id": proposalID})
		return err
	}

	e.metrics.proposalTransitions.WithLabelValues(string(model.ProposalRejected)).Inc()
	common.LogInfo(ctx, "proposal rejected", common.Fields{"proposal_id": proposalID})
	return nil
}
