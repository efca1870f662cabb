package engine

import (
	"context"
	"slices"
	"strings"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

// EnhancementRuleType is the rule type given to proposals created from enhancements.
const EnhancementRuleType = "enhancement"

// SuggestEnhancement stores a new open enhancement.
func (e *Engine) SuggestEnhancement(ctx context.Context, in EnhancementInput) (*model.Enhancement, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := validationFailure(inputProblems(&in)); err != nil {
		return nil, err
	}

	enhancement := &model.Enhancement{
		ID:                 e.newID(),
		Description:        in.Description,
		SuggestedBy:        in.SuggestedBy,
		Page:               in.Page,
		Project:            in.Project,
		Diff:               in.Diff,
		UserStory:          in.UserStory,
		AppliesToRationale: in.AppliesToRationale,
		Status:             model.EnhancementOpen,
		Categories:         cloneList(in.Categories),
		Tags:               cloneList(in.Tags),
		Examples:           cloneList(in.Examples),
		AppliesTo:          cloneList(in.AppliesTo),
		Timestamp:          e.now(),
	}
	if err := e.storage.CreateEnhancement(ctx, enhancement); err != nil {
		logFailure(ctx, err, "failed to store enhancement", nil)
		return nil, err
	}

	common.LogInfo(ctx, "enhancement suggested", common.Fields{"enhancement_id": enhancement.ID})
	return enhancement, nil
}

// ListEnhancements returns every enhancement, newest first.
func (e *Engine) ListEnhancements(ctx context.Context) ([]model.Enhancement, error) {
	enhancements, err := e.storage.ListEnhancements(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(enhancements)
	return enhancements, nil
}

// GetEnhancement returns a single enhancement.
func (e *Engine) GetEnhancement(ctx context.Context, id string) (*model.Enhancement, error) {
	return e.storage.GetEnhancement(ctx, id)
}

// UpdateEnhancement applies a patch to an enhancement's descriptive fields.
func (e *Engine) UpdateEnhancement(ctx context.Context, id string, patch EnhancementPatch) (*model.Enhancement, error) {
	problems := inputProblems(&patch)
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		problems = append(problems, "description must not be empty")
	}
	if err := validationFailure(problems); err != nil {
		return nil, err
	}

	var updated *model.Enhancement
	err := e.withTx(ctx, func(tx service.Transaction) error {
		enhancement, err := tx.GetEnhancement(ctx, id)
		if err != nil {
			return err
		}

		applyString(&enhancement.Description, patch.Description)
		applyString(&enhancement.SuggestedBy, patch.SuggestedBy)
		applyString(&enhancement.Page, patch.Page)
		applyString(&enhancement.Project, patch.Project)
		applyString(&enhancement.Diff, patch.Diff)
		applyString(&enhancement.UserStory, patch.UserStory)
		applyString(&enhancement.AppliesToRationale, patch.AppliesToRationale)
		applyList(&enhancement.Categories, patch.Categories)
		applyList(&enhancement.Tags, patch.Tags)
		applyList(&enhancement.Examples, patch.Examples)
		applyList(&enhancement.AppliesTo, patch.AppliesTo)

		if err := tx.UpdateEnhancement(ctx, enhancement); err != nil {
			return err
		}
		updated = enhancement
		return nil
	})
	if err != nil {
		logFailure(ctx, err, "enhancement update failed", common.Fields{"enhancement_id": id})
		return nil, err
	}
	return updated, nil
}

// ToProposal converts an open enhancement into a pending proposal and marks
// the enhancement transferred.
func (e *Engine) ToProposal(ctx context.Context, enhancementID string) (*model.Proposal, error) {
	var proposal *model.Proposal
	err := e.withTx(ctx, func(tx service.Transaction) error {
		enhancement, err := tx.GetEnhancement(ctx, enhancementID)
		if err != nil {
			return err
		}

		if err := tx.TransitionEnhancement(ctx, enhancement.ID,
			[]model.EnhancementStatus{model.EnhancementOpen}, model.EnhancementTransferred); err != nil {
			return err
		}

		proposal = &model.Proposal{
			ID:          e.newID(),
			Status:      model.ProposalPending,
			SubmittedBy: enhancement.SuggestedBy,
			ScopeLevel:  model.ScopeGlobal,
			Timestamp:   e.now(),
			RuleContent: model.RuleContent{
				RuleType:           EnhancementRuleType,
				Description:        enhancement.Description,
				Diff:               enhancement.Diff,
				Project:            enhancement.Project,
				AppliesToRationale: enhancement.AppliesToRationale,
				UserStory:          enhancement.UserStory,
				Categories:         cloneList(enhancement.Categories),
				Tags:               cloneList(enhancement.Tags),
				Examples:           cloneList(enhancement.Examples),
				AppliesTo:          cloneList(enhancement.AppliesTo),
			},
		}
		if err := tx.CreateProposal(ctx, proposal); err != nil {
			return err
		}
		return tx.LinkEnhancementProposal(ctx, enhancement.ID, proposal.ID)
	})
	if err != nil {
		logFailure(ctx, err, "enhancement transfer failed", common.Fields{"enhancement_id": enhancementID})
		return nil, err
	}

	e.metrics.enhancementTransitions.WithLabelValues(string(model.EnhancementTransferred)).Inc()
	common.LogInfo(ctx, "enhancement transferred", common.Fields{
		"enhancement_id": enhancementID,
		"proposal_id":    proposal.ID,
	})
	return proposal, nil
}

// FromProposal reverts a pending or rejected proposal into an open
// enhancement. The proposal can never be approved or rejected afterwards.
func (e *Engine) FromProposal(ctx context.Context, proposalID string) (*model.Enhancement, error) {
	var enhancement *model.Enhancement
	err := e.withTx(ctx, func(tx service.Transaction) error {
		proposal, err := tx.GetProposal(ctx, proposalID)
		if err != nil {
			return err
		}

		if err := tx.TransitionProposal(ctx, proposal.ID,
			[]model.ProposalStatus{model.ProposalPending, model.ProposalRejected},
			model.ProposalRevertedToEnhancement); err != nil {
			return err
		}

		enhancement = &model.Enhancement{
			ID:                 e.newID(),
			Description:        proposal.Description,
			SuggestedBy:        proposal.SubmittedBy,
			Project:            proposal.Project,
			Diff:               proposal.Diff,
			UserStory:          proposal.UserStory,
			AppliesToRationale: proposal.AppliesToRationale,
			Status:             model.EnhancementOpen,
			ProposalID:         proposal.ID,
			Categories:         cloneList(proposal.Categories),
			Tags:               cloneList(proposal.Tags),
			Examples:           cloneList(proposal.Examples),
			AppliesTo:          cloneList(proposal.AppliesTo),
			Timestamp:          proposal.Timestamp,
		}
		return tx.CreateEnhancement(ctx, enhancement)
	})
	if err != nil {
		logFailure(ctx, err, "proposal reversion failed", common.Fields{"proposal_id": proposalID})
		return nil, err
	}

	e.metrics.proposalTransitions.WithLabelValues(string(model.ProposalRevertedToEnhancement)).Inc()
	common.LogInfo(ctx, "proposal reverted to enhancement", common.Fields{
		"proposal_id":    proposalID,
		"enhancement_id": enhancement.ID,
	})
	return enhancement, nil
}

// AcceptEnhancement moves an open enhancement to accepted.
func (e *Engine) AcceptEnhancement(ctx context.Context, id string) error {
	return e.transitionEnhancement(ctx, id, model.EnhancementAccepted, model.EnhancementOpen)
}

// CompleteEnhancement moves an accepted enhancement to completed.
func (e *Engine) CompleteEnhancement(ctx context.Context, id string) error {
	return e.transitionEnhancement(ctx, id, model.EnhancementCompleted, model.EnhancementAccepted)
}

// RejectEnhancement moves an open enhancement to rejected.
func (e *Engine) RejectEnhancement(ctx context.Context, id string) error {
	return e.transitionEnhancement(ctx, id, model.EnhancementRejected, model.EnhancementOpen)
}

func (e *Engine) transitionEnhancement(ctx context.Context, id string, to model.EnhancementStatus, from ...model.EnhancementStatus) error {
	err := e.withTx(ctx, func(tx service.Transaction) error {
		return tx.TransitionEnhancement(ctx, id, from, to)
	})
	if err != nil {
		logFailure(ctx, err, "enhancement transition failed", common.Fields{"enhancement_id": id, "to": string(to)})
		return err
	}

	e.metrics.enhancementTransitions.WithLabelValues(string(to)).Inc()
	common.LogInfo(ctx, "enhancement "+string(to), common.Fields{"enhancement_id": id})
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyList(dst *[]string, src *[]string) {
	if src != nil {
		*dst = cloneList(*src)
	}
}
