package engine

import (
	"context"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
)

// AddFeedback attaches reviewer feedback to an existing proposal.
func (e *Engine) AddFeedback(ctx context.Context, proposalID string, in FeedbackInput) (*model.Feedback, error) {
	if err := validationFailure(inputProblems(&in)); err != nil {
		return nil, err
	}

	feedbackType, err := model.ParseFeedbackType(in.Type)
	if err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	feedback := &model.Feedback{
		ID:         e.newID(),
		ProposalID: proposalID,
		UserID:     in.UserID,
		Type:       feedbackType,
		Comments:   in.Comments,
		CreatedAt:  e.now(),
	}
	if err := e.storage.CreateFeedback(ctx, feedback); err != nil {
		logFailure(ctx, err, "failed to store feedback", common.Fields{"proposal_id": proposalID})
		return nil, err
	}

	common.LogInfo(ctx, "feedback recorded", common.Fields{
		"proposal_id":   proposalID,
		"feedback_type": string(feedbackType),
	})
	return feedback, nil
}

// ListFeedback returns the feedback recorded for a proposal, oldest first.
func (e *Engine) ListFeedback(ctx context.Context, proposalID string) ([]model.Feedback, error) {
	if _, err := e.storage.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	return e.storage.ListFeedback(ctx, proposalID)
}
