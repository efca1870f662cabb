package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
)

// CreateFeedback attaches reviewer feedback to an existing proposal.
func (s *queries) CreateFeedback(ctx context.Context, feedback *model.Feedback) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedback(feedback); err != nil {
		return err
	}

	var exists bool
	err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM proposals WHERE id = ?)`, feedback.ProposalID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check proposal existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("proposal %s: %w", feedback.ProposalID, common.ErrNotFound)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO proposal_feedback (id, rule_proposal_id, user_id, feedback_type, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		feedback.ID,
		feedback.ProposalID,
		feedback.UserID,
		string(feedback.Type),
		feedback.Comments,
		feedback.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// ListFeedback returns feedback for a proposal, oldest first.
func (s *queries) ListFeedback(ctx context.Context, proposalID string) ([]model.Feedback, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(proposalID, "proposalID"); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, rule_proposal_id, user_id, feedback_type, comments, created_at
		FROM proposal_feedback
		WHERE rule_proposal_id = ?
		ORDER BY created_at, rowid
	`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feedback := []model.Feedback{}
	for rows.Next() {
		var (
			f            model.Feedback
			feedbackType string
		)
		if err := rows.Scan(&f.ID, &f.ProposalID, &f.UserID, &feedbackType, &f.Comments, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if f.Type, err = model.ParseFeedbackType(feedbackType); err != nil {
			return nil, fmt.Errorf("feedback %s: %w", f.ID, err)
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}
