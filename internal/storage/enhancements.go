package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
)

const enhancementColumns = `id, description, suggested_by, page, project, diff, user_story,
	status, proposal_id, categories, tags, examples, applies_to, applies_to_rationale, timestamp`

// CreateEnhancement stores a new enhancement.
func (s *queries) CreateEnhancement(ctx context.Context, enhancement *model.Enhancement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEnhancement(enhancement); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO enhancements (`+enhancementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		enhancement.ID,
		enhancement.Description,
		enhancement.SuggestedBy,
		enhancement.Page,
		enhancement.Project,
		enhancement.Diff,
		enhancement.UserStory,
		string(enhancement.Status),
		toNullString(enhancement.ProposalID),
		encodeList(enhancement.Categories),
		encodeList(enhancement.Tags),
		encodeList(enhancement.Examples),
		encodeList(enhancement.AppliesTo),
		enhancement.AppliesToRationale,
		enhancement.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create enhancement: %w", err)
	}
	return nil
}

// GetEnhancement retrieves an enhancement by ID.
func (s *queries) GetEnhancement(ctx context.Context, id string) (*model.Enhancement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+enhancementColumns+` FROM enhancements WHERE id = ?`, id)
	enhancement, err := scanEnhancement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enhancement %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enhancement: %w", err)
	}
	return enhancement, nil
}

// ListEnhancements returns every enhancement in insertion order.
func (s *queries) ListEnhancements(ctx context.Context) ([]model.Enhancement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `SELECT `+enhancementColumns+` FROM enhancements ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enhancements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	enhancements := []model.Enhancement{}
	for rows.Next() {
		enhancement, err := scanEnhancement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enhancement: %w", err)
		}
		enhancements = append(enhancements, *enhancement)
	}
	return enhancements, rows.Err()
}

// UpdateEnhancement rewrites the editable fields of an enhancement.
// Status and proposal link only change through TransitionEnhancement and
// LinkEnhancementProposal.
func (s *queries) UpdateEnhancement(ctx context.Context, enhancement *model.Enhancement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEnhancement(enhancement); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE enhancements SET
			description = ?, suggested_by = ?, page = ?, project = ?, diff = ?,
			user_story = ?, categories = ?, tags = ?, examples = ?, applies_to = ?,
			applies_to_rationale = ?
		WHERE id = ?
	`,
		enhancement.Description,
		enhancement.SuggestedBy,
		enhancement.Page,
		enhancement.Project,
		enhancement.Diff,
		enhancement.UserStory,
		encodeList(enhancement.Categories),
		encodeList(enhancement.Tags),
		encodeList(enhancement.Examples),
		encodeList(enhancement.AppliesTo),
		enhancement.AppliesToRationale,
		enhancement.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update enhancement: %w", err)
	}
	return requireEnhancementRow(result, enhancement.ID)
}

// TransitionEnhancement performs a compare-and-set on the enhancement status.
func (s *queries) TransitionEnhancement(ctx context.Context, id string, from []model.EnhancementStatus, to model.EnhancementStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if len(from) == 0 {
		return fmt.Errorf("%w: from statuses", ErrEmptySlice)
	}

	args := []any{string(to), id}
	for _, status := range from {
		args = append(args, string(status))
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE enhancements SET status = ?
		WHERE id = ? AND status IN (`+placeholders(len(from))+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update enhancement status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = s.q.QueryRowContext(ctx, `SELECT status FROM enhancements WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("enhancement %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read enhancement status: %w", err)
	}
	return &common.TransitionError{Entity: "enhancement", ID: id, From: current, To: string(to)}
}

// LinkEnhancementProposal records the proposal an enhancement became.
func (s *queries) LinkEnhancementProposal(ctx context.Context, id, proposalID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `UPDATE enhancements SET proposal_id = ? WHERE id = ?`,
		toNullString(proposalID), id)
	if err != nil {
		return fmt.Errorf("failed to link enhancement: %w", err)
	}
	return requireEnhancementRow(result, id)
}

func requireEnhancementRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("enhancement %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanEnhancement(row rowScanner) (*model.Enhancement, error) {
	var (
		e                                     model.Enhancement
		proposalID                            sql.NullString
		status                                string
		categories, tags, examples, appliesTo string
	)
	err := row.Scan(
		&e.ID,
		&e.Description,
		&e.SuggestedBy,
		&e.Page,
		&e.Project,
		&e.Diff,
		&e.UserStory,
		&status,
		&proposalID,
		&categories,
		&tags,
		&examples,
		&appliesTo,
		&e.AppliesToRationale,
		&e.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if e.Status, err = model.ParseEnhancementStatus(status); err != nil {
		return nil, fmt.Errorf("enhancement %s: %w", e.ID, err)
	}
	e.ProposalID = fromNullString(proposalID)
	e.Categories = decodeList(categories)
	e.Tags = decodeList(tags)
	e.Examples = decodeList(examples)
	e.AppliesTo = decodeList(appliesTo)
	return &e, nil
}
