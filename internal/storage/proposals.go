package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

const proposalColumns = `id, rule_id, rule_type, description, diff, status, submitted_by,
	project, timestamp, categories, tags, examples, applies_to, applies_to_rationale,
	reason_for_change, "references", current_rule, user_story, scope_level, scope_id, parent_rule_id`

// CreateProposal stores a new proposal.
func (s *queries) CreateProposal(ctx context.Context, proposal *model.Proposal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProposal(proposal); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO proposals (`+proposalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		proposal.ID,
		toNullString(proposal.RuleID),
		proposal.RuleType,
		proposal.Description,
		proposal.Diff,
		string(proposal.Status),
		proposal.SubmittedBy,
		proposal.Project,
		proposal.Timestamp.UTC(),
		encodeList(proposal.Categories),
		encodeList(proposal.Tags),
		encodeList(proposal.Examples),
		encodeList(proposal.AppliesTo),
		proposal.AppliesToRationale,
		proposal.ReasonForChange,
		proposal.References,
		proposal.CurrentRule,
		proposal.UserStory,
		string(proposal.ScopeLevel),
		toNullString(proposal.ScopeID),
		toNullString(proposal.ParentRuleID),
	)
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *queries) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)
	proposal, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return proposal, nil
}

// ListProposals returns proposals in insertion order unless the filter asks otherwise.
func (s *queries) ListProposals(ctx context.Context, filter service.ProposalFilter) ([]model.Proposal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.NewestFirst {
		query += ` ORDER BY rowid DESC`
	} else {
		query += ` ORDER BY rowid`
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	proposals := []model.Proposal{}
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, *proposal)
	}
	return proposals, rows.Err()
}

// TransitionProposal performs a compare-and-set on the proposal status.
// A proposal that exists but is not in one of the from states yields a
// *common.TransitionError.
func (s *queries) TransitionProposal(ctx context.Context, id string, from []model.ProposalStatus, to model.ProposalStatus) error {
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
		UPDATE proposals SET status = ?
		WHERE id = ? AND status IN (`+placeholders(len(from))+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = s.q.QueryRowContext(ctx, `SELECT status FROM proposals WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("proposal %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read proposal status: %w", err)
	}
	return &common.TransitionError{Entity: "proposal", ID: id, From: current, To: string(to)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*model.Proposal, error) {
	var (
		p                                     model.Proposal
		ruleID, scopeID, parentRuleID         sql.NullString
		status, scopeLevel                    string
		categories, tags, examples, appliesTo string
	)
	err := row.Scan(
		&p.ID,
		&ruleID,
		&p.RuleType,
		&p.Description,
		&p.Diff,
		&status,
		&p.SubmittedBy,
		&p.Project,
		&p.Timestamp,
		&categories,
		&tags,
		&examples,
		&appliesTo,
		&p.AppliesToRationale,
		&p.ReasonForChange,
		&p.References,
		&p.CurrentRule,
		&p.UserStory,
		&scopeLevel,
		&scopeID,
		&parentRuleID,
	)
	if err != nil {
		return nil, err
	}

	if p.Status, err = model.ParseProposalStatus(status); err != nil {
		return nil, fmt.Errorf("proposal %s: %w", p.ID, err)
	}
	if scopeLevel != "" {
		if p.ScopeLevel, err = model.ParseScopeLevel(scopeLevel); err != nil {
			return nil, fmt.Errorf("proposal %s: %w", p.ID, err)
		}
	}
	p.RuleID = fromNullString(ruleID)
	p.ScopeID = strings.TrimSpace(fromNullString(scopeID))
	p.ParentRuleID = fromNullString(parentRuleID)
	p.Categories = decodeList(categories)
	p.Tags = decodeList(tags)
	p.Examples = decodeList(examples)
	p.AppliesTo = decodeList(appliesTo)
	return &p, nil
}
