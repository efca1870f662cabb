package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

const ruleColumns = `id, rule_type, description, diff, status, submitted_by, added_by,
	project, timestamp, version, categories, tags, examples, applies_to,
	applies_to_rationale, user_story, scope_level, scope_id, parent_rule_id`

// GetRule retrieves a live rule by ID.
func (s *queries) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListRules returns live rules matching the filter, oldest first.
func (s *queries) ListRules(ctx context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM rules WHERE 1 = 1`
	var args []any
	if filter.Project != "" {
		query += ` AND project = ?`
		args = append(args, filter.Project)
	}
	if filter.RuleType != "" {
		query += ` AND rule_type = ?`
		args = append(args, filter.RuleType)
	}
	if filter.ScopeLevel != "" {
		query += ` AND scope_level = ?`
		args = append(args, string(filter.ScopeLevel))
	}
	if filter.ScopeID != "" {
		query += ` AND scope_id = ?`
		args = append(args, filter.ScopeID)
	}
	query += ` ORDER BY timestamp, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := []model.Rule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		// List membership is matched after decoding so "a,b" never matches "a,bc".
		if filter.Tag != "" && !slices.Contains(rule.Tags, filter.Tag) {
			continue
		}
		if len(filter.Categories) > 0 && !containsAny(rule.Categories, filter.Categories) {
			continue
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// InsertRule stores a new live rule. A duplicate ID means another writer got
// there first and is reported as a retryable stale-rule error.
func (s *queries) InsertRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.ID,
		rule.RuleType,
		rule.Description,
		rule.Diff,
		string(model.RuleApproved),
		rule.SubmittedBy,
		rule.AddedBy,
		rule.Project,
		rule.Timestamp.UTC(),
		rule.Version,
		encodeList(rule.Categories),
		encodeList(rule.Tags),
		encodeList(rule.Examples),
		encodeList(rule.AppliesTo),
		rule.AppliesToRationale,
		rule.UserStory,
		string(rule.ScopeLevel),
		toNullString(rule.ScopeID),
		toNullString(rule.ParentRuleID),
	)
	if isConstraintViolation(err) {
		return staleRule(rule.ID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// UpdateRule rewrites the descriptive fields of a rule in place. The version
// is left untouched; only approvals bump it.
func (s *queries) UpdateRule(ctx context.Context, rule *model.Rule, expectedVersion int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE rules SET
			rule_type = ?, description = ?, diff = ?, project = ?,
			categories = ?, tags = ?, examples = ?, applies_to = ?,
			applies_to_rationale = ?, user_story = ?, parent_rule_id = ?,
			scope_level = ?, scope_id = ?
		WHERE id = ? AND version = ?
	`,
		rule.RuleType,
		rule.Description,
		rule.Diff,
		rule.Project,
		encodeList(rule.Categories),
		encodeList(rule.Tags),
		encodeList(rule.Examples),
		encodeList(rule.AppliesTo),
		rule.AppliesToRationale,
		rule.UserStory,
		toNullString(rule.ParentRuleID),
		string(rule.ScopeLevel),
		toNullString(rule.ScopeID),
		rule.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return s.checkRuleWrite(ctx, result, rule.ID)
}

// UpdateRuleScope moves a rule to a new scope if its level is still expected.
func (s *queries) UpdateRuleScope(ctx context.Context, id string, expected model.ScopeLevel, scope model.Scope) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateScope(scope.Level, scope.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE rules SET scope_level = ?, scope_id = ?
		WHERE id = ? AND scope_level = ?
	`, string(scope.Level), toNullString(scope.ID), id, string(expected))
	if err != nil {
		return fmt.Errorf("failed to update rule scope: %w", err)
	}
	return s.checkRuleWrite(ctx, result, id)
}

// DeleteRule removes a rule if it is still at expectedVersion.
func (s *queries) DeleteRule(ctx context.Context, id string, expectedVersion int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM rules WHERE id = ? AND version = ?`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return s.checkRuleWrite(ctx, result, id)
}

// checkRuleWrite turns a zero-row compare-and-set into NotFound or a stale-rule error.
func (s *queries) checkRuleWrite(ctx context.Context, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rules WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	return staleRule(id, nil)
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var (
		r                                     model.Rule
		scopeID, parentRuleID                 sql.NullString
		status, scopeLevel                    string
		categories, tags, examples, appliesTo string
	)
	err := row.Scan(
		&r.ID,
		&r.RuleType,
		&r.Description,
		&r.Diff,
		&status,
		&r.SubmittedBy,
		&r.AddedBy,
		&r.Project,
		&r.Timestamp,
		&r.Version,
		&categories,
		&tags,
		&examples,
		&appliesTo,
		&r.AppliesToRationale,
		&r.UserStory,
		&scopeLevel,
		&scopeID,
		&parentRuleID,
	)
	if err != nil {
		return nil, err
	}

	if r.ScopeLevel, err = model.ParseScopeLevel(scopeLevel); err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	r.Status = model.RuleStatus(status)
	r.ScopeID = fromNullString(scopeID)
	r.ParentRuleID = fromNullString(parentRuleID)
	r.Categories = decodeList(categories)
	r.Tags = decodeList(tags)
	r.Examples = decodeList(examples)
	r.AppliesTo = decodeList(appliesTo)
	return &r, nil
}
