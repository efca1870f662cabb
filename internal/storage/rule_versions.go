package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/rulesmith/internal/model"
)

const ruleVersionColumns = `rule_id, version, rule_type, description, diff, status,
	submitted_by, added_by, project, timestamp, categories, tags, examples, applies_to,
	applies_to_rationale, user_story, scope_level, scope_id, parent_rule_id, archived_at`

// InsertRuleVersion appends a snapshot to a rule's history. Two archives of
// the same (rule, version) mean a lost race and are reported as stale.
func (s *queries) InsertRuleVersion(ctx context.Context, version *model.RuleVersion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRuleVersion(version); err != nil {
		return err
	}

	status := version.Status
	if status == "" {
		status = model.RuleApproved
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO rule_versions (`+ruleVersionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		version.RuleID,
		version.Version,
		version.RuleType,
		version.Description,
		version.Diff,
		string(status),
		version.SubmittedBy,
		version.AddedBy,
		version.Project,
		version.Timestamp.UTC(),
		encodeList(version.Categories),
		encodeList(version.Tags),
		encodeList(version.Examples),
		encodeList(version.AppliesTo),
		version.AppliesToRationale,
		version.UserStory,
		string(version.ScopeLevel),
		toNullString(version.ScopeID),
		toNullString(version.ParentRuleID),
		version.ArchivedAt.UTC(),
	)
	if isConstraintViolation(err) {
		return staleRule(version.RuleID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to archive rule version: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule version ID: %w", err)
	}
	version.ID = id
	return nil
}

// ListRuleVersions returns a rule's archived snapshots, newest version first.
// An unknown rule yields an empty list.
func (s *queries) ListRuleVersions(ctx context.Context, ruleID string) ([]model.RuleVersion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ruleID, "ruleID"); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, `+ruleVersionColumns+`
		FROM rule_versions
		WHERE rule_id = ?
		ORDER BY version DESC
	`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	versions := []model.RuleVersion{}
	for rows.Next() {
		var (
			v                                     model.RuleVersion
			scopeID, parentRuleID                 sql.NullString
			status, scopeLevel                    string
			categories, tags, examples, appliesTo string
			archivedAt                            sql.NullTime
		)
		err := rows.Scan(
			&v.ID,
			&v.RuleID,
			&v.Version,
			&v.RuleType,
			&v.Description,
			&v.Diff,
			&status,
			&v.SubmittedBy,
			&v.AddedBy,
			&v.Project,
			&v.Timestamp,
			&categories,
			&tags,
			&examples,
			&appliesTo,
			&v.AppliesToRationale,
			&v.UserStory,
			&scopeLevel,
			&scopeID,
			&parentRuleID,
			&archivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule version: %w", err)
		}

		if v.ScopeLevel, err = model.ParseScopeLevel(scopeLevel); err != nil {
			return nil, fmt.Errorf("rule version %d: %w", v.ID, err)
		}
		v.Status = model.RuleStatus(status)
		v.ScopeID = fromNullString(scopeID)
		v.ParentRuleID = fromNullString(parentRuleID)
		if archivedAt.Valid {
			v.ArchivedAt = archivedAt.Time
		}
		v.Categories = decodeList(categories)
		v.Tags = decodeList(tags)
		v.Examples = decodeList(examples)
		v.AppliesTo = decodeList(appliesTo)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// CountRuleVersions returns how many snapshots a rule has accumulated.
func (s *queries) CountRuleVersions(ctx context.Context, ruleID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rule_versions WHERE rule_id = ?`, ruleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rule versions: %w", err)
	}
	return count, nil
}
