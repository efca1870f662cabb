package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

// maxParentDepth bounds parent-link walks on corrupted data.
const maxParentDepth = 64

// ValidateScope parses a raw level and checks that scopeID accompanies every
// non-global level. The returned scope never carries an ID at global level.
func ValidateScope(level, scopeID string) (model.Scope, error) {
	parsed, err := model.ParseScopeLevel(level)
	if err != nil {
		return model.Scope{}, scopeInputError(fmt.Sprintf("Invalid scope_level %q: must be one of %s", level, scopeLevelNames()))
	}

	scopeID = strings.TrimSpace(scopeID)
	if parsed == model.ScopeGlobal {
		return model.Scope{Level: model.ScopeGlobal}, nil
	}
	if scopeID == "" {
		return model.Scope{}, scopeInputError(fmt.Sprintf("scope_id is required for %s scope", parsed))
	}
	return model.Scope{Level: parsed, ID: scopeID}, nil
}

// scopeInputError is a validation failure that is also an invalid scope.
func scopeInputError(problem string) error {
	return fmt.Errorf("%w: %w", common.ErrInvalidScope, common.NewValidationError(problem))
}

// ValidatePromotionContext checks that an update keeps a rule at the same or a
// broader scope. Narrowing an existing rule is a scope violation.
func ValidatePromotionContext(current *model.Rule, next model.Scope) error {
	if current.ScopeLevel == next.Level {
		return nil
	}
	if next.Level.BroaderThan(current.ScopeLevel) {
		return nil
	}
	return fmt.Errorf("%w: rule %s is %s scoped and cannot be narrowed to %s",
		common.ErrScopeViolation, current.ID, current.ScopeLevel, next.Level)
}

// Promote moves a rule to a strictly broader scope without changing its version.
func (e *Engine) Promote(ctx context.Context, ruleID, level, scopeID string) (*model.Rule, error) {
	var promoted *model.Rule
	err := e.withTx(ctx, func(tx service.Transaction) error {
		rule, err := tx.GetRule(ctx, ruleID)
		if err != nil {
			return err
		}

		target, err := ValidateScope(level, scopeID)
		if err != nil {
			return err
		}

		if !target.Level.BroaderThan(rule.ScopeLevel) {
			return fmt.Errorf("%w: can only promote to a higher scope (rule %s is %s, requested %s)",
				common.ErrScopeViolation, rule.ID, rule.ScopeLevel, target.Level)
		}

		if err := e.CheckConflict(ctx, tx, rule.ID, rule.RuleType, target, rule.ParentRuleID); err != nil {
			return err
		}

		if err := tx.UpdateRuleScope(ctx, rule.ID, rule.ScopeLevel, target); err != nil {
			return err
		}

		from := rule.Scope()
		rule.ScopeLevel = target.Level
		rule.ScopeID = target.ID
		promoted = rule

		common.LogInfo(ctx, "rule promoted", common.Fields{
			"rule_id": rule.ID,
			"from":    from.Label(),
			"to":      target.Label(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			e.metrics.conflicts.Inc()
		}
		logFailure(ctx, err, "promotion failed", common.Fields{"rule_id": ruleID, "scope_level": level})
		return nil, err
	}

	e.metrics.promotions.Inc()
	return promoted, nil
}

// CheckConflict fails when another live rule of the same type governs an
// overlapping scope. Rules linked to the candidate by an explicit parent
// override and exempt rule types never conflict.
func (e *Engine) CheckConflict(ctx context.Context, store service.Store, candidateID, ruleType string, scope model.Scope, parentID string) error {
	if e.conflictExempt[ruleType] {
		return nil
	}

	rules, err := store.ListRules(ctx, service.RuleFilter{RuleType: ruleType})
	if err != nil {
		return fmt.Errorf("failed to load rules for conflict check: %w", err)
	}

	for i := range rules {
		other := &rules[i]
		if other.ID == candidateID {
			continue
		}
		if other.ID == parentID || other.ParentRuleID == candidateID {
			continue
		}
		if !scope.Overlaps(other.Scope()) {
			continue
		}
		return &common.ConflictError{
			RuleID:   other.ID,
			RuleType: ruleType,
			Scope:    other.Scope().Label(),
		}
	}
	return nil
}

// validateParent checks that parentID names a live rule at a strictly broader
// scope and that following parent links from it never returns to ruleID.
func validateParent(ctx context.Context, store service.Store, ruleID, parentID string, scope model.Scope) error {
	if parentID == "" {
		return nil
	}
	if parentID == ruleID {
		return common.NewValidationError("parent_rule_id cannot reference the rule itself")
	}

	parent, err := store.GetRule(ctx, parentID)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewValidationError(fmt.Sprintf("parent_rule_id %s does not reference a live rule", parentID))
	}
	if err != nil {
		return err
	}

	if !parent.ScopeLevel.BroaderThan(scope.Level) {
		return fmt.Errorf("%w: parent rule %s is %s scoped, which is not broader than %s",
			common.ErrScopeViolation, parent.ID, parent.ScopeLevel, scope.Level)
	}

	seen := map[string]bool{ruleID: true}
	for current, depth := parent, 0; current != nil && current.ParentRuleID != ""; depth++ {
		if seen[current.ID] || depth > maxParentDepth {
			return common.NewValidationError("parent_rule_id would create a cycle")
		}
		seen[current.ID] = true
		if seen[current.ParentRuleID] {
			return common.NewValidationError("parent_rule_id would create a cycle")
		}

		next, err := store.GetRule(ctx, current.ParentRuleID)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}
