package engine

import (
	"context"
	"strings"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/mdc"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

// GetRule returns a live rule.
func (e *Engine) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	return e.storage.GetRule(ctx, id)
}

// ListRules returns live rules matching filter.
func (e *Engine) ListRules(ctx context.Context, filter service.RuleFilter) ([]model.Rule, error) {
	return e.storage.ListRules(ctx, filter)
}

// RulesMDC returns the non-empty bodies of live rules, optionally for one project.
func (e *Engine) RulesMDC(ctx context.Context, project string) ([]string, error) {
	rules, err := e.storage.ListRules(ctx, service.RuleFilter{Project: project})
	if err != nil {
		return nil, err
	}

	bodies := []string{}
	for _, rule := range rules {
		if rule.Diff != "" {
			bodies = append(bodies, rule.Diff)
		}
	}
	return bodies, nil
}

// UpdateRule edits a rule's descriptive fields in place. Identity, type,
// version, scope and authorship are not patchable; the version is unchanged.
func (e *Engine) UpdateRule(ctx context.Context, id string, patch RulePatch) (*model.Rule, error) {
	problems := inputProblems(&patch)
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		problems = append(problems, "description must not be empty")
	}
	if patch.Diff != nil {
		problems = append(problems, mdc.Check(*patch.Diff)...)
	}
	if err := validationFailure(problems); err != nil {
		return nil, err
	}

	var updated *model.Rule
	err := e.withTx(ctx, func(tx service.Transaction) error {
		rule, err := tx.GetRule(ctx, id)
		if err != nil {
			return err
		}

		applyString(&rule.Description, patch.Description)
		applyString(&rule.Diff, patch.Diff)
		applyString(&rule.Project, patch.Project)
		applyString(&rule.AppliesToRationale, patch.AppliesToRationale)
		applyString(&rule.UserStory, patch.UserStory)
		applyList(&rule.Categories, patch.Categories)
		applyList(&rule.Tags, patch.Tags)
		applyList(&rule.Examples, patch.Examples)
		applyList(&rule.AppliesTo, patch.AppliesTo)

		if err := tx.UpdateRule(ctx, rule, rule.Version); err != nil {
			return err
		}
		updated = rule
		return nil
	})
	if err != nil {
		logFailure(ctx, err, "rule update failed", common.Fields{"rule_id": id})
		return nil, err
	}

	common.LogInfo(ctx, "rule updated", common.Fields{"rule_id": id, "version": updated.Version})
	return updated, nil
}
