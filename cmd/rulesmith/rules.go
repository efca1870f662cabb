package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/model"
	"github.com/Veraticus/rulesmith/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Inspect and promote approved rules",
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(ruleHistoryCmd())
	cmd.AddCommand(promoteRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	var (
		filter     service.RuleFilter
		scopeLevel string
		categories string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approved rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if scopeLevel != "" {
				level, err := model.ParseScopeLevel(scopeLevel)
				if err != nil {
					return err
				}
				filter.ScopeLevel = level
			}
			filter.Categories = splitList(categories)

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rules, err := eng.ListRules(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			return cli.PrintRules(cmd.OutOrStdout(), rules)
		},
	}

	cmd.Flags().StringVar(&filter.Project, "project", "", "only rules for this project")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "only rules carrying this tag")
	cmd.Flags().StringVar(&filter.RuleType, "type", "", "only rules of this type")
	cmd.Flags().StringVar(&filter.ScopeID, "scope-id", "", "only rules with this scope identifier")
	cmd.Flags().StringVar(&scopeLevel, "scope", "", "only rules at this scope: machine, project, team, global")
	cmd.Flags().StringVar(&categories, "categories", "", "comma separated categories; any match")

	return cmd
}

func ruleHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <rule-id>",
		Short: "Show archived versions of a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			versions, err := eng.History(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			return cli.PrintHistory(cmd.OutOrStdout(), args[0], versions)
		},
	}
}

func promoteRuleCmd() *cobra.Command {
	var scopeID string

	cmd := &cobra.Command{
		Use:   "promote <rule-id> <scope>",
		Short: "Move a rule to a wider scope",
		Long: `Promote a rule to a broader scope level (project, team or global). The
version number is unchanged. Team and project scopes need --scope-id.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := eng.Promote(ctx, args[0], args[1], scopeID)
			if err != nil {
				return fmt.Errorf("failed to promote %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %s promoted to %s (v%d)", rule.ID, rule.Scope().Label(), rule.Version)))
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeID, "scope-id", "", "scope identifier for team and project scopes")

	return cmd
}
