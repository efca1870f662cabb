package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/mdc"
	"github.com/Veraticus/rulesmith/internal/service"
)

func exportCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export approved rules as JSON and MDC files",
		Long: `Write approved_rules.json plus one MDC file per rule into the export
directory. MDC files are grouped by project, or by scope for rules without a
project.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, cfg, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rules, err := eng.ListRules(ctx, service.RuleFilter{Project: project})
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			result, err := mdc.Export(cfg.Export.Dir, rules)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d rules to %s", len(rules), result.JSONPath)))
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d MDC files written", len(result.Files))))
			return nil
		},
	}

	cmd.Flags().String("dir", "", "export directory (default: exported_rules)")
	cmd.Flags().StringVar(&project, "project", "", "only export rules for this project")
	_ = viper.BindPFlag("export.dir", cmd.Flags().Lookup("dir"))

	return cmd
}
