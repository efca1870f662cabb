package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/engine"
)

func proposeCmd() *cobra.Command {
	var (
		in         engine.ProposalInput
		diffFile   string
		categories string
		tags       string
		appliesTo  string
	)

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Submit a rule proposal",
		Long: `Submit a proposal to create a new rule or, with --rule-id, to replace an
existing one. The diff must be in MDC format: a "# Rule:" heading followed by
"## Description" and "## Enforcement" sections.`,
		Example: `  rulesmith propose --type errors --description "Wrap errors" \
    --by alex --diff-file wrap-errors.md --scope team --scope-id core`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if diffFile != "" {
				data, err := os.ReadFile(diffFile)
				if err != nil {
					return fmt.Errorf("failed to read diff file: %w", err)
				}
				in.Diff = string(data)
			}
			in.Categories = splitList(categories)
			in.Tags = splitList(tags)
			in.AppliesTo = splitList(appliesTo)

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			proposal, err := eng.Propose(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to submit proposal: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Proposal %s submitted (pending review)", proposal.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ID, "id", "", "proposal id (generated when empty; becomes the rule id for new rules)")
	cmd.Flags().StringVar(&in.RuleID, "rule-id", "", "existing rule this proposal replaces")
	cmd.Flags().StringVar(&in.RuleType, "type", "", "rule type (inherited from --rule-id when omitted)")
	cmd.Flags().StringVar(&in.Description, "description", "", "short description")
	cmd.Flags().StringVar(&in.Diff, "diff", "", "MDC rule body")
	cmd.Flags().StringVar(&diffFile, "diff-file", "", "read the MDC rule body from a file")
	cmd.Flags().StringVar(&in.SubmittedBy, "by", os.Getenv("USER"), "submitter")
	cmd.Flags().StringVar(&in.Project, "project", "", "project grouping")
	cmd.Flags().StringVar(&in.ScopeLevel, "scope", "", "scope level: machine, project, team or global (default global; updates keep the rule's scope)")
	cmd.Flags().StringVar(&in.ScopeID, "scope-id", "", "identifier of the scoped machine, project or team")
	cmd.Flags().StringVar(&in.ParentRuleID, "parent", "", "broader rule this one overrides")
	cmd.Flags().StringVar(&in.ReasonForChange, "reason", "", "reason for the change")
	cmd.Flags().StringVar(&in.References, "references", "", "supporting references")
	cmd.Flags().StringVar(&in.UserStory, "user-story", "", "user story")
	cmd.Flags().StringVar(&in.AppliesToRationale, "applies-to-rationale", "", "why the rule applies to the listed paths")
	cmd.Flags().StringVar(&categories, "categories", "", "comma separated categories")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVar(&appliesTo, "applies-to", "", "comma separated path globs")
	cmd.MarkFlagsMutuallyExclusive("diff", "diff-file")

	return cmd
}
