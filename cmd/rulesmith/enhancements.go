package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/engine"
)

func enhancementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "enhancements",
		Aliases: []string{"enhancement"},
		Short:   "Manage informal rule suggestions",
		Long: `Enhancements are informal suggestions that can be accepted, completed or
rejected, or transferred into a formal rule proposal.`,
	}

	cmd.AddCommand(listEnhancementsCmd())
	cmd.AddCommand(suggestEnhancementCmd())
	cmd.AddCommand(enhancementTransitionCmd("accept", "Accept an open enhancement", "accepted", (*engine.Engine).AcceptEnhancement))
	cmd.AddCommand(enhancementTransitionCmd("complete", "Mark an accepted enhancement completed", "completed", (*engine.Engine).CompleteEnhancement))
	cmd.AddCommand(enhancementTransitionCmd("reject", "Reject an enhancement", "rejected", (*engine.Engine).RejectEnhancement))
	cmd.AddCommand(enhancementToProposalCmd())

	return cmd
}

func listEnhancementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enhancements, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			enhancements, err := eng.ListEnhancements(ctx)
			if err != nil {
				return fmt.Errorf("failed to list enhancements: %w", err)
			}
			return cli.PrintEnhancements(cmd.OutOrStdout(), enhancements)
		},
	}
}

func suggestEnhancementCmd() *cobra.Command {
	var (
		in                          engine.EnhancementInput
		categories, tags, appliesTo string
	)

	cmd := &cobra.Command{
		Use:   "suggest <description>",
		Short: "Record a new enhancement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in.Description = args[0]
			in.Categories = splitList(categories)
			in.Tags = splitList(tags)
			in.AppliesTo = splitList(appliesTo)

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			enhancement, err := eng.SuggestEnhancement(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to record enhancement: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Enhancement %s recorded", enhancement.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.SuggestedBy, "by", os.Getenv("USER"), "who is suggesting it")
	cmd.Flags().StringVar(&in.Project, "project", "", "project the suggestion concerns")
	cmd.Flags().StringVar(&in.Page, "page", "", "page or location the suggestion came from")
	cmd.Flags().StringVar(&in.Diff, "diff", "", "draft rule content")
	cmd.Flags().StringVar(&in.UserStory, "user-story", "", "user story motivating the suggestion")
	cmd.Flags().StringVar(&in.AppliesToRationale, "applies-to-rationale", "", "why the globs were chosen")
	cmd.Flags().StringVar(&categories, "categories", "", "comma separated categories")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVar(&appliesTo, "applies-to", "", "comma separated file globs")

	return cmd
}

func enhancementTransitionCmd(use, short, done string, transition func(*engine.Engine, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <enhancement-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := transition(eng, ctx, args[0]); err != nil {
				return fmt.Errorf("failed to %s %s: %w", use, args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Enhancement %s %s", args[0], done)))
			return nil
		},
	}
}

func enhancementToProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "to-proposal <enhancement-id>",
		Short: "Transfer an enhancement into a pending rule proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			proposal, err := eng.ToProposal(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to transfer %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Enhancement %s transferred to proposal %s", args[0], proposal.ID)))
			return nil
		},
	}
}
