package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/engine"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Reviewer feedback on proposals",
	}

	cmd.AddCommand(addFeedbackCmd())
	cmd.AddCommand(listFeedbackCmd())

	return cmd
}

func addFeedbackCmd() *cobra.Command {
	var in engine.FeedbackInput

	cmd := &cobra.Command{
		Use:   "add <proposal-id> <accept|reject|needs_changes>",
		Short: "Attach feedback to a proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in.Type = args[1]

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			feedback, err := eng.AddFeedback(ctx, args[0], in)
			if err != nil {
				return fmt.Errorf("failed to add feedback: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Feedback %s recorded on %s", feedback.ID, args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.UserID, "user", os.Getenv("USER"), "reviewer id")
	cmd.Flags().StringVarP(&in.Comments, "comments", "m", "", "free-form comments")

	return cmd
}

func listFeedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <proposal-id>",
		Short: "List feedback on a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			feedback, err := eng.ListFeedback(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list feedback: %w", err)
			}
			return cli.PrintFeedback(cmd.OutOrStdout(), feedback)
		},
	}
}
