package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/engine"
	"github.com/Veraticus/rulesmith/internal/model"
)

func proposalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposals",
		Aliases: []string{"proposal"},
		Short:   "Review rule proposals",
		Long:    `List, approve, reject and revert rule proposals.`,
	}

	cmd.AddCommand(listProposalsCmd())
	cmd.AddCommand(showProposalCmd())
	cmd.AddCommand(approveProposalCmd())
	cmd.AddCommand(rejectProposalCmd())
	cmd.AddCommand(revertProposalCmd())

	return cmd
}

func listProposalsCmd() *cobra.Command {
	var (
		status string
		all    bool
		desc   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals (pending by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var filter *model.ProposalStatus
			if !all {
				parsed, err := model.ParseProposalStatus(status)
				if err != nil {
					return err
				}
				filter = &parsed
			}

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			proposals, err := eng.ListProposals(ctx, filter, desc)
			if err != nil {
				return fmt.Errorf("failed to list proposals: %w", err)
			}
			return cli.PrintProposals(cmd.OutOrStdout(), proposals)
		},
	}

	cmd.Flags().StringVar(&status, "status", string(model.ProposalPending), "status to list: pending, approved, rejected, reverted_to_enhancement")
	cmd.Flags().BoolVar(&all, "all", false, "list proposals in every status")
	cmd.Flags().BoolVar(&desc, "desc", false, "newest first")

	return cmd
}

func showProposalCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <proposal-id>",
		Short: "Show one proposal in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			proposal, err := eng.GetProposal(ctx, args[0])
			if err != nil {
				return err
			}
			if !asJSON {
				return cli.PrintProposal(cmd.OutOrStdout(), proposal)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(proposal)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the proposal as JSON")

	return cmd
}

func approveProposalCmd() *cobra.Command {
	var (
		allPending bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "approve [proposal-id...]",
		Short: "Approve proposals into rules",
		Long: `Approve one or more pending proposals. Approving a proposal that targets an
existing rule archives the current rule version first.

With --all-pending every pending proposal is approved in submission order;
failures are reported and the run continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if allPending == (len(args) > 0) {
				return errors.New("pass proposal ids or --all-pending, not both")
			}

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if !allPending {
				for _, id := range args {
					result, err := approveWithRetry(ctx, eng, id)
					if err != nil {
						return fmt.Errorf("failed to approve %s: %w", id, err)
					}
					fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Approved %s: rule %s is now v%d", id, result.Rule.ID, result.Version)))
				}
				return nil
			}

			return approveAllPending(ctx, eng, cmd.InOrStdin(), out, yes)
		},
	}

	cmd.Flags().BoolVar(&allPending, "all-pending", false, "approve every pending proposal")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// approveWithRetry resubmits an approval that lost a race on its target rule.
func approveWithRetry(ctx context.Context, eng *engine.Engine, id string) (*engine.ApprovalResult, error) {
	var result *engine.ApprovalResult
	err := common.WithRetry(ctx, func() error {
		var err error
		result, err = eng.Approve(ctx, id)
		return err
	}, common.RetryOptions{MaxAttempts: 3})
	return result, err
}

func approveAllPending(ctx context.Context, eng *engine.Engine, in io.Reader, out io.Writer, yes bool) error {
	pending, err := eng.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending proposals: %w", err)
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No pending proposals."))
		return nil
	}

	if !yes {
		ok, err := cli.Confirm(ctx, in, out, fmt.Sprintf("Approve %d pending proposals?", len(pending)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, cli.FormatInfo("Nothing approved."))
			return nil
		}
	}

	interrupts := cli.NewInterruptHandler(out, "Bulk approval")
	ctx, stop := interrupts.HandleInterrupts(ctx, "Approved proposals stay approved; rerun with --all-pending to continue.")
	defer stop()

	progress := cli.NewProgress(out, len(pending), "Approving proposals")
	var failures []string
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		if _, err := approveWithRetry(ctx, eng, p.ID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", p.ID, err))
		}
		progress.Step()
	}
	if interrupts.WasInterrupted() {
		return ctx.Err()
	}
	progress.Finish()

	approved := len(pending) - len(failures)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Approved %d of %d proposals", approved, len(pending))))
	for _, failure := range failures {
		fmt.Fprintln(out, cli.FormatError(failure))
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d proposals could not be approved", len(failures))
	}
	return nil
}

func rejectProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <proposal-id>",
		Short: "Reject a pending proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.Reject(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to reject %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rejected %s", args[0])))
			return nil
		},
	}
}

func revertProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <proposal-id>",
		Short: "Turn a pending or rejected proposal back into an enhancement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			enhancement, err := eng.FromProposal(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to revert %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Proposal %s reverted to enhancement %s", args[0], enhancement.ID)))
			return nil
		},
	}
}
