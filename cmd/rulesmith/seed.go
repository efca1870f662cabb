package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rulesmith/internal/cli"
	"github.com/Veraticus/rulesmith/internal/seed"
)

func seedCmd() *cobra.Command {
	var approve bool

	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load proposals from a YAML or JSON file",
		Long: `Submit every proposal listed in a seed file. The file is either a list of
proposals or a mapping with a "proposals" key. With --approve each proposal
is approved right after it is submitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			inputs, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(inputs) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Seed file has no proposals."))
				return nil
			}

			eng, _, cleanup, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			progress := cli.NewProgress(cmd.ErrOrStderr(), len(inputs), "Seeding proposals")
			result, err := seed.Apply(ctx, eng, inputs, seed.Options{
				Approve: approve,
				Progress: func(done, _ int) {
					progress.Set(done)
				},
			})
			if err != nil {
				return err
			}
			progress.Finish()

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Proposed %d, approved %d of %d entries", result.Proposed, result.Approved, len(inputs))))
			for _, failure := range result.Failures {
				fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("entry %d: %v", failure.Index+1, failure.Err)))
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d seed entries failed", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "approve each proposal after submitting it")

	return cmd
}
