package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/balance"
	"github.com/roach88/aquaplan/internal/viability"
)

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <project>",
		Short: "Audit flow and removal consistency along the treatment train",
		Long: `Audit the computed treatment train: flow continuity between stages,
waste accounting, removal efficiencies, and the final effluent against the
target turbidity. Stages not yet computed are skipped.

Exit codes:
  0 - no violations
  1 - one or more violations`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(rootOpts, cmd, func(a *app) error {
				rep, err := a.engine.Balance(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("balance audit failed", err)
				}
				if err := f.Success(rep, func(w io.Writer) { renderBalance(w, rep) }); err != nil {
					return err
				}
				if !rep.OK() {
					return NewExitError(ExitFailure, fmt.Sprintf("%d balance violation(s)", len(rep.Violations)))
				}
				return nil
			})
		},
	}
}

func renderBalance(w io.Writer, rep balance.Report) {
	fmt.Fprintf(w, "Stages checked: %s\n", joinOrNone(rep.Stages))
	if len(rep.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped (not computed): %s\n", joinOrNone(rep.Skipped))
	}
	fmt.Fprintf(w, "Cumulative removal: %.4f\n", rep.CumulativeRemoval)
	if rep.Target > 0 {
		fmt.Fprintf(w, "Final effluent: %g NTU (target %g NTU)\n", rep.FinalEffluent, rep.Target)
	}
	if rep.OK() {
		fmt.Fprintln(w, "✓ No violations")
		return
	}
	fmt.Fprintf(w, "✗ %d violation(s):\n", len(rep.Violations))
	for _, v := range rep.Violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
}

// NewViabilityCommand creates the viability command.
func NewViabilityCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "viability <project>",
		Short: "Score the project against the viability matrix",
		Long: `Score the project's current data against the weighted viability
criteria and classify the total into a tier. Criteria whose quantity is not
available yet score 0 and are listed as missing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(rootOpts, cmd, func(a *app) error {
				res, err := a.engine.Viability(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("viability scoring failed", err)
				}
				return f.Success(res, func(w io.Writer) { renderViability(w, res) })
			})
		},
	}
}

func renderViability(w io.Writer, res viability.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CRITERION\tGROUP\tWEIGHT\tSCORE\tWEIGHTED")
	for _, c := range res.Criteria {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%.1f\t%.2f\n", c.Name, c.Group, c.Weight, c.Score, c.Weighted)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, g := range res.Groups {
		fmt.Fprintf(w, "%s: %.2f\n", g.Group, g.Weighted)
	}
	fmt.Fprintf(w, "\nTotal: %.2f - %s\n", res.Total, res.Tier)
	if len(res.Missing) > 0 {
		fmt.Fprintf(w, "Missing data (scored 0): %s\n", joinOrNone(res.Missing))
	}
}
