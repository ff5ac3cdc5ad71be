package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/engine"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "run <project> <module>",
		Short: "Run one design module",
		Long: `Run one design module for a project. Parameters not given keep the
value from the module's previous run, or their default.

Caller errors exit 1 and write nothing:
  E211 missing inputs (run the upstream modules first)
  E212 value out of its physical range
  E213 a criterion configured as reject failed
  E216 a must-pass upstream criterion failed

Example:
  aquaplan run 0190c3d2-... sedimentation --param overflow_rate_m3m2d=28`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			form, err := parseAssignments(params)
			if err != nil {
				return argError(f, "--param: %v", err)
			}
			return withApp(rootOpts, cmd, func(a *app) error {
				res, err := a.engine.Run(cmd.Context(), args[0], args[1], form)
				if err != nil {
					return f.Fail(fmt.Sprintf("%s did not run", args[1]), err)
				}
				return f.Success(res, func(w io.Writer) { renderRun(w, res) })
			})
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "form parameter name=value (repeatable)")
	return cmd
}

// NewRerunCommand creates the rerun command.
func NewRerunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rerun <project>",
		Short: "Recompute stale modules in dependency order",
		Long: `Recompute every stale module in topological order with its stored
parameters. Stops at the first stale module that cannot run and exits 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(rootOpts, cmd, func(a *app) error {
				res, err := a.engine.Rerun(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("rerun failed", err)
				}
				if res.StoppedAt != "" {
					details := map[string]any{"runs": res.Runs, "stopped_at": res.StoppedAt}
					if err := f.Error(engine.ErrorCode(res.Reason), res.Reason.Error(), details); err != nil {
						return err
					}
					return WrapExitError(ExitFailure, fmt.Sprintf("rerun stopped at %s", res.StoppedAt), res.Reason)
				}
				return f.Success(res, func(w io.Writer) {
					if len(res.Runs) == 0 {
						fmt.Fprintln(w, "Nothing stale.")
						return
					}
					for _, r := range res.Runs {
						fmt.Fprintf(w, "%s: %s\n", r.Module, r.Status)
					}
				})
			})
		},
	}
}

func renderRun(w io.Writer, res *engine.RunResult) {
	fmt.Fprintf(w, "%s: %s (run %s)\n", res.Module, res.Status, res.RunID)

	fmt.Fprintln(w, "\nOutputs:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range res.Outputs.SortedNames() {
		fmt.Fprintf(tw, "  %s\t%s\n", name, formatValue(res.Outputs[name]))
	}
	tw.Flush()

	if len(res.Flags) > 0 {
		fmt.Fprintln(w, "\nDesign checks:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, fl := range res.Flags {
			mark := "✓"
			if !fl.Pass {
				mark = "✗"
			}
			fmt.Fprintf(tw, "  %s %s\t%g %s\t%s\n", mark, fl.Qualified(), fl.Value, fl.Unit, fl.Range)
		}
		tw.Flush()
	}

	if !res.Changed {
		fmt.Fprintln(w, "\nOutputs unchanged.")
	}
	if len(res.Stale) > 0 {
		fmt.Fprintf(w, "\nNow stale: %s\n", joinOrNone(res.Stale))
	}
}
