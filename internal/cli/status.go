package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/engine"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status <project>",
		Short:         "Show each module's state and readiness",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return withApp(rootOpts, cmd, func(a *app) error {
				status, err := a.engine.Status(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("failed to load status", err)
				}
				return f.Success(status, func(w io.Writer) { renderStatus(w, status) })
			})
		},
	}
}

func renderStatus(w io.Writer, s *engine.ProjectStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tSTATUS\tREADY\tNOTES")
	for _, m := range s.Modules {
		var notes []string
		if len(m.Missing) > 0 {
			notes = append(notes, "missing "+strings.Join(m.Missing, ", "))
		}
		if len(m.Blocking) > 0 {
			notes = append(notes, "blocked by "+strings.Join(m.Blocking, ", "))
		}
		if len(m.FailedFlags) > 0 {
			notes = append(notes, "failed "+strings.Join(m.FailedFlags, ", "))
		}
		ready := "no"
		if m.Ready {
			ready = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Module, m.Status, ready, strings.Join(notes, "; "))
	}
	tw.Flush()
}
