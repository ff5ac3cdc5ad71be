package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/engine"
	"github.com/roach88/aquaplan/internal/quantity"
	"github.com/roach88/aquaplan/internal/store"
)

// ProjectDetail is the project show payload.
type ProjectDetail struct {
	Project store.Project         `json:"project"`
	Status  *engine.ProjectStatus `json:"status"`
}

// BaseUpdate is the project set payload.
type BaseUpdate struct {
	Project string   `json:"project"`
	Inputs  []string `json:"inputs"`
	Stale   []string `json:"stale"`
}

// NewProjectCommand creates the project command group.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, inspect and edit design projects",
	}
	cmd.AddCommand(newProjectCreateCommand(rootOpts))
	cmd.AddCommand(newProjectShowCommand(rootOpts))
	cmd.AddCommand(newProjectListCommand(rootOpts))
	cmd.AddCommand(newProjectDeleteCommand(rootOpts))
	cmd.AddCommand(newProjectSetCommand(rootOpts))
	return cmd
}

func newProjectCreateCommand(opts *RootOptions) *cobra.Command {
	var base []string
	var file string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project from base inputs",
		Long: `Create a project. Base inputs come from a YAML file (--file) and/or
repeated --base name=value flags; flags win over the file.

Example:
  aquaplan project create "Riverside" --file site.yaml --base population=42000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			values := quantity.Values{}
			if file != "" {
				fromFile, err := loadValuesFile(file)
				if err != nil {
					return argError(f, "%v", err)
				}
				values = fromFile
			}
			flags, err := parseAssignments(base)
			if err != nil {
				return argError(f, "--base: %v", err)
			}
			for name, v := range flags {
				values[name] = v
			}

			return withApp(opts, cmd, func(a *app) error {
				values, err := a.engine.ValidateBase(values)
				if err != nil {
					return argError(f, "%v", err)
				}
				p, err := a.store.CreateProject(cmd.Context(), args[0], values)
				if err != nil {
					return f.Fail("failed to create project", err)
				}
				a.logger.Info("project created", "project", p.ID, "name", p.Name, "base", len(p.Base))
				return f.Success(p, func(w io.Writer) {
					fmt.Fprintf(w, "Created project %s (%s) with %d base inputs\n", p.ID, p.Name, len(p.Base))
				})
			})
		},
	}
	cmd.Flags().StringArrayVar(&base, "base", nil, "base input name=value (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of base inputs")
	return cmd
}

func newProjectShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <project>",
		Short:         "Show a project's base inputs and module status",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withApp(opts, cmd, func(a *app) error {
				p, err := a.store.LoadProjectBase(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("failed to load project", err)
				}
				status, err := a.engine.Status(cmd.Context(), args[0])
				if err != nil {
					return f.Fail("failed to load status", err)
				}
				detail := ProjectDetail{Project: p, Status: status}
				return f.Success(detail, func(w io.Writer) {
					fmt.Fprintf(w, "Project %s (%s)\n\nBase inputs:\n", p.Name, p.ID)
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					for _, name := range p.Base.SortedNames() {
						fmt.Fprintf(tw, "  %s\t%s\n", name, formatValue(p.Base[name]))
					}
					tw.Flush()
					fmt.Fprintln(w)
					renderStatus(w, status)
				})
			})
		},
	}
}

func newProjectListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List projects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withApp(opts, cmd, func(a *app) error {
				projects, err := a.store.ListProjects(cmd.Context())
				if err != nil {
					return f.Fail("failed to list projects", err)
				}
				if projects == nil {
					projects = []store.Project{}
				}
				return f.Success(projects, func(w io.Writer) {
					if len(projects) == 0 {
						fmt.Fprintln(w, "No projects.")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tBASE INPUTS")
					for _, p := range projects {
						fmt.Fprintf(tw, "%s\t%s\t%d\n", p.ID, p.Name, len(p.Base))
					}
					tw.Flush()
				})
			})
		},
	}
}

func newProjectDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <project>",
		Short:         "Delete a project and everything computed for it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withApp(opts, cmd, func(a *app) error {
				if err := a.store.DeleteProject(cmd.Context(), args[0]); err != nil {
					return f.Fail("failed to delete project", err)
				}
				a.logger.Info("project deleted", "project", args[0])
				return f.Success(map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted project %s\n", args[0])
				})
			})
		},
	}
}

func newProjectSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <project> name=value...",
		Short: "Edit base inputs",
		Long: `Edit base inputs. Modules that read a changed input, and everything
downstream of them, become stale.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			values, err := parseAssignments(args[1:])
			if err != nil {
				return argError(f, "%v", err)
			}
			return withApp(opts, cmd, func(a *app) error {
				stale, err := a.engine.UpdateBase(cmd.Context(), args[0], values)
				if err != nil {
					return f.Fail("failed to update base inputs", err)
				}
				res := BaseUpdate{Project: args[0], Inputs: values.SortedNames(), Stale: stale}
				return f.Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "Updated %s\n", joinOrNone(res.Inputs))
					fmt.Fprintf(w, "Stale: %s\n", joinOrNone(res.Stale))
				})
			})
		},
	}
}
