package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/process"
	"github.com/roach88/aquaplan/internal/registry"
)

// ModuleInfo describes one module for listings.
type ModuleInfo struct {
	registry.Descriptor
	Params []process.Param `json:"params"`
}

// RegistryListing is the modules command payload.
type RegistryListing struct {
	Base     []string                 `json:"base"`
	Modules  []ModuleInfo             `json:"modules"`
	Criteria []registry.CriterionSpec `json:"criteria"`
}

// NewModulesCommand creates the modules command.
func NewModulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List design modules, base inputs and viability criteria",
		Long: `List the module registry in topological order: each module's inputs,
outputs, form parameters with defaults, and must-pass criteria.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModules(rootOpts, cmd)
		},
	}
}

func runModules(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, _, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}
	model, err := loadModel(cfg)
	if err != nil {
		return f.Fail("failed to load registry", err)
	}

	listing := buildListing(model)
	return f.Success(listing, func(w io.Writer) { renderListing(w, listing) })
}

func buildListing(model *registry.Model) RegistryListing {
	reg := model.Registry
	listing := RegistryListing{Base: reg.Base(), Criteria: model.Criteria}
	for _, id := range reg.Order() {
		d, _ := reg.Describe(id)
		params, _ := process.Params(id)
		listing.Modules = append(listing.Modules, ModuleInfo{Descriptor: d, Params: params})
	}
	return listing
}

func renderListing(w io.Writer, l RegistryListing) {
	fmt.Fprintf(w, "Base inputs: %s\n", strings.Join(l.Base, ", "))
	for i, m := range l.Modules {
		kind := ""
		if m.Stage {
			kind = " (stage)"
		}
		fmt.Fprintf(w, "\n%d. %s - %s%s\n", i+1, m.ID, m.Title, kind)
		fmt.Fprintf(w, "   depends:   %s\n", joinOrNone(m.Depends))
		fmt.Fprintf(w, "   inputs:    %s\n", joinOrNone(m.Inputs))
		fmt.Fprintf(w, "   outputs:   %s\n", joinOrNone(m.Outputs))
		params := make([]string, len(m.Params))
		for j, p := range m.Params {
			params[j] = fmt.Sprintf("%s=%g", p.Name, p.Default)
			if p.Unit != "" {
				params[j] += " " + p.Unit
			}
		}
		fmt.Fprintf(w, "   params:    %s\n", joinOrNone(params))
		if len(m.MustPass) > 0 {
			fmt.Fprintf(w, "   must pass: %s\n", strings.Join(m.MustPass, ", "))
		}
	}

	fmt.Fprintf(w, "\nViability criteria:\n")
	for _, c := range l.Criteria {
		fmt.Fprintf(w, "  %s (%s, weight %g): %s on %s\n", c.Name, c.Group, c.Weight, c.Kind, c.Quantity)
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
