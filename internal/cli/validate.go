package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/aquaplan/internal/engine"
	"github.com/roach88/aquaplan/internal/process"
	"github.com/roach88/aquaplan/internal/registry"
	"github.com/roach88/aquaplan/internal/viability"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Source   string   `json:"source"`
	Modules  int      `json:"modules"`
	Base     int      `json:"base"`
	Criteria int      `json:"criteria"`
	Order    []string `json:"order"`
}

// ValidationFailure locates a registry error for JSON output.
type ValidationFailure struct {
	Field  string `json:"field,omitempty"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Module string `json:"module,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [registry.cue]",
		Short: "Validate a module registry",
		Long: `Validate a CUE module registry: schema, module graph (unknown
dependencies, self-references, cycles), output ownership, input producers,
must-pass criteria, viability weights, and that every module has a
calculation.

Without an argument the configured registry (or the embedded default) is
validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if path == "" {
		cfg, _, err := loadConfig(opts, cmd)
		if err != nil {
			return err
		}
		path = cfg.Registry
	}
	source := path
	if source == "" {
		source = "embedded"
	}
	f.VerboseLog("Validating registry: %s", source)

	var model *registry.Model
	var err error
	if path == "" {
		model, err = registry.Default()
	} else {
		model, err = registry.LoadFile(path)
	}
	if err == nil {
		err = checkModel(model)
	}
	if err != nil {
		return outputValidationError(f, err)
	}

	res := ValidationResult{
		Valid:    true,
		Source:   source,
		Modules:  len(model.Registry.Order()),
		Base:     len(model.Registry.Base()),
		Criteria: len(model.Criteria),
		Order:    model.Registry.Order(),
	}
	return f.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Registry valid (%s): %d modules, %d base inputs, %d criteria\n",
			res.Source, res.Modules, res.Base, res.Criteria)
	})
}

// checkModel runs the checks the loader cannot: calculations and weights.
func checkModel(model *registry.Model) error {
	for _, d := range model.Registry.Modules() {
		if !process.Known(d.ID) {
			return process.NewUnknownProcess(d.ID)
		}
	}
	criteria, err := viability.FromSpecs(model.Criteria)
	if err != nil {
		return err
	}
	_, err = viability.New(criteria)
	return err
}

func outputValidationError(f *OutputFormatter, err error) error {
	details := ValidationFailure{}
	var ce *registry.CompileError
	var re *registry.Error
	switch {
	case errors.As(err, &ce):
		details.Field = ce.Field
		if ce.Pos.IsValid() {
			details.File, details.Line, details.Column = ce.Pos.Filename(), ce.Pos.Line(), ce.Pos.Column()
		}
	case errors.As(err, &re):
		details.Module = re.Module
	}

	code := engine.ErrorCode(err)
	if code == "" {
		code = ErrCodeGeneric
	}
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, "registry invalid", err)
}
