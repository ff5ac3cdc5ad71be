package registry

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

//go:embed model.cue
var defaultModelCUE []byte

// DefaultSource returns the embedded engineering model.
func DefaultSource() []byte {
	return append([]byte(nil), defaultModelCUE...)
}

// Default compiles the embedded engineering model.
func Default() (*Model, error) {
	return Load(defaultModelCUE, "model.cue")
}

// LoadFile compiles a model file from disk.
func LoadFile(path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Load(src, path)
}

// Load compiles a CUE model against the embedded schema and builds the
// registry. Schema violations come back as *CompileError with a source
// position; graph problems as *Error.
//
// The source must declare three top-level lists:
//
//	base:     ["design_flow_Ls", ...]
//	modules:  [{id: "mixing", inputs: [...], outputs: [...], depends: [...]}, ...]
//	criteria: [{name: "site_area", weight: 0.15, kind: "linear", ...}, ...]
//
// Module declaration order is significant: it breaks ties in topological order.
func Load(src []byte, filename string) (*Model, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Model")).Unify(data)
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	base, err := stringList(v, "base")
	if err != nil {
		return nil, err
	}

	modules, err := parseModules(v)
	if err != nil {
		return nil, err
	}

	criteria, err := parseCriteria(v)
	if err != nil {
		return nil, err
	}

	reg, err := New(base, modules)
	if err != nil {
		return nil, err
	}
	return &Model{Registry: reg, Criteria: criteria}, nil
}

func parseModules(v cue.Value) ([]Descriptor, error) {
	iter, err := v.LookupPath(cue.ParsePath("modules")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Descriptor
	for iter.Next() {
		mv := iter.Value()
		var d Descriptor
		if d.ID, err = requiredString(mv, "id"); err != nil {
			return nil, err
		}
		if d.Title, err = requiredString(mv, "title"); err != nil {
			return nil, err
		}
		if d.Stage, err = optionalBool(mv, "stage"); err != nil {
			return nil, err
		}
		if d.Inputs, err = stringList(mv, "inputs"); err != nil {
			return nil, err
		}
		if d.Outputs, err = stringList(mv, "outputs"); err != nil {
			return nil, err
		}
		if d.Depends, err = stringList(mv, "depends"); err != nil {
			return nil, err
		}
		if d.MustPass, err = stringList(mv, "must_pass"); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseCriteria(v cue.Value) ([]CriterionSpec, error) {
	cv := v.LookupPath(cue.ParsePath("criteria"))
	if !cv.Exists() {
		return nil, nil
	}
	iter, err := cv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []CriterionSpec
	for iter.Next() {
		ev := iter.Value()
		var c CriterionSpec
		if c.Name, err = requiredString(ev, "name"); err != nil {
			return nil, err
		}
		if c.Group, err = requiredString(ev, "group"); err != nil {
			return nil, err
		}
		if c.Kind, err = requiredString(ev, "kind"); err != nil {
			return nil, err
		}
		if c.Quantity, err = requiredString(ev, "quantity"); err != nil {
			return nil, err
		}
		if c.Weight, _, err = optionalFloat(ev, "weight"); err != nil {
			return nil, err
		}
		if c.Worst, _, err = optionalFloat(ev, "worst"); err != nil {
			return nil, err
		}
		if c.Best, _, err = optionalFloat(ev, "best"); err != nil {
			return nil, err
		}
		if c.TrueScore, _, err = optionalFloat(ev, "true_score"); err != nil {
			return nil, err
		}
		if c.FalseScore, _, err = optionalFloat(ev, "false_score"); err != nil {
			return nil, err
		}

		if bv := ev.LookupPath(cue.ParsePath("bands")); bv.Exists() {
			bands, err := bv.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for bands.Next() {
				var b Band
				if b.Min, _, err = optionalFloat(bands.Value(), "min"); err != nil {
					return nil, err
				}
				if b.Score, _, err = optionalFloat(bands.Value(), "score"); err != nil {
					return nil, err
				}
				c.Bands = append(c.Bands, b)
			}
		}

		if c.Kind == "linear" && c.Worst == c.Best {
			return nil, &CompileError{Field: "criteria." + c.Name, Message: "linear criterion needs distinct worst and best", Pos: ev.Pos()}
		}
		if c.Kind == "bands" && len(c.Bands) == 0 {
			return nil, &CompileError{Field: "criteria." + c.Name, Message: "bands criterion needs at least one band", Pos: ev.Pos()}
		}
		out = append(out, c)
	}
	return out, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	if d, ok := fv.Default(); ok {
		fv = d
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optionalFloat(v cue.Value, field string) (float64, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, false, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return f, true, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError is a registry source error with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrorCode returns the stable error code.
func (e *CompileError) ErrorCode() string { return ErrCodeInvalidDescriptor }

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &CompileError{Field: "cue", Message: first.Error()}
}
