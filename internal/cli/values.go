package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aquaplan/internal/quantity"
)

// parseAssignments turns "name=value" flags into quantity values. Values
// parse as bool, then integer, then float, then text; a comma-separated
// list of numbers becomes a series.
func parseAssignments(pairs []string) (quantity.Values, error) {
	out := make(quantity.Values, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%s given twice", name)
		}
		out[name] = parseScalar(strings.TrimSpace(raw))
	}
	return out, nil
}

func parseScalar(raw string) quantity.Value {
	switch raw {
	case "true":
		return quantity.Bool(true)
	case "false":
		return quantity.Bool(false)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return quantity.Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return quantity.Float(f)
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		s := make(quantity.Series, 0, len(parts))
		for _, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return quantity.Text(raw)
			}
			s = append(s, f)
		}
		return s
	}
	return quantity.Text(raw)
}

// loadValuesFile reads a flat YAML mapping of quantity values.
func loadValuesFile(path string) (quantity.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(quantity.Values, len(raw))
	for name, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("%s: %s has no value", path, name)
		}
		q, err := quantity.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, name, err)
		}
		out[name] = q
	}
	return out, nil
}

// formatValue renders a value for text output.
func formatValue(v quantity.Value) string {
	switch x := v.(type) {
	case quantity.Float:
		return strconv.FormatFloat(float64(x), 'g', 6, 64)
	case quantity.Series:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', 6, 64)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
