package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/aquaplan/internal/quantity"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ReferenceBase is a complete set of base inputs for a 100 L/s plant serving
// 30,000 people. Every default-parameter module passes its design bands with
// it. Callers get a fresh copy.
func ReferenceBase() quantity.Values {
	return quantity.Values{
		"design_flow_Ls":            quantity.Float(100),
		"raw_turbidity_NTU":         quantity.Float(50),
		"raw_ph":                    quantity.Float(7.2),
		"raw_temperature_C":         quantity.Float(20),
		"target_turbidity_NTU":      quantity.Float(1),
		"population":                quantity.Int(30000),
		"per_capita_demand_Lpd":     quantity.Float(200),
		"site_area_m2":              quantity.Float(3000),
		"site_road_access":          quantity.Bool(true),
		"site_power_available":      quantity.Bool(false),
		"site_chemical_distance_km": quantity.Float(50),
		"operator_skill_level":      quantity.Int(3),
		"spare_parts_lead_days":     quantity.Float(30),
	}
}
