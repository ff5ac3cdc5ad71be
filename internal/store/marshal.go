package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/aquaplan/internal/quantity"
)

// marshalValue converts a quantity to its kind tag and canonical JSON TEXT.
func marshalValue(name string, v quantity.Value) (string, string, error) {
	kind, raw, err := quantity.EncodeValue(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal %s: %w", name, err)
	}
	return string(kind), string(raw), nil
}

// unmarshalValue parses a stored quantity.
func unmarshalValue(name, kind, raw string) (quantity.Value, error) {
	v, err := quantity.DecodeValue(quantity.Kind(kind), []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return v, nil
}

// rangeColumns splits a flag range into nullable columns.
func rangeColumns(r quantity.Range) (sql.NullFloat64, sql.NullFloat64) {
	var lo, hi sql.NullFloat64
	if r.Min != nil {
		lo = sql.NullFloat64{Float64: *r.Min, Valid: true}
	}
	if r.Max != nil {
		hi = sql.NullFloat64{Float64: *r.Max, Valid: true}
	}
	return lo, hi
}

func rangeFromColumns(lo, hi sql.NullFloat64) quantity.Range {
	var r quantity.Range
	if lo.Valid {
		f := lo.Float64
		r.Min = &f
	}
	if hi.Valid {
		f := hi.Float64
		r.Max = &f
	}
	return r
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
