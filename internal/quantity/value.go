package quantity

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind names the concrete type of a Value.
type Kind string

const (
	KindFloat  Kind = "float"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindText   Kind = "text"
	KindSeries Kind = "series"
)

// Value is a sealed interface over the value types a quantity may hold.
// Only Float, Int, Bool, Text and Series implement it.
type Value interface {
	quantityValue()
	Kind() Kind
}

// Float is a real-valued quantity in SI-derived units.
type Float float64

func (Float) quantityValue() {}

// Kind implements Value.
func (Float) Kind() Kind { return KindFloat }

// Int is a count (chambers, filter units, population).
type Int int64

func (Int) quantityValue() {}

// Kind implements Value.
func (Int) Kind() Kind { return KindInt }

// Bool is a yes/no site or design fact.
type Bool bool

func (Bool) quantityValue() {}

// Kind implements Value.
func (Bool) Kind() Kind { return KindBool }

// Text is a short label (technology name, material).
type Text string

func (Text) quantityValue() {}

// Kind implements Value.
func (Text) Kind() Kind { return KindText }

// Series is a small ordered list of reals, e.g. per-chamber gradients.
type Series []float64

func (Series) quantityValue() {}

// Kind implements Value.
func (Series) Kind() Kind { return KindSeries }

// AsFloat returns v as a float64. Int converts; other kinds report false.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Float:
		return float64(val), true
	case Int:
		return float64(val), true
	default:
		return 0, false
	}
}

// Equal reports whether two values have the same kind and content.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if sa, ok := a.(Series); ok {
		sb := b.(Series)
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if sa[i] != sb[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

// Values is a mapping from quantity name to value, the unit of exchange
// between the store, the calculation modules and the persistence layer.
type Values map[string]Value

// SortedNames returns the names in byte order.
func (v Values) SortedNames() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Float returns the named value as a float64.
func (v Values) Float(name string) (float64, error) {
	val, ok := v[name]
	if !ok {
		return 0, fmt.Errorf("quantity %q not present", name)
	}
	f, ok := AsFloat(val)
	if !ok {
		return 0, fmt.Errorf("quantity %q is %s, not numeric", name, val.Kind())
	}
	return f, nil
}

// Int returns the named value as an int64. Floats with no fractional part convert.
func (v Values) Int(name string) (int64, error) {
	val, ok := v[name]
	if !ok {
		return 0, fmt.Errorf("quantity %q not present", name)
	}
	switch n := val.(type) {
	case Int:
		return int64(n), nil
	case Float:
		if math.Trunc(float64(n)) == float64(n) {
			return int64(n), nil
		}
		return 0, fmt.Errorf("quantity %q = %v is not a whole number", name, float64(n))
	default:
		return 0, fmt.Errorf("quantity %q is %s, not an integer", name, val.Kind())
	}
}

// Bool returns the named value as a bool.
func (v Values) Bool(name string) (bool, error) {
	val, ok := v[name]
	if !ok {
		return false, fmt.Errorf("quantity %q not present", name)
	}
	b, ok := val.(Bool)
	if !ok {
		return false, fmt.Errorf("quantity %q is %s, not bool", name, val.Kind())
	}
	return bool(b), nil
}

// Clone returns a shallow copy; Series are copied.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for name, val := range v {
		if s, ok := val.(Series); ok {
			val = append(Series(nil), s...)
		}
		out[name] = val
	}
	return out
}

// EncodeValue serialises a value to its kind tag and JSON payload.
func EncodeValue(v Value) (Kind, []byte, error) {
	if v == nil {
		return "", nil, fmt.Errorf("nil value")
	}
	if f, ok := AsFloat(v); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return "", nil, fmt.Errorf("non-finite value %v", f)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return v.Kind(), raw, nil
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(kind Kind, raw []byte) (Value, error) {
	switch kind {
	case KindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return Float(f), nil
	case KindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return Int(n), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case KindText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Text(s), nil
	case KindSeries:
		var s []float64
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Series(s), nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}

// FromAny converts a plain Go value (from YAML, JSON or CLI parsing) to a Value.
// Integers stay Int; floats become Float.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case float64:
		return Float(val), nil
	case float32:
		return Float(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case []float64:
		return Series(val), nil
	case []any:
		s := make(Series, len(val))
		for i, elem := range val {
			f, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n, ok := AsFloat(f)
			if !ok {
				return nil, fmt.Errorf("[%d]: series elements must be numeric", i)
			}
			s[i] = n
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
