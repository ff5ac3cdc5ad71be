package quantity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainOutputs separates output hashes from any other hash in the system.
const DomainOutputs = "aquaplan/outputs/v1"

// MarshalCanonical renders values as canonical JSON: keys sorted by UTF-16
// code units, strings NFC-normalised without HTML escaping, numbers in their
// shortest round-trip form, each value tagged with its kind so that Int(2)
// and Float(2) hash differently. Non-finite floats are rejected.
func MarshalCanonical(values Values) ([]byte, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := canonicalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := canonicalValue(values[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OutputHash is the content hash of a module's outputs.
func OutputHash(values Values) (string, error) {
	canonical, err := MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("output hash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainOutputs))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func canonicalValue(v Value) ([]byte, error) {
	var payload []byte
	switch val := v.(type) {
	case Float:
		b, err := canonicalNumber(float64(val))
		if err != nil {
			return nil, err
		}
		payload = b
	case Int:
		payload = []byte(strconv.FormatInt(int64(val), 10))
	case Bool:
		payload = []byte(strconv.FormatBool(bool(val)))
	case Text:
		b, err := canonicalString(string(val))
		if err != nil {
			return nil, err
		}
		payload = b
	case Series:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, f := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := canonicalNumber(f)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		payload = buf.Bytes()
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
	return []byte(fmt.Sprintf(`{"k":"%s","v":%s}`, v.Kind(), payload)), nil
}

func canonicalNumber(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	if f == 0 {
		f = 0 // folds -0 into 0
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func canonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// compareUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
