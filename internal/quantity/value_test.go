package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues_TypedAccessors(t *testing.T) {
	v := Values{
		"chambers":  Int(3),
		"flow_Ls":   Float(12.5),
		"whole":     Float(4),
		"has_power": Bool(true),
		"label":     Text("conventional"),
	}

	f, err := v.Float("chambers")
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	n, err := v.Int("whole")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = v.Int("flow_Ls")
	assert.Error(t, err)

	_, err = v.Float("label")
	assert.Error(t, err)

	_, err = v.Float("absent")
	assert.Error(t, err)

	b, err := v.Bool("has_power")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestEncodeDecode_PreservesKind(t *testing.T) {
	for _, v := range []Value{Float(2), Int(2), Series{1, 2.5}, Text("x"), Bool(false)} {
		kind, raw, err := EncodeValue(v)
		require.NoError(t, err)
		got, err := DecodeValue(kind, raw)
		require.NoError(t, err)
		assert.True(t, Equal(v, got), "%v", v)
	}
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(3)
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)

	v, err = FromAny([]any{1, 2.5})
	require.NoError(t, err)
	assert.Equal(t, Series{1, 2.5}, v)

	_, err = FromAny(map[string]any{})
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	r := Between(15, 30)
	assert.True(t, r.Contains(15))
	assert.True(t, r.Contains(30))
	assert.False(t, r.Contains(30.01))
	assert.Equal(t, "[15, 30]", r.String())

	assert.True(t, AtLeast(0.3).Contains(100))
	assert.False(t, AtMost(2).Contains(2.5))
	assert.Equal(t, "[-inf, 2]", AtMost(2).String())
}

func TestNormalizeName(t *testing.T) {
	for _, ok := range []string{"design_flow_Ls", "mixing.volume_m3", "raw_turbidity_NTU"} {
		_, err := NormalizeName(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "Design", "mixing..x", "1flow", "a b"} {
		_, err := NormalizeName(bad)
		assert.Error(t, err, bad)
	}
}

func TestOutputHash(t *testing.T) {
	a := Values{"x": Float(1), "y": Series{1, 2}}
	b := Values{"y": Series{1, 2}, "x": Float(1)}

	ha, err := OutputHash(a)
	require.NoError(t, err)
	hb, err := OutputHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb, "key order must not matter")

	hc, err := OutputHash(Values{"x": Int(1), "y": Series{1, 2}})
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc, "kind is part of the hash")
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	got, err := MarshalCanonical(Values{"b": Int(2), "a": Text("<x>")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"k":"text","v":"<x>"},"b":{"k":"int","v":2}}`, string(got))
}
