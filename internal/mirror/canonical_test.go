package mirror

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	out, err := MarshalCanonical(Snapshot{
		"zebra": 1,
		"apple": 2,
		"mango": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"mango":3,"zebra":1}`, string(out))
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"bool true", true, `true`},
		{"bool false", false, `false`},
		{"int", 42, `42`},
		{"int64", int64(-7), `-7`},
		{"whole float", 1.0, `1`},
		{"fraction", 0.25, `0.25`},
		{"negative", -1.0, `-1`},
		{"null", nil, `null`},
		{"nested", map[string]any{"b": []any{1, "two"}, "a": 0.5}, `{"a":0.5,"b":[1,"two"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestMarshalCanonical_FloatShortestForm(t *testing.T) {
	// Round-trip determinism: the shortest form re-parses to the same bits.
	out, err := MarshalCanonical(0.1 + 0.2)
	require.NoError(t, err)
	assert.Equal(t, "0.30000000000000004", string(out))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.NaN())
	require.Error(t, err)
	_, err = MarshalCanonical(math.Inf(1))
	require.Error(t, err)
	_, err = MarshalCanonical(Snapshot{"bad": math.Inf(-1)})
	require.Error(t, err)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as combining sequence (U+0065 U+0301) normalizes to U+00E9.
	composed := "é"
	decomposed := "é"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical("<a> & </a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(out))
}

func TestMarshalCanonical_ControlCharacters(t *testing.T) {
	out, err := MarshalCanonical("line1\nline2\ttab\x01")
	require.NoError(t, err)
	assert.Equal(t, "\"line1\\nline2\\ttab\\u0001\"", string(out))
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
