package value_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/mortar/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want value.Value
	}{
		{"integer", "42", value.Number(42)},
		{"float", "3.5", value.Number(3.5)},
		{"negative", "-1", value.Number(-1)},
		{"true", "true", value.Boolean(true)},
		{"false", "false", value.Boolean(false)},
		{"capitalised bool stays string", "True", value.String("True")},
		{"double quoted", `"hello"`, value.String("hello")},
		{"single quoted", `'hi'`, value.String("hi")},
		{"quoted with padding", `  "pad"  `, value.String("pad")},
		{"mismatched quotes", `"oops'`, value.String(`"oops'`)},
		{"bare word", "Alice", value.String("Alice")},
		{"empty", "", value.String("")},
		{"quoted number stays string", `"5"`, value.String("5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, value.Parse(tt.raw))
		})
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "150", value.Number(150).String())
	assert.Equal(t, "0.5", value.Number(0.5).String())
	assert.Equal(t, "true", value.Boolean(true).String())
	assert.Equal(t, "", value.Void{}.String())
	assert.Equal(t, "Alice", value.String("Alice").String())
}

func TestCoercions(t *testing.T) {
	n, ok := value.AsNumber(value.Number(2))
	assert.True(t, ok)
	assert.Equal(t, 2.0, n)

	_, ok = value.AsNumber(value.String("2"))
	assert.False(t, ok, "strings never coerce to numbers implicitly")

	_, ok = value.AsBool(value.Number(1))
	assert.False(t, ok)

	s, ok := value.AsString(value.String("x"))
	assert.True(t, ok)
	assert.Equal(t, "x", s)
}

func TestTruthy(t *testing.T) {
	assert.True(t, value.Truthy(value.Boolean(true)))
	assert.False(t, value.Truthy(value.Boolean(false)))
	assert.True(t, value.Truthy(value.Number(-3)))
	assert.False(t, value.Truthy(value.Number(0)))
	assert.True(t, value.Truthy(value.String("a")))
	assert.False(t, value.Truthy(value.String("")))
	assert.False(t, value.Truthy(value.Void{}))
}

func TestFromAny(t *testing.T) {
	v, err := value.FromAny(json.Number("12"))
	require.NoError(t, err)
	assert.Equal(t, value.Number(12), v)

	v, err = value.FromAny(7)
	require.NoError(t, err)
	assert.Equal(t, value.Number(7), v)

	v, err = value.FromAny(nil)
	require.NoError(t, err)
	assert.Equal(t, value.Void{}, v)

	_, err = value.FromAny([]string{"nope"})
	assert.Error(t, err)

	assert.Equal(t, 1.5, value.ToAny(value.Number(1.5)))
	assert.Nil(t, value.ToAny(value.Void{}))
}
