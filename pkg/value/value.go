// Package value defines the closed set of scalars shared between scripts,
// variables and host functions.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the variants of Value.
type Kind int

const (
	KindVoid Kind = iota
	KindString
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	default:
		return "Void"
	}
}

// Value is a dynamically typed scalar. The set of implementations is closed:
// String, Number, Boolean and Void.
type Value interface {
	Kind() Kind
	// String returns the display form used when the value is interpolated.
	String() string
	sealed()
}

// String is a text value.
type String string

// Number is a numeric value. Scripts only know double precision floats.
type Number float64

// Boolean is a truth value.
type Boolean bool

// Void is the absence of a value (e.g. a function returning nothing).
type Void struct{}

func (String) Kind() Kind  { return KindString }
func (Number) Kind() Kind  { return KindNumber }
func (Boolean) Kind() Kind { return KindBoolean }
func (Void) Kind() Kind    { return KindVoid }

func (s String) String() string { return string(s) }

// String renders the shortest representation that round-trips, so 150 prints
// as "150" and 0.5 as "0.5".
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (Void) String() string      { return "" }

func (String) sealed()  {}
func (Number) sealed()  {}
func (Boolean) sealed() {}
func (Void) sealed()    {}

// Parse converts a raw script literal: a float becomes a Number, the exact
// words true/false become a Boolean, a quoted literal has its matching quote
// pair stripped, and anything else is kept as a String verbatim.
func Parse(raw string) Value {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(f)
	}
	switch raw {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}
	if s, ok := Unquote(raw); ok {
		return String(s)
	}
	return String(raw)
}

// Unquote strips one matching pair of single or double quotes surrounding
// the trimmed input.
func Unquote(raw string) (string, bool) {
	t := strings.TrimSpace(raw)
	if len(t) < 2 {
		return raw, false
	}
	first, last := t[0], t[len(t)-1]
	if (first == '"' || first == '\'') && first == last {
		return t[1 : len(t)-1], true
	}
	return raw, false
}

// AsNumber returns the numeric payload, failing for every other kind.
func AsNumber(v Value) (float64, bool) {
	n, ok := v.(Number)
	return float64(n), ok
}

// AsBool returns the boolean payload, failing for every other kind.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(Boolean)
	return bool(b), ok
}

// AsString returns the string payload, failing for every other kind.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// Truthy is the loose conversion used when a host function result drives a
// condition: Booleans as-is, non-zero Numbers, non-empty Strings.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Boolean:
		return bool(t)
	case Number:
		return t != 0 && !math.IsNaN(float64(t))
	case String:
		return t != ""
	default:
		return false
	}
}

// FromAny converts a decoded JSON/YAML scalar into a Value. Unsupported
// types yield an error so callers can log and fall back.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Void{}, nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Boolean(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case int32:
		return Number(t), nil
	case uint64:
		return Number(t), nil
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %v: %w", raw, err)
		}
		return Number(f), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// ToAny returns the plain Go representation, suitable for JSON encoding.
func ToAny(v Value) any {
	switch t := v.(type) {
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Boolean:
		return bool(t)
	default:
		return nil
	}
}
