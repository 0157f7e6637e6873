package domain

import (
	"fmt"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindGrid:
		return "grid"
	default:
		return "invalid"
	}
}

// Value is a tagged frame field. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	g    *Grid
}

// IntValue returns an integer Value.
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

// FloatValue returns a float Value.
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// StringValue returns a string Value.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// GridValue returns a grid Value.
func GridValue(g *Grid) Value { return Value{kind: KindGrid, g: g} }

// Kind reports the kind of value held.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer value.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Float returns the value as a float64. Integers are widened.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the string value.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Grid returns the grid value.
func (v Value) Grid() (*Grid, bool) {
	return v.g, v.kind == KindGrid
}

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindGrid:
		return fmt.Sprintf("grid[%dx%d]", v.g.NY, v.g.NX)
	default:
		return "<invalid>"
	}
}
