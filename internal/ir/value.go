package ir

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Value is a sealed interface representing an IQL argument value.
// Only Str, Int, Float, Bool, None, List, Placeholder and Bound implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Str is a string literal.
type Str string

func (Str) irValue() {}

// Int is an integer literal. Always int64.
type Int int64

func (Int) irValue() {}

// Float is a floating point literal.
// Kept distinct from Int so that 6.0 and 6 survive a round trip.
type Float float64

func (Float) irValue() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue() {}

// None is the absent value.
type None struct{}

func (None) irValue() {}

// List is a list literal. Elements are Values, never Placeholders.
type List []Value

func (List) irValue() {}

// Placeholder is a zero-argument call in argument position.
// It names a context type that is substituted at execution time.
type Placeholder struct {
	Name string
}

func (Placeholder) irValue() {}

// Bound is a placeholder after resolution against a context pool.
// Context is the placeholder name, Value the caller-supplied instance.
type Bound struct {
	Context string
	Value   any
}

func (Bound) irValue() {}

// TypeName returns the IQL type name of a value, used in diagnostics.
func TypeName(v Value) string {
	switch v.(type) {
	case Str:
		return "str"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case None:
		return "None"
	case List:
		return "list"
	case Placeholder:
		return "context placeholder"
	case Bound:
		return "context"
	case nil:
		return "nil"
	default:
		return "unknown"
	}
}

// Equal reports whether two values are identical in type and content.
// Int(1) and Float(1) are not equal; coercion is the validator's job.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && (av == bv || math.IsNaN(float64(av)) && math.IsNaN(float64(bv)))
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case None:
		_, ok := b.(None)
		return ok
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Placeholder:
		bv, ok := b.(Placeholder)
		return ok && av.Name == bv.Name
	case Bound:
		bv, ok := b.(Bound)
		return ok && av.Context == bv.Context && reflect.DeepEqual(av.Value, bv.Value)
	default:
		return a == nil && b == nil
	}
}

// Format renders a value in IQL source syntax.
// The output parses back to an Equal value.
func Format(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case Str:
		sb.WriteString(Quote(string(val)))
	case Int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		sb.WriteString(formatFloat(float64(val)))
	case Bool:
		if val {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case None:
		sb.WriteString("None")
	case List:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, elem)
		}
		sb.WriteByte(']')
	case Placeholder:
		sb.WriteString(val.Name)
		sb.WriteString("()")
	case Bound:
		sb.WriteString(val.Context)
		sb.WriteString("()")
	default:
		sb.WriteString("<invalid>")
	}
}

// formatFloat always keeps a fraction or exponent marker so the
// literal is re-read as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}
	return s + ".0"
}

// Quote renders s as a single-quoted IQL string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// Native converts a value to plain Go data for executors:
// string, int64, float64, bool, nil, []any, the bound context instance,
// or the Placeholder itself when unresolved.
func Native(v Value) any {
	switch val := v.(type) {
	case Str:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case None:
		return nil
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Bound:
		return val.Value
	case Placeholder:
		return val
	default:
		return nil
	}
}

// ContainsPlaceholder reports whether v is, or contains, an unresolved placeholder.
func ContainsPlaceholder(v Value) bool {
	switch val := v.(type) {
	case Placeholder:
		return true
	case List:
		for _, elem := range val {
			if ContainsPlaceholder(elem) {
				return true
			}
		}
	}
	return false
}
