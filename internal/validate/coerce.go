// Package validate checks a parsed query tree against a signature registry.
//
// Validation never aborts. Every call leaf gets a LeafReport recording
// whether its name is registered, whether its arity matches, and for each
// argument whether it satisfies the declared parameter type and what value
// it coerces to. A Policy then decides which findings become errors.
//
// Arguments are matched in this order:
//
//  1. exact type match
//  2. Literal membership
//  3. Union alternatives in declared order, the first that accepts the
//     value (coercion included) wins
//  4. numeric coercion: int from an integral float, float from any int,
//     bool from the integers 0 and 1
//  5. List element by element, stopping at the first invalid element
//
// Annotated and Contextual validate as their base type. A context
// placeholder is accepted only by a parameter that allows context.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/signature"
)

// ArgResult is the outcome of validating one argument.
type ArgResult struct {
	// Param is the parameter name, empty for arguments beyond the arity.
	Param string

	Valid  bool
	Reason string

	// Coerced is the value after coercion. For invalid arguments it is the
	// original value.
	Coerced ir.Value
}

// Coerce validates v against t.
func Coerce(v ir.Value, t signature.Type) ArgResult {
	coerced, reason := coerce(v, t)
	if reason != "" {
		return ArgResult{Valid: false, Reason: reason, Coerced: v}
	}
	return ArgResult{Valid: true, Coerced: coerced}
}

// coerce returns the accepted value, or a non-empty reason.
func coerce(v ir.Value, t signature.Type) (ir.Value, string) {
	if t == nil {
		return nil, "parameter has no type"
	}

	switch v.(type) {
	case ir.Placeholder, ir.Bound:
		if signature.AllowsContext(t) {
			return v, ""
		}
		return nil, fmt.Sprintf("%s does not accept context %s", t, ir.Format(v))
	case nil:
		return nil, "missing value"
	}

	switch typ := t.(type) {
	case signature.Annotated:
		return coerce(v, typ.Base)
	case signature.Contextual:
		return coerce(v, typ.Base)
	case signature.Literal:
		for _, allowed := range typ.Values {
			if ir.Equal(v, allowed) {
				return v, ""
			}
		}
		return nil, fmt.Sprintf("value %s is not one of: %s", ir.Format(v), typ.ValuesString())
	case signature.Union:
		return coerceUnion(v, typ)
	case signature.List:
		return coerceList(v, typ)
	case signature.Primitive:
		return coercePrimitive(v, typ)
	default:
		return nil, fmt.Sprintf("unsupported parameter type %s", t)
	}
}

func coerceUnion(v ir.Value, u signature.Union) (ir.Value, string) {
	for _, alt := range u.Alternatives {
		if out, reason := coerce(v, alt); reason == "" {
			return out, ""
		}
	}

	names := make([]string, len(u.Alternatives))
	for i, alt := range u.Alternatives {
		names[i] = alt.String()
	}
	return nil, fmt.Sprintf("value %s matches none of: %s", ir.Format(v), strings.Join(names, ", "))
}

func coerceList(v ir.Value, l signature.List) (ir.Value, string) {
	list, ok := v.(ir.List)
	if !ok {
		return nil, mismatch(l, v)
	}
	out := make(ir.List, len(list))
	for i, elem := range list {
		c, reason := coerce(elem, l.Elem)
		if reason != "" {
			return nil, fmt.Sprintf("element %d: %s", i, reason)
		}
		out[i] = c
	}
	return out, ""
}

func coercePrimitive(v ir.Value, p signature.Primitive) (ir.Value, string) {
	switch p.Kind {
	case signature.KindStr:
		if _, ok := v.(ir.Str); ok {
			return v, ""
		}
	case signature.KindNone:
		if _, ok := v.(ir.None); ok {
			return v, ""
		}
	case signature.KindInt:
		switch val := v.(type) {
		case ir.Int:
			return v, ""
		case ir.Float:
			if n, ok := integral(float64(val)); ok {
				return ir.Int(n), ""
			}
		}
	case signature.KindFloat:
		switch val := v.(type) {
		case ir.Float:
			return v, ""
		case ir.Int:
			return ir.Float(val), ""
		}
	case signature.KindBool:
		switch val := v.(type) {
		case ir.Bool:
			return v, ""
		case ir.Int:
			if val == 0 || val == 1 {
				return ir.Bool(val == 1), ""
			}
		}
	}
	return nil, mismatch(p, v)
}

// integral converts f to int64 when it has no fractional part and fits.
func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func mismatch(t signature.Type, v ir.Value) string {
	return fmt.Sprintf("expected %s, got %s %s", t, ir.TypeName(v), ir.Format(v))
}
