// Package signature models operation signatures and the registry that the
// validator consults for hallucination detection and argument typing.
//
// Parameter types form a small sealed algebra:
//
//	Primitive   int, float, str, bool, None
//	Literal     Literal['foo', 'bar']
//	Union       Union[int, str]          (Optional[T] is Union[T, None])
//	List        List[str]
//	Annotated   Annotated[str, marker]   marker is opaque to the engine
//	Contextual  Contextual[str]          accepts a context placeholder
//
// Every type renders to the expression syntax ParseType accepts.
package signature

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/lexer"
)

// Type is a parameter type. Sealed.
type Type interface {
	paramType()
	String() string
}

// Kind is a primitive type.
type Kind int

const (
	KindInt Kind = iota + 1
	KindFloat
	KindStr
	KindBool
	KindNone
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindNone:
		return "None"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Primitive is a scalar type.
type Primitive struct {
	Kind Kind
}

func (Primitive) paramType() {}

func (p Primitive) String() string { return p.Kind.String() }

// Convenience primitives.
var (
	Int      Type = Primitive{Kind: KindInt}
	Float    Type = Primitive{Kind: KindFloat}
	Str      Type = Primitive{Kind: KindStr}
	Bool     Type = Primitive{Kind: KindBool}
	NoneType Type = Primitive{Kind: KindNone}
)

// Literal accepts exactly one of Values.
type Literal struct {
	Values []ir.Value
}

func (Literal) paramType() {}

func (l Literal) String() string {
	return "Literal[" + l.ValuesString() + "]"
}

// ValuesString lists the allowed values, e.g. 'foo', 'bar'.
func (l Literal) ValuesString() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = ir.Format(v)
	}
	return strings.Join(parts, ", ")
}

// Union accepts any of Alternatives, tried in order.
type Union struct {
	Alternatives []Type
}

func (Union) paramType() {}

func (u Union) String() string {
	return "Union[" + joinTypes(u.Alternatives) + "]"
}

// List accepts a list whose elements all satisfy Elem.
type List struct {
	Elem Type
}

func (List) paramType() {}

func (l List) String() string {
	return "List[" + typeString(l.Elem) + "]"
}

// Annotated validates as Base. Marker is carried for executors (for example
// a similarity index name) and never interpreted here.
type Annotated struct {
	Base   Type
	Marker string
}

func (Annotated) paramType() {}

func (a Annotated) String() string {
	marker := a.Marker
	if !isDottedName(marker) {
		marker = ir.Quote(marker)
	}
	return "Annotated[" + typeString(a.Base) + ", " + marker + "]"
}

func isDottedName(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if part == "" || lexer.IsKeyword(part) {
			return false
		}
		for i, r := range part {
			if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
				continue
			}
			return false
		}
	}
	return true
}

// Contextual marks a parameter that accepts a context placeholder in place
// of a Base value.
type Contextual struct {
	Base Type
}

func (Contextual) paramType() {}

func (c Contextual) String() string {
	return "Contextual[" + typeString(c.Base) + "]"
}

// Optional returns Union[t, None].
func Optional(t Type) Type {
	return Union{Alternatives: []Type{t, NoneType}}
}

// AllowsContext reports whether a parameter of type t accepts a context
// placeholder: t is Contextual, or a Union or Annotated wrapping one.
func AllowsContext(t Type) bool {
	switch typ := t.(type) {
	case Contextual:
		return true
	case Annotated:
		return AllowsContext(typ.Base)
	case Union:
		for _, alt := range typ.Alternatives {
			if AllowsContext(alt) {
				return true
			}
		}
	}
	return false
}

// Markers lists the Annotated markers of t from the outside in.
func Markers(t Type) []string {
	var markers []string
	for {
		a, ok := t.(Annotated)
		if !ok {
			return markers
		}
		markers = append(markers, a.Marker)
		t = a.Base
	}
}

func joinTypes(types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = typeString(t)
	}
	return strings.Join(parts, ", ")
}

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
