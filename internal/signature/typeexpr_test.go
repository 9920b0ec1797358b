package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iql/internal/ir"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		expr string
		want Type
	}{
		{"int", Int},
		{"float", Float},
		{"str", Str},
		{"bool", Bool},
		{"None", NoneType},
		{"Literal['foo', 'bar']", Literal{Values: []ir.Value{ir.Str("foo"), ir.Str("bar")}}},
		{"Literal[1, -2, 2.5, True, None]", Literal{Values: []ir.Value{ir.Int(1), ir.Int(-2), ir.Float(2.5), ir.Bool(true), ir.None{}}}},
		{"Union[int, str]", Union{Alternatives: []Type{Int, Str}}},
		{"Optional[int]", Union{Alternatives: []Type{Int, NoneType}}},
		{"List[str]", List{Elem: Str}},
		{"list[List[int]]", List{Elem: List{Elem: Int}}},
		{"Annotated[str, similarity_index]", Annotated{Base: Str, Marker: "similarity_index"}},
		{"Annotated[str, 'name embedding']", Annotated{Base: Str, Marker: "name embedding"}},
		{"Annotated[str, indexes.name]", Annotated{Base: Str, Marker: "indexes.name"}},
		{"Contextual[str]", Contextual{Base: Str}},
		{
			"Union[Contextual[Annotated[str, idx]], None]",
			Union{Alternatives: []Type{Contextual{Base: Annotated{Base: Str, Marker: "idx"}}, NoneType}},
		},
		{"  Union [ int ,str ] ", Union{Alternatives: []Type{Int, Str}}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseType(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseType_RoundTrip(t *testing.T) {
	exprs := []string{
		"int",
		"None",
		"Literal['foo', 'bar']",
		"Literal[1, -2, 2.5, True, None]",
		"Union[int, str]",
		"List[Union[int, float]]",
		"Annotated[str, similarity_index]",
		"Annotated[str, 'name embedding']",
		"Annotated[str, 'None']",
		"Contextual[Union[str, int]]",
	}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			typ, err := ParseType(expr)
			require.NoError(t, err)
			assert.Equal(t, expr, typ.String())

			again, err := ParseType(typ.String())
			require.NoError(t, err)
			assert.Equal(t, typ, again)
		})
	}
}

func TestParseType_Errors(t *testing.T) {
	tests := []struct {
		expr    string
		message string
	}{
		{"", "empty type expression"},
		{"integer", `unknown type "integer"`},
		{"List[int, str]", "List takes exactly 1 type argument, got 2"},
		{"Union[]", "expected a type, found ]"},
		{"List", "expected [, found end of input"},
		{"Literal[x]", "expected a literal value, found identifier"},
		{"Literal[-'x']", "unary minus applies only to numbers"},
		{"Annotated[str]", "expected ,, found ]"},
		{"Annotated[str, 1]", "expected annotation marker, found integer"},
		{"int int", `unexpected "int" after type`},
		{"Literal['x", "unterminated string literal"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseType(tt.expr)
			require.Error(t, err)

			var te *TypeExprError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.message, te.Message)
			assert.Equal(t, tt.expr, te.Expr)
		})
	}
}

func TestMustParseType_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseType("nope") })
	assert.Equal(t, Int, MustParseType("int"))
}

func TestAllowsContext(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"str", false},
		{"Contextual[str]", true},
		{"Union[int, Contextual[str]]", true},
		{"Union[int, str]", false},
		{"Annotated[Contextual[str], idx]", true},
		{"List[Contextual[str]]", false},
		{"Optional[Contextual[int]]", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowsContext(MustParseType(tt.expr)))
		})
	}
}

func TestMarkers(t *testing.T) {
	typ := Annotated{Base: Annotated{Base: Str, Marker: "inner"}, Marker: "outer"}
	assert.Equal(t, []string{"outer", "inner"}, Markers(typ))
	assert.Nil(t, Markers(Str))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "None", KindNone.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}
