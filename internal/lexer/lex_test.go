package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(lexemes []Lexeme) []TokenType {
	out := make([]TokenType, len(lexemes))
	for i, l := range lexemes {
		out[i] = l.Kind
	}
	return out
}

func TestLex_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"empty", "", []TokenType{TokenTypeEOF}},
		{"whitespace only", " \t\n ", []TokenType{TokenTypeEOF}},
		{
			"call with string",
			"filter_by_name('Cody')",
			[]TokenType{TokenTypeIdentifier, TokenTypeLeftParen, TokenTypeString, TokenTypeRightParen, TokenTypeEOF},
		},
		{
			"keywords",
			"not a() and b() or c()",
			[]TokenType{
				TokenTypeNot, TokenTypeIdentifier, TokenTypeLeftParen, TokenTypeRightParen,
				TokenTypeAnd, TokenTypeIdentifier, TokenTypeLeftParen, TokenTypeRightParen,
				TokenTypeOr, TokenTypeIdentifier, TokenTypeLeftParen, TokenTypeRightParen,
				TokenTypeEOF,
			},
		},
		{
			"literals",
			"True false None none 6 6.0 .5 1e3 -2",
			[]TokenType{
				TokenTypeBool, TokenTypeBool, TokenTypeNone, TokenTypeNone,
				TokenTypeInteger, TokenTypeFloat, TokenTypeFloat, TokenTypeFloat,
				TokenTypeMinus, TokenTypeInteger, TokenTypeEOF,
			},
		},
		{
			"list",
			"['x', \"y\"]",
			[]TokenType{TokenTypeLeftBracket, TokenTypeString, TokenTypeComma, TokenTypeString, TokenTypeRightBracket, TokenTypeEOF},
		},
		{
			"operators",
			"a()>=30 + x.y",
			[]TokenType{
				TokenTypeIdentifier, TokenTypeLeftParen, TokenTypeRightParen, TokenTypeOperator,
				TokenTypeInteger, TokenTypeOperator, TokenTypeIdentifier, TokenTypeDot, TokenTypeIdentifier,
				TokenTypeEOF,
			},
		},
		{
			"keyword prefix is an identifier",
			"android()",
			[]TokenType{TokenTypeIdentifier, TokenTypeLeftParen, TokenTypeRightParen, TokenTypeEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexemes, err := Lex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(lexemes))
		})
	}
}

func TestLex_Positions(t *testing.T) {
	lexemes, err := Lex("a( 'x' )")
	require.NoError(t, err)
	require.Len(t, lexemes, 5)

	assert.Equal(t, 0, lexemes[0].Position)
	assert.Equal(t, 1, lexemes[1].Position)
	assert.Equal(t, 3, lexemes[2].Position)
	assert.Equal(t, "'x'", lexemes[2].Value)
	assert.Equal(t, 6, lexemes[2].End())
	assert.Equal(t, 7, lexemes[3].Position)
	assert.Equal(t, 8, lexemes[4].Position)
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		wantMsg  string
	}{
		{"unterminated string", "a('abc", "'abc", "unterminated string literal"},
		{"newline in string", "a('ab\ncd')", "'ab", "unterminated string literal"},
		{"trailing backslash", `a('x\`, `'x\`, "unterminated string literal"},
		{"unknown character", "a() $ b()", "$", "unrecognized character"},
		{"bad exponent", "a(1e)", "1e", "malformed number literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.input)
			require.Error(t, err)

			var lexErr *Error
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, tt.wantText, lexErr.Text)
			assert.Equal(t, tt.wantMsg, lexErr.Message)
		})
	}
}

func TestLex_EscapedQuote(t *testing.T) {
	lexemes, err := Lex(`a('it\'s')`)
	require.NoError(t, err)
	assert.Equal(t, `'it\'s'`, lexemes[2].Value)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"'Cody'", "Cody"},
		{`"Cody"`, "Cody"},
		{"''", ""},
		{`'it\'s'`, "it's"},
		{`"a\"b"`, `a"b`},
		{`'line\nbreak'`, "line\nbreak"},
		{`'tab\there'`, "tab\there"},
		{`'back\\slash'`, `back\slash`},
		{`'\d+'`, `\d+`},
		{"'Jose\u0301'", "Jos\u00e9"},
		{"'Jos\u00e9'", "Jos\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Unquote(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnquote_Rejects(t *testing.T) {
	for _, raw := range []string{"", "'", "abc", `'abc"`} {
		_, err := Unquote(raw)
		assert.Error(t, err, raw)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"lambda x: x+1", "lambda x: x + 1"},
		{"lambda   x :x +  1", "lambda x: x + 1"},
		{"a()>=30", "a() >= 30"},
		{"a() >= 30", "a() >= 30"},
		{"f( 'x' ,'y' )", "f('x', 'y')"},
		{"not(a() and b())", "not (a() and b())"},
		{"f(-1)", "f(-1)"},
		{"a() - 1", "a() - 1"},
		{"x[1 : 2]", "x[1:2]"},
		{"f(k = 1)", "f(k=1)"},
		{"user . name", "user.name"},
		{"[1,2 ,3]", "[1, 2, 3]"},
		{"x == None", "x == None"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexemes, err := Lex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Render(lexemes))
		})
	}
}

func TestRenderArgument(t *testing.T) {
	lexemes, err := Lex("k = 1")
	require.NoError(t, err)
	assert.Equal(t, "k=1", RenderArgument(lexemes))
	assert.Equal(t, "k = 1", Render(lexemes))
}

func TestRender_IgnoresEOF(t *testing.T) {
	assert.Equal(t, "", Render([]Lexeme{{Kind: TokenTypeEOF}}))
	assert.Equal(t, "", Render(nil))
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, IsKeyword("and"))
	assert.True(t, IsKeyword("None"))
	assert.False(t, IsKeyword("And"))
	assert.False(t, IsKeyword("filter_by_name"))
}

func TestTokenType_String(t *testing.T) {
	assert.Equal(t, "identifier", TokenTypeIdentifier.String())
	assert.Equal(t, "end of input", TokenTypeEOF.String())
	assert.Equal(t, "TokenType(99)", TokenType(99).String())
}
