// Package lexer tokenizes IQL source text.
//
// The lexer is a state-function scanner run to completion in one call: Lex
// returns every lexeme or the first lexing error. It never panics and never
// spawns goroutines, so it is safe to call from any number of goroutines.
//
// The lexer is deliberately wider than the IQL grammar. Comparison,
// arithmetic and attribute operators are emitted as TokenTypeOperator so the
// parser can report the whole unsupported construct instead of failing on the
// first unexpected character.
package lexer

import "fmt"

// TokenType identifies the type of lexer lexemes.
type TokenType int

const (
	TokenTypeError TokenType = iota // error occurred; value is the offending text

	TokenTypeEOF
	TokenTypeIdentifier // filter_by_name
	TokenTypeString     // 'Cody' or "Cody"
	TokenTypeInteger    // 30
	TokenTypeFloat      // 6.0, 1e3

	TokenTypeAnd  // and
	TokenTypeOr   // or
	TokenTypeNot  // not
	TokenTypeBool // True, False
	TokenTypeNone // None

	TokenTypeLeftParen    // (
	TokenTypeRightParen   // )
	TokenTypeLeftBracket  // [
	TokenTypeRightBracket // ]
	TokenTypeLeftBrace    // {
	TokenTypeRightBrace   // }
	TokenTypeComma        // ,
	TokenTypeColon        // :
	TokenTypeDot          // .
	TokenTypeMinus        // -

	TokenTypeOperator // any other operator: >= + * = ...
)

var tokenTypeNames = map[TokenType]string{
	TokenTypeError:        "error",
	TokenTypeEOF:          "end of input",
	TokenTypeIdentifier:   "identifier",
	TokenTypeString:       "string",
	TokenTypeInteger:      "integer",
	TokenTypeFloat:        "float",
	TokenTypeAnd:          "and",
	TokenTypeOr:           "or",
	TokenTypeNot:          "not",
	TokenTypeBool:         "bool",
	TokenTypeNone:         "None",
	TokenTypeLeftParen:    "(",
	TokenTypeRightParen:   ")",
	TokenTypeLeftBracket:  "[",
	TokenTypeRightBracket: "]",
	TokenTypeLeftBrace:    "{",
	TokenTypeRightBrace:   "}",
	TokenTypeComma:        ",",
	TokenTypeColon:        ":",
	TokenTypeDot:          ".",
	TokenTypeMinus:        "-",
	TokenTypeOperator:     "operator",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords maps reserved words to their token types.
// Lowercase literal spellings are accepted since LLM output mixes styles.
var keywords = map[string]TokenType{
	"and":   TokenTypeAnd,
	"or":    TokenTypeOr,
	"not":   TokenTypeNot,
	"True":  TokenTypeBool,
	"False": TokenTypeBool,
	"true":  TokenTypeBool,
	"false": TokenTypeBool,
	"None":  TokenTypeNone,
	"none":  TokenTypeNone,
}

// IsKeyword returns whether the specified input string is a reserved keyword.
func IsKeyword(candidate string) bool {
	_, ok := keywords[candidate]
	return ok
}

// multiOperators lists two-character operators, matched before single ones.
var multiOperators = []string{">=", "<=", "==", "!=", "**", "//", "->", ":=", "<<", ">>"}

// singleOperators lists one-character operators.
const singleOperators = "+*/%<>=!@&|^~?;"

// Lexeme represents a token returned by scanning the contents of a file.
type Lexeme struct {
	Kind     TokenType // The type of this lexeme.
	Position int       // The starting byte offset in the input.
	Value    string    // The raw textual value of this lexeme.
}

// End returns the byte offset just past the lexeme.
func (l Lexeme) End() int {
	return l.Position + len(l.Value)
}

// IsValueEnd reports whether the lexeme can end an operand, which decides
// whether a following - is binary or unary.
func (l Lexeme) IsValueEnd() bool {
	switch l.Kind {
	case TokenTypeIdentifier, TokenTypeString, TokenTypeInteger, TokenTypeFloat,
		TokenTypeBool, TokenTypeNone, TokenTypeRightParen, TokenTypeRightBracket, TokenTypeRightBrace:
		return true
	}
	return false
}

// Error is a lexing failure.
type Error struct {
	Position int    // byte offset of the offending text
	Text     string // the offending text
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: %q", e.Message, e.Position, e.Text)
}
