package signature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/lexer"
)

// TypeExprError reports a malformed type expression.
type TypeExprError struct {
	Expr     string
	Position int
	Message  string
}

func (e *TypeExprError) Error() string {
	return fmt.Sprintf("type expression %q: %s at offset %d", e.Expr, e.Message, e.Position)
}

// ParseType parses a type expression such as `Union[int, None]` or
// `Annotated[str, similarity_index]`.
func ParseType(expr string) (Type, error) {
	tokens, err := lexer.Lex(expr)
	if err != nil {
		var le *lexer.Error
		if errors.As(err, &le) {
			return nil, &TypeExprError{Expr: expr, Position: le.Position, Message: le.Message}
		}
		return nil, err
	}

	p := &typeParser{expr: expr, tokens: tokens}
	if p.is(lexer.TokenTypeEOF) {
		return nil, p.errorf("empty type expression")
	}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.is(lexer.TokenTypeEOF) {
		return nil, p.errorf("unexpected %q after type", p.current().Value)
	}
	return t, nil
}

// MustParseType is ParseType for expressions known to be valid.
func MustParseType(expr string) Type {
	t, err := ParseType(expr)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	expr   string
	tokens []lexer.Lexeme
	pos    int
}

func (p *typeParser) current() lexer.Lexeme {
	return p.tokens[p.pos]
}

func (p *typeParser) is(kind lexer.TokenType) bool {
	return p.current().Kind == kind
}

func (p *typeParser) advance() lexer.Lexeme {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.TokenTypeEOF {
		p.pos++
	}
	return tok
}

func (p *typeParser) expect(kind lexer.TokenType) error {
	if !p.is(kind) {
		return p.errorf("expected %s, found %s", kind, p.current().Kind)
	}
	p.advance()
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &TypeExprError{
		Expr:     p.expr,
		Position: p.current().Position,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (p *typeParser) parseType() (Type, error) {
	if p.is(lexer.TokenTypeNone) {
		p.advance()
		return NoneType, nil
	}
	if !p.is(lexer.TokenTypeIdentifier) {
		return nil, p.errorf("expected a type, found %s", p.current().Kind)
	}

	name := p.advance().Value
	switch name {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "str":
		return Str, nil
	case "bool":
		return Bool, nil
	case "Literal":
		return p.parseLiteral()
	case "Union":
		alts, err := p.parseTypeArgs(name, 1, -1)
		if err != nil {
			return nil, err
		}
		return Union{Alternatives: alts}, nil
	case "Optional":
		args, err := p.parseTypeArgs(name, 1, 1)
		if err != nil {
			return nil, err
		}
		return Optional(args[0]), nil
	case "List", "list":
		args, err := p.parseTypeArgs(name, 1, 1)
		if err != nil {
			return nil, err
		}
		return List{Elem: args[0]}, nil
	case "Contextual":
		args, err := p.parseTypeArgs(name, 1, 1)
		if err != nil {
			return nil, err
		}
		return Contextual{Base: args[0]}, nil
	case "Annotated":
		return p.parseAnnotated()
	default:
		return nil, &TypeExprError{Expr: p.expr, Position: p.tokens[p.pos-1].Position, Message: fmt.Sprintf("unknown type %q", name)}
	}
}

// parseTypeArgs parses "[" type ("," type)* "]" with min..max entries;
// max < 0 means unbounded.
func (p *typeParser) parseTypeArgs(name string, minArgs, maxArgs int) ([]Type, error) {
	if err := p.expect(lexer.TokenTypeLeftBracket); err != nil {
		return nil, err
	}

	var args []Type
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.is(lexer.TokenTypeComma) {
			p.advance()
			continue
		}
		break
	}

	if err := p.expect(lexer.TokenTypeRightBracket); err != nil {
		return nil, err
	}
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return nil, p.errorf("%s takes %s, got %d", name, arityText(minArgs, maxArgs), len(args))
	}
	return args, nil
}

func arityText(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d type arguments", minArgs)
	case minArgs == maxArgs:
		return fmt.Sprintf("exactly %d type argument", minArgs)
	default:
		return fmt.Sprintf("%d to %d type arguments", minArgs, maxArgs)
	}
}

func (p *typeParser) parseLiteral() (Type, error) {
	if err := p.expect(lexer.TokenTypeLeftBracket); err != nil {
		return nil, err
	}

	var values []ir.Value
	for {
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.is(lexer.TokenTypeComma) {
			p.advance()
			continue
		}
		break
	}

	if err := p.expect(lexer.TokenTypeRightBracket); err != nil {
		return nil, err
	}
	return Literal{Values: values}, nil
}

func (p *typeParser) parseLiteralValue() (ir.Value, error) {
	tok := p.current()
	sign := ""
	if tok.Kind == lexer.TokenTypeMinus {
		p.advance()
		sign = "-"
		tok = p.current()
		if tok.Kind != lexer.TokenTypeInteger && tok.Kind != lexer.TokenTypeFloat {
			return nil, p.errorf("unary minus applies only to numbers")
		}
	}

	switch tok.Kind {
	case lexer.TokenTypeString:
		s, err := lexer.Unquote(tok.Value)
		if err != nil {
			return nil, p.errorf("%s", err.Error())
		}
		p.advance()
		return ir.Str(s), nil
	case lexer.TokenTypeInteger:
		n, err := strconv.ParseInt(sign+tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf("integer out of range")
		}
		p.advance()
		return ir.Int(n), nil
	case lexer.TokenTypeFloat:
		f, err := strconv.ParseFloat(sign+tok.Value, 64)
		if err != nil {
			return nil, p.errorf("float out of range")
		}
		p.advance()
		return ir.Float(f), nil
	case lexer.TokenTypeBool:
		p.advance()
		return ir.Bool(tok.Value == "True" || tok.Value == "true"), nil
	case lexer.TokenTypeNone:
		p.advance()
		return ir.None{}, nil
	default:
		return nil, p.errorf("expected a literal value, found %s", tok.Kind)
	}
}

// parseAnnotated parses "[" type "," marker "]". The marker is an
// identifier, a dotted name, or a string.
func (p *typeParser) parseAnnotated() (Type, error) {
	if err := p.expect(lexer.TokenTypeLeftBracket); err != nil {
		return nil, err
	}
	base, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenTypeComma); err != nil {
		return nil, err
	}

	var marker string
	switch {
	case p.is(lexer.TokenTypeString):
		marker, err = lexer.Unquote(p.advance().Value)
		if err != nil {
			return nil, p.errorf("%s", err.Error())
		}
	case p.is(lexer.TokenTypeIdentifier):
		parts := []string{p.advance().Value}
		for p.is(lexer.TokenTypeDot) {
			p.advance()
			if !p.is(lexer.TokenTypeIdentifier) {
				return nil, p.errorf("expected identifier after .")
			}
			parts = append(parts, p.advance().Value)
		}
		marker = strings.Join(parts, ".")
	default:
		return nil, p.errorf("expected annotation marker, found %s", p.current().Kind)
	}

	if marker == "" {
		return nil, p.errorf("empty annotation marker")
	}
	if err := p.expect(lexer.TokenTypeRightBracket); err != nil {
		return nil, err
	}
	return Annotated{Base: base, Marker: marker}, nil
}
