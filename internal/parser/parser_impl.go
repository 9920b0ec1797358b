package parser

import (
	"fmt"
	"strconv"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/lexer"
	"github.com/roach88/iql/internal/queryir"
)

// maxDepth bounds parenthesis and list nesting.
const maxDepth = 200

// sourceParser holds the state of the parser.
type sourceParser struct {
	tokens []lexer.Lexeme // always ends with TokenTypeEOF
	pos    int            // index of the current token
	depth  int            // current nesting depth

	// operandStart is the token index where the innermost enclosing or most
	// recently completed term begins. Syntax errors report from here.
	operandStart int
}

func newSourceParser(tokens []lexer.Lexeme) *sourceParser {
	return &sourceParser{tokens: tokens}
}

// currentToken returns the token at the parser position.
func (p *sourceParser) currentToken() lexer.Lexeme {
	return p.tokens[p.pos]
}

// peekToken returns the token after the current one.
func (p *sourceParser) peekToken() lexer.Lexeme {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

// consumeToken advances past the current token and returns it.
func (p *sourceParser) consumeToken() lexer.Lexeme {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.TokenTypeEOF {
		p.pos++
	}
	return tok
}

// isToken returns true if the current token matches one of the types given.
func (p *sourceParser) isToken(types ...lexer.TokenType) bool {
	for _, kind := range types {
		if p.currentToken().Kind == kind {
			return true
		}
	}
	return false
}

// tryConsume consumes the current token if it has the given type.
func (p *sourceParser) tryConsume(kind lexer.TokenType) bool {
	if !p.isToken(kind) {
		return false
	}
	p.consumeToken()
	return true
}

// parseTopLevel parses the whole input. Empty input yields a nil root.
func (p *sourceParser) parseTopLevel() (queryir.Node, error) {
	if p.isToken(lexer.TokenTypeEOF) {
		return nil, nil
	}

	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isToken(lexer.TokenTypeEOF) {
		return nil, p.unexpectedAfterOperand()
	}
	return root, nil
}

// parseOr parses: and ("or" and)*
func (p *sourceParser) parseOr() (queryir.Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if !p.isToken(lexer.TokenTypeOr) {
		return first, nil
	}

	children := []queryir.Node{first}
	for p.tryConsume(lexer.TokenTypeOr) {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	return &queryir.Or{Children: children}, nil
}

// parseAnd parses: term ("and" term)*
func (p *sourceParser) parseAnd() (queryir.Node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if !p.isToken(lexer.TokenTypeAnd) {
		return first, nil
	}

	children := []queryir.Node{first}
	for p.tryConsume(lexer.TokenTypeAnd) {
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	return &queryir.And{Children: children}, nil
}

// parseTerm parses: "not" factor | factor
func (p *sourceParser) parseTerm() (queryir.Node, error) {
	start := p.pos
	p.operandStart = start

	negate := p.tryConsume(lexer.TokenTypeNot)
	node, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	// A nested group moves operandStart inward; restore it to this term.
	p.operandStart = start
	if negate {
		return &queryir.Not{Child: node}, nil
	}
	return node, nil
}

// parseFactor parses: "(" expr ")" | call
func (p *sourceParser) parseFactor() (queryir.Node, error) {
	switch {
	case p.isToken(lexer.TokenTypeLeftParen):
		return p.parseGroup()
	case p.isToken(lexer.TokenTypeIdentifier):
		return p.parseCall()
	default:
		p.operandStart = p.pos
		if p.isToken(lexer.TokenTypeEOF) && p.pos > 0 {
			// Dangling operator: report the operator itself.
			p.operandStart = p.pos - 1
		}
		return nil, p.syntaxErrorAt(p.pos, p.describeMissingOperand())
	}
}

func (p *sourceParser) parseGroup() (queryir.Node, error) {
	open := p.pos
	p.consumeToken()

	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isToken(lexer.TokenTypeRightParen) {
		p.operandStart = open
		return nil, p.syntaxErrorAt(open, "empty parentheses")
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.tryConsume(lexer.TokenTypeRightParen):
		return node, nil
	case p.isToken(lexer.TokenTypeEOF):
		p.operandStart = open
		return nil, p.syntaxErrorAt(p.pos, "missing closing parenthesis")
	default:
		return nil, p.unexpectedAfterOperand()
	}
}

// parseCall parses: IDENT "(" (arg ("," arg)*)? ")"
func (p *sourceParser) parseCall() (queryir.Node, error) {
	name := p.consumeToken().Value
	if !p.tryConsume(lexer.TokenTypeLeftParen) {
		if p.isToken(lexer.TokenTypeDot, lexer.TokenTypeOperator, lexer.TokenTypeMinus, lexer.TokenTypeLeftBracket) {
			return nil, p.unexpectedAfterOperand()
		}
		return nil, p.syntaxErrorAt(p.pos, fmt.Sprintf("expected ( after %s", name))
	}

	var args []ir.Value
	for !p.isToken(lexer.TokenTypeRightParen) {
		argStart := p.pos
		if !canStartExpression(p.currentToken()) {
			return nil, p.syntaxErrorAt(p.pos, p.describeUnexpected("in argument list"))
		}

		arg, err := p.parseArg(name, argStart)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.tryConsume(lexer.TokenTypeComma) {
			continue
		}
		if p.isToken(lexer.TokenTypeRightParen) {
			break
		}
		if p.isToken(lexer.TokenTypeEOF) {
			return nil, p.syntaxErrorAt(p.pos, "missing closing parenthesis")
		}
		return nil, p.argumentError(name, argStart, "unsupported argument expression")
	}
	p.consumeToken()

	return &queryir.Call{Name: name, Args: args}, nil
}

// parseArg parses one top-level argument. Zero-argument calls are context
// placeholders here and nowhere else.
func (p *sourceParser) parseArg(call string, argStart int) (ir.Value, error) {
	if p.isToken(lexer.TokenTypeIdentifier) {
		return p.parsePlaceholder(call, argStart)
	}
	return p.parseLiteral(call, argStart)
}

func (p *sourceParser) parsePlaceholder(call string, argStart int) (ir.Value, error) {
	name := p.currentToken().Value
	if p.peekToken().Kind != lexer.TokenTypeLeftParen {
		return nil, p.argumentError(call, argStart, "bare identifiers are not values")
	}
	p.consumeToken()
	p.consumeToken()

	if !p.tryConsume(lexer.TokenTypeRightParen) {
		return nil, p.argumentError(call, argStart, "context placeholders take no arguments")
	}
	return ir.Placeholder{Name: name}, nil
}

// parseLiteral parses a scalar literal or a list of literals.
func (p *sourceParser) parseLiteral(call string, argStart int) (ir.Value, error) {
	tok := p.currentToken()
	switch tok.Kind {
	case lexer.TokenTypeString:
		p.consumeToken()
		s, err := lexer.Unquote(tok.Value)
		if err != nil {
			return nil, p.argumentError(call, argStart, err.Error())
		}
		return ir.Str(s), nil

	case lexer.TokenTypeInteger, lexer.TokenTypeFloat:
		p.consumeToken()
		return p.number(call, argStart, "", tok)

	case lexer.TokenTypeMinus:
		p.consumeToken()
		num := p.currentToken()
		if num.Kind != lexer.TokenTypeInteger && num.Kind != lexer.TokenTypeFloat {
			return nil, p.argumentError(call, argStart, "unary minus applies only to numbers")
		}
		p.consumeToken()
		return p.number(call, argStart, "-", num)

	case lexer.TokenTypeBool:
		p.consumeToken()
		return ir.Bool(tok.Value == "True" || tok.Value == "true"), nil

	case lexer.TokenTypeNone:
		p.consumeToken()
		return ir.None{}, nil

	case lexer.TokenTypeLeftBracket:
		return p.parseList(call, argStart)

	default:
		return nil, p.argumentError(call, argStart, "not a literal, list or context placeholder")
	}
}

func (p *sourceParser) number(call string, argStart int, sign string, tok lexer.Lexeme) (ir.Value, error) {
	if tok.Kind == lexer.TokenTypeInteger {
		n, err := strconv.ParseInt(sign+tok.Value, 10, 64)
		if err != nil {
			return nil, p.argumentError(call, argStart, "integer out of range")
		}
		return ir.Int(n), nil
	}

	f, err := strconv.ParseFloat(sign+tok.Value, 64)
	if err != nil {
		return nil, p.argumentError(call, argStart, "float out of range")
	}
	return ir.Float(f), nil
}

// parseList parses: "[" (literal ("," literal)*)? "]"
func (p *sourceParser) parseList(call string, argStart int) (ir.Value, error) {
	open := p.pos
	p.consumeToken()

	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	list := ir.List{}
	for !p.isToken(lexer.TokenTypeRightBracket) {
		if p.isToken(lexer.TokenTypeEOF) {
			return nil, p.syntaxErrorAt(p.pos, "missing closing bracket")
		}
		if p.isToken(lexer.TokenTypeIdentifier) {
			return nil, p.argumentError(call, argStart, "list elements must be literals")
		}

		elem, err := p.parseLiteral(call, argStart)
		if err != nil {
			return nil, err
		}
		list = append(list, elem)

		if p.tryConsume(lexer.TokenTypeComma) {
			continue
		}
		if p.isToken(lexer.TokenTypeRightBracket) {
			break
		}
		if p.isToken(lexer.TokenTypeEOF) {
			return nil, p.syntaxErrorAt(p.pos, "missing closing bracket")
		}
		return nil, p.argumentError(call, argStart, "unsupported list element")
	}
	p.consumeToken()
	return list, nil
}

func (p *sourceParser) enter(at int) error {
	p.depth++
	if p.depth > maxDepth {
		p.operandStart = at
		return p.syntaxErrorAt(at, "expression nested too deeply")
	}
	return nil
}

func (p *sourceParser) leave() {
	p.depth--
}

// unexpectedAfterOperand reports the token following a complete operand.
func (p *sourceParser) unexpectedAfterOperand() error {
	tok := p.currentToken()
	var reason string
	switch tok.Kind {
	case lexer.TokenTypeOperator, lexer.TokenTypeMinus:
		reason = fmt.Sprintf("unsupported operator %s", tok.Value)
	case lexer.TokenTypeDot:
		reason = "attribute access is not supported"
	case lexer.TokenTypeLeftBracket:
		reason = "subscripts are not supported"
	case lexer.TokenTypeRightParen:
		reason = "unbalanced closing parenthesis"
	default:
		reason = p.describeUnexpected("after operand")
	}
	return p.syntaxErrorAt(p.pos, reason)
}

func (p *sourceParser) describeMissingOperand() string {
	tok := p.currentToken()
	if tok.Kind == lexer.TokenTypeEOF {
		return "expected an operation call, found end of input"
	}
	return fmt.Sprintf("expected an operation call, found %s", tok.Kind)
}

func (p *sourceParser) describeUnexpected(where string) string {
	tok := p.currentToken()
	if tok.Kind == lexer.TokenTypeEOF {
		return fmt.Sprintf("unexpected end of input %s", where)
	}
	return fmt.Sprintf("unexpected %s %s", tok.Kind, where)
}

// syntaxErrorAt builds a SyntaxError spanning from operandStart through the
// construct at index at, up to the next top-level and/or, an enclosing
// closing parenthesis, or end of input.
func (p *sourceParser) syntaxErrorAt(at int, reason string) error {
	start := min(p.operandStart, at)
	end := p.syntaxSpanEnd(start, at)

	return &queryir.SyntaxError{
		Text:     lexer.Render(p.tokens[start:end]),
		Position: p.tokens[start].Position,
		Reason:   reason,
	}
}

func (p *sourceParser) syntaxSpanEnd(start, at int) int {
	if at > start && isBoundary(p.tokens[at].Kind) {
		return at
	}

	// Brackets opened between start and at close within the span.
	depth := 0
	for _, tok := range p.tokens[start:at] {
		switch {
		case isOpen(tok.Kind):
			depth++
		case isClose(tok.Kind) && depth > 0:
			depth--
		}
	}

	j := at
	for ; j < len(p.tokens); j++ {
		kind := p.tokens[j].Kind
		if kind == lexer.TokenTypeEOF || (j > at && depth == 0 && isBoundary(kind)) {
			break
		}

		switch {
		case isOpen(kind):
			depth++
		case isClose(kind):
			if depth == 0 {
				if j > at {
					return j
				}
				continue
			}
			depth--
		}
	}
	return j
}

// argumentError builds an ArgumentParsingError spanning the argument that
// starts at argStart, up to the next top-level comma or closing bracket.
func (p *sourceParser) argumentError(call string, argStart int, reason string) error {
	depth := 0
	end := argStart
	for ; end < len(p.tokens); end++ {
		tok := p.tokens[end]
		if tok.Kind == lexer.TokenTypeEOF {
			break
		}
		if depth == 0 && (tok.Kind == lexer.TokenTypeComma || isClose(tok.Kind)) {
			break
		}
		switch {
		case isOpen(tok.Kind):
			depth++
		case isClose(tok.Kind):
			depth--
		}
	}

	return &queryir.ArgumentParsingError{
		Call:     call,
		Text:     lexer.RenderArgument(p.tokens[argStart:end]),
		Position: p.tokens[argStart].Position,
		Reason:   reason,
	}
}

func isBoundary(kind lexer.TokenType) bool {
	return kind == lexer.TokenTypeEOF || kind == lexer.TokenTypeAnd || kind == lexer.TokenTypeOr
}

func isOpen(kind lexer.TokenType) bool {
	return kind == lexer.TokenTypeLeftParen || kind == lexer.TokenTypeLeftBracket || kind == lexer.TokenTypeLeftBrace
}

func isClose(kind lexer.TokenType) bool {
	return kind == lexer.TokenTypeRightParen || kind == lexer.TokenTypeRightBracket || kind == lexer.TokenTypeRightBrace
}

// canStartExpression reports whether tok can begin some expression, valid
// IQL or not. Tokens that cannot are syntax errors rather than bad arguments.
func canStartExpression(tok lexer.Lexeme) bool {
	switch tok.Kind {
	case lexer.TokenTypeEOF, lexer.TokenTypeComma, lexer.TokenTypeColon, lexer.TokenTypeDot,
		lexer.TokenTypeAnd, lexer.TokenTypeOr,
		lexer.TokenTypeRightParen, lexer.TokenTypeRightBracket, lexer.TokenTypeRightBrace:
		return false
	}
	return true
}
