// Package parser turns IQL text into a query tree.
//
// Parsing is one-shot and atomic. A Parser moves through
//
//	INIT -> TOKENIZING -> BUILDING_TREE -> VALID_TREE | SYNTAX_ERROR | ARGUMENT_PARSING_ERROR
//
// exactly once. A failed parse never yields a partial tree: the error is a
// *queryir.SyntaxError or *queryir.ArgumentParsingError carrying the
// offending source text.
//
// Operator precedence is not > and > or. Chains of the same operator build a
// single n-ary node, and parentheses only group.
package parser

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/iql/internal/lexer"
	"github.com/roach88/iql/internal/queryir"
)

// State is a parser lifecycle state.
type State int32

const (
	StateInit State = iota
	StateTokenizing
	StateBuildingTree
	StateValidTree
	StateSyntaxError
	StateArgumentParsingError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateTokenizing:
		return "TOKENIZING"
	case StateBuildingTree:
		return "BUILDING_TREE"
	case StateValidTree:
		return "VALID_TREE"
	case StateSyntaxError:
		return "SYNTAX_ERROR"
	case StateArgumentParsingError:
		return "ARGUMENT_PARSING_ERROR"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s >= StateValidTree
}

// Parser parses one source text. It is safe for concurrent use; the first
// Parse call does the work and every later call returns the same outcome.
type Parser struct {
	source string
	state  atomic.Int32
	once   sync.Once
	tree   *queryir.Tree
	err    error
}

// New returns a parser for source in StateInit.
func New(source string) *Parser {
	return &Parser{source: source}
}

// Parse parses source in one call.
func Parse(source string) (*queryir.Tree, error) {
	return New(source).Parse()
}

// State returns the current lifecycle state.
func (p *Parser) State() State {
	return State(p.state.Load())
}

// Source returns the text being parsed.
func (p *Parser) Source() string {
	return p.source
}

// Parse runs the parser to a terminal state. The tree is nil whenever the
// error is not.
func (p *Parser) Parse() (*queryir.Tree, error) {
	p.once.Do(p.run)
	return p.tree, p.err
}

func (p *Parser) setState(s State) {
	p.state.Store(int32(s))
}

func (p *Parser) run() {
	p.setState(StateTokenizing)
	tokens, err := lexer.Lex(p.source)
	if err != nil {
		p.fail(lexError(err))
		return
	}

	p.setState(StateBuildingTree)
	root, err := newSourceParser(tokens).parseTopLevel()
	if err != nil {
		p.fail(err)
		return
	}

	p.tree = &queryir.Tree{Root: root, Source: p.source}
	p.setState(StateValidTree)
}

func (p *Parser) fail(err error) {
	p.err = err
	if queryir.IsArgumentParsingError(err) {
		p.setState(StateArgumentParsingError)
		return
	}
	p.setState(StateSyntaxError)
}

func lexError(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return &queryir.SyntaxError{
			Text:     le.Text,
			Position: le.Position,
			Reason:   le.Message,
		}
	}
	return &queryir.SyntaxError{Reason: err.Error()}
}
