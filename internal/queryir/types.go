package queryir

import (
	"fmt"

	"github.com/roach88/iql/internal/ir"
)

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindCall Kind = iota + 1
	KindAnd
	KindOr
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node represents a node of the query tree.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	queryNode() // Marker method - seals interface to this package
	Kind() Kind
}

// Call is a leaf: one operation invocation with literal arguments.
//
// Args hold literals, lists of literals, ir.Placeholder for zero-argument
// calls in argument position, and ir.Bound once a placeholder is resolved.
type Call struct {
	Name string
	Args []ir.Value
}

func (*Call) queryNode() {}

// Kind returns KindCall.
func (*Call) Kind() Kind { return KindCall }

// ArgPlaceholder locates a context placeholder among a call's arguments.
type ArgPlaceholder struct {
	Index int    // argument position
	Name  string // context type name
}

// Placeholders lists the unresolved context placeholders passed directly as
// arguments, in argument order.
func (c *Call) Placeholders() []ArgPlaceholder {
	var out []ArgPlaceholder
	for i, arg := range c.Args {
		if p, ok := arg.(ir.Placeholder); ok {
			out = append(out, ArgPlaceholder{Index: i, Name: p.Name})
		}
	}
	return out
}

// WithArgs returns a copy of the call carrying args.
func (c *Call) WithArgs(args []ir.Value) *Call {
	return &Call{Name: c.Name, Args: args}
}

// And is satisfied when every child is. Always has at least one child.
type And struct {
	Children []Node
}

func (*And) queryNode() {}

// Kind returns KindAnd.
func (*And) Kind() Kind { return KindAnd }

// Or is satisfied when any child is. Always has at least one child.
type Or struct {
	Children []Node
}

func (*Or) queryNode() {}

// Kind returns KindOr.
func (*Or) Kind() Kind { return KindOr }

// Not negates exactly one child.
type Not struct {
	Child Node
}

func (*Not) queryNode() {}

// Kind returns KindNot.
func (*Not) Kind() Kind { return KindNot }

// NewCall builds a call leaf.
func NewCall(name string, args ...ir.Value) *Call {
	return &Call{Name: name, Args: args}
}

// NewAnd builds a conjunction, rejecting an empty or nil child list.
func NewAnd(children ...Node) (*And, error) {
	if err := checkChildren("and", children); err != nil {
		return nil, err
	}
	return &And{Children: children}, nil
}

// NewOr builds a disjunction, rejecting an empty or nil child list.
func NewOr(children ...Node) (*Or, error) {
	if err := checkChildren("or", children); err != nil {
		return nil, err
	}
	return &Or{Children: children}, nil
}

// NewNot builds a negation of child.
func NewNot(child Node) (*Not, error) {
	if child == nil {
		return nil, fmt.Errorf("not requires exactly one child")
	}
	return &Not{Child: child}, nil
}

func checkChildren(op string, children []Node) error {
	if len(children) == 0 {
		return fmt.Errorf("%s requires at least one child", op)
	}
	for i, c := range children {
		if c == nil {
			return fmt.Errorf("%s child %d is nil", op, i)
		}
	}
	return nil
}

// Tree is a parsed IQL query. Root is nil for empty input, which represents
// zero operations.
type Tree struct {
	Root   Node
	Source string // text the tree was parsed from; empty for built trees
}

// NewTree wraps a root node.
func NewTree(root Node) *Tree {
	return &Tree{Root: root}
}

// Empty reports whether the tree holds no operations.
func (t *Tree) Empty() bool {
	return t == nil || t.Root == nil
}

// String renders the tree in IQL syntax.
func (t *Tree) String() string {
	if t.Empty() {
		return ""
	}
	return Format(t.Root)
}
