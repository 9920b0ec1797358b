package queryir

import (
	"fmt"
	"unicode"

	"github.com/roach88/iql/internal/ir"
	"github.com/roach88/iql/internal/lexer"
)

// CheckResult contains structural problems found in a tree.
//
// Trees produced by the parser always pass. Check exists for trees built
// in code, which bypass the parser's guarantees.
type CheckResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists every violation in pre-order.
	Problems []string
}

// Check verifies the structural invariants of a tree: and/or nodes have at
// least one child, not nodes exactly one, calls a well-formed name and
// non-nil arguments, and no placeholder nested inside a list.
//
// Check is a pure function with no side effects.
func Check(t *Tree) CheckResult {
	c := &checker{
		problems: []string{},
	}
	if !t.Empty() {
		c.checkNode(t.Root, "root")
	}

	return CheckResult{
		Valid:    len(c.problems) == 0,
		Problems: c.problems,
	}
}

// checker accumulates problems during traversal.
type checker struct {
	problems []string
}

func (c *checker) addProblem(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *checker) checkNode(n Node, path string) {
	switch node := n.(type) {
	case nil:
		c.addProblem("%s: nil node", path)
	case *Call:
		if node == nil {
			c.addProblem("%s: nil call", path)
			return
		}
		c.checkCall(node, path)
	case *And:
		if node == nil || len(node.Children) == 0 {
			c.addProblem("%s: and requires at least one child", path)
			return
		}
		for i, child := range node.Children {
			c.checkNode(child, fmt.Sprintf("%s.and[%d]", path, i))
		}
	case *Or:
		if node == nil || len(node.Children) == 0 {
			c.addProblem("%s: or requires at least one child", path)
			return
		}
		for i, child := range node.Children {
			c.checkNode(child, fmt.Sprintf("%s.or[%d]", path, i))
		}
	case *Not:
		if node == nil {
			c.addProblem("%s: nil not", path)
			return
		}
		c.checkNode(node.Child, path+".not")
	default:
		c.addProblem("%s: unknown node type %T", path, n)
	}
}

func (c *checker) checkCall(call *Call, path string) {
	if !isIdentifier(call.Name) {
		c.addProblem("%s: invalid operation name %q", path, call.Name)
	}
	for i, arg := range call.Args {
		argPath := fmt.Sprintf("%s(%s).args[%d]", path, call.Name, i)
		if arg == nil {
			c.addProblem("%s: nil argument", argPath)
			continue
		}
		if list, ok := arg.(ir.List); ok {
			c.checkList(list, argPath)
		}
	}
}

func (c *checker) checkList(list ir.List, path string) {
	for i, elem := range list {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		switch v := elem.(type) {
		case nil:
			c.addProblem("%s: nil element", elemPath)
		case ir.Placeholder, ir.Bound:
			c.addProblem("%s: context placeholder inside a list", elemPath)
		case ir.List:
			c.checkList(v, elemPath)
		}
	}
}

func isIdentifier(name string) bool {
	if name == "" || lexer.IsKeyword(name) {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
