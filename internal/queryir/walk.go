package queryir

import "github.com/roach88/iql/internal/ir"

// Children returns the direct children of n. Calls have none.
func Children(n Node) []Node {
	switch node := n.(type) {
	case *And:
		return node.Children
	case *Or:
		return node.Children
	case *Not:
		return []Node{node.Child}
	default:
		return nil
	}
}

// Walk visits n and its descendants in pre-order. When fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Calls returns every call leaf of the tree in pre-order. The position of a
// call in this slice is its leaf index, used by diagnostics.
func Calls(t *Tree) []*Call {
	if t.Empty() {
		return nil
	}
	var calls []*Call
	Walk(t.Root, func(n Node) bool {
		if c, ok := n.(*Call); ok {
			calls = append(calls, c)
		}
		return true
	})
	return calls
}

// MapCalls returns a new tree where each call leaf is replaced by fn(index,
// call). Compound nodes are rebuilt; the input tree is not modified. The
// first error from fn aborts the rebuild.
func MapCalls(t *Tree, fn func(int, *Call) (*Call, error)) (*Tree, error) {
	if t.Empty() {
		return &Tree{Source: sourceOf(t)}, nil
	}

	index := 0
	var rebuild func(Node) (Node, error)
	rebuild = func(n Node) (Node, error) {
		switch node := n.(type) {
		case *Call:
			i := index
			index++
			return fn(i, node)
		case *And:
			children, err := rebuildAll(node.Children, rebuild)
			if err != nil {
				return nil, err
			}
			return &And{Children: children}, nil
		case *Or:
			children, err := rebuildAll(node.Children, rebuild)
			if err != nil {
				return nil, err
			}
			return &Or{Children: children}, nil
		case *Not:
			child, err := rebuild(node.Child)
			if err != nil {
				return nil, err
			}
			return &Not{Child: child}, nil
		default:
			return n, nil
		}
	}

	root, err := rebuild(t.Root)
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root, Source: t.Source}, nil
}

func rebuildAll(nodes []Node, rebuild func(Node) (Node, error)) ([]Node, error) {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		r, err := rebuild(n)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func sourceOf(t *Tree) string {
	if t == nil {
		return ""
	}
	return t.Source
}

// Equal reports whether two nodes have the same structure and argument
// values.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !ir.Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *And:
		y, ok := b.(*And)
		return ok && equalAll(x.Children, y.Children)
	case *Or:
		y, ok := b.(*Or)
		return ok && equalAll(x.Children, y.Children)
	case *Not:
		y, ok := b.(*Not)
		return ok && Equal(x.Child, y.Child)
	default:
		return a == nil && b == nil
	}
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// EqualTrees compares roots; Source is ignored.
func EqualTrees(a, b *Tree) bool {
	if a.Empty() || b.Empty() {
		return a.Empty() && b.Empty()
	}
	return Equal(a.Root, b.Root)
}
