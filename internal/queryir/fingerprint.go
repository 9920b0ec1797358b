package queryir

import (
	"fmt"

	"github.com/roach88/iql/internal/ir"
)

// Encode converts a node to the plain map/slice form used for canonical
// JSON. Calls become {"call": name, "args": [...]}, compound nodes
// {"and": [...]}, {"or": [...]} and {"not": child}.
func Encode(n Node) (any, error) {
	switch node := n.(type) {
	case nil:
		return nil, nil
	case *Call:
		args := make([]any, len(node.Args))
		for i, a := range node.Args {
			args[i] = a
		}
		return map[string]any{"call": node.Name, "args": args}, nil
	case *And:
		children, err := encodeAll(node.Children)
		if err != nil {
			return nil, err
		}
		return map[string]any{"and": children}, nil
	case *Or:
		children, err := encodeAll(node.Children)
		if err != nil {
			return nil, err
		}
		return map[string]any{"or": children}, nil
	case *Not:
		child, err := Encode(node.Child)
		if err != nil {
			return nil, err
		}
		return map[string]any{"not": child}, nil
	default:
		return nil, fmt.Errorf("unsupported node type %T", n)
	}
}

func encodeAll(nodes []Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		enc, err := Encode(n)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// MarshalCanonical encodes the tree root as canonical JSON. The empty tree
// encodes as null.
func MarshalCanonical(t *Tree) ([]byte, error) {
	var root Node
	if !t.Empty() {
		root = t.Root
	}
	enc, err := Encode(root)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(enc)
}

// Fingerprint returns a content hash of the tree structure. Trees that are
// Equal share a fingerprint regardless of source spacing. Strings are
// hashed in NFC form, so trees built by hand with composed and decomposed
// spellings of the same text share a fingerprint even though Equal tells
// them apart. Parsed trees never differ that way: the parser normalizes
// string literals to NFC.
func Fingerprint(t *Tree) (string, error) {
	data, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return ir.HashWithDomain(ir.DomainTree, data), nil
}
