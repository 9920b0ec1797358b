package queryir

import (
	"strings"

	"github.com/roach88/iql/internal/ir"
)

// Format renders a node in IQL syntax. Nested and/or children are
// parenthesized so parsing the output yields an Equal tree.
func Format(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch node := n.(type) {
	case *Call:
		sb.WriteString(node.Name)
		sb.WriteByte('(')
		for i, arg := range node.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(ir.Format(arg))
		}
		sb.WriteByte(')')
	case *And:
		writeJoined(sb, node.Children, " and ")
	case *Or:
		writeJoined(sb, node.Children, " or ")
	case *Not:
		sb.WriteString("not ")
		if _, ok := node.Child.(*Call); ok {
			writeNode(sb, node.Child)
			return
		}
		writeGroup(sb, node.Child)
	default:
		sb.WriteString("<invalid>")
	}
}

func writeJoined(sb *strings.Builder, children []Node, sep string) {
	for i, child := range children {
		if i > 0 {
			sb.WriteString(sep)
		}
		switch child.(type) {
		case *And, *Or:
			writeGroup(sb, child)
		default:
			writeNode(sb, child)
		}
	}
}

func writeGroup(sb *strings.Builder, n Node) {
	sb.WriteByte('(')
	writeNode(sb, n)
	sb.WriteByte(')')
}
