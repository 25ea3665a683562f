package mergetree

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
)

// maxRenderedValues caps the payload preview printed per node.
const maxRenderedValues = 6

// RenderOptions controls Render.
type RenderOptions struct {
	// MaxDepth stops descending below this depth; negative renders everything.
	MaxDepth int
	// ShowValues appends a preview of each node's payload.
	ShowValues bool
}

// Render draws the subtree under n as an ASCII tree for diagnostics.
func Render(n *Node, opts RenderOptions) string {
	if n == nil {
		return ""
	}

	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedLight)

	renderNode(lw, n, 0, opts)

	return lw.Render()
}

func renderNode(lw list.Writer, n *Node, depth int, opts RenderOptions) {
	lw.AppendItem(nodeLabel(n, opts))

	if n.IsLeaf() || (opts.MaxDepth >= 0 && depth >= opts.MaxDepth) {
		return
	}

	lw.Indent()

	for _, child := range []*Node{n.Left, n.Right} {
		if child == nil {
			lw.AppendItem("<missing>")

			continue
		}

		renderNode(lw, child, depth+1, opts)
	}

	lw.UnIndent()
}

func nodeLabel(n *Node, opts RenderOptions) string {
	var sb strings.Builder

	if n.IsLeaf() {
		fmt.Fprintf(&sb, "leaf %d", n.Index)
	} else {
		fmt.Fprintf(&sb, "node %d %s d=%.4f", n.ID, n.Span, n.Distance)
	}

	if start, end := n.Interval.Start(), n.Interval.End(); start != "" {
		fmt.Fprintf(&sb, " (%s → %s)", start, end)
	}

	if opts.ShowValues {
		sb.WriteString(" ")
		sb.WriteString(previewValues(n.Interval.Values))
	}

	return sb.String()
}

func previewValues(values []float64) string {
	parts := make([]string, 0, maxRenderedValues+1)

	for i, v := range values {
		if i == maxRenderedValues {
			parts = append(parts, fmt.Sprintf("…+%d", len(values)-i))

			break
		}

		parts = append(parts, fmt.Sprintf("%g", v))
	}

	return "[" + strings.Join(parts, " ") + "]"
}
