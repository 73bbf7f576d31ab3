package textdoc

import (
	"strings"

	"github.com/heysami/diregram-sub000/core"
)

// LineText renders the document line for a single node: indentation,
// escaped content, condition clause, flag markers, then metadata comments.
// Hubs have no line of their own; call LineText on their variants.
func LineText(n *core.Node) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", n.Level*IndentWidth))
	b.WriteString(escape(n.Content))

	if len(n.Conditions) > 0 {
		pairs := make([]string, len(n.Conditions))
		for i, c := range n.Conditions {
			pairs[i] = c.Key + "=" + c.Value
		}
		b.WriteString(" (" + strings.Join(pairs, ", ") + ")")
	}
	if n.IsCommon {
		b.WriteString(" " + markerCommon)
	}
	if n.IsFlow {
		b.WriteString(" " + markerFlow)
	}
	if n.IsFlowTab {
		b.WriteString(" " + markerFlowTab)
	}
	for _, c := range nodeComments(n) {
		b.WriteString(" " + c)
	}
	return b.String()
}

// SubtreeLines renders a node and all descendants as document lines in
// order. For hubs this is every variant's subtree.
func SubtreeLines(n *core.Node) []string {
	var out []string
	appendSubtree(&out, n)
	return out
}

func appendSubtree(out *[]string, n *core.Node) {
	if n.Kind == core.KindHub {
		for _, v := range n.Variants {
			appendSubtree(out, v)
		}
		return
	}
	*out = append(*out, LineText(n))
	for _, c := range n.Children {
		appendSubtree(out, c)
	}
}

// Serialize renders a whole forest back to tree-region text. Together with
// Parse it forms the round-trip the codec guarantees: no field of any node
// is lost through a serialize/parse cycle.
func Serialize(roots []*core.Node) string {
	var lines []string
	for _, r := range roots {
		appendSubtree(&lines, r)
	}
	return strings.Join(lines, "\n")
}
