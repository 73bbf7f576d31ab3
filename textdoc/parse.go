// Package textdoc is the bidirectional codec between the flat indented
// document text and the typed node tree. Parsing is total: every non-blank
// tree line becomes a node, however malformed.
package textdoc

import (
	"fmt"
	"strings"

	"github.com/heysami/diregram-sub000/core"
)

// IndentWidth is the number of spaces encoding one level of hierarchy.
const IndentWidth = 2

const (
	markerCommon  = "#common#"
	markerFlow    = "#flow#"
	markerFlowTab = "#flowtab#"
)

// Parse builds the node forest from the document's full text. Only the tree
// region is parsed; fenced blocks and everything past the `---` separator
// are left to ScanRegions. Parse never fails.
func Parse(text string) []*core.Node {
	reg := ScanRegions(text)
	var roots []*core.Node
	var stack []*core.Node // stack[i] is the open node at level i

	for i := 0; i < reg.TreeEnd; i++ {
		line := reg.Lines[i]
		if strings.TrimSpace(line) == "" || reg.Fenced(i) {
			continue
		}
		n, level := parseLine(line, i)
		if level > len(stack) {
			level = len(stack)
		}
		stack = stack[:level]
		n.Level = level
		if level == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[level-1]
			n.Parent = parent
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, n)
	}

	groupHubs(&roots, nil)
	assignIDs(roots)
	return roots
}

// parseLine decodes a single line into a node and its indentation level.
func parseLine(line string, index int) (*core.Node, int) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	level := indent / IndentWidth

	n := &core.Node{LineIndex: index, Kind: core.KindPlain}

	visible, comments := splitComments(line[indent:])
	for _, c := range comments {
		applyComment(n, c)
	}

	visible = stripMarker(visible, markerFlowTab, &n.IsFlowTab)
	visible = stripMarker(visible, markerFlow, &n.IsFlow)
	visible = stripMarker(visible, markerCommon, &n.IsCommon)
	visible = strings.TrimSpace(visible)

	content, conds := splitConditions(visible)
	n.Content = unescape(content)
	if len(conds) > 0 {
		n.Kind = core.KindVariant
		n.Conditions = conds
	}
	return n, level
}

// stripMarker removes every occurrence of the marker token, setting found.
func stripMarker(s, marker string, found *bool) string {
	if !strings.Contains(s, marker) {
		return s
	}
	*found = true
	return strings.ReplaceAll(s, marker, " ")
}

// splitConditions extracts a trailing parenthesized `k=v, k=v` clause. The
// clause is the last parenthesized group and must run to the end of the
// visible text, so earlier unescaped parens stay content; anything that does
// not parse cleanly degrades to "no conditions" with the raw text kept as
// content.
func splitConditions(s string) (string, []core.Condition) {
	open := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '(' && (i == 0 || s[i-1] != '\\') {
			open = i
		}
	}
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, nil
	}
	clause := s[open+1 : len(s)-1]
	var conds []core.Condition
	for _, pair := range strings.Split(clause, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			return s, nil
		}
		conds = append(conds, core.Condition{Key: k, Value: v})
	}
	if len(conds) == 0 {
		return s, nil
	}
	return strings.TrimSpace(s[:open]), conds
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\(`, "(")
	return strings.ReplaceAll(s, `\)`, ")")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

// groupHubs rewrites each sibling list so that variant lines sharing base
// content collapse into one hub node, in encounter order.
func groupHubs(siblings *[]*core.Node, parent *core.Node) {
	list := *siblings
	hubs := make(map[string]*core.Node) // content -> hub
	out := list[:0]
	for _, n := range list {
		if n.Kind != core.KindVariant {
			groupHubs(&n.Children, n)
			out = append(out, n)
			continue
		}
		groupHubs(&n.Children, n)
		hub, ok := hubs[n.Content]
		if !ok {
			hub = &core.Node{
				Kind:      core.KindHub,
				Content:   n.Content,
				LineIndex: n.LineIndex,
				Level:     n.Level,
				Parent:    parent,
			}
			hubs[n.Content] = hub
			out = append(out, hub)
		}
		n.Parent = hub
		hub.Variants = append(hub.Variants, n)
	}
	*siblings = out
}

// assignIDs derives positional ids. Variants and plain nodes share the
// "node-" namespace keyed by line; hubs get their own so a hub and its first
// variant stay distinguishable.
func assignIDs(roots []*core.Node) {
	core.WalkAll(roots, func(n *core.Node) bool {
		if n.Kind == core.KindHub {
			n.ID = fmt.Sprintf("hub-%d", n.LineIndex)
		} else {
			n.ID = fmt.Sprintf("node-%d", n.LineIndex)
		}
		return true
	})
}

// MaxAnchor returns the highest running-number anchor present in the forest.
// Used to seed the anchor generator on load.
func MaxAnchor(roots []*core.Node) int {
	max := 0
	core.WalkAll(roots, func(n *core.Node) bool {
		if n.Anchor > max {
			max = n.Anchor
		}
		return true
	})
	return max
}
