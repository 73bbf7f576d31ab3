package mutate

import (
	"strings"

	"github.com/heysami/diregram-sub000/buffer"
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/textdoc"
)

// Direction selects which way Move reorders a node among its siblings.
type Direction int

const (
	// Up moves the node before its previous sibling.
	Up Direction = iota
	// Down moves the node after its next sibling.
	Down
)

// Mutator rewrites document lines through a buffer. It holds no tree state:
// every operation re-parses the buffer, validates against the fresh tree,
// and commits its line edits in one transaction.
type Mutator struct {
	buf buffer.Buffer
}

// New creates a Mutator over the given buffer.
func New(buf buffer.Buffer) *Mutator {
	return &Mutator{buf: buf}
}

// snapshot captures the buffer's current text, regions and parsed forest.
type snapshot struct {
	text  string
	reg   *textdoc.Regions
	roots []*core.Node
}

func (m *Mutator) snap() *snapshot {
	text := m.buf.Get()
	return &snapshot{text: text, reg: textdoc.ScanRegions(text), roots: textdoc.Parse(text)}
}

// locate re-finds the caller's node in the fresh parse. The node is stale
// when its line is gone or its content changed underneath the caller.
func (s *snapshot) locate(n *core.Node) (*core.Node, error) {
	cur := core.FindByID(s.roots, n.ID)
	if cur == nil || cur.Content != n.Content || cur.Kind != n.Kind {
		return nil, ErrStale
	}
	return cur, nil
}

// subtreeEnd returns the last line index of n's subtree (variants included).
func subtreeEnd(n *core.Node) int {
	end := n.LineIndex
	n.Walk(func(c *core.Node) bool {
		if c.LineIndex > end {
			end = c.LineIndex
		}
		return true
	})
	return end
}

// rawSubtreeLines returns the verbatim buffer lines of n's subtree.
func (s *snapshot) rawSubtreeLines(n *core.Node) []string {
	start, end := n.LineIndex, subtreeEnd(n)
	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, s.reg.Lines[i])
	}
	return out
}

// checkTree rejects edits that would leave the tree region.
func (s *snapshot) checkTree(edits []textdoc.Edit) error {
	for _, e := range edits {
		if e.Kind == textdoc.EditInsert {
			if e.Line < 0 || e.Line > s.reg.TreeEnd {
				return ErrOutsideTree
			}
			continue
		}
		if !s.reg.InTree(e.Line) {
			return ErrOutsideTree
		}
	}
	return nil
}

// apply validates and commits an edit set atomically.
func (m *Mutator) apply(s *snapshot, edits []textdoc.Edit) error {
	if err := s.checkTree(edits); err != nil {
		return err
	}
	return m.buf.Transact(func() error {
		next, err := textdoc.Patch(s.text, edits)
		if err != nil {
			return err
		}
		return buffer.SetText(m.buf, next)
	})
}

// CreateChild inserts a new last child line under node and returns its line
// index for the caller to resolve into a node id after the next parse.
// Hubs cannot take direct children; create under one of the variants.
func (m *Mutator) CreateChild(node *core.Node, content string) (int, error) {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return 0, err
	}
	if n.Kind == core.KindHub {
		return 0, ErrVariantScope
	}
	line := subtreeEnd(n) + 1
	text := strings.Repeat(" ", (n.Level+1)*textdoc.IndentWidth) + escapeContent(content)
	err = m.apply(s, []textdoc.Edit{{Kind: textdoc.EditInsert, Line: line, Text: text}})
	if err != nil {
		return 0, err
	}
	return line, nil
}

// CreateSibling inserts a new line after node's subtree at the same level
// and returns its line index.
func (m *Mutator) CreateSibling(node *core.Node, content string) (int, error) {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return 0, err
	}
	line := subtreeEnd(n) + 1
	text := strings.Repeat(" ", n.Level*textdoc.IndentWidth) + escapeContent(content)
	err = m.apply(s, []textdoc.Edit{{Kind: textdoc.EditInsert, Line: line, Text: text}})
	if err != nil {
		return 0, err
	}
	return line, nil
}

// Indent reparents node under its preceding sibling by deepening the whole
// subtree's indentation.
func (m *Mutator) Indent(node *core.Node) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	if n.Kind == core.KindVariant {
		return ErrVariantScope
	}
	sibs := siblings(s, n)
	if indexOf(sibs, n) <= 0 {
		return ErrCannotIndent
	}
	return m.apply(s, reindent(s, n, +1))
}

// Outdent reparents node one level up. Outdenting a variant's direct child
// past the hub boundary is rejected, as is outdenting a variant line or a
// root node.
func (m *Mutator) Outdent(node *core.Node) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	if n.Kind == core.KindVariant {
		return ErrVariantScope
	}
	if n.Level == 0 {
		return ErrCannotMove
	}
	if n.Parent != nil && n.Parent.Kind == core.KindVariant {
		return ErrHubBoundary
	}
	return m.apply(s, reindent(s, n, -1))
}

// Move reorders node among its siblings, carrying the whole subtree and
// preserving its internal line order. At the first or last sibling the node
// crosses into the adjacent parent instead, keeping its level: Up makes it
// the last child of the parent's previous sibling, Down the first child of
// the parent's next sibling.
func (m *Mutator) Move(node *core.Node, dir Direction) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	sibs := siblings(s, n)
	i := indexOf(sibs, n)
	if i < 0 {
		return ErrStale
	}

	var insertAt int
	switch dir {
	case Up:
		if i == 0 {
			return m.moveAcross(s, n, dir)
		}
		insertAt = sibs[i-1].LineIndex
	case Down:
		if i == len(sibs)-1 {
			return m.moveAcross(s, n, dir)
		}
		insertAt = subtreeEnd(sibs[i+1]) + 1
	}

	return m.apply(s, relocate(s, n, insertAt))
}

// moveAcross reparents a boundary node into the adjacent parent. Variants
// cannot leave their hub, and the adjacent parent must be a plain node able
// to take children.
func (m *Mutator) moveAcross(s *snapshot, n *core.Node, dir Direction) error {
	if n.Kind == core.KindVariant {
		return ErrCannotMove
	}
	parent := n.Parent
	if parent == nil {
		return ErrCannotMove
	}
	if parent.Kind != core.KindPlain {
		return ErrHubBoundary
	}
	psibs := siblings(s, parent)
	pi := indexOf(psibs, parent)
	if pi < 0 {
		return ErrStale
	}

	var insertAt int
	switch dir {
	case Up:
		if pi == 0 || psibs[pi-1].Kind != core.KindPlain {
			return ErrCannotMove
		}
		// Just above the old parent's line means just after the previous
		// sibling's subtree: the node becomes its last child.
		insertAt = parent.LineIndex
	case Down:
		if pi == len(psibs)-1 || psibs[pi+1].Kind != core.KindPlain {
			return ErrCannotMove
		}
		insertAt = psibs[pi+1].LineIndex + 1
	}

	return m.apply(s, relocate(s, n, insertAt))
}

// relocate builds the edit set moving n's subtree before original line
// insertAt, verbatim.
func relocate(s *snapshot, n *core.Node, insertAt int) []textdoc.Edit {
	block := s.rawSubtreeLines(n)
	start, end := n.LineIndex, subtreeEnd(n)
	edits := make([]textdoc.Edit, 0, len(block)+end-start+1)
	for _, line := range block {
		edits = append(edits, textdoc.Edit{Kind: textdoc.EditInsert, Line: insertAt, Text: line})
	}
	for line := start; line <= end; line++ {
		edits = append(edits, textdoc.Edit{Kind: textdoc.EditDelete, Line: line})
	}
	return edits
}

// Delete removes a leaf node's line. Deleting a node with children is
// rejected: cascading deletion is the caller's explicit call to make.
// Common children are removed from every sibling variant at once; a hub is
// deletable only when all of its variants are childless.
func (m *Mutator) Delete(node *core.Node) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}

	if n.Kind == core.KindHub {
		for _, v := range n.Variants {
			if len(v.Children) > 0 {
				return ErrHasChildren
			}
		}
		var edits []textdoc.Edit
		for _, v := range n.Variants {
			edits = append(edits, textdoc.Edit{Kind: textdoc.EditDelete, Line: v.LineIndex})
		}
		return m.apply(s, edits)
	}

	if len(n.Children) > 0 {
		return ErrHasChildren
	}

	if n.IsCommon {
		counterparts, err := commonCounterparts(n)
		if err != nil {
			return err
		}
		var edits []textdoc.Edit
		for _, c := range counterparts {
			if len(c.Children) > 0 {
				return ErrHasChildren
			}
			edits = append(edits, textdoc.Edit{Kind: textdoc.EditDelete, Line: c.LineIndex})
		}
		return m.apply(s, edits)
	}

	return m.apply(s, []textdoc.Edit{{Kind: textdoc.EditDelete, Line: n.LineIndex}})
}

// SetContent rewrites a node's visible text, carrying metadata comments
// over verbatim. Editing a common child rewrites the matching line under
// every sibling variant identically; renaming a hub rewrites every
// variant's header in the same transaction.
func (m *Mutator) SetContent(node *core.Node, content string) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}

	var targets []*core.Node
	switch {
	case n.Kind == core.KindHub:
		targets = n.Variants
	case n.IsCommon:
		targets, err = commonCounterparts(n)
		if err != nil {
			return err
		}
	default:
		targets = []*core.Node{n}
	}

	edits := make([]textdoc.Edit, 0, len(targets))
	for _, t := range targets {
		updated := *t
		updated.Content = content
		edits = append(edits, textdoc.Edit{
			Kind: textdoc.EditReplace,
			Line: t.LineIndex,
			Text: visibleLineText(&updated),
		})
	}
	return m.apply(s, edits)
}

// commonCounterparts returns the node itself plus its structurally and
// textually identical counterpart under every sibling variant of the same
// hub. A missing or differing counterpart rejects the operation.
func commonCounterparts(n *core.Node) ([]*core.Node, error) {
	variant := n.Parent
	if variant == nil || variant.Kind != core.KindVariant {
		return nil, ErrCommonAsymmetry
	}
	hub := variant.Parent
	if hub == nil || hub.Kind != core.KindHub {
		return nil, ErrCommonAsymmetry
	}
	var out []*core.Node
	for _, v := range hub.Variants {
		match := findCommonChild(v, n.Content)
		if match == nil {
			return nil, ErrCommonAsymmetry
		}
		out = append(out, match)
	}
	return out, nil
}

func findCommonChild(variant *core.Node, content string) *core.Node {
	for _, c := range variant.Children {
		if c.IsCommon && c.Content == content {
			return c
		}
	}
	return nil
}

// reindent shifts every line of n's subtree by delta levels.
func reindent(s *snapshot, n *core.Node, delta int) []textdoc.Edit {
	start, end := n.LineIndex, subtreeEnd(n)
	edits := make([]textdoc.Edit, 0, end-start+1)
	for line := start; line <= end; line++ {
		old := s.reg.Lines[line]
		var text string
		if delta > 0 {
			text = strings.Repeat(" ", delta*textdoc.IndentWidth) + old
		} else {
			text = strings.TrimPrefix(old, strings.Repeat(" ", -delta*textdoc.IndentWidth))
		}
		edits = append(edits, textdoc.Edit{Kind: textdoc.EditReplace, Line: line, Text: text})
	}
	return edits
}

// siblings returns the node's sibling list, hubs included as single units.
func siblings(s *snapshot, n *core.Node) []*core.Node {
	if n.Parent == nil {
		return s.roots
	}
	if n.Kind == core.KindVariant {
		return n.Parent.Variants
	}
	return n.Parent.Children
}

func indexOf(list []*core.Node, n *core.Node) int {
	for i, c := range list {
		if c == n {
			return i
		}
	}
	return -1
}

// visibleLineText renders a node's line without its metadata comments so
// Patch re-appends the old comment suffix verbatim.
func visibleLineText(n *core.Node) string {
	stripped := *n
	stripped.Anchor = 0
	stripped.Tags = nil
	stripped.DataObjectID = ""
	stripped.DataObjectAttributeIDs = nil
	stripped.FlowType = ""
	stripped.Target = ""
	stripped.Icon = ""
	stripped.Annotation = ""
	stripped.Extra = nil
	return textdoc.LineText(&stripped)
}

func escapeContent(s string) string {
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}
