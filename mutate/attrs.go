package mutate

import (
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/textdoc"
)

// rewriteLine commits a single full-line rewrite for an updated copy of n.
// The rendered text carries the node's comments, so removal of a metadata
// field sticks instead of being resurrected by comment preservation.
func (m *Mutator) rewriteLine(s *snapshot, n *core.Node, update func(*core.Node)) error {
	updated := *n
	update(&updated)
	return m.apply(s, []textdoc.Edit{{
		Kind: textdoc.EditReplace,
		Line: n.LineIndex,
		Text: textdoc.LineText(&updated),
		Raw:  true,
	}})
}

// ToggleCommon flips the common flag of a variant child. Toggling on mirrors
// the subtree into every sibling variant that lacks an identical
// counterpart; toggling off clears the flag on every counterpart but leaves
// the duplicate lines in place.
func (m *Mutator) ToggleCommon(node *core.Node) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	variant := n.Parent
	if variant == nil || variant.Kind != core.KindVariant {
		return ErrVariantScope
	}
	hub := variant.Parent

	if n.IsCommon {
		// Clear the flag everywhere it is mirrored.
		counterparts, err := commonCounterparts(n)
		if err != nil {
			return err
		}
		var edits []textdoc.Edit
		for _, c := range counterparts {
			updated := *c
			updated.IsCommon = false
			edits = append(edits, textdoc.Edit{
				Kind: textdoc.EditReplace, Line: c.LineIndex,
				Text: textdoc.LineText(&updated), Raw: true,
			})
		}
		return m.apply(s, edits)
	}

	var edits []textdoc.Edit
	mark := func(t *core.Node) {
		updated := *t
		updated.IsCommon = true
		edits = append(edits, textdoc.Edit{
			Kind: textdoc.EditReplace, Line: t.LineIndex,
			Text: textdoc.LineText(&updated), Raw: true,
		})
	}
	mark(n)

	for _, v := range hub.Variants {
		if v == variant {
			continue
		}
		if match := matchChild(v, n); match != nil {
			if !match.IsCommon {
				mark(match)
			}
			continue
		}
		// Mirror the subtree to the end of the lacking variant. Anchors are
		// stripped so running numbers stay unique.
		insertAt := subtreeEnd(v) + 1
		for _, line := range cloneLines(n) {
			edits = append(edits, textdoc.Edit{Kind: textdoc.EditInsert, Line: insertAt, Text: line})
		}
	}
	return m.apply(s, edits)
}

func matchChild(variant *core.Node, like *core.Node) *core.Node {
	for _, c := range variant.Children {
		if c.Content == like.Content {
			return c
		}
	}
	return nil
}

// cloneLines re-serializes n's subtree with the common flag set and anchors
// dropped, ready for insertion at the same level elsewhere.
func cloneLines(n *core.Node) []string {
	clone := cloneSubtree(n)
	clone.IsCommon = true
	return textdoc.SubtreeLines(clone)
}

func cloneSubtree(n *core.Node) *core.Node {
	c := *n
	c.Anchor = 0
	c.Children = nil
	c.Variants = nil
	for _, child := range n.Children {
		cc := cloneSubtree(child)
		cc.Parent = &c
		c.Children = append(c.Children, cc)
	}
	for _, v := range n.Variants {
		cv := cloneSubtree(v)
		cv.Parent = &c
		c.Variants = append(c.Variants, cv)
	}
	return &c
}

// ToggleFlowNode flips the #flow# marker.
func (m *Mutator) ToggleFlowNode(node *core.Node) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) {
		u.IsFlow = !u.IsFlow
		if !u.IsFlow {
			u.FlowType = ""
			u.Target = ""
		}
	})
}

// ToggleFlowTab flips the #flowtab# marker rooting a flow-mode subtree.
func (m *Mutator) ToggleFlowTab(node *core.Node) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) { u.IsFlowTab = !u.IsFlowTab })
}

// SetFlowType sets the process-flow subtype comment.
func (m *Mutator) SetFlowType(node *core.Node, ft core.FlowType) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) { u.FlowType = ft })
}

// SetTarget sets the goto/loop target node id. The target need not exist:
// dangling targets render as unset.
func (m *Mutator) SetTarget(node *core.Node, target string) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) { u.Target = target })
}

// SetTags replaces the node's tag ids.
func (m *Mutator) SetTags(node *core.Node, tags []string) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) { u.Tags = tags })
}

// SetIcon sets or clears the node's icon id.
func (m *Mutator) SetIcon(node *core.Node, icon string) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) { u.Icon = icon })
}

// SetDataObjectLink links the node to a data object and a subset of its
// attribute ids. An empty object id clears the link.
func (m *Mutator) SetDataObjectLink(node *core.Node, objectID string, attributeIDs []string) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) {
		u.DataObjectID = objectID
		if objectID == "" {
			u.DataObjectAttributeIDs = nil
		} else {
			u.DataObjectAttributeIDs = attributeIDs
		}
	})
}

// SetAnnotation sets or clears the node's annotation text.
func (m *Mutator) SetAnnotation(node *core.Node, text string) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	return m.rewriteLine(s, n, func(u *core.Node) { u.Annotation = text })
}

// EnsureAnchor gives the node a running-number anchor if it has none and
// returns the anchor in effect. Anchors come from the document's counter so
// numbers never collide.
func (m *Mutator) EnsureAnchor(node *core.Node, next func() int) (int, error) {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return 0, err
	}
	if n.Anchor > 0 {
		return n.Anchor, nil
	}
	anchor := next()
	err = m.rewriteLine(s, n, func(u *core.Node) { u.Anchor = anchor })
	if err != nil {
		return 0, err
	}
	return anchor, nil
}
