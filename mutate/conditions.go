package mutate

import (
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/textdoc"
	"github.com/heysami/diregram-sub000/variants"
)

// SetConditions rewrites a variant's condition clause. The new signature
// must stay unique among the hub's variants. An empty condition set is only
// allowed for a hub's sole variant and converts the hub back into a plain
// node.
func (m *Mutator) SetConditions(node *core.Node, conds []core.Condition) error {
	s := m.snap()
	n, err := s.locate(node)
	if err != nil {
		return err
	}
	if n.Kind != core.KindVariant {
		return ErrNotVariant
	}
	hub := n.Parent

	if len(conds) == 0 {
		if len(hub.Variants) > 1 {
			return ErrVariantScope
		}
	} else {
		sig := variants.Signature(conds)
		for _, v := range hub.Variants {
			if v != n && variants.Signature(v.Conditions) == sig {
				return ErrDuplicateVariant
			}
		}
	}

	updated := *n
	updated.Conditions = conds
	return m.apply(s, []textdoc.Edit{{
		Kind: textdoc.EditReplace, Line: n.LineIndex,
		Text: textdoc.LineText(&updated), Raw: true,
	}})
}

// AddHubVariants inserts one new variant line per combination, cloning each
// new variant's children from the existing variant with the highest
// key-overlap score. All insertions commit in one transaction.
func (m *Mutator) AddHubVariants(node *core.Node, combos []variants.Combo) error {
	s := m.snap()
	hub, err := s.locate(node)
	if err != nil {
		return err
	}
	if hub.Kind != core.KindHub {
		return ErrNotHub
	}
	if len(combos) == 0 {
		return nil
	}

	insertAt := subtreeEnd(hub) + 1
	var edits []textdoc.Edit
	add := func(text string) {
		edits = append(edits, textdoc.Edit{Kind: textdoc.EditInsert, Line: insertAt, Text: text})
	}

	for _, combo := range combos {
		header := &core.Node{
			Kind:       core.KindVariant,
			Level:      hub.Level,
			Content:    hub.Content,
			Conditions: combo,
		}
		add(textdoc.LineText(header))

		source := variants.CloneSource(hub, combo)
		for _, child := range source.Children {
			clone := cloneSubtree(child)
			for _, line := range textdoc.SubtreeLines(clone) {
				add(line)
			}
		}
	}
	return m.apply(s, edits)
}

// AddConditionValue declares a new value for one of the hub's condition
// keys and immediately completes the variant set against the grown
// Cartesian product.
func (m *Mutator) AddConditionValue(node *core.Node, key, value string) error {
	s := m.snap()
	hub, err := s.locate(node)
	if err != nil {
		return err
	}
	if hub.Kind != core.KindHub {
		return ErrNotHub
	}

	// Graft the value onto a scratch copy of the hub so the generator sees
	// the grown dimension set.
	scratch := *hub
	probe := &core.Node{
		Kind:       core.KindVariant,
		Content:    hub.Content,
		Level:      hub.Level,
		Conditions: probeConditions(hub, key, value),
	}
	scratch.Variants = append(append([]*core.Node{}, hub.Variants...), probe)

	// The probe suppresses exactly its own combination (it counts as an
	// existing variant on the scratch hub); add it back unless a real
	// variant already represents it.
	missing := variants.GenerateCombinations(&scratch)
	probeSig := variants.Signature(probe.Conditions)
	represented := false
	for _, v := range hub.Variants {
		if variants.Signature(v.Conditions) == probeSig {
			represented = true
			break
		}
	}
	if !represented {
		missing = append(missing, variants.Combo(probe.Conditions))
	}
	return m.AddHubVariants(node, missing)
}

// probeConditions builds a representative condition set carrying key=value,
// using the first variant's values for every other key.
func probeConditions(hub *core.Node, key, value string) []core.Condition {
	var conds []core.Condition
	used := false
	for _, c := range hub.Variants[0].Conditions {
		if c.Key == key {
			conds = append(conds, core.Condition{Key: key, Value: value})
			used = true
		} else {
			conds = append(conds, c)
		}
	}
	if !used {
		conds = append(conds, core.Condition{Key: key, Value: value})
	}
	return conds
}

// AddConditionKey appends key=value to every variant header in one
// transaction. The product's size is unchanged until more values are added.
func (m *Mutator) AddConditionKey(node *core.Node, key, value string) error {
	s := m.snap()
	hub, err := s.locate(node)
	if err != nil {
		return err
	}
	if hub.Kind != core.KindHub {
		return ErrNotHub
	}

	var edits []textdoc.Edit
	for _, v := range hub.Variants {
		for _, c := range v.Conditions {
			if c.Key == key {
				return ErrDuplicateVariant
			}
		}
		updated := *v
		updated.Conditions = append(append([]core.Condition{}, v.Conditions...), core.Condition{Key: key, Value: value})
		edits = append(edits, textdoc.Edit{
			Kind: textdoc.EditReplace, Line: v.LineIndex,
			Text: textdoc.LineText(&updated), Raw: true,
		})
	}
	return m.apply(s, edits)
}

// RemoveConditionValue retires one value of a condition key. Variants
// representing the value are deleted with their subtrees; removing the last
// value of the last key converts the hub back into a plain node.
func (m *Mutator) RemoveConditionValue(node *core.Node, key, value string) error {
	s := m.snap()
	hub, err := s.locate(node)
	if err != nil {
		return err
	}
	if hub.Kind != core.KindHub {
		return ErrNotHub
	}

	keys, values := variants.HubDimensions(hub)
	remaining := 0
	for _, v := range values[key] {
		if v != value {
			remaining++
		}
	}

	if remaining == 0 {
		if len(keys) == 1 {
			return m.collapseHub(s, hub)
		}
		// Only value of a non-last key: drop the key instead.
		return m.removeKey(s, hub, key)
	}

	var edits []textdoc.Edit
	for _, v := range hub.Variants {
		if hasCondition(v, key, value) {
			for line := v.LineIndex; line <= subtreeEnd(v); line++ {
				edits = append(edits, textdoc.Edit{Kind: textdoc.EditDelete, Line: line})
			}
		}
	}
	return m.apply(s, edits)
}

// RemoveConditionKey retires a whole condition key. Removing the last key
// is only allowed when it has a single value (the hub collapses to a plain
// node); with multiple values the merge would be ambiguous and is rejected.
func (m *Mutator) RemoveConditionKey(node *core.Node, key string) error {
	s := m.snap()
	hub, err := s.locate(node)
	if err != nil {
		return err
	}
	if hub.Kind != core.KindHub {
		return ErrNotHub
	}

	keys, values := variants.HubDimensions(hub)
	if len(keys) == 1 {
		if len(values[key]) > 1 {
			return ErrLastKey
		}
		return m.collapseHub(s, hub)
	}
	return m.removeKey(s, hub, key)
}

// removeKey rewrites every variant header without the key, keeping the
// first variant per collapsed signature and deleting the rest.
func (m *Mutator) removeKey(s *snapshot, hub *core.Node, key string) error {
	var edits []textdoc.Edit
	seen := make(map[string]bool)
	for _, v := range hub.Variants {
		var conds []core.Condition
		for _, c := range v.Conditions {
			if c.Key != key {
				conds = append(conds, c)
			}
		}
		sig := variants.Signature(conds)
		if seen[sig] {
			for line := v.LineIndex; line <= subtreeEnd(v); line++ {
				edits = append(edits, textdoc.Edit{Kind: textdoc.EditDelete, Line: line})
			}
			continue
		}
		seen[sig] = true
		updated := *v
		updated.Conditions = conds
		edits = append(edits, textdoc.Edit{
			Kind: textdoc.EditReplace, Line: v.LineIndex,
			Text: textdoc.LineText(&updated), Raw: true,
		})
	}
	return m.apply(s, edits)
}

// collapseHub strips the condition clause from the sole surviving variant
// and deletes the others, turning the hub back into a plain node.
func (m *Mutator) collapseHub(s *snapshot, hub *core.Node) error {
	var edits []textdoc.Edit
	first := hub.Variants[0]
	updated := *first
	updated.Conditions = nil
	edits = append(edits, textdoc.Edit{
		Kind: textdoc.EditReplace, Line: first.LineIndex,
		Text: textdoc.LineText(&updated), Raw: true,
	})
	for _, v := range hub.Variants[1:] {
		for line := v.LineIndex; line <= subtreeEnd(v); line++ {
			edits = append(edits, textdoc.Edit{Kind: textdoc.EditDelete, Line: line})
		}
	}
	return m.apply(s, edits)
}

func hasCondition(v *core.Node, key, value string) bool {
	for _, c := range v.Conditions {
		if c.Key == key && c.Value == value {
			return true
		}
	}
	return false
}
