// Package variants derives the visual tree from the parsed forest and keeps
// every hub's variant set complete against its condition combinations.
package variants

import (
	"sort"
	"strings"

	"github.com/heysami/diregram-sub000/core"
)

// Selection maps hub id -> condition key -> selected value.
type Selection map[string]map[string]string

// ResolveVisualTree derives the tree that actually renders: under every hub
// the chosen variant's children are spliced directly onto the hub, so the
// hub (not the variant) is the connector anchor. The input forest is never
// mutated; an empty or partial selection falls back to the first variant by
// declaration order.
func ResolveVisualTree(roots []*core.Node, selection Selection) []*core.Node {
	out := make([]*core.Node, 0, len(roots))
	for _, r := range roots {
		out = append(out, resolveNode(r, selection, nil))
	}
	return out
}

func resolveNode(n *core.Node, selection Selection, parent *core.Node) *core.Node {
	clone := *n
	clone.Parent = parent
	clone.Children = nil

	source := n.Children
	if n.Kind == core.KindHub {
		// The hub absorbs the chosen variant; the unchosen ones must not
		// leak into walks over the visual tree.
		clone.Variants = nil
		source = chooseVariant(n, selection[n.ID]).Children
	}
	for _, c := range source {
		clone.Children = append(clone.Children, resolveNode(c, selection, &clone))
	}
	return &clone
}

// chooseVariant picks the variant matching the selected values on every
// selected key, falling back to the first variant. Hubs always own at least
// one variant, so the fallback is total.
func chooseVariant(hub *core.Node, selected map[string]string) *core.Node {
	if len(selected) > 0 {
		for _, v := range hub.Variants {
			if variantMatches(v, selected) {
				return v
			}
		}
	}
	return hub.Variants[0]
}

func variantMatches(v *core.Node, selected map[string]string) bool {
	have := make(map[string]string, len(v.Conditions))
	for _, c := range v.Conditions {
		have[c.Key] = c.Value
	}
	for k, want := range selected {
		if have[k] != want {
			return false
		}
	}
	return true
}

// Signature is the canonical identity of a condition set: the sorted
// key=value pairs joined with commas. No two variants of one hub may share
// a signature.
func Signature(conds []core.Condition) string {
	pairs := make([]string, len(conds))
	for i, c := range conds {
		pairs[i] = c.Key + "=" + c.Value
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
