package document

import (
	"fmt"

	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/layout"
	"github.com/heysami/diregram-sub000/textdoc"
	"github.com/heysami/diregram-sub000/variants"
)

// Layout runs the full derivation pipeline (resolve -> layout) for the
// current tree and view state in the given direction.
func (d *Document) Layout(dir core.Direction) *layout.Result {
	d.mu.Lock()
	visual := variants.ResolveVisualTree(d.roots, d.selection)
	opt := layout.Options{
		Direction: dir,
		Expanded:  d.expandedMultipliers(visual),
		FlowMode:  d.flowModeRoots(visual),
		Swimlane:  d.swimlane(),
	}
	d.mu.Unlock()
	return d.engine.Compute(visual, opt)
}

// expandedMultipliers resolves the expanded node set against the stored
// blocks, falling back to the default multiplier. Blocks are keyed by
// anchor, so the mapping survives line shifts. Grid blocks are cell lists
// and size by cell count; a metadata block's stored multiplier wins over a
// derived one for the same anchor.
func (d *Document) expandedMultipliers(visual []*core.Node) map[string]core.Multiplier {
	byAnchor := make(map[int]core.Multiplier)
	for _, b := range d.reg.BlocksWithPrefix("expanded-grid-") {
		var anchor int
		if _, err := fmt.Sscanf(b.Type, "expanded-grid-%d", &anchor); err != nil {
			continue
		}
		cells, err := textdoc.ParseExpandedGrid(b.Body)
		if err != nil {
			continue // a corrupt block degrades to the default multiplier
		}
		byAnchor[anchor] = gridMultiplier(len(cells))
	}
	for _, b := range d.reg.BlocksWithPrefix("expanded-metadata-") {
		var anchor int
		if _, err := fmt.Sscanf(b.Type, "expanded-metadata-%d", &anchor); err != nil {
			continue
		}
		meta, err := textdoc.ParseExpandedMeta(b.Body)
		if err != nil {
			continue
		}
		byAnchor[anchor] = meta.Multiplier
	}

	out := make(map[string]core.Multiplier)
	core.WalkAll(visual, func(n *core.Node) bool {
		if !d.expanded[n.ID] {
			return true
		}
		if mul, ok := byAnchor[n.Anchor]; ok && n.Anchor > 0 {
			out[n.ID] = mul
		} else {
			out[n.ID] = defaultExpandedMultiplier
		}
		return true
	})
	return out
}

// gridMultiplier sizes an expanded node by its grid cell count: one column
// per cell, wrapping into a new row after four.
func gridMultiplier(cells int) core.Multiplier {
	if cells <= 0 {
		return defaultExpandedMultiplier
	}
	cols := cells
	if cols > 4 {
		cols = 4
	}
	return core.Multiplier{W: float64(cols), H: float64((cells + 3) / 4)}
}

// flowModeRoots merges #flowtab# markers with the caller's toggles.
func (d *Document) flowModeRoots(visual []*core.Node) map[string]bool {
	out := make(map[string]bool, len(d.flowMode))
	for id := range d.flowMode {
		out[id] = true
	}
	core.WalkAll(visual, func(n *core.Node) bool {
		if n.IsFlowTab {
			out[n.ID] = true
		}
		return true
	})
	return out
}

// swimlane returns the document's first swimlane store, if any. Placement
// keys are positional node ids, matching what the codec assigns.
func (d *Document) swimlane() *core.Swimlane {
	blocks := d.reg.BlocksWithPrefix("flowtab-swimlane-")
	if len(blocks) == 0 {
		return nil
	}
	sl, err := textdoc.ParseSwimlane(blocks[0].Body)
	if err != nil {
		return nil // corrupt store: fall back to recursive layout
	}
	return sl
}
