package layout

import (
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/geometry"
)

// applySwimlane recomputes positions for placed nodes as a strict 2-D grid.
// Lane row height is the max content height in that lane, stage column
// width the max content width in that stage; a node's x is the sum of the
// stage widths before its stage, its y the sum of the lane heights before
// its lane, regardless of where the recursive layout put it. Box sizing
// rules (diamond size, expanded multipliers) still apply within each cell.
func (e *Engine) applySwimlane(visual []*core.Node, opt Options, rects map[string]core.Rect) {
	sl := opt.Swimlane
	if len(sl.Lanes) == 0 || len(sl.Stages) == 0 {
		return
	}

	laneHeights := make([]float64, len(sl.Lanes))
	stageWidths := make([]float64, len(sl.Stages))

	type cell struct {
		node  *core.Node
		lane  int
		stage int
	}
	var cells []cell

	core.WalkAll(visual, func(n *core.Node) bool {
		p, ok := sl.Placement[n.ID]
		if !ok {
			return true
		}
		lane, stage := sl.LaneIndex(p.LaneID), sl.StageIndex(p.StageID)
		if lane < 0 || stage < 0 {
			return true // placement references a retired lane or stage
		}
		w, h := e.box(n, opt)
		laneHeights[lane] = geometry.Max(laneHeights[lane], h+2*e.GapY)
		stageWidths[stage] = geometry.Max(stageWidths[stage], w+2*e.GapX)
		cells = append(cells, cell{node: n, lane: lane, stage: stage})
		return true
	})

	// Empty lanes and stages still occupy a minimal band.
	for i := range laneHeights {
		laneHeights[i] = geometry.Max(laneHeights[i], e.NodeHeight+2*e.GapY)
	}
	for i := range stageWidths {
		stageWidths[i] = geometry.Max(stageWidths[i], e.NodeWidth+2*e.GapX)
	}

	// A node's origin is exactly the prefix sum of the bands before its
	// cell; padding lives inside the band sizes.
	for _, c := range cells {
		x, y := 0.0, 0.0
		for i := 0; i < c.stage; i++ {
			x += stageWidths[i]
		}
		for i := 0; i < c.lane; i++ {
			y += laneHeights[i]
		}
		w, h := e.box(c.node, opt)
		rects[c.node.ID] = core.Rect{X: x, Y: y, W: w, H: h}
	}
}

// GridGeometry exposes the lane/stage band sizes a renderer needs to draw
// the grid chrome behind the nodes.
func (e *Engine) GridGeometry(visual []*core.Node, opt Options) (laneHeights, stageWidths []float64) {
	if opt.Swimlane == nil {
		return nil, nil
	}
	sl := opt.Swimlane
	laneHeights = make([]float64, len(sl.Lanes))
	stageWidths = make([]float64, len(sl.Stages))
	core.WalkAll(visual, func(n *core.Node) bool {
		p, ok := sl.Placement[n.ID]
		if !ok {
			return true
		}
		lane, stage := sl.LaneIndex(p.LaneID), sl.StageIndex(p.StageID)
		if lane < 0 || stage < 0 {
			return true
		}
		w, h := e.box(n, opt)
		laneHeights[lane] = geometry.Max(laneHeights[lane], h+2*e.GapY)
		stageWidths[stage] = geometry.Max(stageWidths[stage], w+2*e.GapX)
		return true
	})
	for i := range laneHeights {
		laneHeights[i] = geometry.Max(laneHeights[i], e.NodeHeight+2*e.GapY)
	}
	for i := range stageWidths {
		stageWidths[i] = geometry.Max(stageWidths[i], e.NodeWidth+2*e.GapX)
	}
	return laneHeights, stageWidths
}
