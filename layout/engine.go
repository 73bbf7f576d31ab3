// Package layout turns the visual tree into 2-D node and connector
// geometry. It is a pure function of tree + view state; nothing is cached
// between calls.
package layout

import (
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/geometry"
)

// Default box metrics. Diamonds (validation/branch) use a fixed square so
// their bezier exits stay predictable.
const (
	NodeWidth   = 160.0
	NodeHeight  = 56.0
	DiamondSize = 72.0
	GapX        = 48.0
	GapY        = 24.0
	// Clearance is reserved on both exit sides of a diamond (top = yes,
	// bottom = no) so connectors never overlap sibling subtrees.
	Clearance = 40.0
)

// Engine computes layouts. Fields are exported so a caller can tune
// metrics, but NewEngine's defaults are the product's look.
type Engine struct {
	NodeWidth   float64
	NodeHeight  float64
	DiamondSize float64
	GapX        float64
	GapY        float64
	Clearance   float64
}

// NewEngine creates an Engine with default metrics.
func NewEngine() *Engine {
	return &Engine{
		NodeWidth:   NodeWidth,
		NodeHeight:  NodeHeight,
		DiamondSize: DiamondSize,
		GapX:        GapX,
		GapY:        GapY,
		Clearance:   Clearance,
	}
}

// Options is the view state a layout depends on.
type Options struct {
	Direction core.Direction
	// Expanded maps node id -> reserved size multiplier for grid-backed
	// expanded nodes.
	Expanded map[string]core.Multiplier
	// Types overrides flow subtypes per node id; nodes not listed use the
	// subtype parsed from their line.
	Types map[string]core.FlowType
	// FlowMode marks flow-mode subtree roots. Geometry is the same; the
	// set is forwarded to Result for the rendering layer.
	FlowMode map[string]bool
	// Swimlane, when set, overrides positions of placed nodes with a
	// strict lane/stage grid.
	Swimlane *core.Swimlane
}

// Connector is a derived edge endpoint pair between two laid-out nodes.
type Connector struct {
	FromID string
	ToID   string
	X1, Y1 float64
	X2, Y2 float64
	// Goto is true for goto/loop target edges, false for tree edges.
	Goto bool
}

// Result is a computed layout. Every rectangle is finite: degenerate
// coordinates are coerced to a default box and reported in Anomalies once
// per node, never propagated.
type Result struct {
	Rects      map[string]core.Rect
	Connectors []Connector
	FlowMode   map[string]bool
	Anomalies  []string
}

// Compute lays out the visual tree. Direction is a configuration switch:
// horizontal stacks children top-to-bottom to the right of the parent,
// vertical stacks them left-to-right below it.
func (e *Engine) Compute(visual []*core.Node, opt Options) *Result {
	res := &Result{Rects: make(map[string]core.Rect), FlowMode: opt.FlowMode}

	sizes := make(map[string][2]float64)
	for _, r := range visual {
		e.measure(r, opt, sizes)
	}

	cursor := 0.0
	for _, r := range visual {
		ext := sizes[r.ID]
		if opt.Direction == core.Vertical {
			e.place(r, cursor, 0, opt, sizes, res.Rects)
			cursor += ext[0] + e.GapX
		} else {
			e.place(r, 0, cursor, opt, sizes, res.Rects)
			cursor += ext[1] + e.GapY
		}
	}

	if opt.Swimlane != nil {
		e.applySwimlane(visual, opt, res.Rects)
	}

	e.coerce(res)
	res.Connectors = e.connectors(visual, res.Rects, opt.Direction)
	return res
}

// box returns the node's own box size under the current view state.
func (e *Engine) box(n *core.Node, opt Options) (w, h float64) {
	ft := n.EffectiveFlowType()
	if t, ok := opt.Types[n.ID]; ok {
		ft = t
	}
	if ft.Diamond() {
		w, h = e.DiamondSize, e.DiamondSize
	} else {
		w, h = e.NodeWidth, e.NodeHeight
	}
	if mul, ok := opt.Expanded[n.ID]; ok {
		w *= geometry.Max(mul.W, 1)
		h *= geometry.Max(mul.H, 1)
	}
	return w, h
}

// clearanceFor returns the extra extent reserved around diamond exits,
// perpendicular to the edge direction.
func (e *Engine) clearanceFor(n *core.Node, opt Options) float64 {
	ft := n.EffectiveFlowType()
	if t, ok := opt.Types[n.ID]; ok {
		ft = t
	}
	if ft.Diamond() {
		return e.Clearance
	}
	return 0
}

// measure computes each subtree's extent bottom-up.
func (e *Engine) measure(n *core.Node, opt Options, sizes map[string][2]float64) (w, h float64) {
	bw, bh := e.box(n, opt)
	cl := e.clearanceFor(n, opt)

	var kidsMain, kidsCross float64 // along and across the stacking axis
	for i, c := range n.Children {
		cw, ch := e.measure(c, opt, sizes)
		if opt.Direction == core.Vertical {
			kidsMain += cw
			kidsCross = geometry.Max(kidsCross, ch)
		} else {
			kidsMain += ch
			kidsCross = geometry.Max(kidsCross, cw)
		}
		if i > 0 {
			if opt.Direction == core.Vertical {
				kidsMain += e.GapX
			} else {
				kidsMain += e.GapY
			}
		}
	}

	if opt.Direction == core.Vertical {
		w = geometry.Max(bw+2*cl, kidsMain)
		h = bh
		if len(n.Children) > 0 {
			h += e.GapY + kidsCross
		}
	} else {
		h = geometry.Max(bh+2*cl, kidsMain)
		w = bw
		if len(n.Children) > 0 {
			w += e.GapX + kidsCross
		}
	}
	sizes[n.ID] = [2]float64{w, h}
	return w, h
}

// place assigns rectangles top-down, centering each box against its
// children's extent.
func (e *Engine) place(n *core.Node, x, y float64, opt Options, sizes map[string][2]float64, rects map[string]core.Rect) {
	bw, bh := e.box(n, opt)
	ext := sizes[n.ID]

	if opt.Direction == core.Vertical {
		rects[n.ID] = core.Rect{X: x + (ext[0]-bw)/2, Y: y, W: bw, H: bh}
		cx := x
		cy := y + bh + e.GapY
		for _, c := range n.Children {
			cext := sizes[c.ID]
			e.place(c, cx, cy, opt, sizes, rects)
			cx += cext[0] + e.GapX
		}
		return
	}

	rects[n.ID] = core.Rect{X: x, Y: y + (ext[1]-bh)/2, W: bw, H: bh}
	cx := x + bw + e.GapX
	cy := y
	for _, c := range n.Children {
		cext := sizes[c.ID]
		e.place(c, cx, cy, opt, sizes, rects)
		cy += cext[1] + e.GapY
	}
}

// coerce replaces non-finite rectangles with a safe default box and records
// the node id as a recoverable anomaly.
func (e *Engine) coerce(res *Result) {
	for id, r := range res.Rects {
		if geometry.IsFinite(r.X) && geometry.IsFinite(r.Y) &&
			geometry.IsFinite(r.W) && geometry.IsFinite(r.H) && r.W >= 0 && r.H >= 0 {
			continue
		}
		res.Rects[id] = core.Rect{X: 0, Y: 0, W: e.NodeWidth, H: e.NodeHeight}
		res.Anomalies = append(res.Anomalies, id)
	}
}

// connectors derives edge endpoints: tree edges from each parent to its
// children, plus goto/loop edges for flow nodes with a resolvable target.
// Tree edges follow the direction switch: horizontal edges leave the parent's
// right side, vertical ones its bottom. Dangling targets are rendered as
// unset and produce no connector.
func (e *Engine) connectors(visual []*core.Node, rects map[string]core.Rect, dir core.Direction) []Connector {
	var out []Connector
	ids := make(map[string]bool, len(rects))
	for id := range rects {
		ids[id] = true
	}
	core.WalkAll(visual, func(n *core.Node) bool {
		from := rects[n.ID]
		for _, c := range n.Children {
			to := rects[c.ID]
			edge := Connector{FromID: n.ID, ToID: c.ID}
			if dir == core.Vertical {
				edge.X1, edge.Y1 = from.CenterX(), from.Y+from.H
				edge.X2, edge.Y2 = to.CenterX(), to.Y
			} else {
				edge.X1, edge.Y1 = from.X+from.W, from.CenterY()
				edge.X2, edge.Y2 = to.X, to.CenterY()
			}
			out = append(out, edge)
		}
		if n.Target != "" && ids[n.Target] {
			to := rects[n.Target]
			out = append(out, Connector{
				FromID: n.ID, ToID: n.Target, Goto: true,
				X1: from.CenterX(), Y1: from.Y,
				X2: to.CenterX(), Y2: to.Y,
			})
		}
		return true
	})
	return out
}
