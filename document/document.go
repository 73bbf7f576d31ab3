// Package document owns one live diregram document: a collaborative buffer
// plus everything derived from it. Every buffer change triggers a full
// re-parse; the derived tree, selection state and layout inputs are
// recomputed rather than incrementally patched.
package document

import (
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/heysami/diregram-sub000/buffer"
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/layout"
	"github.com/heysami/diregram-sub000/mutate"
	"github.com/heysami/diregram-sub000/textdoc"
	"github.com/heysami/diregram-sub000/variants"
)

// resolveRetryLimit bounds how many recomputation ticks a pending line
// resolution survives before the intent is dropped as still-in-flight.
const resolveRetryLimit = 5

// defaultExpandedMultiplier is used for expanded nodes without a stored
// expanded-metadata block.
var defaultExpandedMultiplier = core.Multiplier{W: 2, H: 2}

type pendingLine struct {
	line     int
	attempts int
	fn       func(*core.Node)
}

// Document is the editing session over one buffer.
type Document struct {
	mu        sync.Mutex
	buf       buffer.Buffer
	mutator   *mutate.Mutator
	engine    *layout.Engine
	roots     []*core.Node
	reg       *textdoc.Regions
	selection variants.Selection
	expanded  map[string]bool
	flowMode  map[string]bool
	pending   []*pendingLine
	listeners []func()
	memo      *variants.Memo
	anchors   *Counter
	debounced func(func())
	cancelObs func()
	autoGen   bool
}

// New opens a document over the buffer and starts observing it. The anchor
// counter is seeded from the highest running number already present.
func New(buf buffer.Buffer) *Document {
	d := &Document{
		buf:       buf,
		mutator:   mutate.New(buf),
		engine:    layout.NewEngine(),
		selection: make(variants.Selection),
		expanded:  make(map[string]bool),
		flowMode:  make(map[string]bool),
		memo:      variants.NewMemo(),
		debounced: debounce.New(50 * time.Millisecond),
		autoGen:   true,
	}
	d.reparse()
	d.anchors = NewCounter(textdoc.MaxAnchor(d.roots))
	d.cancelObs = buf.Observe(d.onChange)
	return d
}

// Close stops observing the buffer.
func (d *Document) Close() {
	if d.cancelObs != nil {
		d.cancelObs()
		d.cancelObs = nil
	}
}

// SetAutoGenerate enables or disables debounced combination generation.
// It is on by default.
func (d *Document) SetAutoGenerate(on bool) {
	d.mu.Lock()
	d.autoGen = on
	d.mu.Unlock()
}

// Mutator returns the structural editing API bound to this buffer.
func (d *Document) Mutator() *mutate.Mutator { return d.mutator }

// Buffer returns the underlying buffer.
func (d *Document) Buffer() buffer.Buffer { return d.buf }

// Anchors returns the running-number generator for this document.
func (d *Document) Anchors() *Counter { return d.anchors }

// onChange is the buffer-change notification: the recomputation tick.
func (d *Document) onChange() {
	d.mu.Lock()
	old := d.roots
	d.reparse()
	d.migrate(old)
	pending := d.step()
	listeners := append([]func(){}, d.listeners...)
	auto := d.autoGen
	d.mu.Unlock()

	for _, p := range pending {
		p.fn(p.node)
	}
	for _, fn := range listeners {
		fn()
	}
	if auto {
		d.debounced(d.GenerateCombinations)
	}
}

func (d *Document) reparse() {
	text := d.buf.Get()
	d.roots = textdoc.Parse(text)
	d.reg = textdoc.ScanRegions(text)
}

// migrate carries per-node view state across the reparse using the id
// matching heuristic.
func (d *Document) migrate(old []*core.Node) {
	remap := textdoc.MatchIDs(old, d.roots)
	d.selection = migrateKeys(d.selection, remap)
	d.expanded = migrateKeys(d.expanded, remap)
	d.flowMode = migrateKeys(d.flowMode, remap)
}

func migrateKeys[V any](m map[string]V, remap map[string]string) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		if nk, ok := remap[k]; ok {
			out[nk] = v
		}
	}
	return out
}

type resolved struct {
	node *core.Node
	fn   func(*core.Node)
}

// step advances pending line resolutions by one tick: resolve what is now
// visible, drop what has exhausted its retries.
func (d *Document) step() []resolved {
	var done []resolved
	var keep []*pendingLine
	for _, p := range d.pending {
		if n := core.FindByLine(d.roots, p.line); n != nil {
			done = append(done, resolved{node: n, fn: p.fn})
			continue
		}
		p.attempts++
		if p.attempts < resolveRetryLimit {
			keep = append(keep, p)
		}
	}
	d.pending = keep
	return done
}

// ResolveLine calls fn with the node occupying the given line, retrying on
// subsequent recomputation ticks up to a fixed bound. If the line never
// materializes the intent is silently dropped: the edit is treated as
// still in flight, never an error.
func (d *Document) ResolveLine(line int, fn func(*core.Node)) {
	d.mu.Lock()
	if n := core.FindByLine(d.roots, line); n != nil {
		d.mu.Unlock()
		fn(n)
		return
	}
	d.pending = append(d.pending, &pendingLine{line: line, fn: fn})
	d.mu.Unlock()
}

// OnChange registers a listener invoked after every recomputation tick.
func (d *Document) OnChange(fn func()) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

// Roots returns the current parsed forest.
func (d *Document) Roots() []*core.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.roots
}

// Node returns the current node with the given id, or nil.
func (d *Document) Node(id string) *core.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return core.FindByID(d.roots, id)
}

// Select records the chosen value for one condition key of a hub.
func (d *Document) Select(hubID, key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel := d.selection[hubID]
	if sel == nil {
		sel = make(map[string]string)
		d.selection[hubID] = sel
	}
	sel[key] = value
}

// ClearSelection drops the stored selection for a hub, reverting it to the
// first-variant fallback.
func (d *Document) ClearSelection(hubID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.selection, hubID)
}

// VisualTree derives the tree the rendering layer draws.
func (d *Document) VisualTree() []*core.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return variants.ResolveVisualTree(d.roots, d.selection)
}

// ToggleExpanded flips a node's expanded state.
func (d *Document) ToggleExpanded(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.expanded[id] {
		delete(d.expanded, id)
	} else {
		d.expanded[id] = true
	}
}

// FlowModeIDs returns the ids of every flow-mode subtree root: #flowtab#
// markers merged with runtime toggles, sorted for stable output.
func (d *Document) FlowModeIDs() []string {
	d.mu.Lock()
	set := d.flowModeRoots(d.roots)
	d.mu.Unlock()
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SetFlowMode marks or unmarks a node as a flow-mode subtree root, on top
// of the #flowtab# markers parsed from the document.
func (d *Document) SetFlowMode(id string, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if on {
		d.flowMode[id] = true
	} else {
		delete(d.flowMode, id)
	}
}
