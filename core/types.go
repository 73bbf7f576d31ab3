// Package core contains the fundamental types shared by the diregram
// document model, resolver, mutator and layout engine.
package core

// Kind discriminates the three node shapes the codec can produce.
type Kind int

const (
	// KindPlain is an ordinary outline node.
	KindPlain Kind = iota
	// KindHub is a conditional branch point owning one variant per
	// represented condition combination. A hub has no conditions itself.
	KindHub
	// KindVariant is one concrete condition combination's subtree root
	// under a hub.
	KindVariant
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindHub:
		return "hub"
	case KindVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// FlowType is the process-flow subtype of a flow node.
type FlowType string

const (
	FlowStep       FlowType = "step"
	FlowTime       FlowType = "time"
	FlowLoop       FlowType = "loop"
	FlowValidation FlowType = "validation"
	FlowBranch     FlowType = "branch"
	FlowGoto       FlowType = "goto"
	FlowEnd        FlowType = "end"
)

// Valid reports whether f is one of the known flow subtypes.
func (f FlowType) Valid() bool {
	switch f {
	case FlowStep, FlowTime, FlowLoop, FlowValidation, FlowBranch, FlowGoto, FlowEnd:
		return true
	}
	return false
}

// Diamond reports whether the subtype renders as a diamond and therefore
// uses the fixed diamond box size and exit-side clearance.
func (f FlowType) Diamond() bool {
	return f == FlowValidation || f == FlowBranch
}

// Condition is one key=value pair of a variant's condition clause.
// Order is declaration order in the document.
type Condition struct {
	Key   string
	Value string
}

// Node represents one line of the document (or, for KindHub, a synthesized
// branch point grouping several variant lines).
type Node struct {
	ID        string // positional id, "node-<lineIndex>" at parse time
	LineIndex int    // current line offset in the buffer; volatile
	Level     int    // indentation depth; root nodes have Level 0
	Content   string // display text, markers and comments stripped
	Kind      Kind

	// Variants is non-empty exactly when Kind == KindHub, in encounter order.
	Variants []*Node

	// Conditions is non-empty exactly when Kind == KindVariant.
	Conditions []Condition

	IsCommon  bool // variant child kept identical across all sibling variants
	IsFlow    bool
	IsFlowTab bool // roots a flow-mode subtree
	FlowType  FlowType
	Target    string // goto/loop target node id; may dangle

	Anchor                 int // running-number anchor (expid); 0 means none
	Tags                   []string
	Icon                   string
	DataObjectID           string
	DataObjectAttributeIDs []string
	Annotation             string

	// Extra holds unknown metadata comments verbatim, in document order.
	Extra []string

	Children []*Node
	Parent   *Node
}

// EffectiveFlowType returns the node's flow subtype, defaulting to FlowStep
// for flow nodes that carry no explicit subtype comment.
func (n *Node) EffectiveFlowType() FlowType {
	if n.FlowType != "" {
		return n.FlowType
	}
	if n.IsFlow {
		return FlowStep
	}
	return ""
}

// Walk visits n and every descendant in document order. For hubs the
// variants are visited after the hub itself. Returning false from fn stops
// the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, v := range n.Variants {
		if !v.Walk(fn) {
			return false
		}
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// WalkAll visits every node of a forest in document order.
func WalkAll(roots []*Node, fn func(*Node) bool) {
	for _, r := range roots {
		if !r.Walk(fn) {
			return
		}
	}
}

// FindByID returns the first node in the forest with the given id, or nil.
func FindByID(roots []*Node, id string) *Node {
	var found *Node
	WalkAll(roots, func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByLine returns the node occupying the given line index, or nil.
// Hubs share a line with their first variant; the variant wins because it
// is what the line textually is.
func FindByLine(roots []*Node, line int) *Node {
	var found *Node
	WalkAll(roots, func(n *Node) bool {
		if n.LineIndex == line && n.Kind != KindHub {
			found = n
			return false
		}
		return true
	})
	return found
}
