package core

// Rect is an axis-aligned node rectangle produced by the layout engine.
type Rect struct {
	X, Y, W, H float64
}

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Direction selects which way connectors flow; children are laid out
// perpendicular to it.
type Direction int

const (
	// Horizontal lays children out top-to-bottom, to the right of the parent.
	Horizontal Direction = iota
	// Vertical lays children out left-to-right, below the parent.
	Vertical
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Multiplier scales an expanded node's reserved box.
type Multiplier struct {
	W float64 `json:"widthMultiplier"`
	H float64 `json:"heightMultiplier"`
}

// Lane is one horizontal band of a swimlane grid.
type Lane struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Stage is one vertical band of a swimlane grid.
type Stage struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Placement assigns a node to a swimlane cell.
type Placement struct {
	LaneID  string `json:"laneId"`
	StageID string `json:"stageId"`
}

// Swimlane is a lane/stage grid assignment for part of the tree. Nodes in
// Placement are positioned on the grid instead of by the recursive layout.
type Swimlane struct {
	Lanes     []Lane               `json:"lanes"`
	Stages    []Stage              `json:"stages"`
	Placement map[string]Placement `json:"placement"`
}

// LaneIndex returns the index of the lane with the given id, or -1.
func (s *Swimlane) LaneIndex(id string) int {
	for i, l := range s.Lanes {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// StageIndex returns the index of the stage with the given id, or -1.
func (s *Swimlane) StageIndex(id string) int {
	for i, st := range s.Stages {
		if st.ID == id {
			return i
		}
	}
	return -1
}
