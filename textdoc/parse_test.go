package textdoc

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/heysami/diregram-sub000/core"
)

func TestParseBasicHierarchy(t *testing.T) {
	roots := Parse("A\n  B\n    C\n  D")
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	a := roots[0]
	if a.Content != "A" || len(a.Children) != 2 {
		t.Fatalf("A has %d children, want 2", len(a.Children))
	}
	b := a.Children[0]
	if b.Content != "B" || len(b.Children) != 1 || b.Children[0].Content != "C" {
		t.Errorf("B subtree wrong: %+v", b)
	}
	if a.Children[1].Content != "D" {
		t.Errorf("second child = %q, want D", a.Children[1].Content)
	}
	if b.Children[0].Parent != b || b.Parent != a {
		t.Error("parent pointers not wired")
	}
}

func TestParseHubGrouping(t *testing.T) {
	roots := Parse("A\n  S (k=1)\n  S (k=2)\n    T #common#")
	a := roots[0]
	if len(a.Children) != 1 {
		t.Fatalf("A has %d children, want 1 (the hub)", len(a.Children))
	}
	hub := a.Children[0]
	if hub.Kind != core.KindHub {
		t.Fatalf("child kind = %v, want hub", hub.Kind)
	}
	if hub.ID != "hub-1" {
		t.Errorf("hub id = %q, want hub-1", hub.ID)
	}
	if len(hub.Variants) != 2 {
		t.Fatalf("hub has %d variants, want 2", len(hub.Variants))
	}
	v1, v2 := hub.Variants[0], hub.Variants[1]
	if v1.Conditions[0] != (core.Condition{Key: "k", Value: "1"}) {
		t.Errorf("first variant conditions = %v", v1.Conditions)
	}
	if len(v2.Children) != 1 {
		t.Fatalf("second variant has %d children, want 1", len(v2.Children))
	}
	tNode := v2.Children[0]
	if tNode.Content != "T" || !tNode.IsCommon {
		t.Errorf("T = %+v, want common child", tNode)
	}
	if tNode.ID != "node-3" {
		t.Errorf("T id = %q, want node-3", tNode.ID)
	}
}

func TestParseSeparateHubsPerSiblingList(t *testing.T) {
	// Same content at different parents must not merge into one hub.
	roots := Parse("A\n  S (k=1)\nB\n  S (k=1)")
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	h1, h2 := roots[0].Children[0], roots[1].Children[0]
	if h1.Kind != core.KindHub || h2.Kind != core.KindHub {
		t.Fatal("both children should be hubs")
	}
	if h1.ID == h2.ID {
		t.Errorf("hubs share id %q", h1.ID)
	}
}

func TestParseConditions(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantContent string
		wantConds   []core.Condition
	}{
		{"single pair", "S (k=1)", "S", []core.Condition{{Key: "k", Value: "1"}}},
		{"multiple pairs", "S (env=prod, region=eu)", "S",
			[]core.Condition{{Key: "env", Value: "prod"}, {Key: "region", Value: "eu"}}},
		{"empty value", "S (k=)", "S", []core.Condition{{Key: "k", Value: ""}}},
		{"no equals degrades", "S (broken)", "S (broken)", nil},
		{"last group wins", "A (note) (x=1)", "A (note)",
			[]core.Condition{{Key: "x", Value: "1"}}},
		{"earlier group alone degrades", "A (note)", "A (note)", nil},
		{"unclosed degrades", "S (k=1", "S (k=1", nil},
		{"trailing text degrades", "S (k=1) x", "S (k=1) x", nil},
		{"escaped parens are content", `Count \(approx\)`, "Count (approx)", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Parse(tt.line)[0]
			if len(tt.wantConds) > 0 {
				// Variant lines are grouped into hubs; check via the hub.
				if n.Kind != core.KindHub {
					t.Fatalf("kind = %v, want hub wrapper", n.Kind)
				}
				n = n.Variants[0]
			} else if n.Kind != core.KindPlain {
				t.Fatalf("kind = %v, want plain", n.Kind)
			}
			if n.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", n.Content, tt.wantContent)
			}
			if diff := cmp.Diff(tt.wantConds, n.Conditions); diff != "" {
				t.Errorf("conditions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMarkers(t *testing.T) {
	roots := Parse("A #flow# #flowtab#\n  B #common#")
	a := roots[0]
	if !a.IsFlow || !a.IsFlowTab || a.IsCommon {
		t.Errorf("A markers = flow:%v flowtab:%v common:%v", a.IsFlow, a.IsFlowTab, a.IsCommon)
	}
	if a.Content != "A" {
		t.Errorf("markers should be stripped from content, got %q", a.Content)
	}
	if !a.Children[0].IsCommon {
		t.Error("B should be common")
	}
}

func TestParseComments(t *testing.T) {
	line := `A <!-- expid:7 --> <!-- tags:t1,t2 --> <!-- flowtype:branch --> <!-- custom:x -->`
	n := Parse(line)[0]
	if n.Content != "A" {
		t.Errorf("content = %q, want A", n.Content)
	}
	if n.Anchor != 7 {
		t.Errorf("anchor = %d, want 7", n.Anchor)
	}
	if diff := cmp.Diff([]string{"t1", "t2"}, n.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if n.FlowType != core.FlowBranch {
		t.Errorf("flowtype = %q, want branch", n.FlowType)
	}
	if len(n.Extra) != 1 || n.Extra[0] != "<!-- custom:x -->" {
		t.Errorf("unknown comment not kept verbatim: %v", n.Extra)
	}
}

func TestParseMalformedComments(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bad expid", "A <!-- expid:zero -->"},
		{"negative expid", "A <!-- expid:-3 -->"},
		{"bad flowtype", "A <!-- flowtype:circle -->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Parse(tt.line)[0]
			if n.Anchor != 0 || n.FlowType != "" {
				t.Errorf("malformed comment was interpreted: %+v", n)
			}
			if len(n.Extra) != 1 {
				t.Errorf("malformed comment should survive in Extra, got %v", n.Extra)
			}
		})
	}
}

func TestParseOverIndentClamps(t *testing.T) {
	// A jump of several levels clamps to one below the previous line.
	roots := Parse("A\n      B")
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	b := roots[0].Children[0]
	if b.Level != 1 {
		t.Errorf("B level = %d, want 1", b.Level)
	}
}

func TestParseSkipsBlanksAndBlocks(t *testing.T) {
	text := "A\n\n  B\n---\nnotes down here\n```tag-store\n{}\n```"
	roots := Parse(text)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1: %v", len(roots), roots)
	}
	if len(roots[0].Children) != 1 {
		t.Errorf("A should keep B as its child across the blank line")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	texts := []string{
		"A\n  S (k=1)\n  S (k=2)\n    T #common#",
		"Root #flowtab#\n  Step #flow# <!-- flowtype:validation -->\n  End <!-- expid:3 -->",
		`Paren \(content\)` + "\n  Child <!-- custom:keep -->",
	}
	for _, text := range texts {
		roots := Parse(text)
		out := Serialize(roots)
		if out != text {
			t.Errorf("round trip changed text:\n in: %q\nout: %q", text, out)
		}
	}
}

func TestMaxAnchor(t *testing.T) {
	roots := Parse("A <!-- expid:3 -->\n  B <!-- expid:12 -->\n  C")
	if got := MaxAnchor(roots); got != 12 {
		t.Errorf("MaxAnchor = %d, want 12", got)
	}
	if got := MaxAnchor(Parse("A\nB")); got != 0 {
		t.Errorf("MaxAnchor of anchorless forest = %d, want 0", got)
	}
}
