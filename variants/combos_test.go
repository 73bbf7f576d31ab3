package variants

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/textdoc"
)

func parseHub(t *testing.T, text string) *core.Node {
	t.Helper()
	roots := textdoc.Parse(text)
	if len(roots) != 1 || roots[0].Kind != core.KindHub {
		t.Fatalf("test document did not parse into a single hub: %+v", roots)
	}
	return roots[0]
}

func TestHubDimensions(t *testing.T) {
	hub := parseHub(t, "S (env=prod, region=eu)\nS (env=dev, region=eu)\nS (env=prod, region=us)")
	keys, values := HubDimensions(hub)

	if diff := cmp.Diff([]string{"env", "region"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"prod", "dev"}, values["env"]); diff != "" {
		t.Errorf("env values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"eu", "us"}, values["region"]); diff != "" {
		t.Errorf("region values mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateCombinationsFillsProduct(t *testing.T) {
	// 2x2 product with 3 variants present: exactly one combination missing.
	hub := parseHub(t, "S (env=prod, region=eu)\nS (env=dev, region=eu)\nS (env=prod, region=us)")
	missing := GenerateCombinations(hub)
	if len(missing) != 1 {
		t.Fatalf("got %d missing combos, want 1: %v", len(missing), missing)
	}
	want := Combo{{Key: "env", Value: "dev"}, {Key: "region", Value: "us"}}
	if diff := cmp.Diff(want, missing[0]); diff != "" {
		t.Errorf("combo mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateCombinationsIdempotent(t *testing.T) {
	hub := parseHub(t, "S (a=1)\nS (a=2)")
	if missing := GenerateCombinations(hub); len(missing) != 0 {
		t.Errorf("complete hub should generate nothing, got %v", missing)
	}
}

func TestGenerateCombinationsThreeDimensions(t *testing.T) {
	// One variant declaring 3 keys of 2 values each: 2*2*2 - 1 missing.
	hub := parseHub(t, "S (a=1, b=1, c=1)\nS (a=2, b=2, c=2)")
	missing := GenerateCombinations(hub)
	if len(missing) != 6 {
		t.Errorf("got %d missing combos, want 6", len(missing))
	}
	seen := make(map[string]bool)
	for _, combo := range missing {
		sig := Signature(combo)
		if seen[sig] {
			t.Errorf("duplicate combo %s", sig)
		}
		seen[sig] = true
	}
}

func TestGenerateCombinationsNoConditions(t *testing.T) {
	hub := &core.Node{Kind: core.KindHub, Variants: []*core.Node{{Kind: core.KindVariant}}}
	if missing := GenerateCombinations(hub); missing != nil {
		t.Errorf("conditionless hub should generate nothing, got %v", missing)
	}
}

func TestCloneSourcePrefersKeyOverlap(t *testing.T) {
	hub := parseHub(t, "S (env=prod, region=eu)\nS (env=dev, region=eu)\nS (env=prod, region=us)")
	combo := Combo{{Key: "env", Value: "dev"}, {Key: "region", Value: "us"}}
	src := CloneSource(hub, combo)
	// Both env=dev/region=eu and env=prod/region=us overlap on one key;
	// declaration order breaks the tie.
	if Signature(src.Conditions) != "env=dev,region=eu" {
		t.Errorf("clone source = %s", Signature(src.Conditions))
	}
}

func TestCloneSourceExactMatchWins(t *testing.T) {
	hub := parseHub(t, "S (a=1, b=1)\nS (a=2, b=2)")
	src := CloneSource(hub, Combo{{Key: "a", Value: "2"}, {Key: "b", Value: "2"}})
	if Signature(src.Conditions) != "a=2,b=2" {
		t.Errorf("clone source = %s", Signature(src.Conditions))
	}
}

func TestProductSignatureStable(t *testing.T) {
	h1 := parseHub(t, "S (a=1)\nS (a=2)")
	h2 := parseHub(t, "S (a=1)\nS (a=2)")
	if ProductSignature(h1) != ProductSignature(h2) {
		t.Error("identical hubs should share a product signature")
	}
	h3 := parseHub(t, "S (a=1)\nS (a=3)")
	if ProductSignature(h1) == ProductSignature(h3) {
		t.Error("different value sets should differ")
	}
}

func TestMemoShouldGenerate(t *testing.T) {
	m := NewMemo()
	if !m.ShouldGenerate("h", "sig1") {
		t.Error("first sighting should generate")
	}
	if !m.ShouldGenerate("h", "sig1") {
		t.Error("checking must not record: an uncommitted hub stays due")
	}
	m.Record("h", "sig1")
	if m.ShouldGenerate("h", "sig1") {
		t.Error("recorded signature should not regenerate")
	}
	if !m.ShouldGenerate("h", "sig2") {
		t.Error("changed signature should generate")
	}
	m.Forget("h")
	if !m.ShouldGenerate("h", "sig1") {
		t.Error("forgotten hub should generate again")
	}
}
