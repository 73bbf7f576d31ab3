package textdoc

import "testing"

func TestPatchReplacePreservesComments(t *testing.T) {
	text := "A <!-- expid:4 --> <!-- icon:server -->\n  B"
	out, err := Patch(text, []Edit{{Kind: EditReplace, Line: 0, Text: "Renamed"}})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	want := "Renamed <!-- expid:4 --> <!-- icon:server -->\n  B"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPatchReplaceWithOwnComments(t *testing.T) {
	text := "A <!-- expid:4 -->"
	out, err := Patch(text, []Edit{{Kind: EditReplace, Line: 0, Text: "A <!-- expid:9 -->"}})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out != "A <!-- expid:9 -->" {
		t.Errorf("explicit comments should win, got %q", out)
	}
}

func TestPatchRawReplaceDropsComments(t *testing.T) {
	// Raw is how attribute clears stick: the rendered line simply has no
	// comment anymore and nothing resurrects the old one.
	text := "A <!-- icon:server -->"
	out, err := Patch(text, []Edit{{Kind: EditReplace, Line: 0, Text: "A", Raw: true}})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out != "A" {
		t.Errorf("got %q, want bare line", out)
	}
}

func TestPatchInsertOrder(t *testing.T) {
	out, err := Patch("A\nB", []Edit{
		{Kind: EditInsert, Line: 1, Text: "one"},
		{Kind: EditInsert, Line: 1, Text: "two"},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out != "A\none\ntwo\nB" {
		t.Errorf("inserts at one index should land in slice order, got %q", out)
	}
}

func TestPatchAppend(t *testing.T) {
	out, err := Patch("A", []Edit{{Kind: EditInsert, Line: 1, Text: "B"}})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out != "A\nB" {
		t.Errorf("got %q, want A\\nB", out)
	}
}

func TestPatchMixedEditsUseOriginalIndexes(t *testing.T) {
	// Line indexes refer to the original text even though earlier (higher)
	// edits shift the slice.
	text := "zero\none\ntwo\nthree"
	out, err := Patch(text, []Edit{
		{Kind: EditDelete, Line: 1},
		{Kind: EditReplace, Line: 3, Text: "THREE"},
		{Kind: EditInsert, Line: 2, Text: "inserted"},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	want := "zero\ninserted\ntwo\nTHREE"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPatchDeleteBlock(t *testing.T) {
	out, err := Patch("A\n  B\n  C\nD", []Edit{
		{Kind: EditDelete, Line: 1},
		{Kind: EditDelete, Line: 2},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out != "A\nD" {
		t.Errorf("got %q, want A\\nD", out)
	}
}

func TestPatchOutOfRange(t *testing.T) {
	for _, e := range []Edit{
		{Kind: EditReplace, Line: 5, Text: "x"},
		{Kind: EditDelete, Line: -1},
		{Kind: EditInsert, Line: 3, Text: "x"},
	} {
		if _, err := Patch("A\nB", []Edit{e}); err == nil {
			t.Errorf("edit %+v should be rejected", e)
		}
	}
}

func TestPatchNoEdits(t *testing.T) {
	out, err := Patch("A\nB", nil)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out != "A\nB" {
		t.Errorf("empty edit set changed text: %q", out)
	}
}
