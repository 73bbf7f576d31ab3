package textdoc

import (
	"fmt"
	"sort"
	"strings"
)

// EditKind discriminates line edits.
type EditKind int

const (
	// EditReplace rewrites one existing line.
	EditReplace EditKind = iota
	// EditInsert inserts a new line before the given index. Several inserts
	// at the same index land in slice order.
	EditInsert
	// EditDelete removes one existing line.
	EditDelete
)

// Edit is one line-level rewrite. Line indexes always refer to the text as
// it was before the whole edit set is applied.
type Edit struct {
	Kind EditKind
	Line int
	Text string // new line content; ignored for EditDelete

	// Raw suppresses comment preservation for replaces whose Text is the
	// complete line, metadata comments included (or deliberately removed).
	Raw bool
}

// Patch applies a set of line edits and rejoins the text once. Edits are
// applied highest-line-first so indexes never invalidate each other.
//
// A replace that carries no metadata comments of its own re-appends the old
// line's comment suffix verbatim: content edits must never silently drop
// metadata.
func Patch(text string, edits []Edit) (string, error) {
	lines := strings.Split(text, "\n")
	for _, e := range edits {
		switch e.Kind {
		case EditInsert:
			if e.Line < 0 || e.Line > len(lines) {
				return "", fmt.Errorf("insert at line %d out of range (%d lines)", e.Line, len(lines))
			}
		default:
			if e.Line < 0 || e.Line >= len(lines) {
				return "", fmt.Errorf("edit at line %d out of range (%d lines)", e.Line, len(lines))
			}
		}
	}

	// Group edits per line, keeping slice order within a group.
	byLine := make(map[int][]Edit)
	var order []int
	for _, e := range edits {
		if _, ok := byLine[e.Line]; !ok {
			order = append(order, e.Line)
		}
		byLine[e.Line] = append(byLine[e.Line], e)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))

	for _, lineNo := range order {
		group := byLine[lineNo]
		var inserts []string
		deleted := false
		for _, e := range group {
			switch e.Kind {
			case EditInsert:
				inserts = append(inserts, e.Text)
			case EditDelete:
				deleted = true
			case EditReplace:
				if e.Raw {
					lines[lineNo] = e.Text
				} else {
					lines[lineNo] = preserveComments(lines[lineNo], e.Text)
				}
			}
		}
		if deleted {
			lines = append(lines[:lineNo], lines[lineNo+1:]...)
		}
		if len(inserts) > 0 {
			lines = append(lines[:lineNo], append(inserts, lines[lineNo:]...)...)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// preserveComments carries the old line's metadata comments onto the new
// text unless the new text explicitly includes comments of its own.
func preserveComments(old, new string) string {
	if strings.Contains(new, "<!--") {
		return new
	}
	suffix := commentSuffix(old)
	if suffix == "" {
		return new
	}
	return new + " " + suffix
}
