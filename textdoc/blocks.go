package textdoc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heysami/diregram-sub000/core"
)

// Block is one fenced auxiliary store (```type ... ```).
type Block struct {
	Type      string // tag-store, data-objects, flowtab-swimlane-<n>, ...
	StartLine int    // line of the opening fence
	EndLine   int    // line of the closing fence; len(lines) if unclosed
	Body      string // content between the fences
}

// Regions is the structural split of the document: the tree region (lines
// before the first `---` separator outside fences) and the fenced JSON
// stores. Line-level edits must stay inside the tree region and outside
// fences so the stores are never corrupted.
type Regions struct {
	Lines     []string
	Separator int // line index of the separator, -1 when absent
	TreeEnd   int // first line index past the tree region
	Blocks    []Block

	fenced map[int]bool
}

// ScanRegions splits text into lines and locates the separator and every
// fenced block. Unclosed fences extend to the end of the document.
func ScanRegions(text string) *Regions {
	lines := strings.Split(text, "\n")
	r := &Regions{Lines: lines, Separator: -1, TreeEnd: len(lines), fenced: make(map[int]bool)}

	inFence := false
	var cur *Block
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			r.fenced[i] = true
			if !inFence {
				inFence = true
				cur = &Block{Type: strings.TrimSpace(strings.TrimPrefix(trimmed, "```")), StartLine: i, EndLine: len(lines)}
			} else {
				inFence = false
				cur.EndLine = i
				r.Blocks = append(r.Blocks, *cur)
				cur = nil
			}
			continue
		}
		if inFence {
			r.fenced[i] = true
			if cur.Body != "" {
				cur.Body += "\n"
			}
			cur.Body += line
			continue
		}
		if trimmed == "---" && r.Separator == -1 {
			r.Separator = i
			r.TreeEnd = i
		}
	}
	if cur != nil {
		r.Blocks = append(r.Blocks, *cur)
	}
	return r
}

// Fenced reports whether the line is part of a fenced block (fences included).
func (r *Regions) Fenced(i int) bool {
	return r.fenced[i]
}

// InTree reports whether the line may be rewritten by structural edits.
func (r *Regions) InTree(i int) bool {
	return i >= 0 && i < r.TreeEnd && !r.fenced[i]
}

// Block returns the first fenced block of the given type.
func (r *Regions) Block(blockType string) (Block, bool) {
	for _, b := range r.Blocks {
		if b.Type == blockType {
			return b, true
		}
	}
	return Block{}, false
}

// BlocksWithPrefix returns every fenced block whose type starts with prefix,
// e.g. "flowtab-swimlane-" or "expanded-metadata-".
func (r *Regions) BlocksWithPrefix(prefix string) []Block {
	var out []Block
	for _, b := range r.Blocks {
		if strings.HasPrefix(b.Type, prefix) {
			out = append(out, b)
		}
	}
	return out
}

// ParseSwimlane decodes a flowtab-swimlane block body.
func ParseSwimlane(body string) (*core.Swimlane, error) {
	var s core.Swimlane
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, fmt.Errorf("invalid swimlane block: %w", err)
	}
	if s.Placement == nil {
		s.Placement = make(map[string]core.Placement)
	}
	return &s, nil
}

// Tag is one entry of the tag-store block.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ParseTagStore decodes the tag-store block body.
func ParseTagStore(body string) ([]Tag, error) {
	var s struct {
		Tags []Tag `json:"tags"`
	}
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, fmt.Errorf("invalid tag-store block: %w", err)
	}
	return s.Tags, nil
}

// DataObjectAttribute is one attribute of a data object.
type DataObjectAttribute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DataObject is one entry of the data-objects block. Nodes reference objects
// by id through `do:`/`doattrs:` comments.
type DataObject struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Attributes []DataObjectAttribute `json:"attributes,omitempty"`
}

// ParseDataObjects decodes the data-objects block body.
func ParseDataObjects(body string) ([]DataObject, error) {
	var s struct {
		Objects []DataObject `json:"objects"`
	}
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, fmt.Errorf("invalid data-objects block: %w", err)
	}
	return s.Objects, nil
}

// GridCell is one cell of an expanded-grid-<anchor> block. The block body is
// a JSON list, one entry per cell, unlike the expanded-metadata object shape.
type GridCell struct {
	Content                string   `json:"content,omitempty"`
	DataObjectID           string   `json:"dataObjectId,omitempty"`
	DataObjectAttributeIDs []string `json:"dataObjectAttributeIds,omitempty"`
}

// ParseExpandedGrid decodes an expanded-grid block body.
func ParseExpandedGrid(body string) ([]GridCell, error) {
	var cells []GridCell
	if err := json.Unmarshal([]byte(body), &cells); err != nil {
		return nil, fmt.Errorf("invalid expanded-grid block: %w", err)
	}
	return cells, nil
}

// ExpandedMeta is the decoded body of an expanded-metadata-<anchor> block.
type ExpandedMeta struct {
	core.Multiplier
	DataObjectID           string   `json:"dataObjectId,omitempty"`
	DataObjectAttributeIDs []string `json:"dataObjectAttributeIds,omitempty"`
}

// ParseExpandedMeta decodes an expanded-metadata block body. Multipliers
// default to 1 so a sparse block still lays out sanely.
func ParseExpandedMeta(body string) (*ExpandedMeta, error) {
	m := &ExpandedMeta{Multiplier: core.Multiplier{W: 1, H: 1}}
	if err := json.Unmarshal([]byte(body), m); err != nil {
		return nil, fmt.Errorf("invalid expanded-metadata block: %w", err)
	}
	if m.W <= 0 {
		m.W = 1
	}
	if m.H <= 0 {
		m.H = 1
	}
	return m, nil
}
