package textdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/heysami/diregram-sub000/core"
)

// Inline metadata comments carry state that must never appear in rendered
// content. Known tags mirror the document format; anything else round-trips
// verbatim through Extra.
var (
	commentRE = regexp.MustCompile(`<!--\s*([A-Za-z]+):([^>]*?)\s*-->`)
	anyHTMLRE = regexp.MustCompile(`<!--[\s\S]*?-->`)
)

const maxAttributeIDLen = 64

// splitComments removes every HTML comment from line, returning the visible
// text (right-trimmed) and the raw comment substrings in document order.
func splitComments(line string) (visible string, comments []string) {
	locs := anyHTMLRE.FindAllStringIndex(line, -1)
	if locs == nil {
		return strings.TrimRight(line, " \t"), nil
	}
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		b.WriteString(line[prev:loc[0]])
		comments = append(comments, line[loc[0]:loc[1]])
		prev = loc[1]
	}
	b.WriteString(line[prev:])
	return strings.TrimRight(b.String(), " \t"), comments
}

// commentSuffix returns the metadata comments of a line rejoined with single
// spaces, or "" when the line has none. Used by Patch to re-append metadata
// that a content edit did not mention.
func commentSuffix(line string) string {
	_, comments := splitComments(line)
	return strings.Join(comments, " ")
}

// sanitizeID strips characters that would break out of an HTML comment,
// mirroring the app's tag sanitization.
func sanitizeID(s string) string {
	s = strings.NewReplacer("\n", "", "\r", "", "<", "", ">", "", "--", "").Replace(s)
	return strings.TrimSpace(s)
}

// parseIDList splits a comma separated id list, sanitizing and de-duplicating
// while preserving order.
func parseIDList(raw string, maxLen int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		id := sanitizeID(part)
		if id == "" {
			continue
		}
		if maxLen > 0 && len(id) > maxLen {
			id = id[:maxLen]
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// applyComment interprets one raw comment and stores it on the node. Unknown
// tags and malformed bodies are kept verbatim so they survive rewrites.
func applyComment(n *core.Node, raw string) {
	m := commentRE.FindStringSubmatch(raw)
	if m == nil {
		n.Extra = append(n.Extra, raw)
		return
	}
	tag, body := m[1], m[2]
	switch tag {
	case "expid":
		v, err := strconv.Atoi(strings.TrimSpace(body))
		if err != nil || v <= 0 {
			n.Extra = append(n.Extra, raw)
			return
		}
		n.Anchor = v
	case "tags":
		n.Tags = parseIDList(body, 0)
	case "do":
		n.DataObjectID = sanitizeID(body)
	case "doattrs":
		n.DataObjectAttributeIDs = parseIDList(body, maxAttributeIDLen)
	case "flowtype":
		ft := core.FlowType(strings.TrimSpace(body))
		if !ft.Valid() {
			n.Extra = append(n.Extra, raw)
			return
		}
		n.FlowType = ft
	case "target":
		n.Target = sanitizeID(body)
	case "icon":
		n.Icon = sanitizeID(body)
	case "note":
		n.Annotation = strings.TrimSpace(body)
	default:
		n.Extra = append(n.Extra, raw)
	}
}

// comment renders one metadata comment.
func comment(tag, body string) string {
	return fmt.Sprintf("<!-- %s:%s -->", tag, body)
}

// nodeComments renders a node's metadata comments in canonical order,
// followed by unknown comments verbatim.
func nodeComments(n *core.Node) []string {
	var out []string
	if n.Anchor > 0 {
		out = append(out, comment("expid", strconv.Itoa(n.Anchor)))
	}
	if len(n.Tags) > 0 {
		out = append(out, comment("tags", strings.Join(n.Tags, ",")))
	}
	if n.DataObjectID != "" {
		out = append(out, comment("do", n.DataObjectID))
	}
	if len(n.DataObjectAttributeIDs) > 0 {
		out = append(out, comment("doattrs", strings.Join(n.DataObjectAttributeIDs, ",")))
	}
	if n.FlowType != "" {
		out = append(out, comment("flowtype", string(n.FlowType)))
	}
	if n.Target != "" {
		out = append(out, comment("target", n.Target))
	}
	if n.Icon != "" {
		out = append(out, comment("icon", n.Icon))
	}
	if n.Annotation != "" {
		out = append(out, comment("note", n.Annotation))
	}
	out = append(out, n.Extra...)
	return out
}
