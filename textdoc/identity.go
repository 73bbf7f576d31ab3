package textdoc

import (
	"sort"

	"github.com/heysami/diregram-sub000/core"
)

// MatchIDs maps node ids of a previous parse to node ids of a fresh parse so
// selection, expansion and flow-mode state can follow nodes across edits.
//
// The heuristic is content-addressed first, positional second: nodes match
// when level, kind, content and condition signature agree, and among several
// candidates the one with the smallest line distance wins. Two identical
// sibling lines may therefore swap ids across a reorder; callers must not
// treat id stability as load-bearing in that case.
func MatchIDs(old, new []*core.Node) map[string]string {
	type key struct {
		level   int
		kind    core.Kind
		content string
		sig     string
	}
	nodeKey := func(n *core.Node) key {
		return key{n.Level, n.Kind, n.Content, conditionSig(n.Conditions)}
	}

	candidates := make(map[key][]*core.Node)
	core.WalkAll(new, func(n *core.Node) bool {
		k := nodeKey(n)
		candidates[k] = append(candidates[k], n)
		return true
	})

	out := make(map[string]string)
	taken := make(map[*core.Node]bool)
	core.WalkAll(old, func(o *core.Node) bool {
		cands := candidates[nodeKey(o)]
		var free []*core.Node
		for _, c := range cands {
			if !taken[c] {
				free = append(free, c)
			}
		}
		if len(free) == 0 {
			return true
		}
		sort.SliceStable(free, func(i, j int) bool {
			di := abs(free[i].LineIndex - o.LineIndex)
			dj := abs(free[j].LineIndex - o.LineIndex)
			if di != dj {
				return di < dj
			}
			return free[i].LineIndex < free[j].LineIndex
		})
		taken[free[0]] = true
		out[o.ID] = free[0].ID
		return true
	})
	return out
}

func conditionSig(conds []core.Condition) string {
	if len(conds) == 0 {
		return ""
	}
	pairs := make([]string, len(conds))
	for i, c := range conds {
		pairs[i] = c.Key + "=" + c.Value
	}
	sort.Strings(pairs)
	sig := pairs[0]
	for _, p := range pairs[1:] {
		sig += "," + p
	}
	return sig
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
