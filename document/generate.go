package document

import (
	"strings"

	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/variants"
)

// GenerateCombinations completes every hub's variant set against the full
// Cartesian product of its condition dimensions. Normally it runs debounced
// after buffer changes; calling it directly is safe and idempotent.
//
// The signature memo is the loop guard: applying this method's own output
// re-parses into the same product signature, so the next tick generates
// nothing and the cycle terminates.
func (d *Document) GenerateCombinations() {
	d.mu.Lock()
	type job struct {
		key    string
		sig    string
		combos []variants.Combo
	}
	var jobs []job
	core.WalkAll(d.roots, func(n *core.Node) bool {
		if n.Kind != core.KindHub {
			return true
		}
		key := hubKey(n)
		sig := variants.ProductSignature(n)
		if !d.memo.ShouldGenerate(key, sig) {
			return true
		}
		if combos := variants.GenerateCombinations(n); len(combos) > 0 {
			jobs = append(jobs, job{key: key, sig: sig, combos: combos})
		} else {
			d.memo.Record(key, sig)
		}
		return true
	})
	d.mu.Unlock()

	// Each application inserts lines and shifts every later hub's positional
	// id, so hubs are re-resolved by content path between applications. The
	// memo entry is recorded only after a successful commit; a failed one
	// leaves the hub due for the next tick.
	for _, j := range jobs {
		hub := d.hubByKey(j.key)
		if hub == nil {
			continue
		}
		if err := d.mutator.AddHubVariants(hub, j.combos); err != nil {
			continue
		}
		d.memo.Record(j.key, j.sig)
	}
}

// hubByKey re-finds a hub in the freshly parsed forest by its content path.
func (d *Document) hubByKey(key string) *core.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *core.Node
	core.WalkAll(d.roots, func(n *core.Node) bool {
		if n.Kind == core.KindHub && hubKey(n) == key {
			found = n
			return false
		}
		return true
	})
	return found
}

// hubKey identifies a hub across reparses for the generation memo: the
// content path from the root. Line-based ids shift with every insert, which
// would defeat the guard.
func hubKey(hub *core.Node) string {
	var parts []string
	for n := hub; n != nil; n = n.Parent {
		parts = append([]string{n.Content}, parts...)
	}
	return strings.Join(parts, "/")
}
