package variants

import (
	"sync"

	"github.com/heysami/diregram-sub000/core"
)

// Combo is one condition combination, in key declaration order.
type Combo []core.Condition

// HubDimensions collects the hub's condition keys in first-appearance order
// and, per key, the declared values in first-appearance order.
func HubDimensions(hub *core.Node) (keys []string, values map[string][]string) {
	values = make(map[string][]string)
	for _, v := range hub.Variants {
		for _, c := range v.Conditions {
			if _, ok := values[c.Key]; !ok {
				keys = append(keys, c.Key)
			}
			if !contains(values[c.Key], c.Value) {
				values[c.Key] = append(values[c.Key], c.Value)
			}
		}
	}
	return keys, values
}

// GenerateCombinations builds the full Cartesian product of the hub's
// current key -> values pairs and returns only the combinations no existing
// variant represents. Running it again after its output has been applied
// yields nil: the generator is idempotent.
func GenerateCombinations(hub *core.Node) []Combo {
	keys, values := HubDimensions(hub)
	if len(keys) == 0 {
		return nil
	}

	existing := make(map[string]bool, len(hub.Variants))
	for _, v := range hub.Variants {
		existing[Signature(v.Conditions)] = true
	}

	var missing []Combo
	var walk func(i int, acc Combo)
	walk = func(i int, acc Combo) {
		if i == len(keys) {
			if !existing[Signature(acc)] {
				combo := make(Combo, len(acc))
				copy(combo, acc)
				missing = append(missing, combo)
			}
			return
		}
		for _, val := range values[keys[i]] {
			walk(i+1, append(acc, core.Condition{Key: keys[i], Value: val}))
		}
	}
	walk(0, nil)
	return missing
}

// CloneSource picks the existing variant whose conditions overlap the new
// combination on the most keys, so partially-specified dimensions inherit
// structure instead of starting empty. Ties break by declaration order.
func CloneSource(hub *core.Node, combo Combo) *core.Node {
	want := make(map[string]string, len(combo))
	for _, c := range combo {
		want[c.Key] = c.Value
	}
	best := hub.Variants[0]
	bestScore := -1
	for _, v := range hub.Variants {
		score := 0
		for _, c := range v.Conditions {
			if want[c.Key] == c.Value {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = v, score
		}
	}
	return best
}

// ProductSignature is the content-addressed identity of the hub's complete
// expected variant set: the signatures of the full Cartesian product,
// joined. Used by the generation guard to recognize its own output.
func ProductSignature(hub *core.Node) string {
	keys, values := HubDimensions(hub)
	sig := ""
	var walk func(i int, acc Combo)
	walk = func(i int, acc Combo) {
		if i == len(keys) {
			if sig != "" {
				sig += ";"
			}
			sig += Signature(acc)
			return
		}
		for _, val := range values[keys[i]] {
			walk(i+1, append(acc, core.Condition{Key: keys[i], Value: val}))
		}
	}
	walk(0, nil)
	return sig
}

// Memo remembers the last product signature applied per hub so a generation
// cycle cannot retrigger itself before the buffer settles. The caller keys
// it by whatever hub identity it carries across reparses.
type Memo struct {
	mu   sync.Mutex
	last map[string]string
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	return &Memo{last: make(map[string]string)}
}

// ShouldGenerate reports whether the hub's expected state differs from the
// last applied one.
func (m *Memo) ShouldGenerate(hubKey, productSig string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[hubKey] != productSig
}

// Record stores the signature whose combinations have been committed. Only
// committed signatures may be recorded: recording before the buffer applies
// would permanently skip a hub whose application failed.
func (m *Memo) Record(hubKey, productSig string) {
	m.mu.Lock()
	m.last[hubKey] = productSig
	m.mu.Unlock()
}

// Forget drops the memo entry for a hub, e.g. when the hub is deleted.
func (m *Memo) Forget(hubKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.last, hubKey)
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
