package buffer

import (
	"sync"
	"unicode/utf8"

	"github.com/heysami/diregram-sub000/crdt"
)

// Replicated is a Buffer backed by a Logoot replica. Local edits produce
// ops handed to the OnOps callback for transport; remote ops merge through
// ApplyRemote. Merge semantics live entirely in the crdt package; this type
// only adapts byte-ranged Replace calls onto rune-addressed atoms.
type Replicated struct {
	mu        sync.Mutex
	doc       *crdt.Doc
	observers map[int]func()
	nextObs   int
	txDepth   int
	txDirty   bool

	// OnOps, when set, receives every locally generated op batch.
	OnOps func(ops []crdt.Op)
}

// NewReplicated creates a replica for the given site id, locally inserting
// the initial text.
func NewReplicated(site uint32, text string) *Replicated {
	r := &Replicated{doc: crdt.NewDoc(site), observers: make(map[int]func())}
	if text != "" {
		r.doc.InsertAt(0, text)
	}
	return r
}

// Get returns the replica's current text.
func (r *Replicated) Get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Text()
}

// Replace substitutes text for the byte range [start, end).
func (r *Replicated) Replace(start, end int, text string) error {
	r.mu.Lock()
	cur := r.doc.Text()
	if start < 0 || end < start || end > len(cur) {
		r.mu.Unlock()
		return ErrRangeOutOfBounds
	}
	runeStart := utf8.RuneCountInString(cur[:start])
	runeLen := utf8.RuneCountInString(cur[start:end])

	var ops []crdt.Op
	ops = append(ops, r.doc.DeleteAt(runeStart, runeLen)...)
	ops = append(ops, r.doc.InsertAt(runeStart, text)...)
	onOps := r.OnOps
	inTx := r.txDepth > 0
	if inTx {
		r.txDirty = true
	}
	r.mu.Unlock()

	if onOps != nil && len(ops) > 0 {
		onOps(ops)
	}
	if !inTx {
		r.notify()
	}
	return nil
}

// ApplyRemote merges ops from another site and notifies observers.
func (r *Replicated) ApplyRemote(ops []crdt.Op) {
	r.mu.Lock()
	r.doc.Apply(ops)
	r.mu.Unlock()
	r.notify()
}

// Observe registers fn and returns its cancel function.
func (r *Replicated) Observe(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextObs
	r.nextObs++
	r.observers[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.observers, id)
	}
}

// Transact runs fn with notifications coalesced into at most one.
func (r *Replicated) Transact(fn func() error) error {
	r.mu.Lock()
	r.txDepth++
	r.mu.Unlock()

	err := fn()

	r.mu.Lock()
	r.txDepth--
	fire := r.txDepth == 0 && r.txDirty
	if fire {
		r.txDirty = false
	}
	r.mu.Unlock()
	if fire {
		r.notify()
	}
	return err
}

func (r *Replicated) notify() {
	r.mu.Lock()
	fns := make([]func(), 0, len(r.observers))
	for _, fn := range r.observers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
