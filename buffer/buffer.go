// Package buffer defines the collaborative text field the document model is
// built on: plain text with observers and atomic transactions. The core
// never assumes anything about how remote replication works; see Replicated
// for a CRDT-backed implementation.
package buffer

import "sync"

// Buffer is a named text field supporting whole-text reads, range
// replacement, change observation and transactions. Two or more edits that
// form one logical operation must run inside Transact so observers never
// see a partially-applied state.
type Buffer interface {
	// Get returns the buffer's full text.
	Get() string
	// Replace substitutes text for the byte range [start, end).
	Replace(start, end int, text string) error
	// Observe registers a change callback and returns its cancel function.
	// Callbacks fire once per Replace outside a transaction, and once per
	// outermost transaction that changed the text.
	Observe(fn func()) (cancel func())
	// Transact runs fn atomically: observers are notified at most once,
	// after fn returns.
	Transact(fn func() error) error
}

// Memory is the in-process Buffer used for local documents and tests.
type Memory struct {
	mu        sync.Mutex
	text      string
	observers map[int]func()
	nextObs   int
	txDepth   int
	txDirty   bool
}

// NewMemory creates a Memory buffer with the given initial text.
func NewMemory(text string) *Memory {
	return &Memory{text: text, observers: make(map[int]func())}
}

// Get returns the buffer's full text.
func (m *Memory) Get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Replace substitutes text for the byte range [start, end).
func (m *Memory) Replace(start, end int, text string) error {
	m.mu.Lock()
	if start < 0 || end < start || end > len(m.text) {
		m.mu.Unlock()
		return ErrRangeOutOfBounds
	}
	m.text = m.text[:start] + text + m.text[end:]
	inTx := m.txDepth > 0
	if inTx {
		m.txDirty = true
	}
	m.mu.Unlock()
	if !inTx {
		m.notify()
	}
	return nil
}

// Observe registers fn and returns its cancel function.
func (m *Memory) Observe(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Transact runs fn with notifications suppressed until the outermost
// transaction ends. Nested transactions coalesce into one notification.
func (m *Memory) Transact(fn func() error) error {
	m.mu.Lock()
	m.txDepth++
	m.mu.Unlock()

	err := fn()

	m.mu.Lock()
	m.txDepth--
	fire := m.txDepth == 0 && m.txDirty
	if fire {
		m.txDirty = false
	}
	m.mu.Unlock()
	if fire {
		m.notify()
	}
	return err
}

func (m *Memory) notify() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SetText replaces a buffer's entire contents with next, issuing a single
// minimal Replace covering only the changed middle. Issuing the smallest
// possible range keeps CRDT-backed buffers from churning unrelated atoms.
func SetText(b Buffer, next string) error {
	cur := b.Get()
	if cur == next {
		return nil
	}
	start := 0
	for start < len(cur) && start < len(next) && cur[start] == next[start] {
		start++
	}
	endCur, endNext := len(cur), len(next)
	for endCur > start && endNext > start && cur[endCur-1] == next[endNext-1] {
		endCur--
		endNext--
	}
	return b.Replace(start, endCur, next[start:endNext])
}
