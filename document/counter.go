package document

import "sync"

// Counter hands out running-number anchors. It replaces the usual global
// id counter with an explicit generator: seeded once from the document's
// max existing anchor, passed to whoever mints ids.
type Counter struct {
	mu sync.Mutex
	n  int
}

// NewCounter creates a counter that will hand out seed+1 first.
func NewCounter(seed int) *Counter {
	return &Counter{n: seed}
}

// Next returns the next anchor number.
func (c *Counter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Reset re-seeds the counter, e.g. after loading a different document.
func (c *Counter) Reset(seed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = seed
}
