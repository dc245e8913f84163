package dataset

import "sync"

// Cache guards the current consolidated dataset for concurrent readers.
// Base tables are immutable once set; a reload swaps the whole pair.
// Invalidation is explicit, driven by the data-directory watcher or the
// operator.
type Cache struct {
	mu     sync.RWMutex
	ds     *Dataset
	report *Report
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Set replaces the current dataset and report.
func (c *Cache) Set(ds *Dataset, report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ds = ds
	c.report = report
}

// Current returns the current dataset and report, with ok=false before the
// first successful load or after invalidation.
func (c *Cache) Current() (*Dataset, *Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ds, c.report, c.ds != nil
}

// Invalidate drops the current dataset so the next reader sees no data
// until a reload completes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ds = nil
	c.report = nil
}
