/*
cache.go - Explicit dashboard cache with invalidation

PURPOSE:
  The status dashboard classifies every item on each request. The
  result only changes when stock moves or items are edited, so the
  handler memoizes it behind an explicit cache object. Invalidation is
  an explicit call wired to the ledger's quantity observer and to the
  item CRUD handlers - never an ambient "data changed" broadcast.
*/
package api

import "sync"

// statusCache memoizes the most-critical-first dashboard rows.
type statusCache struct {
	mu    sync.Mutex
	rows  []StatusDTO
	valid bool
}

// Get returns the cached rows and whether they are usable.
func (c *statusCache) Get() ([]StatusDTO, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil, false
	}
	return c.rows, true
}

// Set stores freshly computed rows.
func (c *statusCache) Set(rows []StatusDTO) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
	c.valid = true
}

// Invalidate drops the cached rows. Called whenever a quantity changes
// or an item is created, edited, or deleted.
func (c *statusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = nil
	c.valid = false
}
