// Package viewcache caches rendered view payloads (dashboard, invoice
// list, analysis) per user. Aggregate totals on those views are recomputed
// from the full table, so invalidation is view-level rather than
// fine-grained: any write to a user's data drops all of that user's
// cached views.
package viewcache

import "sync"

// Cache is a per-user view cache safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]map[string]any
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]map[string]any)}
}

// Get returns the cached payload for (userID, key), if present.
func (c *Cache) Get(userID, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	views, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	v, ok := views[key]
	return v, ok
}

// Set stores the payload for (userID, key).
func (c *Cache) Set(userID, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	views, ok := c.entries[userID]
	if !ok {
		views = make(map[string]any)
		c.entries[userID] = views
	}
	views[key] = value
}

// Invalidate drops every cached view for the given users.
func (c *Cache) Invalidate(userIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.entries, id)
	}
}
