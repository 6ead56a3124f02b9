package state

import (
	"sort"
	"sync"

	"hue-bus-bridge/internal/domain/model"
)

// Cache holds the last published attribute values per routing key. Entries
// are created on first observation and never removed.
type Cache struct {
	entries map[string]*model.CacheEntry
	mu      sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*model.CacheEntry)}
}

// Lookup returns a copy of the entry stored under key.
func (c *Cache) Lookup(key string) (model.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return model.CacheEntry{}, false
	}
	return copyEntry(e), true
}

// LightKeys returns every cached light routing key, sorted.
func (c *Cache) LightKeys() []string {
	return c.keysOf(model.DeviceKindLight)
}

func (c *Cache) GroupKeys() []string {
	return c.keysOf(model.DeviceKindGroup)
}

func (c *Cache) keysOf(kind model.DeviceKind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if e.Kind == kind {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Entries returns copies of all entries ordered by routing key.
func (c *Cache) Entries() []model.CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.CacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoutingKey < out[j].RoutingKey })
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// update runs fn against the entry for key, creating it if needed.
func (c *Cache) update(key string, kind model.DeviceKind, bridgeID string, fn func(e *model.CacheEntry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &model.CacheEntry{
			RoutingKey:     key,
			LastAttributes: make(map[string]model.Scalar),
		}
		c.entries[key] = e
	}
	e.Kind = kind
	e.BridgeID = bridgeID
	fn(e)
}

func copyEntry(e *model.CacheEntry) model.CacheEntry {
	cp := *e
	cp.LastAttributes = make(map[string]model.Scalar, len(e.LastAttributes))
	for k, v := range e.LastAttributes {
		cp.LastAttributes[k] = v
	}
	return cp
}
