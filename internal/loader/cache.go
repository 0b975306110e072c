package loader

import (
	"container/list"
	"sync"

	"github.com/randalmurphal/agentry/internal/definition"
)

// DefaultCapacity is the cache capacity when none is configured.
const DefaultCapacity = 20

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Evicted  int64 `json:"evicted"`
}

// cache is an LRU cache of loaded definitions keyed by name.
// Recency is updated on every read hit; inserting over capacity evicts
// exactly the least recently used entry.
type cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List

	hits    int64
	misses  int64
	evicted int64
}

type cacheEntry struct {
	key   string
	value *definition.Definition
}

func newCache(capacity int) *cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &cache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// get retrieves a cached definition, marking it most recently used.
// Returns nil on a miss.
func (c *cache) get(key string) *definition.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		c.hits++
		return el.Value.(*cacheEntry).value
	}
	c.misses++
	return nil
}

// peek is get without touching the hit/miss counters. Used for the
// double-check inside a coalesced load, where the outer get already
// counted the miss.
func (c *cache) peek(key string) *definition.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).value
	}
	return nil
}

// set inserts a definition as most recently used. If the key already
// exists the value is replaced and refreshed; otherwise the LRU entry is
// evicted when at capacity.
func (c *cache) set(key string, value *definition.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.evicted++
		}
	}

	el := c.order.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = el
}

// clear drops all entries. Counters survive so stats stay meaningful
// across an operator-initiated flush.
func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order = list.New()
}

// keys returns the cached names from most to least recently used.
func (c *cache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*cacheEntry).key)
	}
	return out
}

// stats returns a snapshot of the cache counters.
func (c *cache) stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:     c.order.Len(),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
		Evicted:  c.evicted,
	}
}
