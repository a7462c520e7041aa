package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/Continy/ShipTrackViz/internal/observability"
	"github.com/Continy/ShipTrackViz/internal/schema"
)

// CachedInferrer wraps a RoleInferrer with an in-memory LRU cache keyed on
// the header list. Distinct files exported by the same sensor suite share
// headers, so repeated inference calls are common.
type CachedInferrer struct {
	inner   schema.RoleInferrer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedInferrer creates a cache decorator around an inferrer.
func NewCachedInferrer(inner schema.RoleInferrer, maxEntries int, metrics *observability.Metrics) *CachedInferrer {
	return &CachedInferrer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedInferrer) InferRoles(ctx context.Context, headers []string) (map[string]int, error) {
	key := strings.Join(headers, "\x1f")
	if roles, ok := c.cache.get(key); ok {
		c.metrics.InferenceCache.WithLabelValues("hit").Inc()
		return roles, nil
	}
	c.metrics.InferenceCache.WithLabelValues("miss").Inc()

	roles, err := c.inner.InferRoles(ctx, headers)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty maps so a transiently confused model can be retried.
	if len(roles) > 0 {
		c.cache.put(key, roles)
	}
	return roles, nil
}

// lruCache is a simple thread-safe LRU cache for role maps.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value map[string]int
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (map[string]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return copyRoles(e.value), true
}

func (c *lruCache) put(key string, value map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = copyRoles(value)
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: copyRoles(value)}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

// copyRoles guards cached maps against caller mutation.
func copyRoles(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
