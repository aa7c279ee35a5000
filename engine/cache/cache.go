// Package cache implements the bounded LRU response cache, keyed by node
// id, template id, and a fingerprint of the node's relevant state slice.
//
// Dialogue state spaces are small and reuse is high, so a
// least-recently-used bound fits; the fingerprint keys entries by value,
// and an explicit per-node invalidation index handles mutation-driven
// drops. A single mutex serializes access — contention stays low at
// typical hit rates.
package cache

import (
	"container/list"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 256

// Key identifies one rendered response.
type Key struct {
	Node        string
	Template    string
	Fingerprint uint64
}

// Entry is a cached resolution product.
type Entry struct {
	Text   string
	Target string // resolved target node id
}

type item struct {
	key   Key
	entry Entry
}

// Cache is a bounded LRU response cache. Safe for concurrent use across
// sessions sharing one engine.
type Cache struct {
	mu     sync.Mutex
	max    int
	ll     *list.List // front = most recently used
	items  map[Key]*list.Element
	byNode map[string]map[Key]struct{}

	flight  singleflight.Group
	metrics *Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics attaches hit/miss/eviction counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a cache bounded to maxEntries. Zero or negative falls back
// to DefaultMaxEntries.
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		max:    maxEntries,
		ll:     list.New(),
		items:  map[Key]*list.Element{},
		byNode: map[string]map[Key]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached entry for key, marking it most recently used.
func (c *Cache) Get(k Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		c.metrics.miss()
		return Entry{}, false
	}
	c.ll.MoveToFront(el)
	c.metrics.hit()
	return el.Value.(*item).entry, true
}

// Put inserts or refreshes an entry, evicting the least-recently-used
// entry when the bound is exceeded.
func (c *Cache) Put(k Key, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[k]; ok {
		el.Value.(*item).entry = e
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&item{key: k, entry: e})
	c.items[k] = el
	nodeSet, ok := c.byNode[k.Node]
	if !ok {
		nodeSet = map[Key]struct{}{}
		c.byNode[k.Node] = nodeSet
	}
	nodeSet[k] = struct{}{}

	if c.ll.Len() > c.max {
		c.evictOldest()
	}
}

// Invalidate drops every cached entry for a node. Returns the number of
// entries removed.
func (c *Cache) Invalidate(node string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, ok := c.byNode[node]
	if !ok {
		return 0
	}
	n := 0
	for k := range keys {
		if el, ok := c.items[k]; ok {
			c.ll.Remove(el)
			delete(c.items, k)
			n++
		}
	}
	delete(c.byNode, node)
	return n
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// GetOrRender returns the cached entry for key, rendering and inserting it
// on a miss. Concurrent misses on the same key render once — the others
// wait for the in-flight render rather than duplicating the work.
func (c *Cache) GetOrRender(k Key, renderFn func() Entry) Entry {
	if e, ok := c.Get(k); ok {
		return e
	}
	v, _, _ := c.flight.Do(flightKey(k), func() (any, error) {
		// Recheck under the flight: a concurrent caller may have filled it.
		if e, ok := c.Get(k); ok {
			return e, nil
		}
		e := renderFn()
		c.Put(k, e)
		return e, nil
	})
	return v.(Entry)
}

// evictOldest removes the back of the list. Caller holds the lock.
func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	it := el.Value.(*item)
	c.ll.Remove(el)
	delete(c.items, it.key)
	if nodeSet, ok := c.byNode[it.key.Node]; ok {
		delete(nodeSet, it.key)
		if len(nodeSet) == 0 {
			delete(c.byNode, it.key.Node)
		}
	}
	c.metrics.eviction()
}

func flightKey(k Key) string {
	return k.Node + "\x00" + k.Template + "\x00" + strconv.FormatUint(k.Fingerprint, 16)
}
