// Package pathcache stores resolved routes keyed by their endpoint nodes.
package pathcache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/pathfind"
)

// Key identifies a route by its ordered (start, goal) node pair.
type Key struct {
	Start, Goal navmesh.NodeID
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Len       int
	Capacity  int
}

// Cache is a fixed-capacity LRU of routes.
// Thread-safe: the index map and the recency list are updated under one
// mutex, so every operation is linearizable.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[Key]*list.Element
	order    *list.List // front = most recently used

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry struct {
	key   Key
	route pathfind.Route
}

// New creates a cache holding at most capacity routes.
// Panics if capacity < 1.
func New(capacity int) *Cache {
	if capacity < 1 {
		panic(fmt.Sprintf("pathcache: capacity must be positive, got %d", capacity))
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[Key]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the route stored under key and marks it most recently used.
// The returned route is shared and must not be modified.
func (c *Cache) Get(key Key) (pathfind.Route, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return pathfind.Route{}, false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	return el.Value.(*entry).route, true
}

// Put stores route under key and marks it most recently used. Inserting a new
// key into a full cache first evicts the least recently used entry.
// The cache keeps its own copy of the node slice.
func (c *Cache) Put(key Key, route pathfind.Route) {
	stored := pathfind.Route{
		Nodes: append([]navmesh.NodeID(nil), route.Nodes...),
		Cost:  route.Cost,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).route = stored
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.order.PushFront(&entry{key: key, route: stored})
}

// evictOldest removes the least recently used entry. Caller holds mu.
func (c *Cache) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.evictions.Add(1)
}

// Contains reports whether key is cached without touching its recency.
func (c *Cache) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Keys returns all keys from most to least recently used.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}

// Len returns the number of cached routes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the capacity.
func (c *Cache) Cap() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.Len(),
		Capacity:  c.capacity,
	}
}
