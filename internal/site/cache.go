package site

import (
	"context"
	"sync"
)

// CachedTable wraps a Table with an in-memory LRU cache.
type CachedTable struct {
	inner Table
	cache *lruCache
}

// NewCachedTable creates a cache decorator around a site table.
func NewCachedTable(inner Table, maxEntries int) *CachedTable {
	return &CachedTable{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// Lookup implements Table.
func (c *CachedTable) Lookup(ctx context.Context, station string) (Site, error) {
	if s, ok := c.cache.get(station); ok {
		return s, nil
	}
	s, err := c.inner.Lookup(ctx, station)
	if err != nil {
		// Misses are not cached so a station added to the table later is found.
		return s, err
	}
	c.cache.put(station, s)
	return s, nil
}

// lruCache is a simple thread-safe LRU cache of sites.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value Site
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Site, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Site{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Site) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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
