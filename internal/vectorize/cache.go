package vectorize

import (
	"container/list"
	"sync"

	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/vector"
)

// QueryCache is an LRU cache of query vectors keyed by query text.
type QueryCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value vector.Sparse
}

// NewQueryCache creates a new cache with the given capacity.
func NewQueryCache(capacity int) *QueryCache {
	return &QueryCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns a copy of the cached vector for key if present.
func (c *QueryCache) Get(key string) (vector.Sparse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		metrics.QueryCacheHits.Inc()
		return elem.Value.(*cacheEntry).value.Clone(), true
	}
	metrics.QueryCacheMisses.Inc()
	return vector.Sparse{}, false
}

// Set stores the vector for key, evicting the oldest entry if at capacity.
func (c *QueryCache) Set(key string, value vector.Sparse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = value.Clone()
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len is the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
