package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCacheFactory creates LRU entity backends.
type LRUCacheFactory struct {
	maxSize int
}

// NewLRUCacheFactory creates a new LRU cache factory holding up to maxSize entities.
func NewLRUCacheFactory(maxSize int) LocalCacheFactory {
	return &LRUCacheFactory{maxSize: maxSize}
}

// Create creates a new LRU cache instance.
func (lcf *LRUCacheFactory) Create() (LocalCache, error) {
	return NewLRUCache(lcf.maxSize)
}

// LRUCache holds entity records in a golang-lru cache. It is the default
// backend: writes are visible to the next read and nothing is refused
// until the size limit evicts the least recently used entity.
type LRUCache struct {
	entities  *lru.Cache[CacheKey, any]
	maxSize   int
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewLRUCache creates an LRU backend holding up to maxSize entities.
func NewLRUCache(maxSize int) (*LRUCache, error) {
	lc := &LRUCache{maxSize: maxSize}

	entities, err := lru.NewWithEvict[CacheKey, any](maxSize, func(CacheKey, any) {
		lc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	lc.entities = entities

	return lc, nil
}

// Get returns the record stored under key.
func (lc *LRUCache) Get(key string) (any, bool) {
	value, found := lc.entities.Get(key)
	if found {
		lc.hits.Add(1)
	} else {
		lc.misses.Add(1)
	}
	return value, found
}

// Set stores a record. cost is ignored; every entity counts as one.
func (lc *LRUCache) Set(key string, value any, _ int64) bool {
	lc.entities.Add(key, value)
	return true
}

// Delete removes a record. Explicit removals are not counted as evictions.
func (lc *LRUCache) Delete(key string) {
	lc.uncounted(func() { lc.entities.Remove(key) })
}

// Clear removes all records. Purged entries are not counted as evictions.
func (lc *LRUCache) Clear() {
	lc.uncounted(lc.entities.Purge)
}

// uncounted runs fn, which golang-lru reports through the eviction
// callback, without changing the eviction count.
func (lc *LRUCache) uncounted(fn func()) {
	before := lc.evictions.Load()
	fn()
	lc.evictions.Store(before)
}

// Close releases the records.
func (lc *LRUCache) Close() {
	lc.Clear()
}

// Len returns the number of records held.
func (lc *LRUCache) Len() int {
	return lc.entities.Len()
}

// Cap returns the configured maximum number of records.
func (lc *LRUCache) Cap() int {
	return lc.maxSize
}

// Metrics returns backend metrics. Size is the number of records held.
func (lc *LRUCache) Metrics() LocalCacheMetrics {
	return LocalCacheMetrics{
		Hits:      lc.hits.Load(),
		Misses:    lc.misses.Load(),
		Evictions: lc.evictions.Load(),
		Size:      int64(lc.entities.Len()),
	}
}
