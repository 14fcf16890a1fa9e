package cache

import (
	"sync/atomic"

	lfu "github.com/dgraph-io/ristretto"
)

// LFUCacheFactory creates Ristretto entity backends.
type LFUCacheFactory struct {
	config LocalCacheConfig
}

// NewLFUCacheFactory creates a new Ristretto cache factory.
func NewLFUCacheFactory(config LocalCacheConfig) LocalCacheFactory {
	return &LFUCacheFactory{config: config}
}

// Create creates a new Ristretto cache instance.
func (rcf *LFUCacheFactory) Create() (LocalCache, error) {
	return NewLFUCache(rcf.config)
}

// LFUCache holds entity records in a Ristretto cache.
//
// Ristretto applies writes asynchronously and may refuse admission under
// pressure. Set waits for its buffers to drain so a record written by the
// store is visible to the next read; a refused record reads as a miss.
type LFUCache struct {
	entities  *lfu.Cache
	evictions atomic.Int64
}

// NewLFUCache creates a new Ristretto-based entity backend.
func NewLFUCache(config LocalCacheConfig) (*LFUCache, error) {
	rc := &LFUCache{}
	entities, err := lfu.NewCache(&lfu.Config{
		NumCounters:        config.NumCounters,
		MaxCost:            config.MaxCost,
		BufferItems:        config.BufferItems,
		IgnoreInternalCost: config.IgnoreInternalCost,
		Metrics:            true,
		// Called for capacity evictions and Clear, never for Del.
		OnEvict: func(*lfu.Item) { rc.evictions.Add(1) },
	})
	if err != nil {
		return nil, err
	}
	rc.entities = entities
	return rc, nil
}

// Get returns the record stored under key.
func (rc *LFUCache) Get(key string) (any, bool) {
	return rc.entities.Get(key)
}

// Set stores a record with the given cost and waits until it is applied.
func (rc *LFUCache) Set(key string, value any, cost int64) bool {
	ok := rc.entities.Set(key, value, cost)
	rc.entities.Wait()
	return ok
}

// Delete removes a record.
func (rc *LFUCache) Delete(key string) {
	rc.entities.Del(key)
	rc.entities.Wait()
}

// Clear removes all records and resets the metrics.
func (rc *LFUCache) Clear() {
	rc.entities.Clear()
	rc.evictions.Store(0)
}

// Close stops Ristretto's background goroutines.
func (rc *LFUCache) Close() {
	rc.entities.Close()
}

// Metrics returns backend metrics read from Ristretto. Ristretto counts
// deletions as evicted keys, so Size is derived from its counters while
// Evictions only reports records dropped for capacity.
func (rc *LFUCache) Metrics() LocalCacheMetrics {
	m := rc.entities.Metrics
	size := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if size < 0 {
		size = 0
	}
	return LocalCacheMetrics{
		Hits:      int64(m.Hits()),
		Misses:    int64(m.Misses()),
		Evictions: rc.evictions.Load(),
		Size:      size,
	}
}
