package cache

import (
	"testing"
)

func TestLFUCacheNew(t *testing.T) {
	cache, err := NewLFUCache(DefaultLocalCacheConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if cache == nil {
		t.Fatal("Cache should not be nil")
	}
}

func TestLFUCacheInvalidConfig(t *testing.T) {
	config := DefaultLocalCacheConfig()
	config.NumCounters = 0
	if _, err := NewLFUCache(config); err == nil {
		t.Fatal("Expected error for zero NumCounters")
	}
}

func TestLFUCacheReadYourWrites(t *testing.T) {
	cache, err := NewLFUCache(DefaultLocalCacheConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if !cache.Set("User:1", Record{"id": "1"}, 1) {
		t.Fatal("Set should succeed")
	}

	// No sleep: Set waits for Ristretto's buffers.
	value, found := cache.Get("User:1")
	if !found {
		t.Fatal("Value should be found immediately after Set")
	}
	if value.(Record)["id"] != "1" {
		t.Fatalf("Unexpected record %v", value)
	}
}

func TestLFUCacheDelete(t *testing.T) {
	cache, err := NewLFUCache(DefaultLocalCacheConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Delete("key1")

	if _, found := cache.Get("key1"); found {
		t.Fatal("Value should not be found after deletion")
	}
}

func TestLFUCacheClear(t *testing.T) {
	cache, err := NewLFUCache(DefaultLocalCacheConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Set("key2", "value2", 1)
	cache.Clear()

	_, found1 := cache.Get("key1")
	_, found2 := cache.Get("key2")
	if found1 || found2 {
		t.Fatal("Cache should be empty after clear")
	}
}

func TestLFUCacheMetrics(t *testing.T) {
	cache, err := NewLFUCache(DefaultLocalCacheConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Set("key2", "value2", 1)
	cache.Get("key1") // Hit
	cache.Get("key3") // Miss

	metrics := cache.Metrics()
	if metrics.Hits != 1 {
		t.Fatalf("Expected 1 hit, got %d", metrics.Hits)
	}
	if metrics.Misses != 1 {
		t.Fatalf("Expected 1 miss, got %d", metrics.Misses)
	}
	if metrics.Size != 2 {
		t.Fatalf("Expected size 2, got %d", metrics.Size)
	}

	cache.Delete("key2")
	cache.Delete("missing")
	metrics = cache.Metrics()
	if metrics.Size != 1 {
		t.Fatalf("Expected size 1 after delete, got %d", metrics.Size)
	}
	if metrics.Evictions != 0 {
		t.Fatalf("Deletes must not count as evictions, got %d", metrics.Evictions)
	}

	cache.Clear()
	metrics = cache.Metrics()
	if metrics.Size != 0 || metrics.Evictions != 0 {
		t.Fatalf("Expected empty metrics after Clear, got %+v", metrics)
	}
}

func TestLFUCacheFactory(t *testing.T) {
	cache, err := NewLFUCacheFactory(DefaultLocalCacheConfig()).Create()
	if err != nil {
		t.Fatalf("Failed to create cache from factory: %v", err)
	}
	defer cache.Close()
}
