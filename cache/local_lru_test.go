package cache

import (
	"testing"
)

func TestLRUCacheNew(t *testing.T) {
	cache, err := NewLRUCache(100)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if cache.Cap() != 100 {
		t.Fatalf("Expected capacity 100, got %d", cache.Cap())
	}
}

func TestLRUCacheNewWithInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewLRUCache(size); err == nil {
			t.Fatalf("Expected error when creating cache with size %d", size)
		}
	}
}

func TestLRUCacheSetGetDelete(t *testing.T) {
	cache, err := NewLRUCache(100)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	record := Record{"__typename": "User", "id": "1"}
	if !cache.Set("User:1", record, 1) {
		t.Fatal("Set should succeed")
	}

	value, found := cache.Get("User:1")
	if !found {
		t.Fatal("Value should be found")
	}
	if value.(Record)["id"] != "1" {
		t.Fatalf("Unexpected record %v", value)
	}

	cache.Delete("User:1")
	if _, found := cache.Get("User:1"); found {
		t.Fatal("Value should not be found after deletion")
	}

	// Should not panic
	cache.Delete("nonexistent")
}

func TestLRUCacheClear(t *testing.T) {
	cache, err := NewLRUCache(100)
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
	if cache.Len() != 0 {
		t.Fatalf("Expected Len 0, got %d", cache.Len())
	}
}

func TestLRUCacheMetrics(t *testing.T) {
	cache, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", "value1", 1)
	cache.Get("key1") // Hit
	cache.Get("key2") // Miss
	cache.Set("key2", "value2", 1)
	cache.Set("key3", "value3", 1) // Evicts key1

	metrics := cache.Metrics()
	if metrics.Hits != 1 {
		t.Fatalf("Expected 1 hit, got %d", metrics.Hits)
	}
	if metrics.Misses != 1 {
		t.Fatalf("Expected 1 miss, got %d", metrics.Misses)
	}
	if metrics.Evictions != 1 {
		t.Fatalf("Expected 1 eviction, got %d", metrics.Evictions)
	}
	if metrics.Size != 2 {
		t.Fatalf("Expected size 2, got %d", metrics.Size)
	}

	cache.Clear()
	if got := cache.Metrics(); got.Evictions != 1 || got.Size != 0 {
		t.Fatalf("Clear should empty the cache without counting evictions, got %+v", got)
	}
}

func TestLRUCacheFactoryCreate(t *testing.T) {
	factory := NewLRUCacheFactory(50)
	cache, err := factory.Create()
	if err != nil {
		t.Fatalf("Failed to create cache from factory: %v", err)
	}
	defer cache.Close()

	cache.Set("test", "value", 1)
	value, found := cache.Get("test")
	if !found || value != "value" {
		t.Fatalf("Expected 'value', got %v", value)
	}
}
