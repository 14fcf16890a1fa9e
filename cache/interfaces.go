package cache

// Logger defines the interface for logging in the client.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)

	// Info logs an info message.
	Info(msg string, args ...any)

	// Warn logs a warning message.
	Warn(msg string, args ...any)

	// Error logs an error message.
	Error(msg string, args ...any)
}

// LocalCache is the in-process backend holding normalized entity records.
// Implementations must be safe for concurrent use.
type LocalCache interface {
	// Get retrieves a value from the local cache.
	Get(key string) (any, bool)

	// Set stores a value in the local cache.
	Set(key string, value any, cost int64) bool

	// Delete removes a value from the local cache.
	Delete(key string)

	// Clear removes all values from the local cache.
	Clear()

	// Close closes the local cache.
	Close()

	// Metrics returns cache metrics.
	Metrics() LocalCacheMetrics
}

// LocalCacheMetrics represents local cache metrics.
type LocalCacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64 // records currently held
}

// LocalCacheFactory defines the interface for creating local cache implementations.
type LocalCacheFactory interface {
	// Create creates a new local cache instance.
	Create() (LocalCache, error)
}

// Stats represents store statistics.
type Stats struct {
	ReadHits   int64 // ReadQuery calls fully answered from the cache
	ReadMisses int64
	Writes     int64 // WriteQuery calls
	Merges     int64 // Merge policy invocations
	Evictions  int64 // entities dropped by the local cache backend
	Entities   int64 // entities currently held
}
