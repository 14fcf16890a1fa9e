package cache

import (
	"errors"

	"github.com/huykn/gqlcache/runtimeconfig"
)

// LocalCacheConfig configures the local cache.
type LocalCacheConfig struct {
	// NumCounters is the number of counters for the cache (Ristretto only).
	// Recommended: 10 * MaxItems
	NumCounters int64

	// MaxCost is the maximum cost of items in the cache (Ristretto only).
	// Each entity record costs 1.
	MaxCost int64

	// BufferItems is the number of items to buffer before eviction (Ristretto only).
	// Recommended: 64
	BufferItems int64

	// IgnoreInternalCost ignores the internal cost of items (Ristretto only).
	IgnoreInternalCost bool

	// MaxSize is the maximum number of entities in the cache (LRU only).
	MaxSize int
}

// Options configures a Store.
type Options struct {
	// TypePolicies registers key fields and field policies per type name.
	TypePolicies TypePolicies

	// LocalCacheConfig configures the entity backend.
	LocalCacheConfig LocalCacheConfig

	// LocalCacheFactory creates the entity backend.
	// If nil, defaults to an LRU factory sized by LocalCacheConfig.MaxSize.
	LocalCacheFactory LocalCacheFactory

	// Logger is the logger for debug logging.
	// If nil, defaults to no-op logger.
	Logger Logger

	// DebugMode enables debug logging.
	DebugMode bool

	// RuntimeConfig carries environment flags. If nil, runtimeconfig.Get()
	// is consulted once when the store is created.
	RuntimeConfig *runtimeconfig.Config
}

// DefaultOptions returns default store options.
func DefaultOptions() Options {
	return Options{
		TypePolicies:      TypePolicies{},
		LocalCacheConfig:  DefaultLocalCacheConfig(),
		LocalCacheFactory: nil, // Will default to LRU in New()
		Logger:            nil, // Will default to no-op in New()
		DebugMode:         false,
	}
}

// DefaultLocalCacheConfig returns default local cache configuration.
func DefaultLocalCacheConfig() LocalCacheConfig {
	return LocalCacheConfig{
		NumCounters:        1e6,
		MaxCost:            1e5,
		BufferItems:        64,
		IgnoreInternalCost: true,
		MaxSize:            10000,
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	if o.LocalCacheFactory == nil && o.LocalCacheConfig.MaxSize <= 0 {
		return ErrInvalidConfig
	}
	for typename, tp := range o.TypePolicies {
		if typename == "" {
			return ErrInvalidConfig
		}
		for _, f := range tp.KeyFields {
			if f == "" {
				return ErrInvalidConfig
			}
		}
	}
	return nil
}

// ErrInvalidConfig is returned when options are invalid.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// ErrStoreClosed is returned when operations are performed on a closed store.
var ErrStoreClosed = errors.New("cache store is closed")
