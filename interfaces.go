package gqlcache

import (
	"go.uber.org/zap"

	"github.com/huykn/gqlcache/cache"
	"github.com/huykn/gqlcache/failure"
	"github.com/huykn/gqlcache/metrics"
	"github.com/huykn/gqlcache/transport"
	"github.com/huykn/gqlcache/types"
)

// Logger is an alias for cache.Logger.
type Logger = cache.Logger

// LocalCache is an alias for cache.LocalCache.
type LocalCache = cache.LocalCache

// LocalCacheMetrics is an alias for cache.LocalCacheMetrics.
type LocalCacheMetrics = cache.LocalCacheMetrics

// LocalCacheFactory is an alias for cache.LocalCacheFactory.
type LocalCacheFactory = cache.LocalCacheFactory

// LocalCacheConfig is an alias for cache.LocalCacheConfig.
type LocalCacheConfig = cache.LocalCacheConfig

// TypePolicies is an alias for cache.TypePolicies.
type TypePolicies = cache.TypePolicies

// TypePolicy is an alias for cache.TypePolicy.
type TypePolicy = cache.TypePolicy

// FieldPolicy is an alias for cache.FieldPolicy.
type FieldPolicy = cache.FieldPolicy

// MergeContext is an alias for cache.MergeContext.
type MergeContext = cache.MergeContext

// ReadContext is an alias for cache.ReadContext.
type ReadContext = cache.ReadContext

// CacheKey is an alias for cache.CacheKey.
type CacheKey = cache.CacheKey

// PaginationConfig is an alias for cache.PaginationConfig.
type PaginationConfig = cache.PaginationConfig

// Request is an alias for transport.Request.
type Request = transport.Request

// Transport is an alias for transport.Transport.
type Transport = transport.Transport

// Route is an alias for transport.Route.
type Route = transport.Route

// Error is an alias for failure.Error.
type Error = failure.Error

// InvalidationEvent is an alias for types.InvalidationEvent.
type InvalidationEvent = types.InvalidationEvent

// Stats is an alias for metrics.Snapshot.
type Stats = metrics.Snapshot

// DefaultLocalCacheConfig returns default local cache configuration.
func DefaultLocalCacheConfig() LocalCacheConfig {
	return cache.DefaultLocalCacheConfig()
}

// OffsetLimitPagination returns a field policy merging offset/count pages.
func OffsetLimitPagination(cfg PaginationConfig) FieldPolicy {
	return cache.OffsetLimitPagination(cfg)
}

// NewZapLogger adapts a zap logger to Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return cache.NewZapLogger(l)
}
