package gqlcache

import (
	"errors"

	"github.com/huykn/gqlcache/storage"
)

// ErrClientClosed is returned when operations are performed on a closed client.
var ErrClientClosed = errors.New("client is closed")

// ErrInvalidConfig is returned when the client configuration is invalid.
var ErrInvalidConfig = errors.New("invalid client configuration")

// ErrCacheMiss is returned by CacheOnly queries the cache cannot answer.
var ErrCacheMiss = errors.New("query not in cache")

// ErrRedisConnection is returned when the invalidation relay cannot reach Redis.
var ErrRedisConnection = storage.ErrRedisConnection
