package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDialTimeout bounds the connectivity check in NewRedisClient.
const DefaultDialTimeout = 5 * time.Second

// ErrRedisConnection is returned when the Redis server cannot be reached.
var ErrRedisConnection = errors.New("redis connection failed")

// NewRedisClient creates a Redis client and verifies the server answers PING.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), DefaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrRedisConnection, addr, err)
	}

	return client, nil
}
