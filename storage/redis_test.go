package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("localhost:6379", "", 0)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Client should be able to ping Redis: %v", err)
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	// Port 1 is reserved and refuses connections on any sane host.
	_, err := NewRedisClient("127.0.0.1:1", "", 0)
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if !errors.Is(err, ErrRedisConnection) {
		t.Fatalf("Expected ErrRedisConnection, got %v", err)
	}
}
