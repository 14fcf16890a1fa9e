package runtimeconfig

import (
	"testing"
)

func TestInitAndGet(t *testing.T) {
	t.Cleanup(func() { Init(Config{}) })

	Init(Config{IsDevEnv: true})

	if !Get().IsDevEnv {
		t.Fatal("Expected IsDevEnv to be true after Init")
	}
}

func TestInitLastWriterWins(t *testing.T) {
	t.Cleanup(func() { Init(Config{}) })

	Init(Config{IsDevEnv: true})
	Init(Config{IsDevEnv: false})

	if Get().IsDevEnv {
		t.Fatal("Expected the second Init to replace the first")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Cleanup(func() { Init(Config{}) })

	Init(Config{IsDevEnv: true})
	cfg := Get()
	cfg.IsDevEnv = false

	if !Get().IsDevEnv {
		t.Fatal("Mutating the returned value should not change the store")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GQLCACHE_DEV_ENV", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if !cfg.IsDevEnv {
		t.Fatal("Expected IsDevEnv from environment")
	}
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("GQLCACHE_DEV_ENV", "not-a-bool")

	if _, err := FromEnv(); err == nil {
		t.Fatal("Expected error for invalid boolean")
	}
}
