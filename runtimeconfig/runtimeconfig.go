// Package runtimeconfig holds process-wide environment flags.
//
// Init is expected to run once at startup. Components that take a Config in
// their options should prefer that over Get; Get exists for call sites that
// have no way to receive one.
package runtimeconfig

import (
	"errors"
	"sync/atomic"

	"github.com/joeshaw/envdecode"
)

// Config holds the environment flags consulted by the client.
type Config struct {
	// IsDevEnv enables development diagnostics.
	IsDevEnv bool `env:"GQLCACHE_DEV_ENV,default=false,strict"`
}

var current atomic.Pointer[Config]

// Init replaces the process-wide config. The last call wins; values are not merged.
func Init(cfg Config) {
	current.Store(&cfg)
}

// Get returns the current config, or the zero Config before Init.
func Get() Config {
	if cfg := current.Load(); cfg != nil {
		return *cfg
	}
	return Config{}
}

// FromEnv decodes a Config from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, err
	}
	return cfg, nil
}
