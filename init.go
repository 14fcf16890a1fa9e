package gqlcache

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/huykn/gqlcache/cache"
	"github.com/huykn/gqlcache/runtimeconfig"
	"github.com/huykn/gqlcache/signal"
	"github.com/huykn/gqlcache/storage"
	cachesync "github.com/huykn/gqlcache/sync"
	"github.com/huykn/gqlcache/transport"
)

// Config configures a client.
type Config struct {
	// Endpoint is the GraphQL endpoint URL.
	Endpoint string

	// RESTEndpoint is the base URL @rest paths are resolved against.
	// If empty, documents using @rest fail with transport.ErrNoRESTTransport.
	RESTEndpoint string

	// Transport replaces the HTTP transport built from Endpoint.
	Transport Transport

	// RESTTransport replaces the REST transport built from RESTEndpoint.
	RESTTransport Transport

	// HTTPClient is used by both HTTP transports.
	// If nil, defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Header sets headers on every outgoing request, typically authorization.
	Header transport.HeaderFunc

	// TypePolicies registers key fields and field policies per type name.
	TypePolicies TypePolicies

	// LocalCacheConfig configures the entity backend.
	LocalCacheConfig LocalCacheConfig

	// LocalCacheFactory creates the entity backend.
	// If nil, defaults to an LRU factory.
	LocalCacheFactory LocalCacheFactory

	// Logger is the logger for debug logging.
	// If nil, defaults to no-op logger.
	Logger Logger

	// DebugMode enables debug logging.
	DebugMode bool

	// RuntimeConfig carries environment flags.
	// If nil, runtimeconfig.Get() is used.
	RuntimeConfig *runtimeconfig.Config

	// ContextTimeout bounds each network request. Zero means no bound
	// beyond the caller's context.
	ContextTimeout time.Duration

	// DisableDedup turns off sharing of identical in-flight queries.
	DisableDedup bool

	// PodID is the unique identifier for this client instance.
	// Used to ignore our own invalidations coming back over the relay.
	PodID string

	// RedisAddr enables the invalidation relay when set (e.g., "localhost:6379").
	RedisAddr string

	// RedisPassword is the optional Redis password.
	RedisPassword string

	// RedisDB is the Redis database number.
	RedisDB int

	// InvalidationChannel is the Redis pub/sub channel for auth invalidation.
	InvalidationChannel string

	// SerializationFormat specifies how relay events are encoded ("json" or "msgpack").
	SerializationFormat string

	// OnError is called when an error occurs in background operations.
	OnError func(error)
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		PodID:               uuid.NewString(),
		InvalidationChannel: "gqlcache:invalidate",
		SerializationFormat: "json",
		ContextTimeout:      30 * time.Second,
		TypePolicies:        TypePolicies{},
		LocalCacheConfig:    DefaultLocalCacheConfig(),
		LocalCacheFactory:   nil, // Will default to LRU in New()
		Logger:              nil, // Will default to no-op in New()
		DebugMode:           false,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Endpoint == "" && c.Transport == nil && c.RESTEndpoint == "" && c.RESTTransport == nil {
		return fmt.Errorf("%w: no endpoint or transport", ErrInvalidConfig)
	}
	if c.ContextTimeout < 0 {
		return fmt.Errorf("%w: negative context timeout", ErrInvalidConfig)
	}
	if c.RedisAddr != "" {
		if c.InvalidationChannel == "" {
			return fmt.Errorf("%w: relay needs an invalidation channel", ErrInvalidConfig)
		}
		if _, err := storage.GetSerializer(c.SerializationFormat); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = cache.NewNoOpLogger()
	}
	if cfg.PodID == "" {
		cfg.PodID = uuid.NewString()
	}
	if cfg.LocalCacheConfig == (LocalCacheConfig{}) {
		cfg.LocalCacheConfig = DefaultLocalCacheConfig()
	}

	store, err := cache.New(cache.Options{
		TypePolicies:      cfg.TypePolicies,
		LocalCacheConfig:  cfg.LocalCacheConfig,
		LocalCacheFactory: cfg.LocalCacheFactory,
		Logger:            cfg.Logger,
		DebugMode:         cfg.DebugMode,
		RuntimeConfig:     cfg.RuntimeConfig,
	})
	if err != nil {
		return nil, err
	}

	primary := cfg.Transport
	if primary == nil && cfg.Endpoint != "" {
		primary = transport.NewHTTPTransport(cfg.Endpoint, cfg.HTTPClient, cfg.Header)
	}
	rest := cfg.RESTTransport
	if rest == nil && cfg.RESTEndpoint != "" {
		rest = transport.NewRESTTransport(cfg.RESTEndpoint, cfg.HTTPClient, cfg.Header)
	}

	c := &Client{
		config:   cfg,
		store:    store,
		router:   transport.NewRouter(primary, rest),
		signal:   signal.New(),
		logger:   cfg.Logger,
		requests: make(map[string]int64),
		errors:   make(map[string]int64),
	}

	if cfg.RedisAddr != "" {
		if err := c.startRelay(); err != nil {
			store.Close()
			return nil, err
		}
	}

	return c, nil
}

// startRelay connects to Redis and forwards remote invalidations to the signal.
func (c *Client) startRelay() error {
	client, err := storage.NewRedisClient(c.config.RedisAddr, c.config.RedisPassword, c.config.RedisDB)
	if err != nil {
		return err
	}
	serializer, _ := storage.GetSerializer(c.config.SerializationFormat)
	relay := cachesync.NewPubSubRelay(client, c.config.InvalidationChannel, c.config.PodID, serializer)

	ctx, cancel := c.relayContext()
	defer cancel()
	if err := relay.Subscribe(ctx); err != nil {
		relay.Close()
		client.Close()
		return err
	}
	relay.Forward(c.signal)
	if c.config.DebugMode {
		relay.OnInvalidate(func(event InvalidationEvent) {
			c.logger.Debug("Relay: remote session invalidation", "sender", event.Sender, "tick", event.Tick)
		})
	}

	c.redis = client
	c.relay = relay
	return nil
}

func (c *Client) relayContext() (context.Context, context.CancelFunc) {
	timeout := c.config.ContextTimeout
	if timeout == 0 {
		timeout = storage.DefaultDialTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
