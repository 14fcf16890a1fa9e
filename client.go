package gqlcache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/huykn/gqlcache/cache"
	"github.com/huykn/gqlcache/document"
	"github.com/huykn/gqlcache/failure"
	"github.com/huykn/gqlcache/metrics"
	"github.com/huykn/gqlcache/signal"
	cachesync "github.com/huykn/gqlcache/sync"
	"github.com/huykn/gqlcache/transport"
	"github.com/huykn/gqlcache/types"
)

// FetchPolicy decides whether a query is answered from the cache, the network or both.
type FetchPolicy int

const (
	// CacheFirst answers from the cache and goes to the network on a miss.
	CacheFirst FetchPolicy = iota
	// NetworkOnly always goes to the network and writes the result to the cache.
	NetworkOnly
	// CacheOnly answers from the cache or fails with ErrCacheMiss.
	CacheOnly
)

func (p FetchPolicy) String() string {
	switch p {
	case CacheFirst:
		return "cache-first"
	case NetworkOnly:
		return "network-only"
	case CacheOnly:
		return "cache-only"
	}
	return "unknown"
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	policy FetchPolicy
}

// WithFetchPolicy sets the fetch policy of a query. Defaults to CacheFirst.
func WithFetchPolicy(p FetchPolicy) QueryOption {
	return func(o *queryOptions) { o.policy = p }
}

// Result is the outcome of a query or mutation.
type Result struct {
	Data map[string]any
	// Errors are server errors returned next to partial data.
	Errors transport.GraphQLErrors
	// Route is the transport that served the result. Unset for cache hits.
	Route Route
	// FromCache reports whether Data was read from the cache.
	FromCache bool
}

// Client executes operations through the transport router and keeps their
// results in a normalized cache.
//
// Every error returned by Query, Mutate and InvalidateSession is a
// *failure.Error. Unauthenticated failures tick AuthSignal.
type Client struct {
	config Config
	store  *cache.Store
	router *transport.Router
	signal *signal.Signal
	logger Logger
	group  singleflight.Group

	redis *redis.Client
	relay *cachesync.PubSubRelay

	closed    int32
	dedupHits int64

	countersMu sync.Mutex
	requests   map[string]int64
	errors     map[string]int64
}

// Query runs a query operation.
func (c *Client) Query(ctx context.Context, req Request, opts ...QueryOption) (*Result, error) {
	o := queryOptions{policy: CacheFirst}
	for _, opt := range opts {
		opt(&o)
	}

	if c.isClosed() {
		return nil, failure.Normalize(ErrClientClosed)
	}
	q, err := c.prepare(&req)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	if o.policy != NetworkOnly {
		if data, ok := c.store.ReadQuery(q); ok {
			return &Result{Data: data, FromCache: true}, nil
		}
		if o.policy == CacheOnly {
			return nil, c.fail(ctx, ErrCacheMiss)
		}
	}

	if c.config.DisableDedup {
		return c.settle(ctx, c.execute(ctx, req, q))
	}

	v, _, shared := c.group.Do(c.dedupKey(req), func() (any, error) {
		return c.execute(ctx, req, q), nil
	})
	if shared {
		atomic.AddInt64(&c.dedupHits, 1)
	}
	return c.settle(ctx, v.(*outcome))
}

// Mutate runs a mutation. It always goes to the network; entities in the
// result update the cache.
func (c *Client) Mutate(ctx context.Context, req Request) (*Result, error) {
	if c.isClosed() {
		return nil, failure.Normalize(ErrClientClosed)
	}
	q, err := c.prepare(&req)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	return c.settle(ctx, c.execute(ctx, req, q))
}

func (c *Client) prepare(req *Request) (cache.Query, error) {
	if req.Document == nil {
		doc, err := document.Parse(req.Query)
		if err != nil {
			return cache.Query{}, err
		}
		req.Document = doc
	}
	if _, err := document.Operation(req.Document, req.OperationName); err != nil {
		return cache.Query{}, err
	}
	return cache.Query{
		Document:      req.Document,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	}, nil
}

// outcome is the result of one network execution, shared by every caller
// deduplicated onto it.
type outcome struct {
	res  *Result
	err  error
	once sync.Once
	// unauthenticated is set when the response says the session is no longer trusted.
	unauthenticated bool
}

// execute runs req on the network and writes its data through the store.
// The auth signal is ticked by settle, after the call has left the
// singleflight group.
func (c *Client) execute(ctx context.Context, req Request, q cache.Query) *outcome {
	if c.config.ContextTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ContextTimeout)
		defer cancel()
	}

	t, route, err := c.router.Select(req.Document)
	if err != nil {
		return c.failed(err)
	}
	resp, err := t.Execute(ctx, &req)
	c.count(c.requests, route.String())
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return c.failed(err)
	}

	if resp.Data == nil && len(resp.Errors) > 0 {
		return c.failed(resp.Errors)
	}
	o := &outcome{res: &Result{Data: resp.Data, Errors: resp.Errors, Route: route}}
	if len(resp.Errors) > 0 && failure.IsUnauthenticated(failure.Normalize(resp.Errors)) {
		o.unauthenticated = true
	}

	if resp.Data != nil {
		if err := c.store.WriteQuery(q, resp.Data); err != nil && c.config.DebugMode {
			c.logger.Warn("Query: result not cached", "operation", req.OperationName, "error", err)
		}
	}

	if c.config.DebugMode {
		c.logger.Debug("Query: executed", "operation", req.OperationName, "route", route.String(), "errors", len(resp.Errors))
	}
	return o
}

func (c *Client) failed(err error) *outcome {
	fe := c.record(err)
	return &outcome{err: fe, unauthenticated: failure.IsUnauthenticated(fe)}
}

// settle ticks the auth signal at most once per outcome and unwraps it.
func (c *Client) settle(ctx context.Context, o *outcome) (*Result, error) {
	if o.unauthenticated {
		o.once.Do(func() { c.invalidate(ctx) })
	}
	if o.err != nil {
		return nil, o.err
	}
	return o.res, nil
}

// fail normalizes err, records it and ticks the auth signal when the
// session is no longer trusted.
func (c *Client) fail(ctx context.Context, err error) *failure.Error {
	fe := c.record(err)
	if failure.IsUnauthenticated(fe) {
		c.invalidate(ctx)
	}
	return fe
}

// record normalizes err and counts it by kind.
func (c *Client) record(err error) *failure.Error {
	fe := failure.Normalize(err)
	c.count(c.errors, fe.Kind.String())
	if c.config.DebugMode {
		c.logger.Debug("Query: failed", "kind", fe.Kind.String(), "status", fe.StatusCode, "error", fe.Message)
	}
	return fe
}

// dedupKey identifies identical requests: same operation, text and variables.
func (c *Client) dedupKey(req Request) string {
	query := req.Query
	if query == "" {
		query = document.Print(req.Document)
	}
	h := xxhash.New()
	h.WriteString(req.OperationName)
	h.Write([]byte{0})
	h.WriteString(query)
	h.Write([]byte{0})
	if vars, err := json.Marshal(req.Variables); err == nil {
		h.Write(vars)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// AuthSignal returns the auth invalidation signal. Subscribers are notified
// whenever the session stops being trusted, locally or on a relayed instance.
func (c *Client) AuthSignal() *signal.Signal {
	return c.signal
}

// InvalidateSession ticks the auth signal and, when the relay is enabled,
// tells the other instances to do the same.
func (c *Client) InvalidateSession(ctx context.Context) error {
	if c.isClosed() {
		return failure.Normalize(ErrClientClosed)
	}
	if err := c.invalidate(ctx); err != nil {
		return failure.Normalize(err)
	}
	return nil
}

func (c *Client) invalidate(ctx context.Context) error {
	tick := c.signal.Tick()
	if c.config.DebugMode {
		c.logger.Debug("Auth: session invalidated", "tick", tick)
	}
	if c.relay == nil {
		return nil
	}

	// Publishing must not be cut short by a request that already failed.
	ctx, cancel := c.relayContext()
	defer cancel()
	err := c.relay.Publish(ctx, InvalidationEvent{
		Sender: c.config.PodID,
		Action: types.SessionInvalidated,
		Tick:   tick,
	})
	if err != nil {
		c.logger.Error("Auth: relay publish failed", "tick", tick, "error", err)
		if c.config.OnError != nil {
			c.config.OnError(err)
		}
	}
	return err
}

// ResetStore drops every cached entity.
func (c *Client) ResetStore() error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.store.Reset()
}

// Store returns the normalized cache, for direct reads and writes.
func (c *Client) Store() *cache.Store {
	return c.store
}

// Stats returns client statistics.
func (c *Client) Stats() Stats {
	c.countersMu.Lock()
	requests := make(map[string]int64, len(c.requests))
	for k, v := range c.requests {
		requests[k] = v
	}
	errs := make(map[string]int64, len(c.errors))
	for k, v := range c.errors {
		errs[k] = v
	}
	c.countersMu.Unlock()

	return Stats{
		Cache:            c.store.Stats(),
		Requests:         requests,
		Errors:           errs,
		DedupHits:        atomic.LoadInt64(&c.dedupHits),
		InvalidationTick: c.signal.Read(),
	}
}

// Collector returns a Prometheus collector over Stats.
func (c *Client) Collector() *metrics.Collector {
	return metrics.NewCollector(c.Stats)
}

// Close closes the client: the relay, the Redis connection and the cache.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	var errs []error
	if c.relay != nil {
		errs = append(errs, c.relay.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) count(m map[string]int64, key string) {
	c.countersMu.Lock()
	m[key]++
	c.countersMu.Unlock()
}
