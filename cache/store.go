package cache

import (
	"sync"
	"sync/atomic"

	"github.com/huykn/gqlcache/document"
	"github.com/huykn/gqlcache/runtimeconfig"
	"github.com/vektah/gqlparser/v2/ast"
)

// Query identifies the operation and variables of a read or write.
type Query struct {
	Document      *ast.QueryDocument
	OperationName string
	Variables     map[string]any
}

// Store is a normalized object cache. Objects that can be identified are
// stored once under their CacheKey and referenced from their parents; field
// policies control how values are keyed, merged and read back.
//
// Writes are serialized: a response is merged completely before the next
// one starts, so overlapping writes resolve by last merge wins.
type Store struct {
	local    LocalCache
	policies TypePolicies
	logger   Logger
	options  Options
	devEnv   bool

	mu     sync.RWMutex
	closed int32

	readHits   int64
	readMisses int64
	writes     int64
	merges     int64
}

// New creates a new Store instance.
func New(opts Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.LocalCacheFactory == nil {
		opts.LocalCacheFactory = NewLRUCacheFactory(opts.LocalCacheConfig.MaxSize)
	}
	if opts.Logger == nil {
		opts.Logger = NewNoOpLogger()
	}
	if opts.TypePolicies == nil {
		opts.TypePolicies = TypePolicies{}
	}
	rc := runtimeconfig.Get()
	if opts.RuntimeConfig != nil {
		rc = *opts.RuntimeConfig
	}

	local, err := opts.LocalCacheFactory.Create()
	if err != nil {
		return nil, err
	}

	return &Store{
		local:    local,
		policies: opts.TypePolicies,
		logger:   opts.Logger,
		options:  opts,
		devEnv:   rc.IsDevEnv,
	}, nil
}

// Identify returns the cache key of obj, or false when obj has no
// __typename or lacks its key fields.
func (s *Store) Identify(obj map[string]any) (CacheKey, bool) {
	return identify(s.policies, obj)
}

// WriteQuery normalizes data, the result of q, into the store.
func (s *Store) WriteQuery(q Query, data map[string]any) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	op, err := document.Operation(q.Document, q.OperationName)
	if err != nil {
		return err
	}
	rootKey, rootType := roots(op.Operation)

	s.mu.Lock()
	defer s.mu.Unlock()

	w := &writer{
		store:     s,
		pending:   make(map[CacheKey]Record),
		fragments: q.Document.Fragments,
		vars:      q.Variables,
	}
	w.writeSelection(w.record(rootKey), rootType, op.SelectionSet, data)

	for key, rec := range w.pending {
		if !s.local.Set(key, rec, 1) && s.options.DebugMode {
			s.logger.Warn("WriteQuery: entity rejected by local cache", "key", key)
		}
	}
	atomic.AddInt64(&s.writes, 1)

	if s.options.DebugMode {
		s.logger.Debug("WriteQuery: stored result", "operation", op.Name, "entities", len(w.pending))
	}
	return nil
}

// ReadQuery reads the result of q from the store. It reports false when any
// selected field is missing.
func (s *Store) ReadQuery(q Query) (map[string]any, bool) {
	if s.isClosed() {
		return nil, false
	}
	op, err := document.Operation(q.Document, q.OperationName)
	if err != nil {
		return nil, false
	}
	rootKey, rootType := roots(op.Operation)

	s.mu.RLock()
	defer s.mu.RUnlock()

	r := &reader{store: s, fragments: q.Document.Fragments, vars: q.Variables}
	var data map[string]any
	ok := false
	if root, found := s.entity(rootKey); found {
		data, ok = r.readSelection(root, rootType, op.SelectionSet)
	}

	if !ok {
		atomic.AddInt64(&s.readMisses, 1)
		if s.options.DebugMode {
			s.logger.Debug("ReadQuery: cache miss", "operation", op.Name)
		}
		return nil, false
	}
	atomic.AddInt64(&s.readHits, 1)
	if s.options.DebugMode {
		s.logger.Debug("ReadQuery: cache hit", "operation", op.Name)
	}
	return data, true
}

// Entity returns a copy of the record stored under key.
func (s *Store) Entity(key CacheKey) (Record, bool) {
	if s.isClosed() {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entity(key)
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Evict removes the record stored under key. References to it from other
// records become misses on read.
func (s *Store) Evict(key CacheKey) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local.Delete(key)
	if s.options.DebugMode {
		s.logger.Debug("Evict: removed entity", "key", key)
	}
	return nil
}

// Reset drops every record.
func (s *Store) Reset() error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local.Clear()
	if s.options.DebugMode {
		s.logger.Debug("Reset: cleared store")
	}
	return nil
}

// Stats returns store statistics.
func (s *Store) Stats() Stats {
	m := s.local.Metrics()
	st := Stats{
		ReadHits:   atomic.LoadInt64(&s.readHits),
		ReadMisses: atomic.LoadInt64(&s.readMisses),
		Writes:     atomic.LoadInt64(&s.writes),
		Merges:     atomic.LoadInt64(&s.merges),
		Evictions:  m.Evictions,
		Entities:   m.Size,
	}
	return st
}

// Close releases the local cache. Further calls return ErrStoreClosed.
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local.Close()
	return nil
}

func (s *Store) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

func (s *Store) entity(key CacheKey) (Record, bool) {
	v, ok := s.local.Get(key)
	if !ok {
		return nil, false
	}
	rec, ok := v.(Record)
	return rec, ok
}

func (s *Store) fieldContext(typename string, f *ast.Field, name string, args map[string]any) FieldContext {
	return FieldContext{
		TypeName:    typename,
		FieldName:   f.Name,
		StorageName: name,
		Args:        args,
		Identify:    s.Identify,
		DevEnv:      s.devEnv,
		Logger:      s.logger,
	}
}

func roots(op ast.Operation) (CacheKey, string) {
	switch op {
	case ast.Mutation:
		return RootMutation, "Mutation"
	case ast.Subscription:
		return RootSubscription, "Subscription"
	default:
		return RootQuery, "Query"
	}
}

// writer accumulates the records touched by one WriteQuery. Each record is
// copied from the store on first touch and committed when the write ends.
type writer struct {
	store     *Store
	pending   map[CacheKey]Record
	fragments ast.FragmentDefinitionList
	vars      map[string]any
}

func (w *writer) record(key CacheKey) Record {
	if rec, ok := w.pending[key]; ok {
		return rec
	}
	rec := Record{}
	if existing, ok := w.store.entity(key); ok {
		rec = cloneRecord(existing)
	}
	w.pending[key] = rec
	return rec
}

func (w *writer) writeSelection(rec Record, typename string, sel ast.SelectionSet, data map[string]any) {
	if tn, ok := data["__typename"].(string); ok && tn != "" {
		typename = tn
	}
	for _, f := range document.CollectFields(sel, w.fragments, typename, w.vars) {
		value, present := data[document.ResponseKey(f)]
		if !present {
			continue
		}
		args := document.ArgumentValues(f.Arguments, w.vars)
		policy, hasPolicy := w.store.policies.Field(typename, f.Name)
		name := storageName(f.Name, args, policy, hasPolicy)

		incoming := w.normalize(value, f, rec[name])
		if hasPolicy && policy.Merge != nil {
			incoming = policy.Merge(rec[name], incoming, w.store.fieldContext(typename, f, name, args))
			atomic.AddInt64(&w.store.merges, 1)
		}
		rec[name] = incoming
	}
}

// normalize turns a result value into its stored form. existing is the value
// currently stored for the field, used to extend unidentified objects.
func (w *writer) normalize(value any, f *ast.Field, existing any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = w.normalize(item, f, nil)
		}
		return out
	case map[string]any:
		if len(f.SelectionSet) == 0 {
			return v
		}
		typename, _ := v["__typename"].(string)
		if key, ok := w.store.Identify(v); ok {
			w.writeSelection(w.record(key), typename, f.SelectionSet, v)
			return Ref{Key: key}
		}
		nested := Record{}
		if prev, ok := existing.(Record); ok {
			nested = cloneRecord(prev)
		}
		w.writeSelection(nested, typename, f.SelectionSet, v)
		return nested
	default:
		return value
	}
}

type reader struct {
	store     *Store
	fragments ast.FragmentDefinitionList
	vars      map[string]any
}

func (r *reader) readSelection(rec Record, typename string, sel ast.SelectionSet) (map[string]any, bool) {
	if tn, ok := rec["__typename"].(string); ok && tn != "" {
		typename = tn
	}
	out := make(map[string]any)
	for _, f := range document.CollectFields(sel, r.fragments, typename, r.vars) {
		key := document.ResponseKey(f)
		if f.Name == "__typename" && typename != "" {
			out[key] = typename
			continue
		}

		args := document.ArgumentValues(f.Arguments, r.vars)
		policy, hasPolicy := r.store.policies.Field(typename, f.Name)
		name := storageName(f.Name, args, policy, hasPolicy)

		stored, ok := rec[name]
		if hasPolicy && policy.Read != nil {
			stored, ok = policy.Read(stored, r.store.fieldContext(typename, f, name, args))
		}
		if !ok {
			return nil, false
		}

		value, ok := r.resolve(stored, f)
		if !ok {
			return nil, false
		}
		out[key] = value
	}
	return out, true
}

func (r *reader) resolve(stored any, f *ast.Field) (any, bool) {
	switch v := stored.(type) {
	case nil:
		return nil, true
	case Ref:
		rec, ok := r.store.entity(v.Key)
		if !ok {
			return nil, false
		}
		return r.readSelection(rec, "", f.SelectionSet)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			value, ok := r.resolve(item, f)
			if !ok {
				return nil, false
			}
			out[i] = value
		}
		return out, true
	case map[string]any:
		if len(f.SelectionSet) == 0 {
			return cloneRecord(v), true
		}
		return r.readSelection(v, "", f.SelectionSet)
	default:
		return v, true
	}
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
