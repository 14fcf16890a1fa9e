// Package signal provides the auth invalidation broadcast.
//
// A Signal holds a tick counter. Each Tick means "the current session is no
// longer trusted, re-derive it". Subscribers are notified synchronously on
// the ticking goroutine and must release their Subscription on teardown.
// A subscriber may itself cause a Tick; that tick is delivered after the
// current round.
// Successful logins never tick; re-deriving after login is a direct call
// made by the session layer.
package signal

import (
	"sync"
	"sync/atomic"
)

// Signal is a monotonic tick counter with synchronous fan-out.
type Signal struct {
	tick atomic.Uint64

	mu       sync.Mutex // guards pending and draining
	pending  []uint64
	draining bool

	subsMu sync.RWMutex
	subs   map[uint64]func(uint64)
	order  []uint64
	nextID uint64
}

// New creates a Signal starting at tick 0.
func New() *Signal {
	return &Signal{subs: make(map[uint64]func(uint64))}
}

// Read returns the current tick.
func (s *Signal) Read() uint64 {
	return s.tick.Load()
}

// Tick increments the counter by one and notifies every current subscriber
// with the new value. Ticks are delivered one round at a time in tick order.
//
// When no round is in progress, Tick delivers before returning. A Tick made
// while a round is running, from a subscriber or another goroutine, is
// queued and delivered by the goroutine running that round once it finishes.
func (s *Signal) Tick() uint64 {
	s.mu.Lock()
	n := s.tick.Add(1)
	s.pending = append(s.pending, n)
	if s.draining {
		s.mu.Unlock()
		return n
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
	return n
}

func (s *Signal) drain() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.pending = nil
			s.draining = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		n := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, fn := range s.snapshot() {
			fn(n)
		}
	}
}

// Subscribe registers fn to run on every Tick. The returned Subscription
// must be released when the subscriber goes away.
func (s *Signal) Subscribe(fn func(tick uint64)) *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.order = append(s.order, id)
	return &Subscription{signal: s, id: id}
}

// Len returns the number of live subscriptions.
func (s *Signal) Len() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

func (s *Signal) snapshot() []func(uint64) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	fns := make([]func(uint64), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	return fns
}

func (s *Signal) release(id uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if _, ok := s.subs[id]; !ok {
		return
	}
	delete(s.subs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	signal *Signal
	id     uint64
	once   sync.Once
}

// Release stops further notifications. Safe to call more than once and from
// inside the subscriber callback.
func (sub *Subscription) Release() {
	sub.once.Do(func() {
		sub.signal.release(sub.id)
	})
}
