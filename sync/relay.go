// Package sync relays auth invalidation between client instances over Redis Pub/Sub.
//
// Only invalidation events travel. Cache contents stay local to each instance.
package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/huykn/gqlcache/signal"
	"github.com/huykn/gqlcache/storage"
	"github.com/huykn/gqlcache/types"
)

// InvalidationEvent is an alias for types.InvalidationEvent
type InvalidationEvent = types.InvalidationEvent

// ErrNotSubscribed is returned by Publish after Close.
var ErrNotSubscribed = errors.New("relay is closed")

// PubSubRelay publishes local invalidations and delivers remote ones.
type PubSubRelay struct {
	client         *redis.Client
	channel        string
	podID          string
	serializer     storage.Serializer
	pubsub         *redis.PubSub
	callbacks      []func(event InvalidationEvent)
	callbacksMutex sync.RWMutex
	done           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

// NewPubSubRelay creates a relay on channel. Events sent by podID are ignored on receipt.
// A nil serializer defaults to JSON.
func NewPubSubRelay(client *redis.Client, channel, podID string, serializer storage.Serializer) *PubSubRelay {
	if serializer == nil {
		serializer = storage.NewJSONSerializer()
	}
	return &PubSubRelay{
		client:     client,
		channel:    channel,
		podID:      podID,
		serializer: serializer,
		callbacks:  make([]func(event InvalidationEvent), 0),
		done:       make(chan struct{}),
	}
}

// Subscribe starts listening for invalidation events.
func (pr *PubSubRelay) Subscribe(ctx context.Context) error {
	pr.pubsub = pr.client.Subscribe(ctx, pr.channel)

	// Receive blocks until the subscription is confirmed.
	if _, err := pr.pubsub.Receive(ctx); err != nil {
		_ = pr.pubsub.Close()
		pr.pubsub = nil
		return err
	}

	pr.wg.Add(1)
	go pr.listenForEvents()

	return nil
}

// Publish publishes an invalidation event.
func (pr *PubSubRelay) Publish(ctx context.Context, event InvalidationEvent) error {
	select {
	case <-pr.done:
		return ErrNotSubscribed
	default:
	}

	if event.Sender == "" {
		event.Sender = pr.podID
	}
	if event.Action == "" {
		event.Action = types.SessionInvalidated
	}

	data, err := pr.serializer.Marshal(event)
	if err != nil {
		return err
	}

	return pr.client.Publish(ctx, pr.channel, string(data)).Err()
}

// OnInvalidate registers a callback for remote invalidation events.
func (pr *PubSubRelay) OnInvalidate(callback func(event InvalidationEvent)) {
	pr.callbacksMutex.Lock()
	defer pr.callbacksMutex.Unlock()
	pr.callbacks = append(pr.callbacks, callback)
}

// Forward ticks sig once for every remote invalidation event.
func (pr *PubSubRelay) Forward(sig *signal.Signal) {
	pr.OnInvalidate(func(event InvalidationEvent) {
		if event.Action == types.SessionInvalidated {
			sig.Tick()
		}
	})
}

// Close stops listening. Safe to call more than once.
func (pr *PubSubRelay) Close() error {
	var err error
	pr.closeOnce.Do(func() {
		close(pr.done)
		pr.wg.Wait()

		if pr.pubsub != nil {
			err = pr.pubsub.Close()
		}
	})
	return err
}

// listenForEvents listens for invalidation events from Redis Pub/Sub.
func (pr *PubSubRelay) listenForEvents() {
	defer pr.wg.Done()

	if pr.pubsub == nil {
		return
	}

	ch := pr.pubsub.Channel()

	for {
		select {
		case <-pr.done:
			return
		case msg := <-ch:
			if msg == nil {
				return
			}

			var event InvalidationEvent
			if err := pr.serializer.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}

			// Our own invalidations already ticked locally.
			if event.Sender == pr.podID {
				continue
			}

			pr.dispatch(event)
		}
	}
}

func (pr *PubSubRelay) dispatch(event InvalidationEvent) {
	pr.callbacksMutex.RLock()
	callbacks := pr.callbacks
	pr.callbacksMutex.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}
