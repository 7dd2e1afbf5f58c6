package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Broker is a generic pub/sub event broker.
// Subscribers are plain buffered channels; Publish never blocks on a slow reader.
type Broker[T any] struct {
	subs       map[chan Event[T]]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

// SubscribeOption customizes a single subscription.
type SubscribeOption[T any] func(*subscribeConfig[T])

type subscribeConfig[T any] struct {
	initial []Event[T]
}

// WithInitial queues an event for the new subscriber only, before any
// subsequently published event.
func WithInitial[T any](eventType EventType, payload T) SubscribeOption[T] {
	return func(c *subscribeConfig[T]) {
		c.initial = append(c.initial, Event[T]{
			Type:      eventType,
			Payload:   payload,
			Timestamp: time.Now(),
		})
	}
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	if size < 1 {
		size = 1
	}
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe creates a new subscription channel.
// The channel is closed when ctx is cancelled, on Unsubscribe, or on Close.
func (b *Broker[T]) Subscribe(ctx context.Context, opts ...SubscribeOption[T]) <-chan Event[T] {
	var cfg subscribeConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], max(b.bufferSize, len(cfg.initial)))
	for _, ev := range cfg.initial {
		sub <- ev
	}
	b.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.remove(sub)
			case <-b.done:
			}
		}()
	}

	return sub
}

// Unsubscribe removes a subscription and closes its channel.
// Unknown or already removed channels are ignored.
func (b *Broker[T]) Unsubscribe(ch <-chan Event[T]) {
	b.mu.RLock()
	var target chan Event[T]
	for sub := range b.subs {
		if (<-chan Event[T])(sub) == ch {
			target = sub
			break
		}
	}
	b.mu.RUnlock()

	if target != nil {
		b.remove(target)
	}
}

func (b *Broker[T]) remove(sub chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub)
}

// Publish sends an event to all subscribers.
// Non-blocking: drops events if subscriber channel is full.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			// Channel full - drop to prevent blocking
		}
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
