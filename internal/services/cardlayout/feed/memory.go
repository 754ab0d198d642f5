package feed

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrClosed is returned by a closed bus.
var ErrClosed = errors.New("feed bus closed")

const subscriberBuffer = 64

// MemoryBus is an in-process Bus used when no broker is configured.
// Slow subscribers drop events rather than block publishers.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewMemoryBus returns an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[chan Event]struct{})}
}

// Publish fans event out to current subscribers.
func (b *MemoryBus) Publish(_ context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("feed: subscriber buffer full, dropping %s for %s", event.Type, event.CampaignSlug)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx ends.
func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	ch := make(chan Event, subscriberBuffer)
	b.subs[ch] = struct{}{}
	go func() {
		<-ctx.Done()
		b.remove(ch)
	}()
	return ch, nil
}

func (b *MemoryBus) remove(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Close closes every subscriber channel.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}

var _ Bus = (*MemoryBus)(nil)
