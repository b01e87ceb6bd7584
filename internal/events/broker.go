// Package events fans out "board changed" signals to open board streams.
package events

import (
	"context"
	"sync"
)

// Broker delivers board change signals. A signal carries no payload; receivers
// re-read the board.
type Broker interface {
	Publish(ctx context.Context, boardID string) error
	// Subscribe returns a channel that receives a signal after each publish
	// for boardID, and a function that ends the subscription.
	Subscribe(ctx context.Context, boardID string) (<-chan struct{}, func())
}

// MemoryBroker fans out signals within one process.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

var _ Broker = (*MemoryBroker)(nil)

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan struct{}]struct{})}
}

// Publish signals every subscriber of boardID. Subscribers that already hold
// an undelivered signal are skipped.
func (b *MemoryBroker) Publish(_ context.Context, boardID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[boardID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber. The subscription also ends when ctx is done.
func (b *MemoryBroker) Subscribe(ctx context.Context, boardID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[boardID] == nil {
		b.subs[boardID] = make(map[chan struct{}]struct{})
	}
	b.subs[boardID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[boardID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, boardID)
				}
			}
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)

	return ch, func() {
		stop()
		unsubscribe()
	}
}

// Subscribers returns the number of subscribers of boardID.
func (b *MemoryBroker) Subscribers(boardID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[boardID])
}
