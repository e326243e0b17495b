// Package events delivers aggregate change events to subscribers. Delivery is at-most-once
// and best-effort; a lost event never affects the write that produced it.
package events

import (
	"context"
	"sync"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Bus publishes events and forwards received events to a callback.
type Bus interface {
	Publish(ctx context.Context, ev curriculum.Event) error
	StartForwarder(ctx context.Context, onEvent func(ev curriculum.Event)) error
	Close() error
}

// memoryBus fans events out in-process. Used by the memory graph backend and tests.
type memoryBus struct {
	mu   sync.RWMutex
	subs []func(curriculum.Event)
}

func NewMemoryBus() Bus { return &memoryBus{} }

func (b *memoryBus) Publish(_ context.Context, ev curriculum.Event) error {
	b.mu.RLock()
	subs := append([]func(curriculum.Event){}, b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEvent func(ev curriculum.Event)) error {
	if onEvent == nil {
		return errNoCallback
	}
	b.mu.Lock()
	b.subs = append(b.subs, onEvent)
	idx := len(b.subs) - 1
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.subs[idx] = func(curriculum.Event) {}
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error { return nil }
