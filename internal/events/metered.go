package events

import (
	"context"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

type EventCounter interface {
	IncEvent(action string, ok bool)
}

type meteredBus struct {
	Bus
	counter EventCounter
}

// WithCounter counts every publish attempt by action and outcome.
func WithCounter(bus Bus, counter EventCounter) Bus {
	if counter == nil {
		return bus
	}
	return &meteredBus{Bus: bus, counter: counter}
}

func (b *meteredBus) Publish(ctx context.Context, ev curriculum.Event) error {
	err := b.Bus.Publish(ctx, ev)
	b.counter.IncEvent(string(ev.Action), err == nil)
	return err
}
