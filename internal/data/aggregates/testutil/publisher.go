package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// PublisherRecorder captures published events. Err, when set, is returned from every Publish.
type PublisherRecorder struct {
	mu     sync.Mutex
	Err    error
	Events []curriculum.Event
}

var _ aggregates.EventPublisher = (*PublisherRecorder)(nil)

func (p *PublisherRecorder) Publish(_ context.Context, ev curriculum.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return p.Err
}

func (p *PublisherRecorder) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Events)
}
