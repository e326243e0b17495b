package aggregates

import (
	"context"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// EventPublisher receives a plain event after an aggregate write has been applied.
type EventPublisher interface {
	Publish(ctx context.Context, ev curriculum.Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, curriculum.Event) error { return nil }

// publish is best-effort: a failure is logged and never undoes the write.
func publish(ctx context.Context, deps BaseDeps, action curriculum.Action, kind curriculum.Kind, id, actorID string) {
	ev := curriculum.Event{
		Action:    action,
		Kind:      kind,
		ID:        id,
		ActorID:   actorID,
		Timestamp: deps.Now().UTC(),
	}
	if err := deps.Publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		deps.Log.Warn("event publish failed", "action", action, "kind", kind, "id", id, "error", err)
	}
}
