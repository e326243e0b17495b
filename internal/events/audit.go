package events

import (
	"context"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// StartAuditLog subscribes to bus and writes one log line per received event.
func StartAuditLog(ctx context.Context, bus Bus, log *logger.Logger) error {
	log = log.With("component", "EventAudit")
	return bus.StartForwarder(ctx, func(ev curriculum.Event) {
		log.Info("aggregate event",
			"action", ev.Action,
			"kind", ev.Kind,
			"id", ev.ID,
			"actor_id", ev.ActorID,
			"at", ev.Timestamp,
		)
	})
}
