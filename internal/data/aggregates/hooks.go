package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncCompensation(name string, complete bool)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncCompensation(string, bool)                   {}

type logHooks struct {
	log *logger.Logger
}

// NewLogHooks creates aggregate hooks that emit structured log lines.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "AggregateHooks")}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	name = strings.TrimSpace(name)
	if status == "success" {
		h.log.Debug("aggregate operation", "op", name, "status", status, "duration_ms", dur.Milliseconds())
		return
	}
	h.log.Info("aggregate operation", "op", name, "status", status, "duration_ms", dur.Milliseconds())
}

func (h *logHooks) IncConflict(name string) {
	h.log.Debug("aggregate conflict", "op", strings.TrimSpace(name))
}

func (h *logHooks) IncCompensation(name string, complete bool) {
	if complete {
		h.log.Info("aggregate compensated", "op", strings.TrimSpace(name))
		return
	}
	h.log.Error("aggregate compensation incomplete", "op", strings.TrimSpace(name))
}
