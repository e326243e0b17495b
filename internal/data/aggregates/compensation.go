package aggregates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

const compensationTimeout = 10 * time.Second

// undoStep is one inverse write, labelled for logs.
type undoStep struct {
	label string
	st    graphstore.Statement
}

// CompensationManager records the inverse of every write made by one non-transactional
// aggregate write and replays them when a later step fails. It lives for a single call.
type CompensationManager struct {
	w     graphstore.Writer
	log   *logger.Logger
	steps []undoStep
}

func NewCompensationManager(w graphstore.Writer, log *logger.Logger) *CompensationManager {
	if log == nil {
		log = logger.NewNop()
	}
	return &CompensationManager{w: w, log: log}
}

// TrackCreated registers a detach-delete of kind/id. Deleting a node that was never
// created is harmless, so callers track before writing.
func (m *CompensationManager) TrackCreated(kind curriculum.Kind, id string) {
	m.track(fmt.Sprintf("delete %s %s", kind, id), graphstore.DetachDelete(kind, id))
}

// TrackAttributes registers restoring kind/id's attributes to prior. Only keys in touched
// are restored; keys absent from prior are removed.
func (m *CompensationManager) TrackAttributes(kind curriculum.Kind, id string, prior map[string]any, touched []string) {
	set := map[string]any{}
	var remove []string
	for _, k := range touched {
		if k == "id" {
			continue
		}
		if v, ok := prior[k]; ok && v != nil {
			set[k] = v
			continue
		}
		remove = append(remove, k)
	}
	if len(set) == 0 && len(remove) == 0 {
		return
	}
	m.track(fmt.Sprintf("restore %s %s", kind, id), graphstore.SetAttributes(kind, id, set, remove))
}

// TrackRelCreated registers removal of a relationship that did not exist before the call.
func (m *CompensationManager) TrackRelCreated(kind curriculum.Kind, id string, ref curriculum.RelRef) {
	m.track(fmt.Sprintf("unlink %s %s -%s-> %s", kind, id, ref.Type, ref.TargetID), graphstore.DeleteRel(kind, id, ref))
}

// TrackRelDeleted registers re-creating a removed relationship with its properties.
func (m *CompensationManager) TrackRelDeleted(kind curriculum.Kind, id string, ref curriculum.RelRef) {
	m.track(fmt.Sprintf("relink %s %s -%s-> %s", kind, id, ref.Type, ref.TargetID), graphstore.CreateRel(kind, id, ref))
}

func (m *CompensationManager) track(label string, st graphstore.Statement) {
	m.steps = append(m.steps, undoStep{label: label, st: st})
}

func (m *CompensationManager) forgetLast() {
	if len(m.steps) > 0 {
		m.steps = m.steps[:len(m.steps)-1]
	}
}

func (m *CompensationManager) Len() int { return len(m.steps) }

// Compensate runs the inverse writes newest first. A failed step is logged and does not stop
// the remaining ones. The returned error is nil only when every step succeeded.
func (m *CompensationManager) Compensate(ctx context.Context) error {
	if len(m.steps) == 0 {
		return nil
	}
	// The original request may already be cancelled; cleanup still has to run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for i := len(m.steps) - 1; i >= 0; i-- {
		step := m.steps[i]
		if _, err := m.w.Write(ctx, step.st); err != nil {
			m.log.Warn("compensating write failed", "step", step.label, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			continue
		}
		m.log.Debug("compensating write", "step", step.label)
	}
	m.steps = nil
	if len(errs) > 0 {
		m.log.Error("compensation incomplete", "failed", len(errs))
		return errors.Join(errs...)
	}
	return nil
}
