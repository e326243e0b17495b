package services

import (
	"context"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type TaskInput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ConceptID   string `json:"concept_id"`
}

type TaskPatch struct {
	Title       curriculum.Optional[string] `json:"title"`
	Description curriculum.Optional[string] `json:"description"`
	ConceptID   curriculum.Optional[string] `json:"concept_id"`
}

type TaskService interface {
	Create(ctx context.Context, in TaskInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p TaskPatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type taskService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewTaskService(w AggregateWriter, r AggregateReader, log *logger.Logger) TaskService {
	return &taskService{w: w, r: r, log: log.With("service", "TaskService")}
}

// ownerConcept is (:Concept)-[:HAS_TASK]->(task); every task has exactly one.
func ownerConcept(targets ...string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelHasTask,
		Direction:  curriculum.Incoming,
		TargetKind: curriculum.KindConcept,
		Targets:    targets,
		Exclusive:  true,
		Required:   true,
	}
}

func (s *taskService) Create(ctx context.Context, in TaskInput) (curriculum.Aggregate, error) {
	const op = "task.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return curriculum.Aggregate{}, err
	}
	if err := requireText(op, "concept_id", in.ConceptID); err != nil {
		return curriculum.Aggregate{}, err
	}
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindTask,
			ID:         newID(in.ID),
			Attributes: attrs("title", in.Title, "description", in.Description),
		},
		Relations: []curriculum.RelationSet{ownerConcept(in.ConceptID)},
		ActorID:   actor(ctx),
	})
}

func (s *taskService) Update(ctx context.Context, id string, p TaskPatch) (curriculum.Aggregate, error) {
	const op = "task.update"
	if p.Title.Present && p.Title.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "title cannot be removed", id)
	}
	if p.ConceptID.Present && p.ConceptID.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "a task must belong to a concept", id)
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "title", p.Title)
	curriculum.PutAttr(patch, "description", p.Description)

	return s.w.Update(ctx, curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindTask,
		ID:        id,
		Patch:     patch,
		Relations: optionalTarget(nil, p.ConceptID, ownerConcept()),
		ActorID:   actor(ctx),
	})
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{Op: "task.delete", Kind: curriculum.KindTask, ID: id, ActorID: actor(ctx)})
}

func (s *taskService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindTask, id)
}

func (s *taskService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindTask)
}
