package services

import (
	"context"
	"fmt"
	"strings"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type LearningPathStepInput struct {
	ResourceID string `json:"resource_id"`
	Note       string `json:"note"`
}

type LearningPathInput struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	OwnerID     string                  `json:"owner_id"`
	Steps       []LearningPathStepInput `json:"steps"`
}

// LearningPathPatch covers the path's own attributes and owner. Steps are fixed at creation.
type LearningPathPatch struct {
	Title       curriculum.Optional[string] `json:"title"`
	Description curriculum.Optional[string] `json:"description"`
	OwnerID     curriculum.Optional[string] `json:"owner_id"`
}

type LearningPathService interface {
	Create(ctx context.Context, in LearningPathInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p LearningPathPatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type learningPathService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewLearningPathService(w AggregateWriter, r AggregateReader, log *logger.Logger) LearningPathService {
	return &learningPathService{w: w, r: r, log: log.With("service", "LearningPathService")}
}

// pathOwner is (:User)-[:HAS_LEARNING_PATH]->(path).
func pathOwner(targets ...string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelHasLearningPath,
		Direction:  curriculum.Incoming,
		TargetKind: curriculum.KindUser,
		Targets:    targets,
		Exclusive:  true,
	}
}

func stepID(pathID string, order int) string {
	return fmt.Sprintf("%s-step-%d", pathID, order)
}

func (s *learningPathService) Create(ctx context.Context, in LearningPathInput) (curriculum.Aggregate, error) {
	const op = "learning_path.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return curriculum.Aggregate{}, err
	}
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		owner = actor(ctx)
	}
	id := newID(in.ID)

	owned := make([]curriculum.OwnedNode, 0, len(in.Steps))
	for i, st := range in.Steps {
		if strings.TrimSpace(st.ResourceID) == "" {
			return curriculum.Aggregate{}, domainagg.BadRequest(op, fmt.Sprintf("step %d has no resource", i+1), id)
		}
		order := int64(i + 1)
		owned = append(owned, curriculum.OwnedNode{
			Node: curriculum.NodeSpec{
				Kind:       curriculum.KindLearningPathStep,
				ID:         stepID(id, i+1),
				Attributes: attrs("order", order, "note", st.Note),
			},
			Link:      curriculum.RelHasStep,
			LinkProps: map[string]any{"order": order},
			Relations: []curriculum.RelationSet{{
				Type:       curriculum.RelUsesResource,
				Direction:  curriculum.Outgoing,
				TargetKind: curriculum.KindResource,
				Targets:    []string{st.ResourceID},
				Exclusive:  true,
			}},
		})
	}

	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindLearningPath,
			ID:         id,
			Attributes: attrs("title", in.Title, "description", in.Description),
		},
		Relations: []curriculum.RelationSet{pathOwner(single(owner)...)},
		Owned:     owned,
		ActorID:   actor(ctx),
	})
}

func (s *learningPathService) Update(ctx context.Context, id string, p LearningPathPatch) (curriculum.Aggregate, error) {
	const op = "learning_path.update"
	if p.Title.Present && p.Title.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "title cannot be removed", id)
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "title", p.Title)
	curriculum.PutAttr(patch, "description", p.Description)

	return s.w.Update(ctx, curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindLearningPath,
		ID:        id,
		Patch:     patch,
		Relations: optionalTarget(nil, p.OwnerID, pathOwner()),
		ActorID:   actor(ctx),
	})
}

func (s *learningPathService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{
		Op:      "learning_path.delete",
		Kind:    curriculum.KindLearningPath,
		ID:      id,
		Owned:   []curriculum.OwnedLink{{Type: curriculum.RelHasStep, Kind: curriculum.KindLearningPathStep}},
		ActorID: actor(ctx),
	})
}

func (s *learningPathService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindLearningPath, id)
}

func (s *learningPathService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindLearningPath)
}
