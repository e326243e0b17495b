package services

import (
	"context"
	"net/url"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type ResourceInput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	ConceptIDs  []string `json:"concept_ids"`
}

type ResourcePatch struct {
	Title       curriculum.Optional[string]   `json:"title"`
	URL         curriculum.Optional[string]   `json:"url"`
	Type        curriculum.Optional[string]   `json:"type"`
	Description curriculum.Optional[string]   `json:"description"`
	ConceptIDs  curriculum.Optional[[]string] `json:"concept_ids"`
}

type ResourceService interface {
	Create(ctx context.Context, in ResourceInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p ResourcePatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type resourceService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewResourceService(w AggregateWriter, r AggregateReader, log *logger.Logger) ResourceService {
	return &resourceService{w: w, r: r, log: log.With("service", "ResourceService")}
}

func explainsConcepts(ids []string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelExplains,
		Direction:  curriculum.Outgoing,
		TargetKind: curriculum.KindConcept,
		Targets:    ids,
	}
}

func validURL(op, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domainagg.BadRequest(op, "url must be absolute")
	}
	return nil
}

func (s *resourceService) Create(ctx context.Context, in ResourceInput) (curriculum.Aggregate, error) {
	const op = "resource.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return curriculum.Aggregate{}, err
	}
	if err := validURL(op, in.URL); err != nil {
		return curriculum.Aggregate{}, err
	}
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindResource,
			ID:         newID(in.ID),
			Attributes: attrs("title", in.Title, "url", in.URL, "type", in.Type, "description", in.Description),
		},
		Relations: []curriculum.RelationSet{explainsConcepts(in.ConceptIDs)},
		ActorID:   actor(ctx),
	})
}

func (s *resourceService) Update(ctx context.Context, id string, p ResourcePatch) (curriculum.Aggregate, error) {
	const op = "resource.update"
	if p.Title.Present && p.Title.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "title cannot be removed", id)
	}
	if p.URL.Present && !p.URL.Cleared() {
		if err := validURL(op, p.URL.Value); err != nil {
			return curriculum.Aggregate{}, err
		}
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "title", p.Title)
	curriculum.PutAttr(patch, "url", p.URL)
	curriculum.PutAttr(patch, "type", p.Type)
	curriculum.PutAttr(patch, "description", p.Description)

	return s.w.Update(ctx, curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindResource,
		ID:        id,
		Patch:     patch,
		Relations: optionalTargets(nil, p.ConceptIDs, explainsConcepts(nil)),
		ActorID:   actor(ctx),
	})
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{
		Op:   "resource.delete",
		Kind: curriculum.KindResource,
		ID:   id,
		RefuseIf: []curriculum.RelGuard{{
			Type:       curriculum.RelUsesResource,
			Direction:  curriculum.Incoming,
			TargetKind: curriculum.KindLearningPathStep,
			Reason:     "resource " + id + " is used by a learning path",
		}},
		ActorID: actor(ctx),
	})
}

func (s *resourceService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindResource, id)
}

func (s *resourceService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindResource)
}
