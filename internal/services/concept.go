package services

import (
	"context"

	"github.com/yungbote/curriculum-graph/internal/data/hierarchy"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type ConceptInput struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	ParentID      string   `json:"parent_id"`
	Prerequisites []string `json:"prerequisites"`
}

type ConceptPatch struct {
	Name          curriculum.Optional[string]   `json:"name"`
	Type          curriculum.Optional[string]   `json:"type"`
	Description   curriculum.Optional[string]   `json:"description"`
	ParentID      curriculum.Optional[string]   `json:"parent_id"`
	Prerequisites curriculum.Optional[[]string] `json:"prerequisites"`
}

type ConceptService interface {
	Create(ctx context.Context, in ConceptInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p ConceptPatch) (curriculum.Aggregate, error)
	// Delete detaches the concept; its children become roots unless leafOnly is set, in which
	// case a concept with children is refused.
	Delete(ctx context.Context, id string, leafOnly bool) error
	AddPrerequisite(ctx context.Context, id, prereqID string) (curriculum.Aggregate, error)
	RemovePrerequisite(ctx context.Context, id, prereqID string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
	Hierarchy(ctx context.Context) ([]*curriculum.TreeNode, error)
	Subtree(ctx context.Context, id string) (*curriculum.TreeNode, error)
}

type conceptService struct {
	w   AggregateWriter
	r   AggregateReader
	asm *hierarchy.Assembler
	log *logger.Logger
}

func NewConceptService(w AggregateWriter, r AggregateReader, asm *hierarchy.Assembler, log *logger.Logger) ConceptService {
	if asm == nil {
		asm = hierarchy.New(nil, log)
	}
	return &conceptService{w: w, r: r, asm: asm, log: log.With("service", "ConceptService")}
}

func parentSet(targets ...string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelContains,
		Direction:  curriculum.Incoming,
		TargetKind: curriculum.KindConcept,
		Targets:    targets,
		Exclusive:  true,
		Acyclic:    true,
	}
}

func prerequisiteSet(targets []string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelHasPrerequisite,
		Direction:  curriculum.Outgoing,
		TargetKind: curriculum.KindConcept,
		Targets:    targets,
	}
}

func prerequisiteRef(id string) curriculum.RelRef {
	return curriculum.RelRef{
		Type:       curriculum.RelHasPrerequisite,
		Direction:  curriculum.Outgoing,
		TargetKind: curriculum.KindConcept,
		TargetID:   id,
	}
}

func (s *conceptService) Create(ctx context.Context, in ConceptInput) (curriculum.Aggregate, error) {
	const op = "concept.create"
	if err := requireText(op, "name", in.Name); err != nil {
		return curriculum.Aggregate{}, err
	}
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindConcept,
			ID:         newID(in.ID),
			Attributes: attrs("name", in.Name, "type", in.Type, "description", in.Description),
		},
		Relations: []curriculum.RelationSet{
			parentSet(single(in.ParentID)...),
			prerequisiteSet(in.Prerequisites),
		},
		ActorID: actor(ctx),
	})
}

func (s *conceptService) Update(ctx context.Context, id string, p ConceptPatch) (curriculum.Aggregate, error) {
	const op = "concept.update"
	if p.Name.Present && p.Name.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "name cannot be removed", id)
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "name", p.Name)
	curriculum.PutAttr(patch, "type", p.Type)
	curriculum.PutAttr(patch, "description", p.Description)

	var sets []curriculum.RelationSet
	sets = optionalTarget(sets, p.ParentID, parentSet())
	sets = optionalTargets(sets, p.Prerequisites, prerequisiteSet(nil))

	return s.w.Update(ctx, curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindConcept,
		ID:        id,
		Patch:     patch,
		Relations: sets,
		ActorID:   actor(ctx),
	})
}

func (s *conceptService) Delete(ctx context.Context, id string, leafOnly bool) error {
	spec := curriculum.DeleteSpec{
		Op:      "concept.delete",
		Kind:    curriculum.KindConcept,
		ID:      id,
		Owned:   []curriculum.OwnedLink{{Type: curriculum.RelHasTask, Kind: curriculum.KindTask}},
		ActorID: actor(ctx),
	}
	if leafOnly {
		spec.Op = "concept.delete_leaf"
		spec.RefuseIf = []curriculum.RelGuard{{
			Type:       curriculum.RelContains,
			Direction:  curriculum.Outgoing,
			TargetKind: curriculum.KindConcept,
			Reason:     "concept " + id + " has children",
		}}
	}
	return s.w.Delete(ctx, spec)
}

func (s *conceptService) AddPrerequisite(ctx context.Context, id, prereqID string) (curriculum.Aggregate, error) {
	return s.w.Link(ctx, curriculum.LinkSpec{
		Op:      "concept.add_prerequisite",
		Kind:    curriculum.KindConcept,
		ID:      id,
		Ref:     prerequisiteRef(prereqID),
		ActorID: actor(ctx),
	})
}

func (s *conceptService) RemovePrerequisite(ctx context.Context, id, prereqID string) error {
	return s.w.Unlink(ctx, curriculum.LinkSpec{
		Op:      "concept.remove_prerequisite",
		Kind:    curriculum.KindConcept,
		ID:      id,
		Ref:     prerequisiteRef(prereqID),
		ActorID: actor(ctx),
	})
}

func (s *conceptService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindConcept, id)
}

func (s *conceptService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindConcept)
}

func (s *conceptService) Hierarchy(ctx context.Context) ([]*curriculum.TreeNode, error) {
	nodes, edges, err := s.r.Graph(ctx, curriculum.KindConcept, curriculum.RelContains)
	if err != nil {
		return nil, err
	}
	return s.asm.Assemble(nodes, edges), nil
}

func (s *conceptService) Subtree(ctx context.Context, id string) (*curriculum.TreeNode, error) {
	nodes, edges, err := s.r.Graph(ctx, curriculum.KindConcept, curriculum.RelContains)
	if err != nil {
		return nil, err
	}
	tree, ok := s.asm.AssembleSubtree(id, nodes, edges)
	if !ok {
		return nil, domainagg.NotFound("concept.subtree", curriculum.KindConcept.Noun(), id)
	}
	return tree, nil
}
