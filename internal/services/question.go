package services

import (
	"context"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type QuestionInput struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Answer     string   `json:"answer"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
	ConceptID  string   `json:"concept_id"`
}

type QuestionPatch struct {
	Text       curriculum.Optional[string]   `json:"text"`
	Answer     curriculum.Optional[string]   `json:"answer"`
	Options    curriculum.Optional[[]string] `json:"options"`
	Difficulty curriculum.Optional[string]   `json:"difficulty"`
	ConceptID  curriculum.Optional[string]   `json:"concept_id"`
}

type QuestionService interface {
	Create(ctx context.Context, in QuestionInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p QuestionPatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type questionService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewQuestionService(w AggregateWriter, r AggregateReader, log *logger.Logger) QuestionService {
	return &questionService{w: w, r: r, log: log.With("service", "QuestionService")}
}

func testsConcept(targets ...string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelTests,
		Direction:  curriculum.Outgoing,
		TargetKind: curriculum.KindConcept,
		Targets:    targets,
		Exclusive:  true,
	}
}

func (s *questionService) Create(ctx context.Context, in QuestionInput) (curriculum.Aggregate, error) {
	const op = "question.create"
	if err := requireText(op, "text", in.Text); err != nil {
		return curriculum.Aggregate{}, err
	}
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindQuestion,
			ID:         newID(in.ID),
			Attributes: attrs("text", in.Text, "answer", in.Answer, "options", in.Options, "difficulty", in.Difficulty),
		},
		Relations: []curriculum.RelationSet{testsConcept(single(in.ConceptID)...)},
		ActorID:   actor(ctx),
	})
}

func (s *questionService) Update(ctx context.Context, id string, p QuestionPatch) (curriculum.Aggregate, error) {
	const op = "question.update"
	if p.Text.Present && p.Text.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "text cannot be removed", id)
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "text", p.Text)
	curriculum.PutAttr(patch, "answer", p.Answer)
	curriculum.PutAttr(patch, "options", p.Options)
	curriculum.PutAttr(patch, "difficulty", p.Difficulty)

	return s.w.Update(ctx, curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindQuestion,
		ID:        id,
		Patch:     patch,
		Relations: optionalTarget(nil, p.ConceptID, testsConcept()),
		ActorID:   actor(ctx),
	})
}

func (s *questionService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{Op: "question.delete", Kind: curriculum.KindQuestion, ID: id, ActorID: actor(ctx)})
}

func (s *questionService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindQuestion, id)
}

func (s *questionService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindQuestion)
}
