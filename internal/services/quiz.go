package services

import (
	"context"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type QuizInput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ConceptID   string   `json:"concept_id"`
	QuestionIDs []string `json:"question_ids"`
}

type QuizPatch struct {
	Title       curriculum.Optional[string]   `json:"title"`
	Description curriculum.Optional[string]   `json:"description"`
	ConceptID   curriculum.Optional[string]   `json:"concept_id"`
	QuestionIDs curriculum.Optional[[]string] `json:"question_ids"`
}

type QuizService interface {
	Create(ctx context.Context, in QuizInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p QuizPatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type quizService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewQuizService(w AggregateWriter, r AggregateReader, log *logger.Logger) QuizService {
	return &quizService{w: w, r: r, log: log.With("service", "QuizService")}
}

func includesQuestions(ids []string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelIncludes,
		Direction:  curriculum.Outgoing,
		TargetKind: curriculum.KindQuestion,
		Targets:    ids,
	}
}

// createdBy links the author: (:User)-[:CREATED]->(root).
func createdBy(userID string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelCreated,
		Direction:  curriculum.Incoming,
		TargetKind: curriculum.KindUser,
		Targets:    single(userID),
		Exclusive:  true,
	}
}

func (s *quizService) Create(ctx context.Context, in QuizInput) (curriculum.Aggregate, error) {
	const op = "quiz.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return curriculum.Aggregate{}, err
	}
	if err := requireText(op, "concept_id", in.ConceptID); err != nil {
		return curriculum.Aggregate{}, err
	}
	tested := testsConcept(in.ConceptID)
	tested.Required = true

	author := actor(ctx)
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindQuiz,
			ID:         newID(in.ID),
			Attributes: attrs("title", in.Title, "description", in.Description),
		},
		Relations: []curriculum.RelationSet{tested, includesQuestions(in.QuestionIDs), createdBy(author)},
		ActorID:   author,
	})
}

func (s *quizService) Update(ctx context.Context, id string, p QuizPatch) (curriculum.Aggregate, error) {
	const op = "quiz.update"
	if p.Title.Present && p.Title.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "title cannot be removed", id)
	}
	if p.ConceptID.Present && p.ConceptID.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "a quiz must test a concept", id)
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "title", p.Title)
	curriculum.PutAttr(patch, "description", p.Description)

	var sets []curriculum.RelationSet
	sets = optionalTarget(sets, p.ConceptID, testsConcept())
	sets = optionalTargets(sets, p.QuestionIDs, includesQuestions(nil))

	return s.w.Update(ctx, curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindQuiz,
		ID:        id,
		Patch:     patch,
		Relations: sets,
		ActorID:   actor(ctx),
	})
}

func (s *quizService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{Op: "quiz.delete", Kind: curriculum.KindQuiz, ID: id, ActorID: actor(ctx)})
}

func (s *quizService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindQuiz, id)
}

func (s *quizService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindQuiz)
}
