package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/data/hierarchy"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/ctxutil"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// AggregateWriter is the write port services build specs for.
type AggregateWriter interface {
	Create(ctx context.Context, spec curriculum.CreateSpec) (curriculum.Aggregate, error)
	Update(ctx context.Context, spec curriculum.UpdateSpec) (curriculum.Aggregate, error)
	Delete(ctx context.Context, spec curriculum.DeleteSpec) error
	Link(ctx context.Context, spec curriculum.LinkSpec) (curriculum.Aggregate, error)
	Unlink(ctx context.Context, spec curriculum.LinkSpec) error
}

type AggregateReader interface {
	Get(ctx context.Context, kind curriculum.Kind, id string) (curriculum.Aggregate, error)
	List(ctx context.Context, kind curriculum.Kind) ([]curriculum.Node, error)
	Graph(ctx context.Context, kind curriculum.Kind, rel curriculum.RelType) ([]curriculum.Node, []curriculum.Edge, error)
}

var (
	_ AggregateWriter = (*aggregates.Writer)(nil)
	_ AggregateReader = (*aggregates.Reader)(nil)
)

type Deps struct {
	Writer     AggregateWriter
	Reader     AggregateReader
	Log        *logger.Logger
	Precedence []string
}

// Services bundles every entity service.
type Services struct {
	Concepts      ConceptService
	Questions     QuestionService
	Quizzes       QuizService
	Resources     ResourceService
	Contests      ContestService
	Tasks         TaskService
	LearningPaths LearningPathService
	Users         UserService
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return &Services{
		Concepts:      NewConceptService(d.Writer, d.Reader, hierarchy.New(d.Precedence, d.Log), d.Log),
		Questions:     NewQuestionService(d.Writer, d.Reader, d.Log),
		Quizzes:       NewQuizService(d.Writer, d.Reader, d.Log),
		Resources:     NewResourceService(d.Writer, d.Reader, d.Log),
		Contests:      NewContestService(d.Writer, d.Reader, d.Log),
		Tasks:         NewTaskService(d.Writer, d.Reader, d.Log),
		LearningPaths: NewLearningPathService(d.Writer, d.Reader, d.Log),
		Users:         NewUserService(d.Writer, d.Reader, d.Log),
	}
}

// newID keeps a caller-supplied id and otherwise assigns one.
func newID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

// attrs drops empty strings and nil slices so create writes only meaningful properties.
func attrs(kv ...any) map[string]any {
	out := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out[key] = s
			}
		case []string:
			if len(v) > 0 {
				out[key] = append([]string(nil), v...)
			}
		case nil:
		default:
			out[key] = v
		}
	}
	return out
}

func requireText(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domainagg.BadRequest(op, field+" is required")
	}
	return nil
}

func single(id string) []string {
	if id = strings.TrimSpace(id); id == "" {
		return nil
	}
	return []string{id}
}

// optionalTarget turns a patched reference into an exclusive relation set. Absent keys are
// not reconciled at all; null or "" clears the relationship.
func optionalTarget(sets []curriculum.RelationSet, o curriculum.Optional[string], base curriculum.RelationSet) []curriculum.RelationSet {
	if !o.Present {
		return sets
	}
	base.Exclusive = true
	if !o.Cleared() {
		base.Targets = single(o.Value)
	}
	return append(sets, base)
}

func optionalTargets(sets []curriculum.RelationSet, o curriculum.Optional[[]string], base curriculum.RelationSet) []curriculum.RelationSet {
	if !o.Present {
		return sets
	}
	if !o.Null {
		base.Targets = o.Value
	}
	return append(sets, base)
}

func actor(ctx context.Context) string {
	return ctxutil.ActorID(ctx)
}
