package services

import (
	"context"
	"time"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type ContestInput struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	QuizIDs     []string  `json:"quiz_ids"`
}

type ContestPatch struct {
	Title       curriculum.Optional[string]    `json:"title"`
	Description curriculum.Optional[string]    `json:"description"`
	Start       curriculum.Optional[time.Time] `json:"start"`
	End         curriculum.Optional[time.Time] `json:"end"`
	QuizIDs     curriculum.Optional[[]string]  `json:"quiz_ids"`
}

type ContestService interface {
	Create(ctx context.Context, in ContestInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p ContestPatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type contestService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewContestService(w AggregateWriter, r AggregateReader, log *logger.Logger) ContestService {
	return &contestService{w: w, r: r, log: log.With("service", "ContestService")}
}

func includesQuizzes(ids []string) curriculum.RelationSet {
	return curriculum.RelationSet{
		Type:       curriculum.RelIncludes,
		Direction:  curriculum.Outgoing,
		TargetKind: curriculum.KindQuiz,
		Targets:    ids,
	}
}

// Contest dates are stored as RFC 3339 strings in UTC.
func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

func (s *contestService) Create(ctx context.Context, in ContestInput) (curriculum.Aggregate, error) {
	const op = "contest.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return curriculum.Aggregate{}, err
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "start and end are required")
	}
	if err := aggregates.NewVerifier(nil, op).VerifyOrdering(in.Start, in.End); err != nil {
		return curriculum.Aggregate{}, err
	}
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindContest,
			ID:         newID(in.ID),
			Attributes: attrs("title", in.Title, "description", in.Description, "start", formatTime(in.Start), "end", formatTime(in.End)),
		},
		Relations: []curriculum.RelationSet{includesQuizzes(in.QuizIDs)},
		ActorID:   actor(ctx),
	})
}

// Update checks ordering against the stored dates merged with the patched ones, inside the
// same write boundary as the patch.
func (s *contestService) Update(ctx context.Context, id string, p ContestPatch) (curriculum.Aggregate, error) {
	const op = "contest.update"
	if p.Title.Present && p.Title.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "title cannot be removed", id)
	}
	if (p.Start.Present && p.Start.Null) || (p.End.Present && p.End.Null) {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "start and end cannot be removed", id)
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "title", p.Title)
	curriculum.PutAttr(patch, "description", p.Description)
	if p.Start.Present {
		patch["start"] = formatTime(p.Start.Value)
	}
	if p.End.Present {
		patch["end"] = formatTime(p.End.Value)
	}

	spec := curriculum.UpdateSpec{
		Op:        op,
		Kind:      curriculum.KindContest,
		ID:        id,
		Patch:     patch,
		Relations: optionalTargets(nil, p.QuizIDs, includesQuizzes(nil)),
		ActorID:   actor(ctx),
	}
	if p.Start.Present || p.End.Present {
		spec.Check = func(current curriculum.Node) error {
			start, okStart := parseTime(current.Attributes["start"])
			end, okEnd := parseTime(current.Attributes["end"])
			if p.Start.Present {
				start, okStart = p.Start.Value, true
			}
			if p.End.Present {
				end, okEnd = p.End.Value, true
			}
			if !okStart || !okEnd {
				return domainagg.BadRequest(op, "contest has no valid start/end", id)
			}
			return aggregates.NewVerifier(nil, op).VerifyOrdering(start, end)
		}
	}
	return s.w.Update(ctx, spec)
}

func (s *contestService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{Op: "contest.delete", Kind: curriculum.KindContest, ID: id, ActorID: actor(ctx)})
}

func (s *contestService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindContest, id)
}

func (s *contestService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindContest)
}
