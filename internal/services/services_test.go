package services

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore/memstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/ctxutil"
)

func newTestServices(opts ...memstore.Option) (*Services, *memstore.Store) {
	store := memstore.New(opts...)
	deps := aggregates.BaseDeps{Client: store}
	return New(Deps{Writer: aggregates.NewWriter(deps), Reader: aggregates.NewReader(deps)}), store
}

func roots(forest []*curriculum.TreeNode) []string {
	out := []string{}
	for _, t := range forest {
		out = append(out, t.ID)
	}
	return out
}

func TestQuizWithUnknownConceptIsNotCreated(t *testing.T) {
	svc, store := newTestServices()
	ctx := context.Background()

	_, err := svc.Quizzes.Create(ctx, QuizInput{ID: "quiz-1", Title: "Limits", ConceptID: "concept-404"})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if got := domainagg.IDsOf(err); !reflect.DeepEqual(got, []string{"concept-404"}) {
		t.Fatalf("error ids: %v", got)
	}
	if store.HasNode(curriculum.KindQuiz, "quiz-1") {
		t.Fatalf("quiz must not exist")
	}
	if _, err := svc.Quizzes.Get(ctx, "quiz-1"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("subsequent read should not find the quiz, got %v", err)
	}
}

func TestQuizRecordsAuthor(t *testing.T) {
	svc, _ := newTestServices()
	ctx := ctxutil.WithActor(context.Background(), &ctxutil.Actor{UserID: "u1", Role: "editor"})

	if _, err := svc.Users.Create(ctx, UserInput{ID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("user: %v", err)
	}
	if _, err := svc.Concepts.Create(ctx, ConceptInput{ID: "c1", Name: "Limits"}); err != nil {
		t.Fatalf("concept: %v", err)
	}
	if _, err := svc.Questions.Create(ctx, QuestionInput{ID: "q1", Text: "lim x->0 sin x / x?", ConceptID: "c1"}); err != nil {
		t.Fatalf("question: %v", err)
	}
	agg, err := svc.Quizzes.Create(ctx, QuizInput{ID: "quiz-1", Title: "Limits", ConceptID: "c1", QuestionIDs: []string{"q1"}})
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if agg.Target(curriculum.RelCreated, curriculum.Incoming) != "u1" {
		t.Fatalf("author link missing: %+v", agg.Relations)
	}

	if _, err := svc.Quizzes.Update(ctx, "quiz-1", QuizPatch{ConceptID: curriculum.Null[string]()}); !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("clearing the tested concept must fail, got %v", err)
	}
}

func TestDeletingParentConceptPromotesChildren(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()

	for _, in := range []ConceptInput{
		{ID: "math", Name: "Mathematics", Type: "Subject"},
		{ID: "algebra", Name: "Algebra", Type: "Matter", ParentID: "math"},
		{ID: "calculus", Name: "Calculus", Type: "Matter", ParentID: "math"},
	} {
		if _, err := svc.Concepts.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.ID, err)
		}
	}
	forest, err := svc.Concepts.Hierarchy(ctx)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if got := roots(forest); !reflect.DeepEqual(got, []string{"math"}) {
		t.Fatalf("roots before: %v", got)
	}
	if got := roots(forest[0].Children); !reflect.DeepEqual(got, []string{"algebra", "calculus"}) {
		t.Fatalf("children: %v", got)
	}

	if err := svc.Concepts.Delete(ctx, "math", true); !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("leaf delete of a parent must fail, got %v", err)
	}
	if err := svc.Concepts.Delete(ctx, "math", false); err != nil {
		t.Fatalf("delete: %v", err)
	}
	forest, err = svc.Concepts.Hierarchy(ctx)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if got := roots(forest); !reflect.DeepEqual(got, []string{"algebra", "calculus"}) {
		t.Fatalf("roots after: %v", got)
	}
	if err := svc.Concepts.Delete(ctx, "math", false); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second delete: expected not_found, got %v", err)
	}
}

func TestConceptPatchKeyPresence(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()
	for _, in := range []ConceptInput{
		{ID: "p", Name: "Parent"},
		{ID: "q", Name: "Other"},
		{ID: "c", Name: "Child", Description: "keep", ParentID: "p", Prerequisites: []string{"q"}},
	} {
		if _, err := svc.Concepts.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.ID, err)
		}
	}

	var patch ConceptPatch
	if err := json.Unmarshal([]byte(`{"name":"Renamed"}`), &patch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	agg, err := svc.Concepts.Update(ctx, "c", patch)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if agg.Target(curriculum.RelContains, curriculum.Incoming) != "p" || agg.Node.StringAttr("description") != "keep" {
		t.Fatalf("absent keys must not change anything: %+v", agg)
	}
	if got := agg.Targets(curriculum.RelHasPrerequisite, curriculum.Outgoing); !reflect.DeepEqual(got, []string{"q"}) {
		t.Fatalf("prerequisites changed: %v", got)
	}

	patch = ConceptPatch{}
	if err := json.Unmarshal([]byte(`{"parent_id":null,"description":""}`), &patch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	agg, err = svc.Concepts.Update(ctx, "c", patch)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if agg.Target(curriculum.RelContains, curriculum.Incoming) != "" {
		t.Fatalf("null parent_id must remove the parent")
	}
	if _, ok := agg.Node.Attributes["description"]; ok {
		t.Fatalf("empty description must remove the attribute")
	}
}

func TestConceptPrerequisites(t *testing.T) {
	svc, _ := newTestServices(memstore.WithoutTransactions())
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if _, err := svc.Concepts.Create(ctx, ConceptInput{ID: id, Name: id}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.Concepts.AddPrerequisite(ctx, "a", "b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Concepts.AddPrerequisite(ctx, "a", "b"); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate: expected conflict, got %v", err)
	}
	if _, err := svc.Concepts.AddPrerequisite(ctx, "a", "a"); !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("self: expected bad_request, got %v", err)
	}
	if err := svc.Concepts.RemovePrerequisite(ctx, "a", "b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Concepts.RemovePrerequisite(ctx, "a", "b"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("remove again: expected not_found, got %v", err)
	}
}

func TestContestOrdering(t *testing.T) {
	svc, _ := newTestServices()
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Contests.Create(ctx, ContestInput{ID: "k", Title: "Spring", Start: start, End: start}); !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("start == end must fail, got %v", err)
	}
	if _, err := svc.Contests.Create(ctx, ContestInput{ID: "k", Title: "Spring", Start: start, End: start.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Only start is patched; it must be checked against the stored end.
	_, err := svc.Contests.Update(ctx, "k", ContestPatch{Start: curriculum.Some(start.Add(3 * time.Hour))})
	if !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("start after stored end must fail, got %v", err)
	}
	agg, err := svc.Contests.Update(ctx, "k", ContestPatch{Start: curriculum.Some(start.Add(time.Hour))})
	if err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if agg.Node.StringAttr("start") != "2026-05-01T10:00:00Z" {
		t.Fatalf("start: %v", agg.Node.Attributes["start"])
	}
}

func TestLearningPathLifecycle(t *testing.T) {
	svc, store := newTestServices(memstore.WithoutTransactions())
	ctx := context.Background()
	if _, err := svc.Users.Create(ctx, UserInput{ID: "u1", Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("user: %v", err)
	}
	for _, id := range []string{"r1", "r2"} {
		if _, err := svc.Resources.Create(ctx, ResourceInput{ID: id, Title: id, URL: "https://example.com/" + id}); err != nil {
			t.Fatalf("resource: %v", err)
		}
	}
	nodes := store.NodeCount()

	_, err := svc.LearningPaths.Create(ctx, LearningPathInput{ID: "lp", Title: "Path", OwnerID: "u1", Steps: []LearningPathStepInput{{ResourceID: "r1"}, {ResourceID: "missing"}}})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) || store.NodeCount() != nodes {
		t.Fatalf("missing step resource: err=%v nodes=%d", err, store.NodeCount())
	}

	agg, err := svc.LearningPaths.Create(ctx, LearningPathInput{ID: "lp", Title: "Path", OwnerID: "u1", Steps: []LearningPathStepInput{{ResourceID: "r1"}, {ResourceID: "r2", Note: "optional"}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := agg.Targets(curriculum.RelHasStep, curriculum.Outgoing); !reflect.DeepEqual(got, []string{"lp-step-1", "lp-step-2"}) {
		t.Fatalf("steps: %v", got)
	}
	if err := svc.Resources.Delete(ctx, "r1"); !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("resource in use must not be deleted, got %v", err)
	}
	if err := svc.LearningPaths.Delete(ctx, "lp"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.NodeCount() != nodes || store.RelCount() != 0 {
		t.Fatalf("path delete must cascade to steps: nodes=%d rels=%d", store.NodeCount(), store.RelCount())
	}
}

func TestTaskBelongsToConcept(t *testing.T) {
	svc, store := newTestServices()
	ctx := context.Background()
	if _, err := svc.Tasks.Create(ctx, TaskInput{ID: "t1", Title: "Practice"}); !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("task without concept: expected bad_request, got %v", err)
	}
	if _, err := svc.Concepts.Create(ctx, ConceptInput{ID: "c1", Name: "Limits"}); err != nil {
		t.Fatalf("concept: %v", err)
	}
	if _, err := svc.Tasks.Create(ctx, TaskInput{ID: "t1", Title: "Practice", ConceptID: "c1"}); err != nil {
		t.Fatalf("task: %v", err)
	}
	if err := svc.Concepts.Delete(ctx, "c1", false); err != nil {
		t.Fatalf("delete concept: %v", err)
	}
	if store.HasNode(curriculum.KindTask, "t1") {
		t.Fatalf("tasks are removed with their concept")
	}
}

func TestConceptParentCannotBeDescendant(t *testing.T) {
	svc, _ := newTestServices(memstore.WithoutTransactions())
	ctx := context.Background()
	for _, in := range []ConceptInput{
		{ID: "calc", Name: "Calculus"},
		{ID: "limits", Name: "Limits", ParentID: "calc"},
		{ID: "epsilon", Name: "Epsilon-delta", ParentID: "limits"},
	} {
		if _, err := svc.Concepts.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.ID, err)
		}
	}

	_, err := svc.Concepts.Update(ctx, "calc", ConceptPatch{Name: curriculum.Some("Calc"), ParentID: curriculum.Some("epsilon")})
	if !domainagg.IsCode(err, domainagg.CodeBadRequest) {
		t.Fatalf("expected bad_request, got %v", err)
	}
	agg, err := svc.Concepts.Get(ctx, "calc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if agg.Node.Name() != "Calculus" || agg.Target(curriculum.RelContains, curriculum.Incoming) != "" {
		t.Fatalf("refused update changed the concept: %+v", agg)
	}
	forest, err := svc.Concepts.Hierarchy(ctx)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if got := roots(forest); !reflect.DeepEqual(got, []string{"calc"}) {
		t.Fatalf("roots: %v", got)
	}
}
