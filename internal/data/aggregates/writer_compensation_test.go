package aggregates_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore/memstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

func TestConcurrentCreatesOnDistinctIDsAllPersist(t *testing.T) {
	modes(t, func(t *testing.T, h *harness) {
		const n = 200
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := h.writer.Create(context.Background(), curriculum.CreateSpec{
					Root: curriculum.NodeSpec{Kind: curriculum.KindUser, ID: fmt.Sprintf("u%03d", i), Attributes: map[string]any{"name": "user"}},
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		if got := h.store.NodeCount(); got != n {
			t.Fatalf("nodes: want=%d got=%d", n, got)
		}
	})
}

func conceptName(t *testing.T, h *harness, id string) string {
	t.Helper()
	agg, err := h.reader.Get(context.Background(), curriculum.KindConcept, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return agg.Node.Name()
}

func prerequisites(t *testing.T, h *harness, id string) []string {
	t.Helper()
	agg, err := h.reader.Get(context.Background(), curriculum.KindConcept, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return agg.Targets(curriculum.RelHasPrerequisite, curriculum.Outgoing)
}

func TestUpdateFailureMidSequenceRestoresPriorState(t *testing.T) {
	for step := 1; step <= 2; step++ {
		modes(t, func(t *testing.T, h *harness) {
			h.store.Seed(curriculum.KindConcept, "c", map[string]any{"name": "old", "description": "kept"})
			seedConcepts(h.store, "p1", "p2", "p3")
			h.store.SeedRel(curriculum.RelHasPrerequisite, curriculum.KindConcept, "c", curriculum.KindConcept, "p1")
			injected := errors.New("boom")
			h.store.FailOn(graphstore.OpRelCreate, step, injected)

			_, err := h.writer.Update(context.Background(), curriculum.UpdateSpec{
				Kind: curriculum.KindConcept, ID: "c",
				Patch:     map[string]any{"name": "new", "description": nil, "summary": "added"},
				Relations: []curriculum.RelationSet{prereqSet("p2", "p3")},
			})
			if !errors.Is(err, injected) {
				t.Fatalf("step %d: expected injected failure, got %v", step, err)
			}
			agg, err := h.reader.Get(context.Background(), curriculum.KindConcept, "c")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if agg.Node.Name() != "old" || agg.Node.StringAttr("description") != "kept" {
				t.Fatalf("step %d: attributes not restored: %+v", step, agg.Node.Attributes)
			}
			if _, ok := agg.Node.Attributes["summary"]; ok {
				t.Fatalf("step %d: added attribute must be removed: %+v", step, agg.Node.Attributes)
			}
			if got := prerequisites(t, h, "c"); !reflect.DeepEqual(got, []string{"p1"}) {
				t.Fatalf("step %d: prerequisites not restored: %v", step, got)
			}
			if h.store.RelCount() != 1 {
				t.Fatalf("step %d: edges: %v", step, h.store.Edges())
			}
		})
	}
}

func TestUpdateCompensationReportsHook(t *testing.T) {
	h := newHarness(memstore.WithoutTransactions())
	seedConcepts(h.store, "c", "p1")
	h.store.FailOn(graphstore.OpRelCreate, 1, errors.New("boom"))

	if _, err := h.writer.Update(context.Background(), curriculum.UpdateSpec{
		Kind: curriculum.KindConcept, ID: "c", Patch: map[string]any{"name": "new"},
		Relations: []curriculum.RelationSet{prereqSet("p1")},
	}); err == nil {
		t.Fatalf("expected failure")
	}
	if len(h.hooks.Compensations) != 1 || !h.hooks.Compensations[0].Complete {
		t.Fatalf("expected one complete compensation, got %+v", h.hooks.Compensations)
	}
	if conceptName(t, h, "c") != "c" {
		t.Fatalf("name not restored")
	}
}

func TestUpdateWithMissingReferencesListsExactlyThoseIDs(t *testing.T) {
	modes(t, func(t *testing.T, h *harness) {
		h.store.Seed(curriculum.KindConcept, "c", map[string]any{"name": "old"})
		seedConcepts(h.store, "p1", "p2")
		before := h.store.Writes()

		_, err := h.writer.Update(context.Background(), curriculum.UpdateSpec{
			Kind: curriculum.KindConcept, ID: "c",
			Patch:     map[string]any{"name": "new"},
			Relations: []curriculum.RelationSet{prereqSet("p1", "p9", "p2", "p8")},
		})
		if !domainagg.IsCode(err, domainagg.CodeBadRequest) {
			t.Fatalf("expected bad_request, got %v", err)
		}
		if got := domainagg.IDsOf(err); !reflect.DeepEqual(got, []string{"p8", "p9"}) {
			t.Fatalf("missing ids: got %v", got)
		}
		if h.store.Writes() != before || h.store.RelCount() != 0 {
			t.Fatalf("nothing may be written: writes=%d edges=%v", h.store.Writes()-before, h.store.Edges())
		}
		if conceptName(t, h, "c") != "old" {
			t.Fatalf("patch must not be applied")
		}
	})
}

// lossyStore applies node creates but reports a failure, as when the reply is lost.
type lossyStore struct {
	*memstore.Store
	fail func(s *memstore.Store, st graphstore.Statement) error
}

func (s lossyStore) Write(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	if st.Op == graphstore.OpNodeCreate && s.fail != nil {
		return nil, s.fail(s.Store, st)
	}
	return s.Store.Write(ctx, st)
}

func TestCreateCompensatesNodeWhoseReplyWasLost(t *testing.T) {
	store := memstore.New(memstore.WithoutTransactions())
	lossy := lossyStore{Store: store, fail: func(s *memstore.Store, st graphstore.Statement) error {
		_, _ = s.Write(context.Background(), st)
		return errors.New("connection reset by peer")
	}}
	w := aggregates.NewWriter(aggregates.BaseDeps{Client: lossy})

	if _, err := w.Create(context.Background(), curriculum.CreateSpec{
		Root: curriculum.NodeSpec{Kind: curriculum.KindUser, ID: "u1"},
	}); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal, got %v", err)
	}
	if store.HasNode(curriculum.KindUser, "u1") {
		t.Fatalf("node applied before the failure must be compensated")
	}
}

func TestCreateLosingUniquenessRaceKeepsOtherNode(t *testing.T) {
	store := memstore.New(memstore.WithoutTransactions())
	lossy := lossyStore{Store: store, fail: func(s *memstore.Store, st graphstore.Statement) error {
		s.Seed(curriculum.KindUser, "u1", map[string]any{"name": "winner"})
		return &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.ConstraintValidationFailed", Msg: "already exists"}
	}}
	w := aggregates.NewWriter(aggregates.BaseDeps{Client: lossy})

	if _, err := w.Create(context.Background(), curriculum.CreateSpec{
		Root: curriculum.NodeSpec{Kind: curriculum.KindUser, ID: "u1"},
	}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !store.HasNode(curriculum.KindUser, "u1") {
		t.Fatalf("compensation deleted a node created by another writer")
	}
}

func TestUpdateRefusesParentCycle(t *testing.T) {
	modes(t, func(t *testing.T, h *harness) {
		seedConcepts(h.store, "a", "b", "c", "d")
		h.store.SeedRel(curriculum.RelContains, curriculum.KindConcept, "a", curriculum.KindConcept, "b")
		h.store.SeedRel(curriculum.RelContains, curriculum.KindConcept, "b", curriculum.KindConcept, "c")
		parent := func(id string) []curriculum.RelationSet {
			return []curriculum.RelationSet{{
				Type: curriculum.RelContains, Direction: curriculum.Incoming, TargetKind: curriculum.KindConcept,
				Targets: []string{id}, Exclusive: true, Acyclic: true,
			}}
		}
		before := h.store.Writes()

		_, err := h.writer.Update(context.Background(), curriculum.UpdateSpec{Kind: curriculum.KindConcept, ID: "a", Relations: parent("c")})
		if !domainagg.IsCode(err, domainagg.CodeBadRequest) {
			t.Fatalf("expected bad_request, got %v", err)
		}
		if got := domainagg.IDsOf(err); !reflect.DeepEqual(got, []string{"c"}) {
			t.Fatalf("ids: %v", got)
		}
		if h.store.Writes() != before {
			t.Fatalf("refused update wrote")
		}

		agg, err := h.writer.Update(context.Background(), curriculum.UpdateSpec{Kind: curriculum.KindConcept, ID: "c", Relations: parent("d")})
		if err != nil {
			t.Fatalf("reparent outside the subtree: %v", err)
		}
		if got := agg.Target(curriculum.RelContains, curriculum.Incoming); got != "d" {
			t.Fatalf("parent: %q", got)
		}
	})
}
