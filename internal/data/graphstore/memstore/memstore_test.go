package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

func TestDetachDeleteRemovesIncidentEdges(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(curriculum.KindConcept, "a", map[string]any{"name": "A"})
	s.Seed(curriculum.KindConcept, "b", map[string]any{"name": "B"})
	s.SeedRel(curriculum.RelContains, curriculum.KindConcept, "a", curriculum.KindConcept, "b")

	rows, err := s.Write(ctx, graphstore.DetachDelete(curriculum.KindConcept, "a"))
	if err != nil {
		t.Fatalf("detach delete: %v", err)
	}
	if got := graphstore.FirstInt(rows, "deleted"); got != 1 {
		t.Fatalf("deleted: want=1 got=%d", got)
	}
	if s.HasNode(curriculum.KindConcept, "a") || !s.HasNode(curriculum.KindConcept, "b") {
		t.Fatalf("unexpected nodes after delete")
	}
	if s.RelCount() != 0 {
		t.Fatalf("edges should be detached, got=%d", s.RelCount())
	}

	rows, err = s.Write(ctx, graphstore.DetachDelete(curriculum.KindConcept, "a"))
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if got := graphstore.FirstInt(rows, "deleted"); got != 0 {
		t.Fatalf("second delete should report zero, got=%d", got)
	}
}

func TestRelCreateRequiresBothEndpoints(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(curriculum.KindQuiz, "quiz", nil)
	rows, err := s.Write(ctx, graphstore.CreateRel(curriculum.KindQuiz, "quiz", curriculum.RelRef{
		Type: curriculum.RelTests, Direction: curriculum.Outgoing, TargetKind: curriculum.KindConcept, TargetID: "missing",
	}))
	if err != nil {
		t.Fatalf("create rel: %v", err)
	}
	if graphstore.FirstInt(rows, "created") != 0 || s.RelCount() != 0 || s.NodeCount() != 1 {
		t.Fatalf("relationship creation must never create endpoints")
	}
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Run(ctx, graphstore.CreateNode(curriculum.KindQuestion, "q1", nil)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.HasNode(curriculum.KindQuestion, "q1") {
		t.Fatalf("uncommitted write visible")
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if s.NodeCount() != 0 {
		t.Fatalf("rollback left nodes behind")
	}

	tx, _ = s.BeginTx(ctx)
	_, _ = tx.Run(ctx, graphstore.CreateNode(curriculum.KindQuestion, "q2", nil))
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit should be a no-op: %v", err)
	}
	if !s.HasNode(curriculum.KindQuestion, "q2") {
		t.Fatalf("committed node missing")
	}
}

func TestWithoutTransactions(t *testing.T) {
	s := New(WithoutTransactions())
	if _, err := s.BeginTx(context.Background()); !errors.Is(err, graphstore.ErrTxUnsupported) {
		t.Fatalf("want ErrTxUnsupported, got %v", err)
	}
}

func TestFailOnNthCall(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailOn(graphstore.OpNodeCreate, 2, boom)

	if _, err := s.Write(ctx, graphstore.CreateNode(curriculum.KindUser, "u1", nil)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.Write(ctx, graphstore.CreateNode(curriculum.KindUser, "u2", nil)); !errors.Is(err, boom) {
		t.Fatalf("second create: want boom, got %v", err)
	}
	if _, err := s.Write(ctx, graphstore.CreateNode(curriculum.KindUser, "u3", nil)); err != nil {
		t.Fatalf("third create: %v", err)
	}
	if s.Calls(graphstore.OpNodeCreate) != 3 {
		t.Fatalf("calls: want=3 got=%d", s.Calls(graphstore.OpNodeCreate))
	}
}

func TestSetAttributesRemovesNullKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(curriculum.KindConcept, "c", map[string]any{"name": "Old", "summary": "keep me?"})
	if _, err := s.Write(ctx, graphstore.SetAttributes(curriculum.KindConcept, "c", map[string]any{"name": "New", "summary": nil}, nil)); err != nil {
		t.Fatalf("set: %v", err)
	}
	rows, _ := s.Read(ctx, graphstore.GetNode(curriculum.KindConcept, "c"))
	n := graphstore.NodeFromRow(curriculum.KindConcept, rows[0])
	if n.Name() != "New" {
		t.Fatalf("name: %q", n.Name())
	}
	if _, ok := n.Attributes["summary"]; ok {
		t.Fatalf("summary should be removed: %+v", n.Attributes)
	}
}

func TestInterleavedTransactionsKeepEachOthersWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx1, _ := s.BeginTx(ctx)
	tx2, _ := s.BeginTx(ctx)
	if _, err := tx1.Run(ctx, graphstore.CreateNode(curriculum.KindConcept, "a", nil)); err != nil {
		t.Fatalf("tx1: %v", err)
	}
	if _, err := tx2.Run(ctx, graphstore.CreateNode(curriculum.KindConcept, "b", nil)); err != nil {
		t.Fatalf("tx2: %v", err)
	}
	if _, err := s.Write(ctx, graphstore.CreateNode(curriculum.KindConcept, "c", nil)); err != nil {
		t.Fatalf("auto-commit write: %v", err)
	}
	if err := tx1.Commit(ctx); err != nil {
		t.Fatalf("commit tx1: %v", err)
	}
	if err := tx2.Commit(ctx); err != nil {
		t.Fatalf("commit tx2: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !s.HasNode(curriculum.KindConcept, id) {
			t.Fatalf("committed node %s lost", id)
		}
	}
}

func TestCommitConflictAppliesNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(curriculum.KindConcept, "p", nil)

	tx1, _ := s.BeginTx(ctx)
	tx2, _ := s.BeginTx(ctx)
	_, _ = tx1.Run(ctx, graphstore.CreateNode(curriculum.KindConcept, "x", map[string]any{"name": "first"}))
	_, _ = tx2.Run(ctx, graphstore.CreateNode(curriculum.KindConcept, "x", map[string]any{"name": "second"}))
	_, _ = tx2.Run(ctx, graphstore.CreateRel(curriculum.KindConcept, "x", curriculum.RelRef{
		Type: curriculum.RelContains, Direction: curriculum.Incoming, TargetKind: curriculum.KindConcept, TargetID: "p",
	}))
	if err := tx1.Commit(ctx); err != nil {
		t.Fatalf("commit tx1: %v", err)
	}
	if err := tx2.Commit(ctx); !errors.Is(err, graphstore.ErrTxConflict) {
		t.Fatalf("want ErrTxConflict, got %v", err)
	}
	rows, _ := s.Read(ctx, graphstore.GetNode(curriculum.KindConcept, "x"))
	if n := graphstore.NodeFromRow(curriculum.KindConcept, rows[0]); n.Name() != "first" {
		t.Fatalf("losing transaction overwrote the winner: %+v", n.Attributes)
	}
	if s.RelCount() != 0 {
		t.Fatalf("conflicting transaction leaked edges: %v", s.Edges())
	}

	// An edge whose endpoint was deleted after the transaction began cannot commit.
	tx3, _ := s.BeginTx(ctx)
	_, _ = tx3.Run(ctx, graphstore.CreateRel(curriculum.KindConcept, "x", curriculum.RelRef{
		Type: curriculum.RelHasPrerequisite, Direction: curriculum.Outgoing, TargetKind: curriculum.KindConcept, TargetID: "p",
	}))
	if _, err := s.Write(ctx, graphstore.DetachDelete(curriculum.KindConcept, "p")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tx3.Commit(ctx); !errors.Is(err, graphstore.ErrTxConflict) {
		t.Fatalf("want ErrTxConflict for vanished endpoint, got %v", err)
	}
}
