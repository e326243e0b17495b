package curriculum

import (
	"encoding/json"
	"testing"
)

func TestRelationSetRefsDeduplicates(t *testing.T) {
	rs := RelationSet{
		Type:       RelIncludes,
		Direction:  Outgoing,
		TargetKind: KindQuestion,
		Targets:    []string{"q1", "q2", "q1", " ", "q3"},
	}
	refs := rs.Refs()
	if len(refs) != 3 {
		t.Fatalf("refs: want=3 got=%d (%+v)", len(refs), refs)
	}
	for _, r := range refs {
		if !rs.Matches(r) {
			t.Fatalf("ref %+v does not match its own set", r)
		}
	}
}

func TestCreateSpecValidate(t *testing.T) {
	base := CreateSpec{
		Root: NodeSpec{Kind: KindQuiz, ID: "quiz-1"},
		Relations: []RelationSet{
			{Type: RelTests, Direction: Outgoing, TargetKind: KindConcept, Targets: []string{"c1"}, Exclusive: true, Required: true},
		},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid spec: %v", err)
	}

	tooMany := base
	tooMany.Relations = []RelationSet{
		{Type: RelTests, Direction: Outgoing, TargetKind: KindConcept, Targets: []string{"c1", "c2"}, Exclusive: true},
	}
	if err := tooMany.Validate(); err == nil {
		t.Fatalf("expected exclusive cardinality error")
	}

	missing := base
	missing.Relations = []RelationSet{
		{Type: RelTests, Direction: Outgoing, TargetKind: KindConcept, Exclusive: true, Required: true},
	}
	if err := missing.Validate(); err == nil {
		t.Fatalf("expected required relation error")
	}

	badKind := base
	badKind.Root.Kind = Kind("Lesson")
	if err := badKind.Validate(); err == nil {
		t.Fatalf("expected unknown kind error")
	}

	dup := base
	dup.Owned = []OwnedNode{{Node: NodeSpec{Kind: KindLearningPathStep, ID: "quiz-1"}, Link: RelHasStep}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected duplicate owned id error")
	}
}

func TestUpdateSpecRejectsIDPatch(t *testing.T) {
	s := UpdateSpec{Kind: KindConcept, ID: "c1", Patch: map[string]any{"id": "c2"}}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected immutable id error")
	}
}

func TestOptionalKeyPresence(t *testing.T) {
	var body struct {
		Name     Optional[string] `json:"name"`
		ParentID Optional[string] `json:"parent_id"`
		Summary  Optional[string] `json:"summary"`
	}
	if err := json.Unmarshal([]byte(`{"name":"Algebra","parent_id":null}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Name.Present || body.Name.Null || body.Name.Value != "Algebra" {
		t.Fatalf("name: %+v", body.Name)
	}
	if !body.ParentID.Present || !body.ParentID.Cleared() {
		t.Fatalf("parent_id should be present and cleared: %+v", body.ParentID)
	}
	if body.Summary.Present {
		t.Fatalf("summary should be absent")
	}

	patch := map[string]any{}
	PutAttr(patch, "name", body.Name)
	PutAttr(patch, "summary", body.Summary)
	PutAttr(patch, "parent_id", body.ParentID)
	if len(patch) != 2 || patch["name"] != "Algebra" {
		t.Fatalf("patch: %+v", patch)
	}
	if v, ok := patch["parent_id"]; !ok || v != nil {
		t.Fatalf("cleared key should map to nil: %+v", patch)
	}
}

func TestEmptyStringIsCleared(t *testing.T) {
	if !Some("").Cleared() {
		t.Fatalf("empty string should clear")
	}
	if Some("x").Cleared() {
		t.Fatalf("non-empty string should not clear")
	}
	if (Optional[string]{}).Cleared() {
		t.Fatalf("absent should not clear")
	}
}
