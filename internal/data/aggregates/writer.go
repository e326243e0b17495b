package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Writer realizes create, update and delete of composite entities from declarative specs.
// It always prefers an explicit store transaction and falls back to sequential writes with
// compensating cleanup only when the store cannot open one.
type Writer struct {
	deps BaseDeps
}

func NewWriter(deps BaseDeps) *Writer {
	return &Writer{deps: deps.withDefaults()}
}

func (w *Writer) Create(ctx context.Context, spec curriculum.CreateSpec) (curriculum.Aggregate, error) {
	op := opName(spec.Op, "create", spec.Root.Kind)
	if err := spec.Validate(); err != nil {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, err.Error(), spec.Root.ID)
	}

	var out curriculum.Aggregate
	err := executeWrite(ctx, w.deps, op, func(sc Scope) error {
		v := NewVerifier(sc.Runner, op)
		root := spec.Root

		if err := v.VerifyAbsent(sc.Ctx, root.Kind, root.ID); err != nil {
			return err
		}
		for _, o := range spec.Owned {
			if err := v.VerifyAbsent(sc.Ctx, o.Node.Kind, o.Node.ID); err != nil {
				return err
			}
		}
		if err := verifyTargets(sc.Ctx, v, root.Kind, root.ID, spec.Relations); err != nil {
			return err
		}
		for _, o := range spec.Owned {
			if err := verifyTargets(sc.Ctx, v, o.Node.Kind, o.Node.ID, o.Relations); err != nil {
				return err
			}
		}

		if err := createNode(sc, op, root); err != nil {
			return err
		}
		for _, rs := range spec.Relations {
			for _, ref := range rs.Refs() {
				if err := createRel(sc, op, root.Kind, root.ID, ref); err != nil {
					return err
				}
			}
		}
		for _, o := range spec.Owned {
			if err := createNode(sc, op, o.Node); err != nil {
				return err
			}
			link := curriculum.RelRef{
				Type:       o.Link,
				Direction:  curriculum.Outgoing,
				TargetKind: o.Node.Kind,
				TargetID:   o.Node.ID,
				Props:      o.LinkProps,
			}
			if err := createRel(sc, op, root.Kind, root.ID, link); err != nil {
				return err
			}
			for _, rs := range o.Relations {
				for _, ref := range rs.Refs() {
					if err := createRel(sc, op, o.Node.Kind, o.Node.ID, ref); err != nil {
						return err
					}
				}
			}
		}

		agg, err := readAggregate(sc.Ctx, sc.Runner, op, root.Kind, root.ID)
		if err != nil {
			return err
		}
		out = agg
		return nil
	})
	if err != nil {
		return curriculum.Aggregate{}, err
	}
	publish(ctx, w.deps, curriculum.ActionCreated, spec.Root.Kind, spec.Root.ID, spec.ActorID)
	return out, nil
}

// Update applies an attribute patch and reconciles the declared relation sets. A call whose
// patch is empty and whose relation sets already match issues no writes.
func (w *Writer) Update(ctx context.Context, spec curriculum.UpdateSpec) (curriculum.Aggregate, error) {
	op := opName(spec.Op, "update", spec.Kind)
	if err := spec.Validate(); err != nil {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, err.Error(), spec.ID)
	}

	var out curriculum.Aggregate
	err := executeWrite(ctx, w.deps, op, func(sc Scope) error {
		v := NewVerifier(sc.Runner, op)

		current, err := readNode(sc.Ctx, sc.Runner, op, spec.Kind, spec.ID)
		if err != nil {
			return err
		}
		if spec.Check != nil {
			if err := spec.Check(current); err != nil {
				return err
			}
		}
		if err := verifyTargets(sc.Ctx, v, spec.Kind, spec.ID, spec.Relations); err != nil {
			return err
		}
		for _, rs := range spec.Relations {
			if !rs.Acyclic || rs.TargetKind != spec.Kind {
				continue
			}
			if err := v.VerifyNoCycle(sc.Ctx, spec.Kind, spec.ID, rs.Type, rs.Direction, rs.Targets); err != nil {
				return err
			}
		}

		undo := sc.Undo()
		set, remove := splitPatch(spec.Patch)
		if len(set) > 0 || len(remove) > 0 {
			if undo != nil {
				touched := append(mapKeys(set), remove...)
				undo.TrackAttributes(spec.Kind, spec.ID, current.Attributes, touched)
			}
			rows, err := sc.Runner.Run(sc.Ctx, graphstore.SetAttributes(spec.Kind, spec.ID, set, remove))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return domainagg.NotFound(op, spec.Kind.Noun(), spec.ID)
			}
		}

		if len(spec.Relations) > 0 {
			rels, err := readRels(sc.Ctx, sc.Runner, spec.Kind, spec.ID)
			if err != nil {
				return err
			}
			delta := Reconcile(rels, spec.Relations)
			for _, ref := range delta.ToRemove {
				rows, err := sc.Runner.Run(sc.Ctx, graphstore.DeleteRel(spec.Kind, spec.ID, ref))
				if err != nil {
					return err
				}
				if undo != nil && graphstore.FirstInt(rows, "deleted") > 0 {
					undo.TrackRelDeleted(spec.Kind, spec.ID, ref)
				}
			}
			for _, ref := range delta.ToAdd {
				if undo != nil {
					undo.TrackRelCreated(spec.Kind, spec.ID, ref)
				}
				if err := createRel(sc, op, spec.Kind, spec.ID, ref); err != nil {
					return err
				}
			}
		}

		agg, err := readAggregate(sc.Ctx, sc.Runner, op, spec.Kind, spec.ID)
		if err != nil {
			return err
		}
		out = agg
		return nil
	})
	if err != nil {
		return curriculum.Aggregate{}, err
	}
	publish(ctx, w.deps, curriculum.ActionUpdated, spec.Kind, spec.ID, spec.ActorID)
	return out, nil
}

// Delete detach-deletes the root and its owned nodes. Existence is taken from the delete's
// own affected count rather than a prior read.
func (w *Writer) Delete(ctx context.Context, spec curriculum.DeleteSpec) error {
	op := opName(spec.Op, "delete", spec.Kind)
	if err := spec.Validate(); err != nil {
		return domainagg.BadRequest(op, err.Error(), spec.ID)
	}

	err := executeWrite(ctx, w.deps, op, func(sc Scope) error {
		v := NewVerifier(sc.Runner, op)
		for _, g := range spec.RefuseIf {
			if err := v.VerifyNoRelations(sc.Ctx, spec.Kind, spec.ID, g); err != nil {
				return err
			}
		}
		for _, o := range spec.Owned {
			if _, err := sc.Runner.Run(sc.Ctx, graphstore.DetachDeleteOwned(spec.Kind, spec.ID, o.Type, o.Kind)); err != nil {
				return err
			}
		}
		rows, err := sc.Runner.Run(sc.Ctx, graphstore.DetachDelete(spec.Kind, spec.ID))
		if err != nil {
			return err
		}
		if graphstore.FirstInt(rows, "deleted") == 0 {
			return domainagg.NotFound(op, spec.Kind.Noun(), spec.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	publish(ctx, w.deps, curriculum.ActionDeleted, spec.Kind, spec.ID, spec.ActorID)
	return nil
}

// Link adds one relationship. Both endpoints must exist and the edge must not.
func (w *Writer) Link(ctx context.Context, spec curriculum.LinkSpec) (curriculum.Aggregate, error) {
	op := opName(spec.Op, "link", spec.Kind)
	if err := spec.Validate(); err != nil {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, err.Error(), spec.ID)
	}

	var out curriculum.Aggregate
	err := executeWrite(ctx, w.deps, op, func(sc Scope) error {
		v := NewVerifier(sc.Runner, op)
		if spec.Kind == spec.Ref.TargetKind {
			if err := v.VerifyNoSelfReference(spec.ID, spec.Ref.TargetID); err != nil {
				return err
			}
		}
		if err := v.VerifyExists(sc.Ctx, spec.Kind, spec.ID); err != nil {
			return err
		}
		if err := v.VerifyExists(sc.Ctx, spec.Ref.TargetKind, spec.Ref.TargetID); err != nil {
			return err
		}
		if err := v.VerifyRelAbsent(sc.Ctx, spec.Kind, spec.ID, spec.Ref); err != nil {
			return err
		}
		if err := createRel(sc, op, spec.Kind, spec.ID, spec.Ref); err != nil {
			return err
		}
		agg, err := readAggregate(sc.Ctx, sc.Runner, op, spec.Kind, spec.ID)
		if err != nil {
			return err
		}
		out = agg
		return nil
	})
	if err != nil {
		return curriculum.Aggregate{}, err
	}
	publish(ctx, w.deps, curriculum.ActionUpdated, spec.Kind, spec.ID, spec.ActorID)
	return out, nil
}

// Unlink removes one relationship, failing with NotFound when it does not exist.
func (w *Writer) Unlink(ctx context.Context, spec curriculum.LinkSpec) error {
	op := opName(spec.Op, "unlink", spec.Kind)
	if err := spec.Validate(); err != nil {
		return domainagg.BadRequest(op, err.Error(), spec.ID)
	}

	err := executeWrite(ctx, w.deps, op, func(sc Scope) error {
		rows, err := sc.Runner.Run(sc.Ctx, graphstore.DeleteRel(spec.Kind, spec.ID, spec.Ref))
		if err != nil {
			return err
		}
		if graphstore.FirstInt(rows, "deleted") == 0 {
			return NewVerifier(sc.Runner, op).VerifyRelExists(sc.Ctx, spec.Kind, spec.ID, spec.Ref)
		}
		return nil
	})
	if err != nil {
		return err
	}
	publish(ctx, w.deps, curriculum.ActionUpdated, spec.Kind, spec.ID, spec.ActorID)
	return nil
}

// verifyTargets checks every declared relation target before any mutation. Exclusive sets
// hold one target and fail with NotFound; multi-target sets report all missing ids at once.
func verifyTargets(ctx context.Context, v Verifier, kind curriculum.Kind, id string, sets []curriculum.RelationSet) error {
	for _, rs := range sets {
		refs := rs.Refs()
		if len(refs) == 0 {
			continue
		}
		ids := make([]string, 0, len(refs))
		for _, r := range refs {
			if rs.TargetKind == kind {
				if err := v.VerifyNoSelfReference(id, r.TargetID); err != nil {
					return err
				}
			}
			ids = append(ids, r.TargetID)
		}
		if rs.Exclusive {
			if err := v.VerifyExists(ctx, rs.TargetKind, ids[0]); err != nil {
				return err
			}
			continue
		}
		if err := v.VerifyAllExist(ctx, rs.TargetKind, ids); err != nil {
			return err
		}
	}
	return nil
}

// createNode tracks before writing: a create can be applied even when its result is lost.
// A uniqueness violation means the node belongs to someone else, so it is untracked.
func createNode(sc Scope, op string, n curriculum.NodeSpec) error {
	sc.Track(n.Kind, n.ID)
	rows, err := sc.Runner.Run(sc.Ctx, graphstore.CreateNode(n.Kind, n.ID, n.Attributes))
	if err != nil {
		if sc.comp != nil && domainagg.IsCode(MapError(op, err), domainagg.CodeConflict) {
			sc.comp.forgetLast()
		}
		return err
	}
	if len(rows) == 0 {
		return domainagg.Internal(op, fmt.Errorf("create %s %q returned no row", n.Kind, n.ID))
	}
	return nil
}

// createRel never creates endpoints; a zero count means one of them vanished mid-sequence.
func createRel(sc Scope, op string, kind curriculum.Kind, id string, ref curriculum.RelRef) error {
	rows, err := sc.Runner.Run(sc.Ctx, graphstore.CreateRel(kind, id, ref))
	if err != nil {
		return err
	}
	if graphstore.FirstInt(rows, "created") == 0 {
		return domainagg.NotFound(op, ref.TargetKind.Noun(), ref.TargetID)
	}
	return nil
}

func readNode(ctx context.Context, r graphstore.Runner, op string, kind curriculum.Kind, id string) (curriculum.Node, error) {
	rows, err := r.Run(ctx, graphstore.GetNode(kind, id))
	if err != nil {
		return curriculum.Node{}, err
	}
	if len(rows) == 0 {
		return curriculum.Node{}, domainagg.NotFound(op, kind.Noun(), id)
	}
	return graphstore.NodeFromRow(kind, rows[0]), nil
}

func readRels(ctx context.Context, r graphstore.Runner, kind curriculum.Kind, id string) ([]curriculum.RelRef, error) {
	rows, err := r.Run(ctx, graphstore.ListRels(kind, id))
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.RelRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, graphstore.RelFromRow(row))
	}
	curriculum.SortRefs(out)
	return out, nil
}

func readAggregate(ctx context.Context, r graphstore.Runner, op string, kind curriculum.Kind, id string) (curriculum.Aggregate, error) {
	n, err := readNode(ctx, r, op, kind, id)
	if err != nil {
		return curriculum.Aggregate{}, err
	}
	rels, err := readRels(ctx, r, kind, id)
	if err != nil {
		return curriculum.Aggregate{}, err
	}
	return curriculum.Aggregate{Node: n, Relations: rels}, nil
}

// splitPatch separates keys to set from keys to remove (nil values).
func splitPatch(patch map[string]any) (map[string]any, []string) {
	set := map[string]any{}
	var remove []string
	for k, v := range patch {
		if k == "id" {
			continue
		}
		if v == nil {
			remove = append(remove, k)
			continue
		}
		set[k] = v
	}
	return set, remove
}

func mapKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func opName(op, verb string, kind curriculum.Kind) string {
	if s := strings.TrimSpace(op); s != "" {
		return s
	}
	return strings.ToLower(string(kind)) + "." + verb
}
