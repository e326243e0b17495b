package aggregates

import "github.com/yungbote/curriculum-graph/internal/domain/curriculum"

// Delta is the set of relationship writes needed to move from a current set to a desired one.
type Delta struct {
	ToAdd    []curriculum.RelRef
	ToRemove []curriculum.RelRef
}

func (d Delta) Empty() bool { return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 }

// Diff is a pure set difference keyed by (type, direction, target id). Output is sorted.
func Diff(current, desired []curriculum.RelRef) Delta {
	cur := indexRefs(current)
	want := indexRefs(desired)

	var d Delta
	for k, r := range want {
		if _, ok := cur[k]; !ok {
			d.ToAdd = append(d.ToAdd, r)
		}
	}
	for k, r := range cur {
		if _, ok := want[k]; !ok {
			d.ToRemove = append(d.ToRemove, r)
		}
	}
	curriculum.SortRefs(d.ToAdd)
	curriculum.SortRefs(d.ToRemove)
	return d
}

// Reconcile computes the delta for each declared relation set against the aggregate's
// current relationships. Relationships outside every declared set are left alone.
//
// Exclusive sets are replaced, not merged: unless the current edges are already exactly the
// desired single target, every current edge of the set is removed before the new one is added.
func Reconcile(current []curriculum.RelRef, sets []curriculum.RelationSet) Delta {
	var out Delta
	for _, set := range sets {
		var cur []curriculum.RelRef
		for _, r := range current {
			if set.Matches(r) {
				cur = append(cur, r)
			}
		}
		desired := set.Refs()

		if set.Exclusive {
			if sameTargets(cur, desired) {
				continue
			}
			out.ToRemove = append(out.ToRemove, cur...)
			out.ToAdd = append(out.ToAdd, desired...)
			continue
		}
		d := Diff(cur, desired)
		out.ToAdd = append(out.ToAdd, d.ToAdd...)
		out.ToRemove = append(out.ToRemove, d.ToRemove...)
	}
	curriculum.SortRefs(out.ToAdd)
	curriculum.SortRefs(out.ToRemove)
	return out
}

func sameTargets(a, b []curriculum.RelRef) bool {
	if len(a) != len(b) {
		return false
	}
	ia := indexRefs(a)
	for k := range indexRefs(b) {
		if _, ok := ia[k]; !ok {
			return false
		}
	}
	return len(ia) == len(a)
}

func indexRefs(refs []curriculum.RelRef) map[string]curriculum.RelRef {
	out := make(map[string]curriculum.RelRef, len(refs))
	for _, r := range refs {
		out[r.Key()] = r
	}
	return out
}
