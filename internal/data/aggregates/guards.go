package aggregates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Verifier checks aggregate preconditions before any mutation. It reads through the same
// Runner as the write sequence, so inside a transaction it sees the transaction's view.
type Verifier struct {
	r  graphstore.Runner
	op string
}

func NewVerifier(r graphstore.Runner, op string) Verifier {
	return Verifier{r: r, op: op}
}

// VerifyExists fails with NotFound when kind/id is absent.
func (v Verifier) VerifyExists(ctx context.Context, kind curriculum.Kind, id string) error {
	ok, err := v.exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainagg.NotFound(v.op, kind.Noun(), id)
	}
	return nil
}

// VerifyAbsent fails with Conflict when kind/id already exists.
func (v Verifier) VerifyAbsent(ctx context.Context, kind curriculum.Kind, id string) error {
	ok, err := v.exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if ok {
		return domainagg.Conflict(v.op, fmt.Sprintf("%s %q already exists", kind.Noun(), id), id)
	}
	return nil
}

// VerifyAllExist checks every id with one read and reports all missing ids in one BadRequest.
func (v Verifier) VerifyAllExist(ctx context.Context, kind curriculum.Kind, ids []string) error {
	want := uniqueIDs(ids)
	if len(want) == 0 {
		return nil
	}
	rows, err := v.r.Run(ctx, graphstore.NodesExisting(kind, want))
	if err != nil {
		return err
	}
	found := make(map[string]struct{}, len(rows))
	for _, id := range graphstore.IDs(rows) {
		found[id] = struct{}{}
	}
	var missing []string
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return domainagg.BadRequest(v.op, fmt.Sprintf("%s not found: %s", kind.Noun(), strings.Join(missing, ", ")), missing...)
}

// VerifyNoSelfReference rejects an aggregate pointing at itself.
func (v Verifier) VerifyNoSelfReference(id, targetID string) error {
	if strings.TrimSpace(id) != "" && id == targetID {
		return domainagg.BadRequest(v.op, fmt.Sprintf("%q cannot reference itself", id), id)
	}
	return nil
}

// VerifyOrdering requires start strictly before end.
func (v Verifier) VerifyOrdering(start, end time.Time) error {
	if !start.Before(end) {
		return domainagg.BadRequest(v.op, fmt.Sprintf("start %s must be before end %s",
			start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)))
	}
	return nil
}

// VerifyRelAbsent fails with Conflict when the relationship already exists.
func (v Verifier) VerifyRelAbsent(ctx context.Context, kind curriculum.Kind, id string, ref curriculum.RelRef) error {
	n, err := v.relCount(ctx, kind, id, ref)
	if err != nil {
		return err
	}
	if n > 0 {
		return domainagg.Conflict(v.op, fmt.Sprintf("%s relationship from %q to %q already exists", ref.Type, id, ref.TargetID), id, ref.TargetID)
	}
	return nil
}

// VerifyRelExists fails with NotFound when the relationship is absent.
func (v Verifier) VerifyRelExists(ctx context.Context, kind curriculum.Kind, id string, ref curriculum.RelRef) error {
	n, err := v.relCount(ctx, kind, id, ref)
	if err != nil {
		return err
	}
	if n == 0 {
		return &domainagg.Error{
			Code:    domainagg.CodeNotFound,
			Op:      v.op,
			Message: fmt.Sprintf("%s relationship from %q to %q not found", ref.Type, id, ref.TargetID),
			IDs:     []string{id, ref.TargetID},
		}
	}
	return nil
}

// VerifyNoRelations fails with BadRequest while the guarded relationship is present.
func (v Verifier) VerifyNoRelations(ctx context.Context, kind curriculum.Kind, id string, g curriculum.RelGuard) error {
	rows, err := v.r.Run(ctx, graphstore.CountRels(kind, id, g.Type, g.Direction, g.TargetKind))
	if err != nil {
		return err
	}
	if n := graphstore.FirstInt(rows, "n"); n > 0 {
		reason := strings.TrimSpace(g.Reason)
		if reason == "" {
			reason = fmt.Sprintf("%s %q has %d %s relationships", kind.Noun(), id, n, g.Type)
		}
		return domainagg.BadRequest(v.op, reason, id)
	}
	return nil
}

// VerifyNoCycle fails with BadRequest when adding a rel edge between id and any of targets,
// in direction dir, would close a cycle among kind nodes. All edges are read once.
func (v Verifier) VerifyNoCycle(ctx context.Context, kind curriculum.Kind, id string, rel curriculum.RelType, dir curriculum.Direction, targets []string) error {
	if len(targets) == 0 {
		return nil
	}
	rows, err := v.r.Run(ctx, graphstore.ListEdges(rel, kind, kind))
	if err != nil {
		return err
	}
	children := map[string][]string{}
	for _, row := range rows {
		e := graphstore.EdgeFromRow(row)
		children[e.ParentID] = append(children[e.ParentID], e.ChildID)
	}
	reaches := func(from, to string) bool {
		seen := map[string]bool{from: true}
		stack := []string{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, c := range children[n] {
				if c == to {
					return true
				}
				if !seen[c] {
					seen[c] = true
					stack = append(stack, c)
				}
			}
		}
		return false
	}
	var bad []string
	for _, target := range uniqueIDs(targets) {
		// Incoming adds target->id, so id must not already reach target; outgoing is the mirror.
		from, to := id, target
		if dir == curriculum.Outgoing {
			from, to = target, id
		}
		if reaches(from, to) {
			bad = append(bad, target)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return domainagg.BadRequest(v.op, fmt.Sprintf("%s %q: %s would create a cycle", kind.Noun(), id, rel), bad...)
	}
	return nil
}

func (v Verifier) exists(ctx context.Context, kind curriculum.Kind, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	rows, err := v.r.Run(ctx, graphstore.NodeExists(kind, id))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (v Verifier) relCount(ctx context.Context, kind curriculum.Kind, id string, ref curriculum.RelRef) (int64, error) {
	rows, err := v.r.Run(ctx, graphstore.RelExists(kind, id, ref))
	if err != nil {
		return 0, err
	}
	return graphstore.FirstInt(rows, "n"), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
