package aggregates

import (
	"context"
	"sort"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Reader serves the read path. Reads never open a transaction.
type Reader struct {
	deps BaseDeps
}

func NewReader(deps BaseDeps) *Reader {
	return &Reader{deps: deps.withDefaults()}
}

func (r *Reader) Get(ctx context.Context, kind curriculum.Kind, id string) (curriculum.Aggregate, error) {
	op := opName("", "get", kind)
	var out curriculum.Aggregate
	err := executeRead(ctx, r.deps, op, func(ctx context.Context, run graphstore.Runner) error {
		agg, err := readAggregate(ctx, run, op, kind, id)
		out = agg
		return err
	})
	return out, err
}

// List returns every node of kind ordered by id.
func (r *Reader) List(ctx context.Context, kind curriculum.Kind) ([]curriculum.Node, error) {
	op := opName("", "list", kind)
	var out []curriculum.Node
	err := executeRead(ctx, r.deps, op, func(ctx context.Context, run graphstore.Runner) error {
		rows, err := run.Run(ctx, graphstore.ListNodes(kind))
		if err != nil {
			return err
		}
		out = make([]curriculum.Node, 0, len(rows))
		for _, row := range rows {
			out = append(out, graphstore.NodeFromRow(kind, row))
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

// Graph returns all nodes of kind plus every (:kind)-[:rel]->(:kind) edge, the flat input
// of a hierarchy view.
func (r *Reader) Graph(ctx context.Context, kind curriculum.Kind, rel curriculum.RelType) ([]curriculum.Node, []curriculum.Edge, error) {
	op := opName("", "graph", kind)
	var (
		nodes []curriculum.Node
		edges []curriculum.Edge
	)
	err := executeRead(ctx, r.deps, op, func(ctx context.Context, run graphstore.Runner) error {
		rows, err := run.Run(ctx, graphstore.ListNodes(kind))
		if err != nil {
			return err
		}
		nodes = make([]curriculum.Node, 0, len(rows))
		for _, row := range rows {
			nodes = append(nodes, graphstore.NodeFromRow(kind, row))
		}
		rows, err = run.Run(ctx, graphstore.ListEdges(rel, kind, kind))
		if err != nil {
			return err
		}
		edges = make([]curriculum.Edge, 0, len(rows))
		for _, row := range rows {
			edges = append(edges, graphstore.EdgeFromRow(row))
		}
		return nil
	})
	return nodes, edges, err
}
