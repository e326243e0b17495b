// Package memstore is an in-process property graph that interprets the graphstore statement
// catalog. It backs the "memory" graph backend and the engine's tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

type nodeKey struct {
	kind curriculum.Kind
	id   string
}

type rel struct {
	typ   curriculum.RelType
	from  nodeKey
	to    nodeKey
	props map[string]any
}

type graph struct {
	nodes map[nodeKey]map[string]any
	rels  []rel
}

func newGraph() *graph {
	return &graph{nodes: map[nodeKey]map[string]any{}}
}

func (g *graph) clone() *graph {
	out := &graph{nodes: make(map[nodeKey]map[string]any, len(g.nodes)), rels: make([]rel, 0, len(g.rels))}
	for k, props := range g.nodes {
		out.nodes[k] = copyProps(props)
	}
	for _, r := range g.rels {
		r.props = copyProps(r.props)
		out.rels = append(out.rels, r)
	}
	return out
}

type failure struct {
	op  graphstore.Op
	nth int
	err error
}

// Store is safe for concurrent use. Explicit transactions read and write a private snapshot
// and record their writes; Commit replays that log onto the live graph.
type Store struct {
	mu       sync.Mutex
	g        *graph
	txOff    bool
	calls    map[graphstore.Op]int
	writes   int
	failures []*failure
}

type Option func(*Store)

// WithoutTransactions makes BeginTx report graphstore.ErrTxUnsupported.
func WithoutTransactions() Option {
	return func(s *Store) { s.txOff = true }
}

func New(opts ...Option) *Store {
	s := &Store{g: newGraph(), calls: map[graphstore.Op]int{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailOn makes the nth future execution (1-based) of op return err.
func (s *Store) FailOn(op graphstore.Op, nth int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nth < 1 {
		nth = 1
	}
	s.failures = append(s.failures, &failure{op: op, nth: nth, err: err})
}

func (s *Store) Read(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	if !st.Op.ReadOnly() {
		return nil, fmt.Errorf("memstore: %s is not a read statement", st.Op)
	}
	return s.run(ctx, st)
}

func (s *Store) Write(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	return s.run(ctx, st)
}

func (s *Store) run(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.observe(st); err != nil {
		return nil, err
	}
	return execute(s.g, st)
}

// observe counts the call and fires any armed failure. Callers hold s.mu.
func (s *Store) observe(st graphstore.Statement) error {
	s.calls[st.Op]++
	if !st.Op.ReadOnly() {
		s.writes++
	}
	for i, f := range s.failures {
		if f.op != st.Op {
			continue
		}
		f.nth--
		if f.nth == 0 {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			return f.err
		}
	}
	return nil
}

func (s *Store) BeginTx(ctx context.Context) (graphstore.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txOff {
		return nil, graphstore.ErrTxUnsupported
	}
	return &tx{store: s, g: s.g.clone()}, nil
}

type tx struct {
	store  *Store
	g      *graph
	writes []graphstore.Statement
	done   bool
}

func (t *tx) Run(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.done {
		return nil, fmt.Errorf("memstore: transaction already closed")
	}
	t.store.mu.Lock()
	err := t.store.observe(st)
	t.store.mu.Unlock()
	if err != nil {
		return nil, err
	}
	rows, err := execute(t.g, st)
	if err != nil {
		return nil, err
	}
	// An edge that was not created inside the transaction has nothing to replay.
	skip := st.Op == graphstore.OpRelCreate && graphstore.FirstInt(rows, "created") == 0
	if !st.Op.ReadOnly() && !skip {
		t.writes = append(t.writes, st)
	}
	return rows, nil
}

// Commit replays the recorded writes onto a copy of the live graph and publishes the copy
// only if every write still applies. On a conflict nothing is published.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("memstore: transaction already closed")
	}
	t.done = true
	if len(t.writes) == 0 {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	next := t.store.g.clone()
	for _, st := range t.writes {
		if err := replay(next, st); err != nil {
			return err
		}
	}
	t.store.g = next
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.done = true
	t.writes = nil
	return nil
}

// replay applies one committed write. Creates that collide with, or depend on, state changed
// since the transaction began are conflicts.
func replay(g *graph, st graphstore.Statement) error {
	if st.Op == graphstore.OpNodeCreate {
		id, _ := st.Params["id"].(string)
		if _, ok := g.nodes[nodeKey{st.Kind, id}]; ok {
			return fmt.Errorf("%w: %s %q created concurrently", graphstore.ErrTxConflict, st.Kind, id)
		}
	}
	rows, err := execute(g, st)
	if err != nil {
		return err
	}
	if st.Op == graphstore.OpRelCreate && graphstore.FirstInt(rows, "created") == 0 {
		return fmt.Errorf("%w: %s endpoint removed concurrently", graphstore.ErrTxConflict, st.RelType)
	}
	return nil
}

// Calls reports how many times op was executed, including failed executions.
func (s *Store) Calls(op graphstore.Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Writes reports how many mutating statements were executed.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Seed inserts a node directly, bypassing counters and failures.
func (s *Store) Seed(kind curriculum.Kind, id string, attrs map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props := copyProps(attrs)
	props["id"] = id
	s.g.nodes[nodeKey{kind, id}] = props
}

// SeedRel inserts (fromKind:fromID)-[typ]->(toKind:toID) directly.
func (s *Store) SeedRel(typ curriculum.RelType, fromKind curriculum.Kind, fromID string, toKind curriculum.Kind, toID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.rels = append(s.g.rels, rel{typ: typ, from: nodeKey{fromKind, fromID}, to: nodeKey{toKind, toID}})
}

func (s *Store) HasNode(kind curriculum.Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.g.nodes[nodeKey{kind, id}]
	return ok
}

func (s *Store) NodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.g.nodes)
}

func (s *Store) RelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.g.rels)
}

// Edge is a relationship snapshot for assertions.
type Edge struct {
	Type     curriculum.RelType
	FromKind curriculum.Kind
	FromID   string
	ToKind   curriculum.Kind
	ToID     string
}

// Edges returns every relationship, sorted.
func (s *Store) Edges() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Edge, 0, len(s.g.rels))
	for _, r := range s.g.rels {
		out = append(out, Edge{Type: r.typ, FromKind: r.from.kind, FromID: r.from.id, ToKind: r.to.kind, ToID: r.to.id})
	}
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out
}

func copyProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ graphstore.Client     = (*Store)(nil)
	_ graphstore.Transactor = (*Store)(nil)
)
