// Package hierarchy rebuilds concept trees from flat node and containment-edge lists.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// DefaultPrecedence orders concept types from broad to narrow.
var DefaultPrecedence = []string{"Subject", "Matter", "Topic", "Subtopic", "Concept"}

// TypeAttr is the node attribute holding the hierarchy level.
const TypeAttr = "type"

// Assembler orders siblings by type precedence, then by name. Types missing from the
// precedence table sort after every known type.
type Assembler struct {
	rank map[string]int
	log  *logger.Logger
}

func New(precedence []string, log *logger.Logger) *Assembler {
	if len(precedence) == 0 {
		precedence = DefaultPrecedence
	}
	if log == nil {
		log = logger.NewNop()
	}
	rank := make(map[string]int, len(precedence))
	for i, t := range precedence {
		key := strings.ToLower(strings.TrimSpace(t))
		if _, dup := rank[key]; !dup {
			rank[key] = i
		}
	}
	return &Assembler{rank: rank, log: log.With("component", "HierarchyAssembler")}
}

type index struct {
	nodes    map[string]curriculum.Node
	children map[string][]string
	isChild  map[string]bool
}

func buildIndex(nodes []curriculum.Node, edges []curriculum.Edge) index {
	ix := index{
		nodes:    make(map[string]curriculum.Node, len(nodes)),
		children: make(map[string][]string, len(edges)),
		isChild:  make(map[string]bool, len(edges)),
	}
	for _, n := range nodes {
		ix.nodes[n.ID] = n
	}
	seen := make(map[curriculum.Edge]bool, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		ix.children[e.ParentID] = append(ix.children[e.ParentID], e.ChildID)
		ix.isChild[e.ChildID] = true
	}
	return ix
}

// Assemble returns the ordered forest. A root is any node that is never a child. Edges
// pointing at nodes outside the node set are skipped.
func (a *Assembler) Assemble(nodes []curriculum.Node, edges []curriculum.Edge) []*curriculum.TreeNode {
	ix := buildIndex(nodes, edges)
	var roots []curriculum.Node
	for _, n := range nodes {
		if !ix.isChild[n.ID] {
			roots = append(roots, n)
		}
	}
	a.sortNodes(roots)

	out := make([]*curriculum.TreeNode, 0, len(roots))
	seen := make(map[string]bool, len(roots))
	dropped := 0
	for _, n := range roots {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, a.build(ix, n, map[string]bool{}, &dropped))
	}
	if dropped > 0 {
		a.log.Warn("containment cycle edges dropped", "count", dropped)
	}
	return out
}

// AssembleSubtree returns the tree under rootID, or false when rootID is not in nodes.
func (a *Assembler) AssembleSubtree(rootID string, nodes []curriculum.Node, edges []curriculum.Edge) (*curriculum.TreeNode, bool) {
	ix := buildIndex(nodes, edges)
	root, ok := ix.nodes[rootID]
	if !ok {
		return nil, false
	}
	dropped := 0
	tree := a.build(ix, root, map[string]bool{}, &dropped)
	if dropped > 0 {
		a.log.Warn("containment cycle edges dropped", "root", rootID, "count", dropped)
	}
	return tree, true
}

// build materializes n depth-first. path holds the ancestors of n; an edge back into the
// path would recurse forever and is dropped instead.
func (a *Assembler) build(ix index, n curriculum.Node, path map[string]bool, dropped *int) *curriculum.TreeNode {
	path[n.ID] = true
	defer delete(path, n.ID)

	kids := make([]curriculum.Node, 0, len(ix.children[n.ID]))
	for _, id := range ix.children[n.ID] {
		child, ok := ix.nodes[id]
		if !ok {
			continue
		}
		if path[id] {
			*dropped++
			continue
		}
		kids = append(kids, child)
	}
	a.sortNodes(kids)

	tn := &curriculum.TreeNode{Node: n, Children: make([]*curriculum.TreeNode, 0, len(kids))}
	for _, k := range kids {
		tn.Children = append(tn.Children, a.build(ix, k, path, dropped))
	}
	return tn
}

func (a *Assembler) sortNodes(nodes []curriculum.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		ri, rj := a.rankOf(nodes[i]), a.rankOf(nodes[j])
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(nodes[i].Name()), strings.ToLower(nodes[j].Name())
		if ni != nj {
			return ni < nj
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func (a *Assembler) rankOf(n curriculum.Node) int {
	if r, ok := a.rank[strings.ToLower(strings.TrimSpace(n.StringAttr(TypeAttr)))]; ok {
		return r
	}
	return len(a.rank)
}

// Flatten walks a forest back into parent→child edges in tree order.
func Flatten(forest []*curriculum.TreeNode) []curriculum.Edge {
	var out []curriculum.Edge
	var walk func(t *curriculum.TreeNode)
	walk = func(t *curriculum.TreeNode) {
		for _, c := range t.Children {
			out = append(out, curriculum.Edge{ParentID: t.ID, ChildID: c.ID})
			walk(c)
		}
	}
	for _, t := range forest {
		walk(t)
	}
	return out
}
