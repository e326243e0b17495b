package curriculum

import (
	"sort"
	"strings"
)

// Node is a single vertex of the curriculum graph.
// Identity is ID within Kind; ID never changes after creation.
type Node struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Attributes map[string]any `json:"attributes"`
}

// Name returns the "name" attribute, falling back to "title".
func (n Node) Name() string {
	for _, key := range []string{"name", "title"} {
		if s, ok := n.Attributes[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// StringAttr returns a string attribute or "".
func (n Node) StringAttr(key string) string {
	s, _ := n.Attributes[key].(string)
	return s
}

// RelRef is one relationship as seen from an aggregate root.
// Relationships have no identity of their own; (Type, Direction, TargetID) is the key.
type RelRef struct {
	Type       RelType        `json:"type"`
	Direction  Direction      `json:"direction"`
	TargetKind Kind           `json:"target_kind"`
	TargetID   string         `json:"target_id"`
	Props      map[string]any `json:"properties,omitempty"`
}

// Key identifies a relationship within one aggregate's relationship set.
func (r RelRef) Key() string {
	return string(r.Type) + "|" + string(r.Direction) + "|" + r.TargetID
}

// Aggregate is a root node plus the relationships it manages.
type Aggregate struct {
	Node      Node     `json:"node"`
	Relations []RelRef `json:"relations"`
}

// Targets returns the target ids of every relation of the given type and direction, sorted.
func (a Aggregate) Targets(t RelType, dir Direction) []string {
	out := []string{}
	for _, r := range a.Relations {
		if r.Type == t && r.Direction == dir {
			out = append(out, r.TargetID)
		}
	}
	sort.Strings(out)
	return out
}

// Target returns the single target of an exclusive relation, or "".
func (a Aggregate) Target(t RelType, dir Direction) string {
	ids := a.Targets(t, dir)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// Edge is a parent→child containment pair used by hierarchy reads.
type Edge struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

// TreeNode is a node with its materialized children. Children is never nil.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}
