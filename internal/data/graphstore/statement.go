package graphstore

import (
	"fmt"
	"strings"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Op enumerates every statement shape the engine may issue.
type Op string

const (
	OpNodeExists            Op = "node.exists"
	OpNodesExisting         Op = "nodes.existing"
	OpNodeGet               Op = "node.get"
	OpNodeCreate            Op = "node.create"
	OpNodeSet               Op = "node.set"
	OpNodeDetachDelete      Op = "node.detach_delete"
	OpNodeDetachDeleteOwned Op = "node.detach_delete_owned"
	OpNodesList             Op = "nodes.list"
	OpRelCreate             Op = "rel.create"
	OpRelDelete             Op = "rel.delete"
	OpRelExists             Op = "rel.exists"
	OpRelsList              Op = "rels.list"
	OpRelsCount             Op = "rels.count"
	OpEdgesList             Op = "edges.list"
)

// ReadOnly reports whether the statement never mutates the store.
func (o Op) ReadOnly() bool {
	switch o {
	case OpNodeExists, OpNodesExisting, OpNodeGet, OpNodesList, OpRelExists, OpRelsList, OpRelsCount, OpEdgesList:
		return true
	default:
		return false
	}
}

// Statement is one parameterized store call. Labels and relationship types come only from
// the closed curriculum enums; every caller-supplied value travels in Params.
type Statement struct {
	Op         Op
	Kind       curriculum.Kind
	RelType    curriculum.RelType
	Direction  curriculum.Direction
	TargetKind curriculum.Kind
	Params     map[string]any
}

func (s Statement) String() string {
	parts := []string{string(s.Op), string(s.Kind)}
	if s.RelType != "" {
		parts = append(parts, string(s.RelType))
	}
	if s.Direction != "" {
		parts = append(parts, string(s.Direction))
	}
	if s.TargetKind != "" {
		parts = append(parts, string(s.TargetKind))
	}
	if id, ok := s.Params["id"].(string); ok {
		parts = append(parts, id)
	}
	return strings.Join(parts, " ")
}

func NodeExists(kind curriculum.Kind, id string) Statement {
	return Statement{Op: OpNodeExists, Kind: kind, Params: map[string]any{"id": id}}
}

func NodesExisting(kind curriculum.Kind, ids []string) Statement {
	return Statement{Op: OpNodesExisting, Kind: kind, Params: map[string]any{"ids": append([]string(nil), ids...)}}
}

func GetNode(kind curriculum.Kind, id string) Statement {
	return Statement{Op: OpNodeGet, Kind: kind, Params: map[string]any{"id": id}}
}

func CreateNode(kind curriculum.Kind, id string, attrs map[string]any) Statement {
	return Statement{Op: OpNodeCreate, Kind: kind, Params: map[string]any{"id": id, "props": cloneProps(attrs)}}
}

// SetAttributes applies SET semantics: keys in set change, keys in remove are dropped,
// everything else is untouched.
func SetAttributes(kind curriculum.Kind, id string, set map[string]any, remove []string) Statement {
	return Statement{Op: OpNodeSet, Kind: kind, Params: map[string]any{
		"id":     id,
		"props":  cloneProps(set),
		"remove": append([]string(nil), remove...),
	}}
}

func DetachDelete(kind curriculum.Kind, id string) Statement {
	return Statement{Op: OpNodeDetachDelete, Kind: kind, Params: map[string]any{"id": id}}
}

// DetachDeleteOwned removes every (root)-[:rel]->(:ownedKind) node.
func DetachDeleteOwned(kind curriculum.Kind, id string, rel curriculum.RelType, ownedKind curriculum.Kind) Statement {
	return Statement{Op: OpNodeDetachDeleteOwned, Kind: kind, RelType: rel, Direction: curriculum.Outgoing, TargetKind: ownedKind, Params: map[string]any{"id": id}}
}

func ListNodes(kind curriculum.Kind) Statement {
	return Statement{Op: OpNodesList, Kind: kind, Params: map[string]any{}}
}

func CreateRel(kind curriculum.Kind, id string, ref curriculum.RelRef) Statement {
	return relStatement(OpRelCreate, kind, id, ref)
}

func DeleteRel(kind curriculum.Kind, id string, ref curriculum.RelRef) Statement {
	return relStatement(OpRelDelete, kind, id, ref)
}

func RelExists(kind curriculum.Kind, id string, ref curriculum.RelRef) Statement {
	return relStatement(OpRelExists, kind, id, ref)
}

// ListRels returns every relationship touching the node, in both directions.
func ListRels(kind curriculum.Kind, id string) Statement {
	return Statement{Op: OpRelsList, Kind: kind, Params: map[string]any{"id": id}}
}

func CountRels(kind curriculum.Kind, id string, rel curriculum.RelType, dir curriculum.Direction, targetKind curriculum.Kind) Statement {
	return Statement{Op: OpRelsCount, Kind: kind, RelType: rel, Direction: dir, TargetKind: targetKind, Params: map[string]any{"id": id}}
}

// ListEdges returns every (:fromKind)-[:rel]->(:toKind) pair as parent_id/child_id.
func ListEdges(rel curriculum.RelType, fromKind, toKind curriculum.Kind) Statement {
	return Statement{Op: OpEdgesList, Kind: fromKind, RelType: rel, Direction: curriculum.Outgoing, TargetKind: toKind, Params: map[string]any{}}
}

func relStatement(op Op, kind curriculum.Kind, id string, ref curriculum.RelRef) Statement {
	return Statement{
		Op:         op,
		Kind:       kind,
		RelType:    ref.Type,
		Direction:  ref.Direction,
		TargetKind: ref.TargetKind,
		Params: map[string]any{
			"id":        id,
			"target_id": ref.TargetID,
			"props":     cloneProps(ref.Props),
		},
	}
}

// Validate rejects statements whose labels or types fall outside the closed enums.
func (s Statement) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("graphstore: %s: unknown kind %q", s.Op, s.Kind)
	}
	switch s.Op {
	case OpRelCreate, OpRelDelete, OpRelExists, OpRelsCount, OpNodeDetachDeleteOwned, OpEdgesList:
		if !s.RelType.Valid() {
			return fmt.Errorf("graphstore: %s: unknown relationship type %q", s.Op, s.RelType)
		}
		if !s.Direction.Valid() {
			return fmt.Errorf("graphstore: %s: invalid direction %q", s.Op, s.Direction)
		}
		if !s.TargetKind.Valid() {
			return fmt.Errorf("graphstore: %s: unknown target kind %q", s.Op, s.TargetKind)
		}
	case OpNodeExists, OpNodesExisting, OpNodeGet, OpNodeCreate, OpNodeSet, OpNodeDetachDelete, OpNodesList, OpRelsList:
	default:
		return fmt.Errorf("graphstore: unknown op %q", s.Op)
	}
	return nil
}

func cloneProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
