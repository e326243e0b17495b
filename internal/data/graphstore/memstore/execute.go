package memstore

import (
	"fmt"
	"sort"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

func execute(g *graph, st graphstore.Statement) ([]graphstore.Row, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	id, _ := st.Params["id"].(string)
	root := nodeKey{st.Kind, id}

	switch st.Op {
	case graphstore.OpNodeExists:
		if _, ok := g.nodes[root]; ok {
			return []graphstore.Row{{"id": id}}, nil
		}
		return nil, nil

	case graphstore.OpNodesExisting:
		var rows []graphstore.Row
		for _, candidate := range stringsParam(st.Params["ids"]) {
			if _, ok := g.nodes[nodeKey{st.Kind, candidate}]; ok {
				rows = append(rows, graphstore.Row{"id": candidate})
			}
		}
		return rows, nil

	case graphstore.OpNodeGet:
		props, ok := g.nodes[root]
		if !ok {
			return nil, nil
		}
		return []graphstore.Row{{"id": id, "props": copyProps(props)}}, nil

	case graphstore.OpNodesList:
		ids := make([]string, 0)
		for k := range g.nodes {
			if k.kind == st.Kind {
				ids = append(ids, k.id)
			}
		}
		sort.Strings(ids)
		rows := make([]graphstore.Row, 0, len(ids))
		for _, nid := range ids {
			rows = append(rows, graphstore.Row{"id": nid, "props": copyProps(g.nodes[nodeKey{st.Kind, nid}])})
		}
		return rows, nil

	case graphstore.OpNodeCreate:
		// No uniqueness constraint here: absence is the caller's precondition.
		props := copyProps(mapParam(st.Params["props"]))
		props["id"] = id
		g.nodes[root] = props
		return []graphstore.Row{{"id": id}}, nil

	case graphstore.OpNodeSet:
		props, ok := g.nodes[root]
		if !ok {
			return nil, nil
		}
		for k, v := range mapParam(st.Params["props"]) {
			if k == "id" {
				continue
			}
			if v == nil {
				delete(props, k)
				continue
			}
			props[k] = v
		}
		for _, k := range stringsParam(st.Params["remove"]) {
			if k != "id" {
				delete(props, k)
			}
		}
		return []graphstore.Row{{"id": id}}, nil

	case graphstore.OpNodeDetachDelete:
		if _, ok := g.nodes[root]; !ok {
			return []graphstore.Row{{"deleted": int64(0)}}, nil
		}
		g.detachDelete(root)
		return []graphstore.Row{{"deleted": int64(1)}}, nil

	case graphstore.OpNodeDetachDeleteOwned:
		var owned []nodeKey
		for _, r := range g.rels {
			if r.typ == st.RelType && r.from == root && r.to.kind == st.TargetKind {
				owned = append(owned, r.to)
			}
		}
		var deleted int64
		for _, k := range owned {
			if _, ok := g.nodes[k]; ok {
				g.detachDelete(k)
				deleted++
			}
		}
		return []graphstore.Row{{"deleted": deleted}}, nil

	case graphstore.OpRelCreate:
		target := nodeKey{st.TargetKind, stringParam(st.Params["target_id"])}
		_, okRoot := g.nodes[root]
		_, okTarget := g.nodes[target]
		if !okRoot || !okTarget {
			return []graphstore.Row{{"created": int64(0)}}, nil
		}
		from, to := root, target
		if st.Direction == curriculum.Incoming {
			from, to = target, root
		}
		g.rels = append(g.rels, rel{typ: st.RelType, from: from, to: to, props: copyProps(mapParam(st.Params["props"]))})
		return []graphstore.Row{{"created": int64(1)}}, nil

	case graphstore.OpRelDelete:
		from, to := g.endpoints(st, root)
		var deleted int64
		kept := g.rels[:0]
		for _, r := range g.rels {
			if r.typ == st.RelType && r.from == from && r.to == to {
				deleted++
				continue
			}
			kept = append(kept, r)
		}
		g.rels = kept
		return []graphstore.Row{{"deleted": deleted}}, nil

	case graphstore.OpRelExists:
		from, to := g.endpoints(st, root)
		var n int64
		for _, r := range g.rels {
			if r.typ == st.RelType && r.from == from && r.to == to {
				n++
			}
		}
		return []graphstore.Row{{"n": n}}, nil

	case graphstore.OpRelsCount:
		var n int64
		for _, r := range g.rels {
			if r.typ != st.RelType {
				continue
			}
			if st.Direction == curriculum.Outgoing && r.from == root && r.to.kind == st.TargetKind {
				n++
			}
			if st.Direction == curriculum.Incoming && r.to == root && r.from.kind == st.TargetKind {
				n++
			}
		}
		return []graphstore.Row{{"n": n}}, nil

	case graphstore.OpRelsList:
		if _, ok := g.nodes[root]; !ok {
			return nil, nil
		}
		var rows []graphstore.Row
		for _, r := range g.rels {
			switch {
			case r.from == root:
				rows = append(rows, relRow(r, curriculum.Outgoing, r.to))
			case r.to == root:
				rows = append(rows, relRow(r, curriculum.Incoming, r.from))
			}
		}
		return rows, nil

	case graphstore.OpEdgesList:
		var rows []graphstore.Row
		for _, r := range g.rels {
			if r.typ == st.RelType && r.from.kind == st.Kind && r.to.kind == st.TargetKind {
				rows = append(rows, graphstore.Row{"parent_id": r.from.id, "child_id": r.to.id})
			}
		}
		return rows, nil
	}
	return nil, fmt.Errorf("memstore: unsupported op %q", st.Op)
}

func (g *graph) detachDelete(k nodeKey) {
	delete(g.nodes, k)
	kept := g.rels[:0]
	for _, r := range g.rels {
		if r.from == k || r.to == k {
			continue
		}
		kept = append(kept, r)
	}
	g.rels = kept
}

func (g *graph) endpoints(st graphstore.Statement, root nodeKey) (nodeKey, nodeKey) {
	target := nodeKey{st.TargetKind, stringParam(st.Params["target_id"])}
	if st.Direction == curriculum.Incoming {
		return target, root
	}
	return root, target
}

func relRow(r rel, dir curriculum.Direction, other nodeKey) graphstore.Row {
	return graphstore.Row{
		"type":        string(r.typ),
		"direction":   string(dir),
		"target_kind": string(other.kind),
		"target_id":   other.id,
		"props":       copyProps(r.props),
	}
}

func mapParam(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stringParam(v any) string {
	s, _ := v.(string)
	return s
}

func stringsParam(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
