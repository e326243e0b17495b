package graphstore

import (
	"fmt"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Render produces the Cypher text and parameter map for a statement.
func (s Statement) Render() (string, map[string]any, error) {
	if err := s.Validate(); err != nil {
		return "", nil, err
	}
	params := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		params[k] = v
	}
	label := string(s.Kind)

	switch s.Op {
	case OpNodeExists:
		return fmt.Sprintf("MATCH (n:%s {id: $id}) RETURN n.id AS id LIMIT 1", label), params, nil

	case OpNodesExisting:
		return fmt.Sprintf("MATCH (n:%s) WHERE n.id IN $ids RETURN n.id AS id", label), params, nil

	case OpNodeGet:
		return fmt.Sprintf("MATCH (n:%s {id: $id}) RETURN n.id AS id, properties(n) AS props", label), params, nil

	case OpNodesList:
		return fmt.Sprintf("MATCH (n:%s) RETURN n.id AS id, properties(n) AS props ORDER BY n.id", label), params, nil

	case OpNodeCreate:
		return fmt.Sprintf("CREATE (n:%s) SET n = $props, n.id = $id RETURN n.id AS id", label), params, nil

	case OpNodeSet:
		// A null value in SET += removes the property.
		props := cloneProps(asMap(params["props"]))
		for _, key := range asStrings(params["remove"]) {
			props[key] = nil
		}
		delete(props, "id")
		params["props"] = props
		delete(params, "remove")
		return fmt.Sprintf("MATCH (n:%s {id: $id}) SET n += $props RETURN n.id AS id", label), params, nil

	case OpNodeDetachDelete:
		return fmt.Sprintf("MATCH (n:%s {id: $id}) DETACH DELETE n RETURN count(*) AS deleted", label), params, nil

	case OpNodeDetachDeleteOwned:
		return fmt.Sprintf("MATCH (n:%s {id: $id})-[:%s]->(m:%s) DETACH DELETE m RETURN count(*) AS deleted",
			label, s.RelType, s.TargetKind), params, nil

	case OpRelCreate:
		create := "CREATE (n)-[r:%s]->(m)"
		if s.Direction == curriculum.Incoming {
			create = "CREATE (m)-[r:%s]->(n)"
		}
		return fmt.Sprintf("MATCH (n:%s {id: $id}) MATCH (m:%s {id: $target_id}) "+create+" SET r += $props RETURN count(r) AS created",
			label, s.TargetKind, s.RelType), params, nil

	case OpRelDelete:
		return fmt.Sprintf("MATCH %s DELETE r RETURN count(*) AS deleted", s.relPattern(true)), params, nil

	case OpRelExists:
		return fmt.Sprintf("MATCH %s RETURN count(r) AS n", s.relPattern(true)), params, nil

	case OpRelsCount:
		return fmt.Sprintf("MATCH %s RETURN count(r) AS n", s.relPattern(false)), params, nil

	case OpRelsList:
		return fmt.Sprintf(`MATCH (n:%[1]s {id: $id})-[r]->(m) WHERE m.id IS NOT NULL
RETURN type(r) AS type, 'out' AS direction, labels(m)[0] AS target_kind, m.id AS target_id, properties(r) AS props
UNION ALL
MATCH (n:%[1]s {id: $id})<-[r]-(m) WHERE m.id IS NOT NULL
RETURN type(r) AS type, 'in' AS direction, labels(m)[0] AS target_kind, m.id AS target_id, properties(r) AS props`, label), params, nil

	case OpEdgesList:
		return fmt.Sprintf("MATCH (p:%s)-[:%s]->(c:%s) RETURN p.id AS parent_id, c.id AS child_id",
			label, s.RelType, s.TargetKind), params, nil
	}
	return "", nil, fmt.Errorf("graphstore: no cypher for op %q", s.Op)
}

func (s Statement) relPattern(withTarget bool) string {
	target := fmt.Sprintf("(m:%s)", s.TargetKind)
	if withTarget {
		target = fmt.Sprintf("(m:%s {id: $target_id})", s.TargetKind)
	}
	if s.Direction == curriculum.Incoming {
		return fmt.Sprintf("(n:%s {id: $id})<-[r:%s]-%s", s.Kind, s.RelType, target)
	}
	return fmt.Sprintf("(n:%s {id: $id})-[r:%s]->%s", s.Kind, s.RelType, target)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asStrings(v any) []string {
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
