package graphstore

import (
	"fmt"

	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
)

// Int reads an integer column, tolerating the numeric types drivers return.
func (r Row) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// FirstInt returns the integer column of the first row, or 0 when there are no rows.
func FirstInt(rows []Row, key string) int64 {
	if len(rows) == 0 {
		return 0
	}
	return rows[0].Int(key)
}

// IDs collects the "id" column.
func IDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if id := r.String("id"); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// NodeFromRow decodes an id/props row. The id property is not repeated in Attributes.
func NodeFromRow(kind curriculum.Kind, r Row) curriculum.Node {
	attrs := map[string]any{}
	for k, v := range r.Map("props") {
		if k == "id" {
			continue
		}
		attrs[k] = v
	}
	return curriculum.Node{ID: r.String("id"), Kind: kind, Attributes: attrs}
}

// RelFromRow decodes a rels.list row.
func RelFromRow(r Row) curriculum.RelRef {
	props := r.Map("props")
	if len(props) == 0 {
		props = nil
	}
	return curriculum.RelRef{
		Type:       curriculum.RelType(r.String("type")),
		Direction:  curriculum.Direction(r.String("direction")),
		TargetKind: curriculum.Kind(r.String("target_kind")),
		TargetID:   r.String("target_id"),
		Props:      props,
	}
}

// EdgeFromRow decodes an edges.list row.
func EdgeFromRow(r Row) curriculum.Edge {
	return curriculum.Edge{ParentID: r.String("parent_id"), ChildID: r.String("child_id")}
}
