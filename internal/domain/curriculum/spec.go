package curriculum

import (
	"fmt"
	"sort"
	"strings"
)

// NodeSpec describes a node to create.
type NodeSpec struct {
	Kind       Kind
	ID         string
	Attributes map[string]any
}

// RelationSet declares the desired edges of one type and direction for an aggregate.
//
// Exclusive sets hold at most one target and are replaced rather than merged on update.
// On update an exclusive set with no targets removes the relationship. Acyclic sets between
// nodes of one kind are refused on update when the new edge would close a cycle.
type RelationSet struct {
	Type       RelType
	Direction  Direction
	TargetKind Kind
	Targets    []string
	Exclusive  bool
	Required   bool
	Acyclic    bool
	Props      map[string]any
}

// Refs expands the set into relationship references, de-duplicating targets.
func (s RelationSet) Refs() []RelRef {
	seen := make(map[string]struct{}, len(s.Targets))
	out := make([]RelRef, 0, len(s.Targets))
	for _, id := range s.Targets {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, RelRef{
			Type:       s.Type,
			Direction:  s.Direction,
			TargetKind: s.TargetKind,
			TargetID:   id,
			Props:      s.Props,
		})
	}
	return out
}

// Matches reports whether r belongs to this set's type, direction and target kind.
func (s RelationSet) Matches(r RelRef) bool {
	return r.Type == s.Type && r.Direction == s.Direction && r.TargetKind == s.TargetKind
}

func (s RelationSet) validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("unknown relationship type %q", s.Type)
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("relationship %s: invalid direction %q", s.Type, s.Direction)
	}
	if !s.TargetKind.Valid() {
		return fmt.Errorf("relationship %s: unknown target kind %q", s.Type, s.TargetKind)
	}
	if s.Exclusive && len(s.Refs()) > 1 {
		return fmt.Errorf("relationship %s allows at most one %s", s.Type, s.TargetKind.Noun())
	}
	return nil
}

// OwnedNode is a node created as part of another aggregate and linked from its root.
type OwnedNode struct {
	Node      NodeSpec
	Link      RelType
	LinkProps map[string]any
	Relations []RelationSet
}

// CreateSpec is the declarative description of an aggregate create.
type CreateSpec struct {
	Op        string
	Root      NodeSpec
	Relations []RelationSet
	Owned     []OwnedNode
	ActorID   string
}

// Validate checks the spec is drawn from the closed set of kinds and relationship types.
func (s CreateSpec) Validate() error {
	if err := validateNodeSpec(s.Root); err != nil {
		return err
	}
	for _, rs := range s.Relations {
		if err := rs.validate(); err != nil {
			return err
		}
		if rs.Required && len(rs.Refs()) == 0 {
			return fmt.Errorf("%s requires a %s", s.Root.Kind.Noun(), rs.TargetKind.Noun())
		}
	}
	seen := map[string]struct{}{s.Root.ID: {}}
	for _, o := range s.Owned {
		if err := validateNodeSpec(o.Node); err != nil {
			return err
		}
		if !o.Link.Valid() {
			return fmt.Errorf("unknown relationship type %q", o.Link)
		}
		if _, dup := seen[o.Node.ID]; dup {
			return fmt.Errorf("duplicate node id %q in aggregate", o.Node.ID)
		}
		seen[o.Node.ID] = struct{}{}
		for _, rs := range o.Relations {
			if err := rs.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateSpec is the declarative description of an aggregate update.
//
// Patch holds only the attribute keys the caller supplied; a nil value removes the attribute.
// Only relation sets listed in Relations are reconciled. Check, when set, runs against the
// stored node before anything is written.
type UpdateSpec struct {
	Op        string
	Kind      Kind
	ID        string
	Patch     map[string]any
	Relations []RelationSet
	Check     func(current Node) error
	ActorID   string
}

func (s UpdateSpec) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("missing %s id", s.Kind.Noun())
	}
	if _, ok := s.Patch["id"]; ok {
		return fmt.Errorf("%s id is immutable", s.Kind.Noun())
	}
	for _, rs := range s.Relations {
		if err := rs.validate(); err != nil {
			return err
		}
		if rs.Required && len(rs.Refs()) == 0 {
			return fmt.Errorf("%s requires a %s", s.Kind.Noun(), rs.TargetKind.Noun())
		}
	}
	return nil
}

// OwnedLink names nodes removed together with the root: (root)-[:Type]->(:Kind).
type OwnedLink struct {
	Type RelType
	Kind Kind
}

// RelGuard blocks deletion while the root has a matching relationship.
type RelGuard struct {
	Type       RelType
	Direction  Direction
	TargetKind Kind
	Reason     string
}

// DeleteSpec is the declarative description of an aggregate delete.
type DeleteSpec struct {
	Op       string
	Kind     Kind
	ID       string
	Owned    []OwnedLink
	RefuseIf []RelGuard
	ActorID  string
}

func (s DeleteSpec) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("missing %s id", s.Kind.Noun())
	}
	for _, o := range s.Owned {
		if !o.Type.Valid() || !o.Kind.Valid() {
			return fmt.Errorf("invalid owned link %s/%s", o.Type, o.Kind)
		}
	}
	for _, g := range s.RefuseIf {
		if !g.Type.Valid() || !g.Direction.Valid() || !g.TargetKind.Valid() {
			return fmt.Errorf("invalid delete guard %s", g.Type)
		}
	}
	return nil
}

// LinkSpec adds or removes one relationship of an existing aggregate.
type LinkSpec struct {
	Op      string
	Kind    Kind
	ID      string
	Ref     RelRef
	ActorID string
}

func (s LinkSpec) Validate() error {
	if !s.Kind.Valid() || !s.Ref.TargetKind.Valid() {
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if !s.Ref.Type.Valid() || !s.Ref.Direction.Valid() {
		return fmt.Errorf("invalid relationship %s/%s", s.Ref.Type, s.Ref.Direction)
	}
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Ref.TargetID) == "" {
		return fmt.Errorf("missing %s id", s.Kind.Noun())
	}
	return nil
}

func validateNodeSpec(n NodeSpec) error {
	if !n.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", n.Kind)
	}
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("missing %s id", n.Kind.Noun())
	}
	for key := range n.Attributes {
		if key == "id" {
			return fmt.Errorf("attribute %q is reserved", key)
		}
	}
	return nil
}

// SortRefs orders relationship references deterministically.
func SortRefs(refs []RelRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key() < refs[j].Key() })
}
