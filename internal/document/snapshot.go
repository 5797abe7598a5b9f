package document

import (
	"fmt"

	"github.com/starford/promptdesk/internal/apperr"
)

// Snapshot is the serialisable state of a Document: the shape selector plus
// all four representations.
type Snapshot struct {
	Shape     Shape         `json:"shape" yaml:"shape"`
	Plain     string        `json:"plain" yaml:"plain"`
	Outline   []OutlineNode `json:"outline" yaml:"outline"`
	Fragments []Fragment    `json:"fragments" yaml:"fragments"`
	Lanes     []Lane        `json:"lanes" yaml:"lanes"`
}

// Snapshot returns a deep copy of the document state.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		Shape:     d.shape,
		Plain:     d.plain,
		Outline:   nonNil(d.Outline()),
		Fragments: nonNil(d.Fragments()),
		Lanes:     d.Lanes(),
	}
}

// FromSnapshot builds a Document from externally supplied state. The
// snapshot is rejected when it would break a structural invariant.
func FromSnapshot(s Snapshot, opts ...Option) (*Document, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	d := New(opts...)
	if s.Shape != "" {
		d.shape = s.Shape
	}
	d.plain = s.Plain
	d.outline = append([]OutlineNode(nil), s.Outline...)
	d.fragments = append([]Fragment(nil), s.Fragments...)
	d.lanes = make([]Lane, len(s.Lanes))
	for i, l := range s.Lanes {
		d.lanes[i] = l.clone()
	}
	return d, nil
}

// Validate checks shape, id uniqueness and that the outline is a forest
// without dangling parents.
func (s Snapshot) Validate() error {
	if s.Shape != "" && !s.Shape.Valid() {
		return fmt.Errorf("snapshot: shape %q: %w", s.Shape, apperr.ErrInvalid)
	}

	parents := make(map[string]string, len(s.Outline))
	for _, n := range s.Outline {
		if n.ID == "" {
			return fmt.Errorf("snapshot: outline node without id: %w", apperr.ErrInvalid)
		}
		if _, dup := parents[n.ID]; dup {
			return fmt.Errorf("snapshot: duplicate outline id %q: %w", n.ID, apperr.ErrInvalid)
		}
		parents[n.ID] = n.ParentID
	}
	for _, n := range s.Outline {
		if n.ParentID == "" {
			continue
		}
		if _, ok := parents[n.ParentID]; !ok {
			return fmt.Errorf("snapshot: node %q parent %q: %w", n.ID, n.ParentID, apperr.ErrUnknownParent)
		}
		// A chain longer than the node count must revisit a node.
		cur, steps := n.ParentID, 0
		for cur != "" {
			if cur == n.ID || steps > len(parents) {
				return fmt.Errorf("snapshot: outline cycle at %q: %w", n.ID, apperr.ErrInvalid)
			}
			cur = parents[cur]
			steps++
		}
	}

	if err := uniqueFragments(s.Fragments, "fragments"); err != nil {
		return err
	}

	lanes := make(map[string]struct{}, len(s.Lanes))
	for _, l := range s.Lanes {
		if l.ID == "" {
			return fmt.Errorf("snapshot: lane without id: %w", apperr.ErrInvalid)
		}
		if _, dup := lanes[l.ID]; dup {
			return fmt.Errorf("snapshot: duplicate lane id %q: %w", l.ID, apperr.ErrInvalid)
		}
		lanes[l.ID] = struct{}{}
		if err := uniqueFragments(l.Items, "lane "+l.ID); err != nil {
			return err
		}
	}
	return nil
}

func uniqueFragments(items []Fragment, scope string) error {
	seen := make(map[string]struct{}, len(items))
	for _, f := range items {
		if f.ID == "" {
			return fmt.Errorf("snapshot: %s: fragment without id: %w", scope, apperr.ErrInvalid)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("snapshot: %s: duplicate fragment id %q: %w", scope, f.ID, apperr.ErrInvalid)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
