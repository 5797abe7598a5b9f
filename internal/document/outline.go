package document

import (
	"fmt"
	"slices"

	"github.com/starford/promptdesk/internal/apperr"
)

// OutlineNode is one titled section of the outline forest. An empty ParentID marks a root.
type OutlineNode struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Body     string `json:"body" yaml:"body"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}

// OutlinePatch carries the fields to merge into a node; nil fields are left alone.
type OutlinePatch struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// OutlineEntry is a node positioned in the derived traversal.
type OutlineEntry struct {
	Node  OutlineNode `json:"node"`
	Depth int         `json:"depth"`
}

const newSectionTitle = "New Section"

// Outline returns the flat node sequence in insertion order.
func (d *Document) Outline() []OutlineNode {
	return slices.Clone(d.outline)
}

// OutlineNode returns the node with the given id.
func (d *Document) OutlineNode(id string) (OutlineNode, bool) {
	i := d.outlineIndex(id)
	if i < 0 {
		return OutlineNode{}, false
	}
	return d.outline[i], true
}

func (d *Document) outlineIndex(id string) int {
	return slices.IndexFunc(d.outline, func(n OutlineNode) bool { return n.ID == id })
}

// AddOutlineNode appends a placeholder node under parentID, or as a root when
// parentID is empty. A parentID that names no node is a caller bug and fails
// with apperr.ErrUnknownParent.
func (d *Document) AddOutlineNode(parentID string) (OutlineNode, error) {
	if err := d.editable(); err != nil {
		return OutlineNode{}, err
	}
	if parentID != "" && d.outlineIndex(parentID) < 0 {
		return OutlineNode{}, fmt.Errorf("document: outline parent %q: %w", parentID, apperr.ErrUnknownParent)
	}
	n := OutlineNode{ID: d.newID(), Title: newSectionTitle, ParentID: parentID}
	d.outline = append(d.outline, n)
	return n, nil
}

// UpdateOutlineNode merges patch into the node with the given id.
func (d *Document) UpdateOutlineNode(id string, patch OutlinePatch) (OutlineNode, error) {
	if err := d.editable(); err != nil {
		return OutlineNode{}, err
	}
	i := d.outlineIndex(id)
	if i < 0 {
		return OutlineNode{}, fmt.Errorf("document: outline node %q: %w", id, apperr.ErrNotFound)
	}
	n := &d.outline[i]
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Body != nil {
		n.Body = *patch.Body
	}
	return *n, nil
}

// RemoveOutlineNode deletes exactly one node. Its direct children take over
// its parent, so the forest never holds a reference to a missing node.
func (d *Document) RemoveOutlineNode(id string) error {
	if err := d.editable(); err != nil {
		return err
	}
	i := d.outlineIndex(id)
	if i < 0 {
		return fmt.Errorf("document: outline node %q: %w", id, apperr.ErrNotFound)
	}
	grandparent := d.outline[i].ParentID
	for j := range d.outline {
		if d.outline[j].ParentID == id {
			d.outline[j].ParentID = grandparent
		}
	}
	d.outline = slices.Delete(d.outline, i, i+1)
	return nil
}

// OutlineChildren returns the direct children of parentID in insertion
// order. An empty parentID returns the roots.
func (d *Document) OutlineChildren(parentID string) []OutlineNode {
	var out []OutlineNode
	for _, n := range d.outline {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out
}

// OutlineOrder derives the presentation order: each root in insertion order,
// immediately followed by its descendants, depth first, siblings in
// insertion order.
func (d *Document) OutlineOrder() []OutlineEntry {
	return walkOutline(d.outline)
}

func walkOutline(nodes []OutlineNode) []OutlineEntry {
	children := make(map[string][]int, len(nodes))
	for i, n := range nodes {
		children[n.ParentID] = append(children[n.ParentID], i)
	}

	out := make([]OutlineEntry, 0, len(nodes))
	visited := make(map[string]bool, len(nodes))
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		n := nodes[idx]
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		out = append(out, OutlineEntry{Node: n, Depth: depth})
		for _, c := range children[n.ID] {
			visit(c, depth+1)
		}
	}
	for _, r := range children[""] {
		visit(r, 0)
	}
	return out
}
