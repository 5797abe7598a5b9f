// Package document holds the in-memory prompt document: a plain text blob,
// an outline forest, a flat fragment list and a board of lanes. All four
// representations live side by side; the shape selector only decides which
// one is presented.
package document

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/promptdesk/internal/apperr"
)

// Shape selects the presented representation.
type Shape string

// Document shapes.
const (
	ShapePlain     Shape = "plain"
	ShapeOutline   Shape = "outline"
	ShapeFragments Shape = "fragments"
	ShapeBoard     Shape = "board"
)

// Shapes lists every shape in presentation order.
var Shapes = []Shape{ShapePlain, ShapeOutline, ShapeFragments, ShapeBoard}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	switch s {
	case ShapePlain, ShapeOutline, ShapeFragments, ShapeBoard:
		return true
	}
	return false
}

// ParseShape converts a string to a Shape.
func ParseShape(s string) (Shape, error) {
	shape := Shape(s)
	if !shape.Valid() {
		return "", fmt.Errorf("document: shape %q: %w", s, apperr.ErrInvalid)
	}
	return shape, nil
}

// Gate decides whether structural edits are currently permitted.
type Gate interface {
	CanEdit() bool
}

type openGate struct{}

func (openGate) CanEdit() bool { return true }

// Option configures a Document.
type Option func(*Document)

// WithGate installs the edit gate consulted before every mutation.
func WithGate(g Gate) Option {
	return func(d *Document) {
		if g != nil {
			d.gate = g
		}
	}
}

// WithIDFunc replaces the identifier generator. Generated ids must never repeat.
func WithIDFunc(fn func() string) Option {
	return func(d *Document) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// Document is the prompt document. It is not safe for concurrent use; the
// owning session serialises access.
type Document struct {
	gate  Gate
	newID func() string

	shape     Shape
	plain     string
	outline   []OutlineNode
	fragments []Fragment
	lanes     []Lane
}

// New returns an empty document presenting the plain shape.
func New(opts ...Option) *Document {
	d := &Document{
		gate:  openGate{},
		newID: uuid.NewString,
		shape: ShapePlain,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Seed fills an empty document with the starter content a new prompt opens with.
func (d *Document) Seed() {
	d.outline = append(d.outline, OutlineNode{ID: d.newID(), Title: "Introduction"})
	d.fragments = append(d.fragments,
		Fragment{ID: d.newID(), Name: "System Instructions"},
		Fragment{ID: d.newID(), Name: "User Persona"},
	)
	for _, name := range []string{"System", "User", "Response"} {
		d.lanes = append(d.lanes, Lane{ID: d.newID(), Name: name, Items: []Fragment{}})
	}
}

func (d *Document) editable() error {
	if !d.gate.CanEdit() {
		return apperr.ErrReadOnly
	}
	return nil
}

// Shape returns the presented shape.
func (d *Document) Shape() Shape { return d.shape }

// SetShape switches the presented shape. Data held by other shapes is kept.
func (d *Document) SetShape(s Shape) error {
	if !s.Valid() {
		return fmt.Errorf("document: shape %q: %w", s, apperr.ErrInvalid)
	}
	d.shape = s
	return nil
}

// PlainText returns the plain representation.
func (d *Document) PlainText() string { return d.plain }

// SetPlainText replaces the plain representation verbatim.
func (d *Document) SetPlainText(text string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.plain = text
	return nil
}
