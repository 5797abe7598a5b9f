package document

import (
	"fmt"
	"slices"

	"github.com/starford/promptdesk/internal/apperr"
)

// Fragment is a named, reusable unit of prompt text.
type Fragment struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Body string `json:"body" yaml:"body"`
}

// FragmentPatch carries the fields to merge into a fragment.
type FragmentPatch struct {
	Name *string `json:"name,omitempty"`
	Body *string `json:"body,omitempty"`
}

func (p FragmentPatch) apply(f *Fragment) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Body != nil {
		f.Body = *p.Body
	}
}

const newFragmentName = "New Module"

func fragmentIndex(items []Fragment, id string) int {
	return slices.IndexFunc(items, func(f Fragment) bool { return f.ID == id })
}

// Fragments returns the flat fragment list.
func (d *Document) Fragments() []Fragment {
	return slices.Clone(d.fragments)
}

// AddFragment appends a placeholder fragment.
func (d *Document) AddFragment() (Fragment, error) {
	if err := d.editable(); err != nil {
		return Fragment{}, err
	}
	f := Fragment{ID: d.newID(), Name: newFragmentName}
	d.fragments = append(d.fragments, f)
	return f, nil
}

// UpdateFragment merges patch into the fragment with the given id.
func (d *Document) UpdateFragment(id string, patch FragmentPatch) (Fragment, error) {
	if err := d.editable(); err != nil {
		return Fragment{}, err
	}
	i := fragmentIndex(d.fragments, id)
	if i < 0 {
		return Fragment{}, fmt.Errorf("document: fragment %q: %w", id, apperr.ErrNotFound)
	}
	patch.apply(&d.fragments[i])
	return d.fragments[i], nil
}

// RemoveFragment deletes the fragment with the given id.
func (d *Document) RemoveFragment(id string) error {
	if err := d.editable(); err != nil {
		return err
	}
	i := fragmentIndex(d.fragments, id)
	if i < 0 {
		return fmt.Errorf("document: fragment %q: %w", id, apperr.ErrNotFound)
	}
	d.fragments = slices.Delete(d.fragments, i, i+1)
	return nil
}
