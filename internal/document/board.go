package document

import (
	"fmt"
	"slices"

	"github.com/starford/promptdesk/internal/apperr"
)

// Lane is a board column. Fragment ids are unique within a lane only.
type Lane struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Items []Fragment `json:"items" yaml:"items"`
}

// LanePatch carries the lane fields that may be renamed in place.
type LanePatch struct {
	Name *string `json:"name,omitempty"`
}

const newLaneName = "New Block"

func (l Lane) clone() Lane {
	l.Items = slices.Clone(l.Items)
	if l.Items == nil {
		l.Items = []Fragment{}
	}
	return l
}

func (d *Document) laneIndex(id string) int {
	return slices.IndexFunc(d.lanes, func(l Lane) bool { return l.ID == id })
}

// Lanes returns a deep copy of the board.
func (d *Document) Lanes() []Lane {
	out := make([]Lane, len(d.lanes))
	for i, l := range d.lanes {
		out[i] = l.clone()
	}
	return out
}

// Lane returns a copy of the lane with the given id.
func (d *Document) Lane(id string) (Lane, bool) {
	i := d.laneIndex(id)
	if i < 0 {
		return Lane{}, false
	}
	return d.lanes[i].clone(), true
}

// AddLane appends an empty placeholder lane.
func (d *Document) AddLane() (Lane, error) {
	if err := d.editable(); err != nil {
		return Lane{}, err
	}
	l := Lane{ID: d.newID(), Name: newLaneName, Items: []Fragment{}}
	d.lanes = append(d.lanes, l)
	return l.clone(), nil
}

// UpdateLane merges patch into the lane with the given id.
func (d *Document) UpdateLane(id string, patch LanePatch) (Lane, error) {
	if err := d.editable(); err != nil {
		return Lane{}, err
	}
	i := d.laneIndex(id)
	if i < 0 {
		return Lane{}, fmt.Errorf("document: lane %q: %w", id, apperr.ErrNotFound)
	}
	if patch.Name != nil {
		d.lanes[i].Name = *patch.Name
	}
	return d.lanes[i].clone(), nil
}

// RemoveLane deletes a lane together with its fragments.
func (d *Document) RemoveLane(id string) error {
	if err := d.editable(); err != nil {
		return err
	}
	i := d.laneIndex(id)
	if i < 0 {
		return fmt.Errorf("document: lane %q: %w", id, apperr.ErrNotFound)
	}
	d.lanes = slices.Delete(d.lanes, i, i+1)
	return nil
}

// AddFragmentToLane appends a placeholder fragment to the lane.
func (d *Document) AddFragmentToLane(laneID string) (Fragment, error) {
	if err := d.editable(); err != nil {
		return Fragment{}, err
	}
	i := d.laneIndex(laneID)
	if i < 0 {
		return Fragment{}, fmt.Errorf("document: lane %q: %w", laneID, apperr.ErrNotFound)
	}
	f := Fragment{ID: d.newID(), Name: newFragmentName}
	d.lanes[i].Items = append(d.lanes[i].Items, f)
	return f, nil
}

// UpdateLaneFragment merges patch into a fragment held by a lane.
func (d *Document) UpdateLaneFragment(laneID, fragmentID string, patch FragmentPatch) (Fragment, error) {
	if err := d.editable(); err != nil {
		return Fragment{}, err
	}
	i := d.laneIndex(laneID)
	if i < 0 {
		return Fragment{}, fmt.Errorf("document: lane %q: %w", laneID, apperr.ErrNotFound)
	}
	items := d.lanes[i].Items
	j := fragmentIndex(items, fragmentID)
	if j < 0 {
		return Fragment{}, fmt.Errorf("document: lane %q fragment %q: %w", laneID, fragmentID, apperr.ErrNotFound)
	}
	patch.apply(&items[j])
	return items[j], nil
}

// RemoveFragmentFromLane drops a fragment from a lane. An unknown lane is an
// error; an unknown fragment in a known lane is a no-op.
func (d *Document) RemoveFragmentFromLane(laneID, fragmentID string) error {
	if err := d.editable(); err != nil {
		return err
	}
	i := d.laneIndex(laneID)
	if i < 0 {
		return fmt.Errorf("document: lane %q: %w", laneID, apperr.ErrNotFound)
	}
	if j := fragmentIndex(d.lanes[i].Items, fragmentID); j >= 0 {
		d.lanes[i].Items = slices.Delete(d.lanes[i].Items, j, j+1)
	}
	return nil
}
