package document

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/starford/promptdesk/internal/apperr"
)

type gate struct{ editable bool }

func (g *gate) CanEdit() bool { return g.editable }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testDoc(t *testing.T) (*Document, *gate) {
	t.Helper()
	g := &gate{editable: true}
	return New(WithGate(g), WithIDFunc(seqIDs())), g
}

func strp(s string) *string { return &s }

func titles(entries []OutlineEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Node.Title
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	d := New()
	if d.Shape() != ShapePlain {
		t.Errorf("shape = %q, want plain", d.Shape())
	}
	if d.PlainText() != "" || len(d.Outline()) != 0 || len(d.Fragments()) != 0 || len(d.Lanes()) != 0 {
		t.Error("new document should be empty")
	}
}

func TestSeed(t *testing.T) {
	d, _ := testDoc(t)
	d.Seed()
	if got := d.Outline(); len(got) != 1 || got[0].Title != "Introduction" {
		t.Errorf("outline = %+v", got)
	}
	if got := d.Fragments(); len(got) != 2 || got[0].Name != "System Instructions" || got[1].Name != "User Persona" {
		t.Errorf("fragments = %+v", got)
	}
	lanes := d.Lanes()
	if len(lanes) != 3 || lanes[0].Name != "System" || lanes[2].Name != "Response" {
		t.Errorf("lanes = %+v", lanes)
	}
}

func TestSetShape_NonDestructive(t *testing.T) {
	d, _ := testDoc(t)
	_ = d.SetPlainText("hello")
	_, _ = d.AddFragment()

	for _, s := range Shapes {
		if err := d.SetShape(s); err != nil {
			t.Fatalf("SetShape(%q): %v", s, err)
		}
	}
	if err := d.SetShape(ShapePlain); err != nil {
		t.Fatal(err)
	}
	if d.PlainText() != "hello" {
		t.Errorf("plain = %q after switching shapes", d.PlainText())
	}
	if len(d.Fragments()) != 1 {
		t.Errorf("fragments lost after switching shapes")
	}
}

func TestSetShape_Invalid(t *testing.T) {
	d, _ := testDoc(t)
	if err := d.SetShape("spiral"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
	if d.Shape() != ShapePlain {
		t.Errorf("shape changed on invalid input")
	}
}

func TestParseShape(t *testing.T) {
	if s, err := ParseShape("board"); err != nil || s != ShapeBoard {
		t.Errorf("ParseShape(board) = %q, %v", s, err)
	}
	if _, err := ParseShape(""); err == nil {
		t.Error("empty shape should fail")
	}
}

func TestOutline_IDsUnique(t *testing.T) {
	d := New()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		n, err := d.AddOutlineNode("")
		if err != nil {
			t.Fatal(err)
		}
		if seen[n.ID] {
			t.Fatalf("duplicate id %q after %d adds", n.ID, i)
		}
		seen[n.ID] = true
	}
}

func TestOutline_ForestOrdering(t *testing.T) {
	d, _ := testDoc(t)
	a, _ := d.AddOutlineNode("")
	b, _ := d.AddOutlineNode(a.ID)
	c, _ := d.AddOutlineNode("")
	dd, _ := d.AddOutlineNode(a.ID)
	for n, title := range map[string]string{a.ID: "A", b.ID: "B", c.ID: "C", dd.ID: "D"} {
		if _, err := d.UpdateOutlineNode(n, OutlinePatch{Title: strp(title)}); err != nil {
			t.Fatal(err)
		}
	}

	order := d.OutlineOrder()
	if got, want := titles(order), []string{"A", "B", "D", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	depths := []int{order[0].Depth, order[1].Depth, order[2].Depth, order[3].Depth}
	if !reflect.DeepEqual(depths, []int{0, 1, 1, 0}) {
		t.Errorf("depths = %v", depths)
	}
}

func TestOutline_NestedOrdering(t *testing.T) {
	d, _ := testDoc(t)
	a, _ := d.AddOutlineNode("")
	b, _ := d.AddOutlineNode(a.ID)
	_, _ = d.AddOutlineNode("")
	_, _ = d.AddOutlineNode(b.ID)
	_, _ = d.AddOutlineNode(a.ID)

	var ids []string
	for _, e := range d.OutlineOrder() {
		ids = append(ids, e.Node.ID)
	}
	want := []string{"id-1", "id-2", "id-4", "id-5", "id-3"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestOutline_AddUnknownParent(t *testing.T) {
	d, _ := testDoc(t)
	_, err := d.AddOutlineNode("ghost")
	if !errors.Is(err, apperr.ErrUnknownParent) {
		t.Fatalf("err = %v, want ErrUnknownParent", err)
	}
	if len(d.Outline()) != 0 {
		t.Error("node added under unknown parent")
	}
}

func TestOutline_AddDefaults(t *testing.T) {
	d, _ := testDoc(t)
	n, err := d.AddOutlineNode("")
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "New Section" || n.Body != "" || n.ParentID != "" {
		t.Errorf("node = %+v", n)
	}
}

func TestOutline_UpdatePartial(t *testing.T) {
	d, _ := testDoc(t)
	n, _ := d.AddOutlineNode("")
	if _, err := d.UpdateOutlineNode(n.ID, OutlinePatch{Body: strp("body")}); err != nil {
		t.Fatal(err)
	}
	got, _ := d.OutlineNode(n.ID)
	if got.Title != "New Section" || got.Body != "body" {
		t.Errorf("node = %+v", got)
	}
}

func TestOutline_UpdateUnknown(t *testing.T) {
	d, _ := testDoc(t)
	_, _ = d.AddOutlineNode("")
	before := d.Outline()
	if _, err := d.UpdateOutlineNode("ghost", OutlinePatch{Title: strp("x")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !reflect.DeepEqual(before, d.Outline()) {
		t.Error("outline changed")
	}
}

func TestOutline_RemoveSplicesChildren(t *testing.T) {
	d, _ := testDoc(t)
	a, _ := d.AddOutlineNode("")
	b, _ := d.AddOutlineNode(a.ID)
	c, _ := d.AddOutlineNode(b.ID)
	e, _ := d.AddOutlineNode(b.ID)
	f, _ := d.AddOutlineNode("")

	if err := d.RemoveOutlineNode(b.ID); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{c.ID, e.ID} {
		n, _ := d.OutlineNode(id)
		if n.ParentID != a.ID {
			t.Errorf("%s parent = %q, want %q", id, n.ParentID, a.ID)
		}
	}

	var ids []string
	for _, en := range d.OutlineOrder() {
		ids = append(ids, en.Node.ID)
	}
	want := []string{a.ID, c.ID, e.ID, f.ID}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if err := d.Snapshot().Validate(); err != nil {
		t.Errorf("snapshot invalid after removal: %v", err)
	}
}

func TestOutline_RemoveRootPromotesChildren(t *testing.T) {
	d, _ := testDoc(t)
	a, _ := d.AddOutlineNode("")
	b, _ := d.AddOutlineNode(a.ID)
	if err := d.RemoveOutlineNode(a.ID); err != nil {
		t.Fatal(err)
	}
	n, _ := d.OutlineNode(b.ID)
	if n.ParentID != "" {
		t.Errorf("orphan parent = %q, want root", n.ParentID)
	}
	if got := d.OutlineChildren(""); len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("roots = %+v", got)
	}
}

func TestOutline_RemoveUnknown(t *testing.T) {
	d, _ := testDoc(t)
	if err := d.RemoveOutlineNode("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFragments_CRUD(t *testing.T) {
	d, _ := testDoc(t)
	f, err := d.AddFragment()
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "New Module" {
		t.Errorf("name = %q", f.Name)
	}
	if _, err := d.UpdateFragment(f.ID, FragmentPatch{Name: strp("Persona"), Body: strp("You are")}); err != nil {
		t.Fatal(err)
	}
	got := d.Fragments()
	if got[0].Name != "Persona" || got[0].Body != "You are" {
		t.Errorf("fragment = %+v", got[0])
	}
	if _, err := d.UpdateFragment("ghost", FragmentPatch{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update unknown err = %v", err)
	}
	if err := d.RemoveFragment("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("remove unknown err = %v", err)
	}
	if err := d.RemoveFragment(f.ID); err != nil {
		t.Fatal(err)
	}
	if len(d.Fragments()) != 0 {
		t.Error("fragment not removed")
	}
}

func TestModeGate_BlocksEveryMutation(t *testing.T) {
	d, g := testDoc(t)
	n, _ := d.AddOutlineNode("")
	f, _ := d.AddFragment()
	l, _ := d.AddLane()
	lf, _ := d.AddFragmentToLane(l.ID)
	_ = d.SetPlainText("keep")
	before := d.Snapshot()

	g.editable = false
	ops := map[string]func() error{
		"SetPlainText":           func() error { return d.SetPlainText("x") },
		"AddOutlineNode":         func() error { _, err := d.AddOutlineNode(""); return err },
		"UpdateOutlineNode":      func() error { _, err := d.UpdateOutlineNode(n.ID, OutlinePatch{Title: strp("x")}); return err },
		"RemoveOutlineNode":      func() error { return d.RemoveOutlineNode(n.ID) },
		"AddFragment":            func() error { _, err := d.AddFragment(); return err },
		"UpdateFragment":         func() error { _, err := d.UpdateFragment(f.ID, FragmentPatch{Name: strp("x")}); return err },
		"RemoveFragment":         func() error { return d.RemoveFragment(f.ID) },
		"AddLane":                func() error { _, err := d.AddLane(); return err },
		"UpdateLane":             func() error { _, err := d.UpdateLane(l.ID, LanePatch{Name: strp("x")}); return err },
		"RemoveLane":             func() error { return d.RemoveLane(l.ID) },
		"AddFragmentToLane":      func() error { _, err := d.AddFragmentToLane(l.ID); return err },
		"UpdateLaneFragment":     func() error { _, err := d.UpdateLaneFragment(l.ID, lf.ID, FragmentPatch{Name: strp("x")}); return err },
		"RemoveFragmentFromLane": func() error { return d.RemoveFragmentFromLane(l.ID, lf.ID) },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, apperr.ErrReadOnly) {
			t.Errorf("%s err = %v, want ErrReadOnly", name, err)
		}
	}
	if !reflect.DeepEqual(before, d.Snapshot()) {
		t.Error("state changed while read-only")
	}

	// Shape selection is presentation, not a structural edit.
	if err := d.SetShape(ShapeBoard); err != nil {
		t.Errorf("SetShape while read-only: %v", err)
	}
}

func TestModeGate_AddFragmentLengthUnchanged(t *testing.T) {
	d, g := testDoc(t)
	_, _ = d.AddFragment()
	g.editable = false
	_, _ = d.AddFragment()
	if len(d.Fragments()) != 1 {
		t.Errorf("len = %d, want 1", len(d.Fragments()))
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	d, _ := testDoc(t)
	l, _ := d.AddLane()
	_, _ = d.AddFragmentToLane(l.ID)
	_, _ = d.AddFragment()

	lanes := d.Lanes()
	lanes[0].Items[0].Name = "mutated"
	frags := d.Fragments()
	frags[0].Name = "mutated"

	if got, _ := d.Lane(l.ID); got.Items[0].Name == "mutated" {
		t.Error("Lanes leaked internal storage")
	}
	if d.Fragments()[0].Name == "mutated" {
		t.Error("Fragments leaked internal storage")
	}
}
