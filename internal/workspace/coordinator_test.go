package workspace

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/promptdesk/internal/apperr"
	"github.com/starford/promptdesk/internal/clock"
	"github.com/starford/promptdesk/internal/document"
)

func testCoordinator(t *testing.T) (*Coordinator, *clock.FakeClock) {
	t.Helper()
	fc := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(WithClock(fc))
	t.Cleanup(c.Close)
	return c, fc
}

func TestNew_Defaults(t *testing.T) {
	c, _ := testCoordinator(t)
	s := c.State()
	if s.Mode != ModeEditing {
		t.Errorf("mode = %q", s.Mode)
	}
	if !s.NavRailVisible || s.ContextPanelVisible || !s.InspectorVisible {
		t.Errorf("panels = %+v", s)
	}
	if s.ActiveNavItem != NavNone || s.HoveredNavItem != NavNone {
		t.Errorf("items = %+v", s)
	}
}

func TestSetMode(t *testing.T) {
	c, _ := testCoordinator(t)
	for _, m := range Modes {
		if err := c.SetMode(m); err != nil {
			t.Fatalf("SetMode(%q): %v", m, err)
		}
		want := m == ModeEditing || m == ModeSuggesting
		if c.CanEdit() != want {
			t.Errorf("CanEdit in %q = %v, want %v", m, c.CanEdit(), want)
		}
	}
	if err := c.SetMode("drafting"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestCoordinator_GatesDocument(t *testing.T) {
	c, _ := testCoordinator(t)
	d := document.New(document.WithGate(c))
	_ = c.SetMode(ModeViewing)
	if _, err := d.AddFragment(); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("err = %v, want ErrReadOnly", err)
	}
	if len(d.Fragments()) != 0 {
		t.Errorf("fragments = %d, want 0", len(d.Fragments()))
	}
	_ = c.SetMode(ModeSuggesting)
	if _, err := d.AddFragment(); err != nil {
		t.Errorf("suggesting should allow edits: %v", err)
	}
}

func TestToggleNavRail_HidingClearsSelection(t *testing.T) {
	cases := []struct {
		name  string
		setup func(c *Coordinator)
	}{
		{"active item and open panel", func(c *Coordinator) { c.SelectNavItem(NavFiles) }},
		{"open panel only", func(c *Coordinator) { c.ToggleContextPanel() }},
		{"nothing selected", func(c *Coordinator) {}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := testCoordinator(t)
			tc.setup(c)
			c.ToggleNavRail()
			s := c.State()
			if s.NavRailVisible {
				t.Fatal("rail should be hidden")
			}
			if s.ActiveNavItem != NavNone {
				t.Errorf("active = %q, want none", s.ActiveNavItem)
			}
			if s.ContextPanelVisible {
				t.Error("context panel should be hidden")
			}
		})
	}
}

func TestToggleNavRail_ShowingKeepsPanelsClosed(t *testing.T) {
	c, _ := testCoordinator(t)
	c.ToggleNavRail()
	c.ToggleNavRail()
	s := c.State()
	if !s.NavRailVisible || s.ContextPanelVisible {
		t.Errorf("state = %+v", s)
	}
}

func TestToggleContextPanel_ClosingClearsActive(t *testing.T) {
	c, _ := testCoordinator(t)
	c.SelectNavItem(NavTemplates)
	c.ToggleContextPanel()
	s := c.State()
	if s.ContextPanelVisible || s.ActiveNavItem != NavNone {
		t.Errorf("state = %+v", s)
	}
}

func TestToggleInspector_Independent(t *testing.T) {
	c, _ := testCoordinator(t)
	c.SelectNavItem(NavHelp)
	c.ToggleInspector()
	s := c.State()
	if s.InspectorVisible {
		t.Error("inspector should be hidden")
	}
	if s.ActiveNavItem != NavHelp || !s.ContextPanelVisible {
		t.Errorf("inspector toggle touched navigation: %+v", s)
	}
}

func TestSelectNavItem_Toggles(t *testing.T) {
	c, _ := testCoordinator(t)

	c.SelectNavItem(NavFiles)
	if s := c.State(); s.ActiveNavItem != NavFiles || !s.ContextPanelVisible {
		t.Fatalf("after select: %+v", s)
	}

	c.SelectNavItem(NavHistory)
	if s := c.State(); s.ActiveNavItem != NavHistory || !s.ContextPanelVisible {
		t.Fatalf("after switch: %+v", s)
	}

	c.SelectNavItem(NavHistory)
	if s := c.State(); s.ActiveNavItem != NavNone || s.ContextPanelVisible {
		t.Fatalf("after reselect: %+v", s)
	}
}

func TestHover_SetIsImmediate(t *testing.T) {
	c, _ := testCoordinator(t)
	c.HoverNavItem(NavFiles, false)
	if got := c.State().HoveredNavItem; got != NavFiles {
		t.Errorf("hovered = %q", got)
	}
}

func TestHover_ClearIsDebounced(t *testing.T) {
	c, fc := testCoordinator(t)
	c.HoverNavItem(NavFiles, false)
	c.HoverNavItem(NavNone, false)

	s := c.State()
	if s.HoveredNavItem != NavFiles || !s.HoverClearPending {
		t.Fatalf("clear applied early: %+v", s)
	}
	fc.Advance(499 * time.Millisecond)
	if c.State().HoveredNavItem != NavFiles {
		t.Fatal("cleared before delay elapsed")
	}
	fc.Advance(time.Millisecond)
	s = c.State()
	if s.HoveredNavItem != NavNone || s.HoverClearPending {
		t.Errorf("after delay: %+v", s)
	}
}

func TestHover_ReenterCancelsPendingClear(t *testing.T) {
	c, fc := testCoordinator(t)
	c.HoverNavItem(NavFiles, false)
	c.HoverNavItem(NavNone, false)
	fc.Advance(200 * time.Millisecond)
	c.HoverNavItem(NavTemplates, false)

	fc.Advance(2 * time.Second)
	if got := c.State().HoveredNavItem; got != NavTemplates {
		t.Errorf("hovered = %q, want templates", got)
	}
	if fc.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", fc.Pending())
	}
}

func TestHover_AtMostOnePendingClear(t *testing.T) {
	c, fc := testCoordinator(t)
	c.HoverNavItem(NavFiles, false)
	c.HoverNavItem(NavNone, false)
	fc.Advance(300 * time.Millisecond)
	c.HoverNavItem(NavNone, false)
	if fc.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", fc.Pending())
	}

	// The rescheduled clear counts from the second request.
	fc.Advance(300 * time.Millisecond)
	if c.State().HoveredNavItem != NavFiles {
		t.Fatal("first clear should have been cancelled")
	}
	fc.Advance(200 * time.Millisecond)
	if c.State().HoveredNavItem != NavNone {
		t.Error("second clear did not fire")
	}
}

func TestHover_ImmediateClear(t *testing.T) {
	c, fc := testCoordinator(t)
	c.HoverNavItem(NavFiles, false)
	c.HoverNavItem(NavNone, false)
	c.HoverNavItem(NavNone, true)

	s := c.State()
	if s.HoveredNavItem != NavNone || s.HoverClearPending {
		t.Errorf("state = %+v", s)
	}
	if fc.Pending() != 0 {
		t.Errorf("pending = %d, want 0", fc.Pending())
	}
}

func TestHover_ImmediateClearWithoutPending(t *testing.T) {
	c, _ := testCoordinator(t)
	c.HoverNavItem(NavNone, true)
	if c.State().HoveredNavItem != NavNone {
		t.Error("expected no hover")
	}
}

func TestHover_CustomDelay(t *testing.T) {
	fc := clock.Fake(time.Now())
	c := New(WithClock(fc), WithHoverDelay(50*time.Millisecond))
	c.HoverNavItem(NavModules, false)
	c.HoverNavItem(NavNone, false)
	fc.Advance(50 * time.Millisecond)
	if c.State().HoveredNavItem != NavNone {
		t.Error("custom delay not honoured")
	}
}

func TestPanelItem(t *testing.T) {
	c, _ := testCoordinator(t)
	c.HoverNavItem(NavTemplates, false)
	if got := c.State().PanelItem(); got != NavTemplates {
		t.Errorf("panel item = %q, want hovered", got)
	}
	c.SelectNavItem(NavFiles)
	if got := c.State().PanelItem(); got != NavFiles {
		t.Errorf("panel item = %q, want active", got)
	}
}

func TestOnChange_IncludesDeferredClear(t *testing.T) {
	fc := clock.Fake(time.Now())
	var mu sync.Mutex
	var seen []State
	c := New(WithClock(fc), WithOnChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	c.HoverNavItem(NavFiles, false)
	c.HoverNavItem(NavNone, false)
	fc.Advance(DefaultHoverDelay)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("notifications = %d, want 3", len(seen))
	}
	if !seen[1].HoverClearPending || seen[1].HoveredNavItem != NavFiles {
		t.Errorf("scheduling notification = %+v", seen[1])
	}
	if seen[2].HoveredNavItem != NavNone || seen[2].HoverClearPending {
		t.Errorf("last notification = %+v", seen[2])
	}
}

func TestHover_RealClock(t *testing.T) {
	c := New(WithHoverDelay(20 * time.Millisecond))
	defer c.Close()
	c.HoverNavItem(NavFiles, false)
	c.HoverNavItem(NavNone, false)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State().HoveredNavItem == NavNone {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("hover not cleared with real clock")
}
