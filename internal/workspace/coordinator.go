// Package workspace arbitrates the panel regions around the editor: the
// navigation rail, the contextual panel, the inspector and the hover
// preview, and owns the authoring mode that gates document edits.
package workspace

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/promptdesk/internal/apperr"
	"github.com/starford/promptdesk/internal/clock"
)

// DefaultHoverDelay is how long a hover preview lingers after the pointer leaves.
const DefaultHoverDelay = 500 * time.Millisecond

// State is a point-in-time copy of the coordinator.
type State struct {
	Mode                Mode    `json:"mode"`
	NavRailVisible      bool    `json:"nav_rail_visible"`
	ContextPanelVisible bool    `json:"context_panel_visible"`
	InspectorVisible    bool    `json:"inspector_visible"`
	ActiveNavItem       NavItem `json:"active_nav_item"`
	HoveredNavItem      NavItem `json:"hovered_nav_item"`
	HoverClearPending   bool    `json:"hover_clear_pending"`
}

// PanelItem is the item the contextual panel presents: the active item, or
// the hovered one while previewing.
func (s State) PanelItem() NavItem {
	if s.ActiveNavItem != NavNone {
		return s.ActiveNavItem
	}
	return s.HoveredNavItem
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the clock used to schedule hover dismissal.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithHoverDelay overrides DefaultHoverDelay.
func WithHoverDelay(d time.Duration) Option {
	return func(co *Coordinator) {
		if d > 0 {
			co.hoverDelay = d
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// WithOnChange registers fn to run after every state change, including the
// deferred hover clear. fn runs without the coordinator lock held.
func WithOnChange(fn func(State)) Option {
	return func(co *Coordinator) { co.onChange = fn }
}

// Coordinator owns workspace state. The deferred hover clear fires on a
// timer goroutine, so all access goes through mu.
type Coordinator struct {
	clock      clock.Clock
	hoverDelay time.Duration
	logger     *slog.Logger
	onChange   func(State)

	mu    sync.Mutex
	state State

	// hoverTimer is the single pending clear; hoverGen invalidates callbacks
	// that lost the race with Stop.
	hoverTimer *clock.Timer
	hoverGen   uint64
}

// New returns a coordinator in editing mode with the rail and inspector shown.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:      clock.Real(),
		hoverDelay: DefaultHoverDelay,
		logger:     slog.Default(),
		state: State{
			Mode:             ModeEditing,
			NavRailVisible:   true,
			InspectorVisible: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the authoring mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

// CanEdit reports whether the authoring mode permits structural edits.
func (c *Coordinator) CanEdit() bool {
	return c.Mode().AllowsEdits()
}

// SetMode changes the authoring mode.
func (c *Coordinator) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("workspace: mode %q: %w", m, apperr.ErrInvalid)
	}
	c.update(func(s *State) { s.Mode = m })
	return nil
}

// ToggleNavRail shows or hides the navigation rail. A hidden rail has no
// active item and no contextual panel.
func (c *Coordinator) ToggleNavRail() {
	c.update(func(s *State) {
		s.NavRailVisible = !s.NavRailVisible
		if !s.NavRailVisible {
			s.ActiveNavItem = NavNone
			s.ContextPanelVisible = false
		}
	})
}

// ToggleContextPanel opens or closes the contextual panel. Closing it
// clears the active item.
func (c *Coordinator) ToggleContextPanel() {
	c.update(func(s *State) {
		s.ContextPanelVisible = !s.ContextPanelVisible
		if !s.ContextPanelVisible {
			s.ActiveNavItem = NavNone
		}
	})
}

// ToggleInspector shows or hides the inspector panel.
func (c *Coordinator) ToggleInspector() {
	c.update(func(s *State) { s.InspectorVisible = !s.InspectorVisible })
}

// SelectNavItem toggles item: selecting the active item deselects it and
// closes the contextual panel, any other item becomes active and opens it.
func (c *Coordinator) SelectNavItem(item NavItem) {
	c.update(func(s *State) {
		if item == NavNone || s.ActiveNavItem == item {
			s.ActiveNavItem = NavNone
			s.ContextPanelVisible = false
			return
		}
		s.ActiveNavItem = item
		s.ContextPanelVisible = true
	})
}

// HoverNavItem sets or clears the hover preview. Setting an item applies
// at once. Clearing waits for the hover delay unless immediate is set, and
// any later call cancels a clear that has not fired yet.
func (c *Coordinator) HoverNavItem(item NavItem, immediate bool) {
	c.mu.Lock()
	c.cancelHoverLocked()

	if item != NavNone || immediate {
		c.state.HoveredNavItem = item
		st := c.state
		c.mu.Unlock()
		c.notify(st)
		return
	}

	gen := c.hoverGen
	c.hoverTimer = c.clock.AfterFunc(c.hoverDelay, func() { c.expireHover(gen) })
	c.state.HoverClearPending = true
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

// Close cancels any pending hover clear.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.cancelHoverLocked()
	c.mu.Unlock()
}

func (c *Coordinator) expireHover(gen uint64) {
	c.mu.Lock()
	if gen != c.hoverGen {
		c.mu.Unlock()
		return
	}
	c.hoverTimer = nil
	c.state.HoverClearPending = false
	c.state.HoveredNavItem = NavNone
	st := c.state
	c.mu.Unlock()

	c.logger.Debug("workspace: hover preview dismissed")
	c.notify(st)
}

func (c *Coordinator) cancelHoverLocked() {
	c.hoverGen++
	c.hoverTimer.Stop()
	c.hoverTimer = nil
	c.state.HoverClearPending = false
}

func (c *Coordinator) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

func (c *Coordinator) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}
