package workspace

import (
	"fmt"

	"github.com/starford/promptdesk/internal/apperr"
)

// Mode is the authoring mode of a session.
type Mode string

// Authoring modes.
const (
	ModeEditing    Mode = "editing"
	ModeViewing    Mode = "viewing"
	ModeCommenting Mode = "commenting"
	ModeSuggesting Mode = "suggesting"
)

// Modes lists every authoring mode.
var Modes = []Mode{ModeEditing, ModeViewing, ModeCommenting, ModeSuggesting}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeEditing, ModeViewing, ModeCommenting, ModeSuggesting:
		return true
	}
	return false
}

// AllowsEdits reports whether structural edits are permitted in m.
func (m Mode) AllowsEdits() bool {
	return m == ModeEditing || m == ModeSuggesting
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("workspace: mode %q: %w", s, apperr.ErrInvalid)
	}
	return m, nil
}
