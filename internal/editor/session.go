package editor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/starford/promptdesk/internal/apperr"
	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/models"
	"github.com/starford/promptdesk/internal/snapshot"
	"github.com/starford/promptdesk/internal/sse"
	"github.com/starford/promptdesk/internal/workspace"
)

// Meta is the session metadata kept beside the document.
type Meta struct {
	Name        string             `json:"name"`
	Status      models.Status      `json:"status"`
	Preferences models.Preferences `json:"preferences"`
	Checksum    string             `json:"checksum"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Detail is the full representation of a session.
type Detail struct {
	ID string `json:"id"`
	Meta
	Document  document.Snapshot   `json:"document"`
	Workspace workspace.State     `json:"workspace"`
	NavItems  []workspace.NavItem `json:"nav_items"`
	Stats     document.Stats      `json:"stats"`
}

// Session is one open document. Gestures are serialised by mu; the
// coordinator guards its own state.
type Session struct {
	id  string
	svc *Service
	ws  *workspace.Coordinator

	mu     sync.Mutex
	doc    *document.Document
	meta   Meta
	closed bool
}

// ID returns the document id.
func (s *Session) ID() string { return s.id }

// Workspace returns the session's coordinator.
func (s *Session) Workspace() *workspace.Coordinator { return s.ws }

// Meta returns a copy of the metadata.
func (s *Session) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Do runs fn against the document. When fn succeeds the session is marked
// unsaved and a document.updated event is published. Document operations
// leave state untouched on error, so a failed fn changes nothing.
func (s *Session) Do(fn func(*document.Document) error) error {
	s.mu.Lock()
	if err := s.openLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := fn(s.doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.touchLocked()
	status := s.meta.Status
	s.mu.Unlock()

	s.publishUpdated(status)
	return nil
}

// View runs fn against the document without marking it changed. fn must
// not mutate the document.
func (s *Session) View(fn func(*document.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Rename changes the document name. Renaming is an edit and follows the
// authoring mode.
func (s *Session) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("editor: empty name: %w", apperr.ErrInvalid)
	}
	if !s.ws.CanEdit() {
		return fmt.Errorf("editor: rename in %s mode: %w", s.ws.Mode(), apperr.ErrReadOnly)
	}
	s.mu.Lock()
	if err := s.openLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.meta.Name = name
	s.touchLocked()
	status := s.meta.Status
	s.mu.Unlock()

	s.publishUpdated(status)
	return nil
}

// SetPreferences replaces the view preferences.
func (s *Session) SetPreferences(p models.Preferences) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("editor: preferences: %v: %w", err, apperr.ErrInvalid)
	}
	s.mu.Lock()
	if err := s.openLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.meta.Preferences = p
	s.touchLocked()
	status := s.meta.Status
	s.mu.Unlock()

	s.publishUpdated(status)
	return nil
}

// Detail snapshots the whole session.
func (s *Session) Detail() Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	shape := s.doc.Shape()
	return Detail{
		ID:        s.id,
		Meta:      s.meta,
		Document:  s.doc.Snapshot(),
		Workspace: s.ws.State(),
		NavItems:  workspace.NavItems(shape),
		Stats:     s.doc.Stats(),
	}
}

// openLocked refuses changes to a session the service has let go of.
// Edits made there would never reach the store.
func (s *Session) openLocked() error {
	if s.closed {
		return fmt.Errorf("editor: session %s was closed: %w", s.id, apperr.ErrConflict)
	}
	return nil
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.ws.Close()
}

func (s *Session) fileLocked() snapshot.File {
	return snapshot.File{
		ID:          s.id,
		Name:        s.meta.Name,
		CreatedAt:   s.meta.CreatedAt,
		UpdatedAt:   s.meta.UpdatedAt,
		Preferences: s.meta.Preferences,
		Document:    s.doc.Snapshot(),
	}
}

func (s *Session) touchLocked() {
	s.meta.Status = models.StatusUnsaved
	s.meta.UpdatedAt = s.svc.clock.Now().UTC()
}

func (s *Session) publishUpdated(status models.Status) {
	s.svc.pub.Publish(sse.Event{
		Type:     sse.TypeDocumentUpdated,
		Document: s.id,
		Data:     map[string]string{"id": s.id, "status": string(status)},
	})
}
