// Package editor hosts prompt editing sessions. A session pairs one
// document with its workspace coordinator and the metadata the snapshot
// store and index need; the service keeps open sessions and moves them in
// and out of the store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/promptdesk/internal/apperr"
	"github.com/starford/promptdesk/internal/clock"
	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/index"
	"github.com/starford/promptdesk/internal/models"
	"github.com/starford/promptdesk/internal/snapshot"
	"github.com/starford/promptdesk/internal/sse"
	"github.com/starford/promptdesk/internal/storage"
	"github.com/starford/promptdesk/internal/workspace"
)

// DefaultName is given to documents created without a name.
const DefaultName = "Untitled Prompt"

// Publisher receives change notifications. *sse.Broker satisfies it.
type Publisher interface {
	Publish(event sse.Event)
	PublishDocumentEvent(kind, id string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event)                {}
func (nopPublisher) PublishDocumentEvent(_, _ string) {}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where change events go.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for timestamps and hover dismissal.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithHoverDelay sets the hover dismissal delay for new sessions.
func WithHoverDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.hoverDelay = d
		}
	}
}

// WithIDFunc replaces the generator for document and item ids.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Service coordinates sessions, the snapshot store and the index.
type Service struct {
	store      storage.Provider
	db         *index.DB
	codec      snapshot.Codec
	pub        Publisher
	logger     *slog.Logger
	clock      clock.Clock
	hoverDelay time.Duration
	newID      func() string

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a new editor service.
func NewService(store storage.Provider, db *index.DB, codec snapshot.Codec, opts ...Option) *Service {
	s := &Service{
		store:      store,
		db:         db,
		codec:      codec,
		pub:        nopPublisher{},
		logger:     slog.Default(),
		clock:      clock.Real(),
		hoverDelay: workspace.DefaultHoverDelay,
		newID:      uuid.NewString,
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a seeded document and persists it at once.
func (s *Service) Create(ctx context.Context, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	now := s.clock.Now().UTC()
	sess, err := s.newSession(s.newID(), Meta{
		Name:        name,
		Status:      models.StatusUnsaved,
		Preferences: models.DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, func(opts ...document.Option) (*document.Document, error) {
		d := document.New(opts...)
		d.Seed()
		return d, nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if err := s.save(ctx, sess, "", "created"); err != nil {
		s.drop(sess.id)
		return nil, err
	}
	s.logger.Info("editor: document created", slog.String("id", sess.id), slog.String("name", name))
	return sess, nil
}

// Open returns the session for id, loading its snapshot on first use.
func (s *Service) Open(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	data, err := s.store.Read(snapshot.FileName(s.codec, id))
	if err != nil {
		return nil, err
	}
	f, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if f.ID != id {
		return nil, fmt.Errorf("editor: snapshot %s carries id %q: %w", id, f.ID, apperr.ErrInvalid)
	}

	prefs := f.Preferences
	if prefs.Validate() != nil {
		prefs = models.DefaultPreferences()
	}
	name := f.Name
	if name == "" {
		name = DefaultName
	}
	sess, err := s.newSession(id, Meta{
		Name:        name,
		Status:      models.StatusSaved,
		Preferences: prefs,
		Checksum:    snapshot.Checksum(data),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}, func(opts ...document.Option) (*document.Document, error) {
		return document.FromSnapshot(f.Document, opts...)
	})
	if err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	s.logger.Debug("editor: session opened", slog.String("id", id))
	return sess, nil
}

// Save persists the session. A non-empty ifMatch must equal the checksum
// of the snapshot currently in the store.
func (s *Service) Save(ctx context.Context, id, ifMatch string) (*Session, error) {
	sess, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess, ifMatch, "updated"); err != nil {
		return nil, err
	}
	return sess, nil
}

// Import stores an encoded snapshot as a new document. The id inside the
// snapshot is kept and must not be taken.
func (s *Service) Import(ctx context.Context, data []byte) (*Session, error) {
	f, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("editor: import: %v: %w", err, apperr.ErrInvalid)
	}
	name := snapshot.FileName(s.codec, f.ID)
	if _, err := s.store.Read(name); err == nil {
		return nil, fmt.Errorf("editor: import %s: %w", f.ID, apperr.ErrAlreadyExists)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if f.Name == "" {
		f.Name = DefaultName
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.clock.Now().UTC()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	encoded, err := s.codec.Encode(f)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(name, encoded); err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, f, snapshot.Checksum(encoded)); err != nil {
		s.logger.Warn("editor: reindex failed", slog.String("id", f.ID), slog.String("error", err.Error()))
	}
	s.pub.PublishDocumentEvent("created", f.ID)
	s.logger.Info("editor: document imported", slog.String("id", f.ID))
	return s.Open(ctx, f.ID)
}

// Export encodes the session's current state, saved or not.
func (s *Service) Export(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	f := sess.fileLocked()
	sess.mu.Unlock()
	return s.codec.Encode(f)
}

// Codec returns the snapshot codec in use.
func (s *Service) Codec() snapshot.Codec { return s.codec }

// Delete closes the session and removes the document from store and index.
func (s *Service) Delete(_ context.Context, id string) error {
	s.drop(id)
	if err := s.store.Delete(snapshot.FileName(s.codec, id)); err != nil {
		return err
	}
	if err := s.db.DeleteDocument(id); err != nil {
		return err
	}
	s.pub.PublishDocumentEvent("deleted", id)
	s.logger.Info("editor: document deleted", slog.String("id", id))
	return nil
}

// List returns a page of indexed documents.
func (s *Service) List(_ context.Context, limit, offset int, tag string) ([]index.DocumentRow, int, error) {
	return s.db.ListDocuments(limit, offset, tag)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// DocumentsUsing lists the documents that reference a template variable.
func (s *Service) DocumentsUsing(_ context.Context, variable string) ([]string, error) {
	return s.db.DocumentsUsing(variable)
}

// OpenSessions returns the ids of loaded sessions in sorted order.
func (s *Service) OpenSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExternalChange reacts to a snapshot changed outside the service. Clean
// sessions are evicted so the next Open reloads from disk; sessions with
// unsaved edits are kept and will hit a conflict on save.
func (s *Service) ExternalChange(kind, id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		meta := sess.Meta()
		cs, err := s.db.GetChecksum(id)
		if err != nil {
			s.logger.Warn("editor: read indexed checksum", slog.String("id", id), slog.String("error", err.Error()))
		}
		switch {
		case kind != "deleted" && cs == meta.Checksum:
			// Our own write, already published by save.
			return
		case meta.Status == models.StatusSaved:
			s.drop(id)
			s.logger.Info("editor: session reloaded after external change", slog.String("id", id))
		default:
			s.logger.Warn("editor: external change to document with unsaved edits", slog.String("id", id))
		}
	}
	s.pub.PublishDocumentEvent(kind, id)
}

// Close releases every session.
func (s *Service) Close() {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		open = append(open, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.close()
	}
}

func (s *Service) drop(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
}

func (s *Service) newSession(id string, meta Meta, build func(...document.Option) (*document.Document, error)) (*Session, error) {
	sess := &Session{id: id, svc: s, meta: meta}
	sess.ws = workspace.New(
		workspace.WithClock(s.clock),
		workspace.WithHoverDelay(s.hoverDelay),
		workspace.WithLogger(s.logger.With(slog.String("document", id))),
		workspace.WithOnChange(func(st workspace.State) {
			s.pub.Publish(sse.Event{Type: sse.TypeWorkspaceUpdated, Document: id, Data: st})
		}),
	)
	doc, err := build(document.WithGate(sess.ws), document.WithIDFunc(s.newID))
	if err != nil {
		sess.ws.Close()
		return nil, err
	}
	sess.doc = doc
	return sess, nil
}

// save writes the session snapshot and reindexes it. kind is the document
// event published on success.
func (s *Service) save(_ context.Context, sess *Session, ifMatch, kind string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	name := snapshot.FileName(s.codec, sess.id)
	if ifMatch != "" {
		existing, err := s.store.Read(name)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err != nil || snapshot.Checksum(existing) != ifMatch {
			return fmt.Errorf("editor: save %s: %w", sess.id, apperr.ErrConflict)
		}
	}

	prev := sess.meta.Status
	sess.meta.Status = models.StatusSaving
	f := sess.fileLocked()
	data, err := s.codec.Encode(f)
	if err == nil {
		err = s.store.Write(name, data)
	}
	if err != nil {
		sess.meta.Status = prev
		return err
	}

	cs := snapshot.Checksum(data)
	sess.meta.Checksum = cs
	sess.meta.Status = models.StatusSaved
	if err := index.IndexFile(s.db, f, cs); err != nil {
		s.logger.Warn("editor: reindex failed", slog.String("id", sess.id), slog.String("error", err.Error()))
	}
	s.pub.PublishDocumentEvent(kind, sess.id)
	return nil
}
