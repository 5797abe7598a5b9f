package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/promptdesk/internal/snapshot"
	"github.com/starford/promptdesk/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the snapshot directory and keeps the
// index in step with files edited outside the service until ctx is
// cancelled. It calls cb (if non-nil) after each successful index mutation.
//
// Rename events trigger a debounced reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, codec snapshot.Codec, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", store.Root()))

	notify := func(kind, id string) {
		if cb != nil {
			cb(kind, id)
		}
	}

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, codec, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			id, ok := snapshot.IDFromName(codec, name)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", readErr.Error()))
					continue
				}
				prev, _ := db.GetChecksum(id)
				if prev == snapshot.Checksum(data) {
					continue
				}
				if _, idxErr := IndexSnapshot(db, codec, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("file", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if prev == "" {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("id", id), slog.String("op", kind))
				notify(kind, id)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteDocument(id); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("id", id))
				notify("deleted", id)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old name only; a move
				// within the directory arrives later as Create.
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries without a snapshot on disk and indexes
// snapshots whose checksum changed.
func reconcile(db *DB, store storage.Provider, codec snapshot.Codec, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List(codec.Ext())
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	names := make(map[string]string, len(metas))
	for _, m := range metas {
		if id, ok := snapshot.IDFromName(codec, m.Name); ok {
			disk[id] = m.Checksum
			names[id] = m.Name
		}
	}

	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if delErr := db.DeleteDocument(id); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("id", id))
				notify("deleted", id)
			}
		}
	}

	for id, cs := range disk {
		prev, known := checksums[id]
		if prev == cs {
			continue
		}
		data, readErr := store.Read(names[id])
		if readErr != nil {
			continue
		}
		if _, idxErr := IndexSnapshot(db, codec, data); idxErr == nil {
			kind := "updated"
			if !known {
				kind = "created"
			}
			logger.Debug("reconcile: indexed", slog.String("id", id))
			notify(kind, id)
		}
	}
}
