// Package testutil provides shared test helpers for setting up snapshot stores and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/promptdesk/internal/index"
	"github.com/starford/promptdesk/internal/snapshot"
	"github.com/starford/promptdesk/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "promptdesk-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary snapshot directory with a storage.Provider
// and the YAML codec.
func TestStore(t *testing.T) (storage.Provider, snapshot.Codec) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	codec, err := snapshot.NewCodec(snapshot.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	return store, codec
}

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
