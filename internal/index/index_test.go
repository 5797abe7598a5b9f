package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/promptdesk/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "promptdesk-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM variables`).Scan(&count); err != nil {
		t.Fatalf("variables table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		ID:        "doc-1",
		Name:      "Support Bot",
		Shape:     "plain",
		Checksum:  "abc123",
		Tags:      []string{"support", "bot"},
		Variables: []string{"customer"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "Greet {{customer}} warmly."); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("doc-1")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{
		ID: "d", Name: "Doc", Shape: "outline", Checksum: "1",
		Tags: []string{"x"}, Variables: []string{"b", "a"}, Words: 4, UpdatedAt: time.Now(),
	}, "body")

	got, err := db.GetDocument("d")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Name != "Doc" || got.Shape != "outline" || got.Words != 4 {
		t.Errorf("row = %+v", got)
	}
	if len(got.Variables) != 2 || got.Variables[0] != "a" {
		t.Errorf("variables = %v", got.Variables)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "x" {
		t.Errorf("tags = %v", got.Tags)
	}

	if _, err := db.GetDocument("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentsUsing(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "a", Checksum: "1", Variables: []string{"user"}, UpdatedAt: time.Now()}, "body")
	_ = db.UpsertDocument(DocumentRow{ID: "c", Checksum: "2", Variables: []string{"user", "topic"}, UpdatedAt: time.Now()}, "body")

	ids, err := db.DocumentsUsing("user")
	if err != nil {
		t.Fatalf("DocumentsUsing: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(ids))
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "del", Checksum: "x", Variables: []string{"target"}, UpdatedAt: time.Now()}, "body")

	if err := db.DeleteDocument("del"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	ids, _ := db.DocumentsUsing("target")
	if len(ids) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(ids))
	}
}

func TestDeleteDocument_FailureKeepsRow(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "keep", Checksum: "x", UpdatedAt: time.Now()}, "body")
	if _, err := db.conn.Exec(`DROP TABLE variables`); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteDocument("keep"); err == nil {
		t.Fatal("DeleteDocument should fail when a delete statement fails")
	}
	if cs, _ := db.GetChecksum("keep"); cs != "x" {
		t.Errorf("checksum = %q, want the row kept after rollback", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{ID: "up", Name: "Old", Checksum: "1", Variables: []string{"x"}, UpdatedAt: now}, "old body")
	_ = db.UpsertDocument(DocumentRow{ID: "up", Name: "New", Checksum: "2", Variables: []string{"y"}, UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	ids, _ := db.DocumentsUsing("x")
	if len(ids) != 0 {
		t.Error("old variable should be removed on upsert")
	}
	ids, _ = db.DocumentsUsing("y")
	if len(ids) != 1 {
		t.Error("new variable should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertDocument(DocumentRow{ID: "old", Checksum: "1", Tags: []string{"draft"}, UpdatedAt: base}, "")
	_ = db.UpsertDocument(DocumentRow{ID: "mid", Checksum: "2", Tags: []string{"live"}, UpdatedAt: base.Add(time.Hour)}, "")
	_ = db.UpsertDocument(DocumentRow{ID: "new", Checksum: "3", Tags: []string{"draft", "live"}, UpdatedAt: base.Add(2 * time.Hour)}, "")

	rows, total, err := db.ListDocuments(2, 0, "")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(rows))
	}
	if rows[0].ID != "new" || rows[1].ID != "mid" {
		t.Errorf("order = %s, %s", rows[0].ID, rows[1].ID)
	}

	rows, total, _ = db.ListDocuments(10, 0, "draft")
	if total != 2 || len(rows) != 2 {
		t.Errorf("draft: total = %d, len = %d", total, len(rows))
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "a", Checksum: "ca", UpdatedAt: time.Now()}, "")
	_ = db.UpsertDocument(DocumentRow{ID: "b", Checksum: "cb", UpdatedAt: time.Now()}, "")

	m, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(m) != 2 || m["a"] != "ca" || m["b"] != "cb" {
		t.Errorf("checksums = %v", m)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "s", Name: "Searchable", Checksum: "1", UpdatedAt: time.Now()}, "The reviewer checks citations carefully.")

	results, err := db.Search("citations", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s" {
		t.Errorf("results = %+v", results)
	}
}
