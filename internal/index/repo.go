package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/promptdesk/internal/apperr"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Shape     string    `json:"shape"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Variables []string  `json:"variables"`
	Words     int       `json:"words"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document, its FTS entry, and its
// template variables within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if d.Tags == nil {
		d.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(d.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (id, name, shape, checksum, tags, words, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			shape      = excluded.shape,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			words      = excluded.words,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.ID, d.Name, d.Shape, d.Checksum, string(tagsJSON), d.Words, body, d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.ID, d.Name, body, d.Tags); err != nil {
		return err
	}

	// Replace variables: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM variables WHERE document_id = ?`, d.ID); err != nil {
		return fmt.Errorf("index: clear variables: %w", err)
	}
	if len(d.Variables) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO variables (document_id, name) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare variable insert: %w", err)
		}
		defer stmt.Close()
		for _, v := range d.Variables {
			if _, err := stmt.Exec(d.ID, v); err != nil {
				return fmt.Errorf("index: insert variable: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, and its variables.
func (db *DB) DeleteDocument(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM variables WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete variables: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDocument returns one indexed document with its variables.
func (db *DB) GetDocument(id string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, shape, checksum, tags, words, updated_at
		FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	vars, err := db.variablesOf(id)
	if err != nil {
		return nil, err
	}
	d.Variables = vars
	return &d, nil
}

// ListDocuments returns a page of documents, most recently updated first,
// and the total count. A non-empty tag filters on exact tag membership.
func (db *DB) ListDocuments(limit, offset int, tag string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, name, shape, checksum, tags, words, updated_at
		FROM documents `+where+`
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	out := []DocumentRow{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// DocumentsUsing returns the ids of documents referencing {{variable}}.
func (db *DB) DocumentsUsing(variable string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT document_id FROM variables WHERE name = ? ORDER BY document_id`, variable)
	if err != nil {
		return nil, fmt.Errorf("index: documents using: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllChecksums returns id → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

func (db *DB) variablesOf(id string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM variables WHERE document_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("index: variables: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (DocumentRow, error) {
	var (
		d    DocumentRow
		tags string
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Shape, &d.Checksum, &tags, &d.Words, &d.UpdatedAt); err != nil {
		return DocumentRow{}, err
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil || d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}
