package index

import (
	"log/slog"

	"github.com/starford/promptdesk/internal/parser"
	"github.com/starford/promptdesk/internal/snapshot"
	"github.com/starford/promptdesk/internal/storage"
)

// Sync walks the snapshot store and brings the index up to date:
//   - new/changed snapshots are decoded and upserted
//   - snapshots removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, codec snapshot.Codec, logger *slog.Logger) error {
	metas, err := store.List(codec.Ext())
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		id, ok := snapshot.IDFromName(codec, m.Name)
		if !ok {
			continue
		}
		disk[id] = struct{}{}

		if checksums[id] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", m.Name), slog.String("error", err.Error()))
			continue
		}
		if _, err := IndexSnapshot(db, codec, data); err != nil {
			logger.Warn("sync: index failed", slog.String("file", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", id))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteDocument(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}

// IndexSnapshot decodes encoded snapshot bytes and upserts them into the
// index. It returns the document id.
func IndexSnapshot(db *DB, codec snapshot.Codec, data []byte) (string, error) {
	f, err := codec.Decode(data)
	if err != nil {
		return "", err
	}
	return f.ID, IndexFile(db, f, snapshot.Checksum(data))
}

// IndexFile upserts an already decoded snapshot.
func IndexFile(db *DB, f snapshot.File, checksum string) error {
	text := f.Document.Text()
	res := parser.Parse(text)
	row := DocumentRow{
		ID:        f.ID,
		Name:      f.Name,
		Shape:     string(f.Document.Shape),
		Checksum:  checksum,
		Tags:      res.Tags,
		Variables: parser.Variables(text),
		Words:     res.Words,
		UpdatedAt: f.UpdatedAt,
	}
	return db.UpsertDocument(row, text)
}
