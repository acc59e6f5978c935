package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/sowilo/internal/canvas"
	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed boards and notes are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := deleteFile(db, p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile dispatches on extension: canvas boards get node/edge counts,
// notes get parsed for title and anchors.
func indexFile(db *DB, path string, data []byte) error {
	if strings.HasSuffix(path, storage.ExtCanvas) {
		doc := canvas.Parse(data)
		return db.UpsertBoard(BoardRow{
			Path:      path,
			Checksum:  checksum.Sum(data),
			NodeCount: len(doc.Nodes),
			EdgeCount: len(doc.Edges),
			UpdatedAt: time.Now(),
		})
	}

	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}
	return db.UpsertNote(row, res.Body, res.Anchors)
}

// deleteFile removes the index entry appropriate for the file's extension.
func deleteFile(db *DB, path string) error {
	if strings.HasSuffix(path, storage.ExtCanvas) {
		return db.DeleteBoard(path)
	}
	return db.DeleteNote(path)
}
