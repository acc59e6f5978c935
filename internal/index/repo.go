package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sowilo/internal/models"
)

// BoardRow represents a row in the boards table.
type BoardRow struct {
	Path      string
	Checksum  string
	NodeCount int
	EdgeCount int
	UpdatedAt time.Time
}

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one full-text search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertBoard inserts or replaces a board row.
func (db *DB) UpsertBoard(b BoardRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO boards (path, checksum, node_count, edge_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			updated_at = excluded.updated_at
	`, b.Path, b.Checksum, b.NodeCount, b.EdgeCount, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert board: %w", err)
	}
	return nil
}

// DeleteBoard removes a board row. The selected-canvas pointer is cleared
// when it referenced the deleted board.
func (db *DB) DeleteBoard(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, _ = tx.Exec(`DELETE FROM boards WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM workspace WHERE key = ? AND value = ?`, keySelectedCanvas, path)

	return tx.Commit()
}

// ListBoards returns all indexed boards ordered by path.
func (db *DB) ListBoards() ([]BoardRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum, node_count, edge_count, updated_at
		FROM boards ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list boards: %w", err)
	}
	defer rows.Close()

	var out []BoardRow
	for rows.Next() {
		var b BoardRow
		if err := rows.Scan(&b.Path, &b.Checksum, &b.NodeCount, &b.EdgeCount, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBoard returns one board row, or nil when not indexed.
func (db *DB) GetBoard(path string) (*BoardRow, error) {
	var b BoardRow
	err := db.conn.QueryRow(`
		SELECT path, checksum, node_count, edge_count, updated_at
		FROM boards WHERE path = ?
	`, path).Scan(&b.Path, &b.Checksum, &b.NodeCount, &b.EdgeCount, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get board: %w", err)
	}
	return &b, nil
}

// UpsertNote inserts or replaces a note, its FTS entry, and its anchors
// within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, anchors []models.AnchorRef) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, n.Path, n.Title, body); err != nil {
		return err
	}

	// Replace anchors: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM anchors WHERE note_path = ?`, n.Path)
	if len(anchors) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO anchors (note_path, anchor_id, line) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare anchor insert: %w", err)
		}
		defer stmt.Close()
		for _, a := range anchors {
			if _, err := stmt.Exec(n.Path, a.ID, a.Line); err != nil {
				return fmt.Errorf("index: insert anchor: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and its anchors.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM anchors WHERE note_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// ListNotes returns all indexed notes ordered by path.
func (db *DB) ListNotes() ([]NoteRow, error) {
	rows, err := db.conn.Query(`SELECT path, title, checksum, updated_at FROM notes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		if err := rows.Scan(&n.Path, &n.Title, &n.Checksum, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AnchorsForNote returns the anchors recorded for a note, in line order.
func (db *DB) AnchorsForNote(path string) ([]models.AnchorRef, error) {
	rows, err := db.conn.Query(`SELECT anchor_id, line FROM anchors WHERE note_path = ? ORDER BY line`, path)
	if err != nil {
		return nil, fmt.Errorf("index: anchors: %w", err)
	}
	defer rows.Close()

	var out []models.AnchorRef
	for rows.Next() {
		var a models.AnchorRef
		if err := rows.Scan(&a.ID, &a.Line); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AllChecksums returns path→checksum for every indexed file, boards and
// notes combined. Sync and the watcher use it for change detection.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum FROM boards
		UNION ALL
		SELECT path, checksum FROM notes
	`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// SelectedCanvas returns the persisted selected canvas path, or "" when
// none has been selected.
func (db *DB) SelectedCanvas() (string, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM workspace WHERE key = ?`, keySelectedCanvas).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: selected canvas: %w", err)
	}
	return v, nil
}

// SetSelectedCanvas persists the selected canvas path.
func (db *DB) SetSelectedCanvas(path string) error {
	_, err := db.conn.Exec(`
		INSERT INTO workspace (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, keySelectedCanvas, path)
	if err != nil {
		return fmt.Errorf("index: set selected canvas: %w", err)
	}
	return nil
}
