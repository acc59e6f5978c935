// Package sendservice orchestrates the send operation: anchoring a note
// fragment and appending a node for it to a canvas board.
//
// Every send is a single synchronous load-modify-save unit. Boards are not
// locked; concurrent writers follow last-writer-wins.
package sendservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/sowilo/internal/anchor"
	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/canvas"
	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/storage"
)

// Node kinds accepted by Send. The first three map to text nodes with
// differently formatted content; KindNote embeds the whole note as a file
// node.
const (
	KindPlain = "plain"
	KindLink  = "link"
	KindEmbed = "embed"
	KindNote  = "note"
)

// Dimension is the width/height pair applied to an appended node.
type Dimension struct {
	Width  float64
	Height float64
}

// Settings carries the tunable send behaviour.
type Settings struct {
	PlacementGap    float64
	LinkNode        Dimension // link and embed references
	ContentNode     Dimension // plain text content
	FileNode        Dimension // whole-note embeds
	AppendTimestamp bool
	TimestampLayout string
}

// DefaultSettings are used where a zero field is found.
func DefaultSettings() Settings {
	return Settings{
		PlacementGap:    canvas.DefaultPlacementGap,
		LinkNode:        Dimension{Width: 400, Height: 100},
		ContentNode:     Dimension{Width: 400, Height: 200},
		FileNode:        Dimension{Width: 400, Height: 400},
		TimestampLayout: canvas.DefaultTimestampLayout,
	}
}

// EventFunc receives change notifications ("board.created", "board.updated",
// "board.selected", "anchor.created") after a successful mutation.
type EventFunc func(kind, path string)

// SendRequest describes one fragment to deliver to a board.
type SendRequest struct {
	NotePath string // vault-relative path of the source note
	Fragment string // selected text, may span lines
	Line     int    // cursor line, used when the fragment cannot be located
	Kind     string // plain, link, embed, or note
	Canvas   string // optional explicit board; empty means the selected one
}

// SendResult reports where the fragment landed.
type SendResult struct {
	Canvas   string `json:"canvas"`
	NodeID   string `json:"node_id"`
	AnchorID string `json:"anchor_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// CanvasDetail is the full representation of one board.
type CanvasDetail struct {
	Path      string    `json:"path"`
	Raw       string    `json:"raw"`
	Checksum  string    `json:"checksum"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage, index, and anchoring for send operations.
type Service struct {
	store    storage.Provider
	db       *index.DB
	anchors  *anchor.Manager
	settings Settings
	events   EventFunc
}

// NewService creates a send service. events may be nil.
func NewService(store storage.Provider, db *index.DB, anchors *anchor.Manager, settings Settings, events EventFunc) *Service {
	def := DefaultSettings()
	if settings.PlacementGap <= 0 {
		settings.PlacementGap = def.PlacementGap
	}
	if settings.LinkNode.Width <= 0 || settings.LinkNode.Height <= 0 {
		settings.LinkNode = def.LinkNode
	}
	if settings.ContentNode.Width <= 0 || settings.ContentNode.Height <= 0 {
		settings.ContentNode = def.ContentNode
	}
	if settings.FileNode.Width <= 0 || settings.FileNode.Height <= 0 {
		settings.FileNode = def.FileNode
	}
	if settings.TimestampLayout == "" {
		settings.TimestampLayout = def.TimestampLayout
	}
	return &Service{store: store, db: db, anchors: anchors, settings: settings, events: events}
}

// SetEvents installs the change notification callback. Call before the
// service starts handling requests.
func (s *Service) SetEvents(fn EventFunc) {
	s.events = fn
}

// Send anchors the fragment (for link and embed kinds), appends a node to
// the target board, and persists both files.
func (s *Service) Send(_ context.Context, req SendRequest) (*SendResult, error) {
	switch req.Kind {
	case KindPlain, KindLink, KindEmbed, KindNote:
	default:
		return nil, fmt.Errorf("sendservice: unknown kind %q", req.Kind)
	}

	boardPath, err := s.resolveCanvas(req.Canvas)
	if err != nil {
		return nil, err
	}

	result := &SendResult{Canvas: boardPath}

	var nodeText string
	switch req.Kind {
	case KindPlain:
		nodeText = req.Fragment

	case KindNote:
		// The file node only references the note; make sure the reference
		// will resolve.
		if _, err := s.store.Read(req.NotePath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, apperr.ErrNotFound
			}
			return nil, err
		}

	case KindLink, KindEmbed:
		anchorID, err := s.ensureNoteAnchor(req)
		if err != nil {
			return nil, err
		}
		result.AnchorID = anchorID
		nodeText = canvas.FormatReference(req.Kind, req.Fragment, noteBasename(req.NotePath), anchorID, canvas.RefOptions{
			AppendTimestamp: s.settings.AppendTimestamp,
			TimestampLayout: s.settings.TimestampLayout,
		})
	}

	// Load the board. A board that cannot be read is treated as empty, so
	// sending to a fresh path creates it.
	raw, err := s.store.Read(boardPath)
	created := false
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		raw = nil
		created = true
	}
	doc := canvas.Parse(raw)

	if req.Kind == KindNote {
		result.NodeID = doc.AppendFileNode(req.NotePath, s.settings.FileNode.Width, s.settings.FileNode.Height, s.settings.PlacementGap)
	} else {
		dim := s.settings.ContentNode
		if req.Kind != KindPlain {
			dim = s.settings.LinkNode
		}
		result.NodeID = doc.AppendTextNode(nodeText, dim.Width, dim.Height, s.settings.PlacementGap)
		result.Text = nodeText
	}

	out, err := doc.Save()
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(boardPath, out); err != nil {
		return nil, err
	}

	if err := s.db.UpsertBoard(index.BoardRow{
		Path:      boardPath,
		Checksum:  checksum.Sum(out),
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
		UpdatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	if s.events != nil {
		if created {
			s.events("board.created", boardPath)
		} else {
			s.events("board.updated", boardPath)
		}
	}
	return result, nil
}

// SelectCanvas persists path as the workspace's target board. The board
// must exist on disk.
func (s *Service) SelectCanvas(_ context.Context, path string) error {
	if !strings.HasSuffix(path, storage.ExtCanvas) {
		return fmt.Errorf("sendservice: %q is not a canvas path", path)
	}
	if _, err := s.store.Read(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.SetSelectedCanvas(path); err != nil {
		return err
	}
	if s.events != nil {
		s.events("board.selected", path)
	}
	return nil
}

// DeleteCanvas removes a board from the vault and the index. Deleting the
// selected board clears the selection.
func (s *Service) DeleteCanvas(_ context.Context, path string) error {
	if !strings.HasSuffix(path, storage.ExtCanvas) {
		return fmt.Errorf("sendservice: %q is not a canvas path", path)
	}
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteBoard(path); err != nil {
		return err
	}
	if s.events != nil {
		s.events("board.deleted", path)
	}
	return nil
}

// SelectedCanvas returns the persisted target board, or ErrNoCanvasSelected.
func (s *Service) SelectedCanvas(_ context.Context) (string, error) {
	sel, err := s.db.SelectedCanvas()
	if err != nil {
		return "", err
	}
	if sel == "" {
		return "", apperr.ErrNoCanvasSelected
	}
	return sel, nil
}

// ListCanvases returns all indexed boards.
func (s *Service) ListCanvases(_ context.Context) ([]index.BoardRow, error) {
	return s.db.ListBoards()
}

// GetCanvas reads a board from storage and returns its raw JSON with counts.
func (s *Service) GetCanvas(_ context.Context, path string) (*CanvasDetail, error) {
	raw, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc := canvas.Parse(raw)
	return &CanvasDetail{
		Path:      path,
		Raw:       string(raw),
		Checksum:  checksum.Sum(raw),
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
		UpdatedAt: time.Now(),
	}, nil
}

// ListNotes returns all indexed notes.
func (s *Service) ListNotes(_ context.Context) ([]index.NoteRow, error) {
	return s.db.ListNotes()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// resolveCanvas picks the explicit board if given, otherwise the persisted
// selection.
func (s *Service) resolveCanvas(explicit string) (string, error) {
	if explicit != "" {
		if !strings.HasSuffix(explicit, storage.ExtCanvas) {
			return "", fmt.Errorf("sendservice: %q is not a canvas path", explicit)
		}
		return explicit, nil
	}
	sel, err := s.db.SelectedCanvas()
	if err != nil {
		return "", err
	}
	if sel == "" {
		return "", apperr.ErrNoCanvasSelected
	}
	return sel, nil
}

// ensureNoteAnchor reads the source note, guarantees the fragment's line
// carries a block anchor, and writes the note back when it changed.
func (s *Service) ensureNoteAnchor(req SendRequest) (string, error) {
	data, err := s.store.Read(req.NotePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}

	original := string(data)
	updated, anchorID := s.anchors.EnsureAnchor(original, req.Fragment, req.Line)
	if anchorID == "" {
		return "", apperr.ErrAnchorFailed
	}

	if updated != original {
		if err := s.store.Write(req.NotePath, []byte(updated)); err != nil {
			return "", err
		}
		if err := s.reindexNote(req.NotePath, []byte(updated)); err != nil {
			return "", err
		}
		if s.events != nil {
			s.events("anchor.created", req.NotePath)
		}
	}
	return anchorID, nil
}

// reindexNote parses the rewritten note and upserts it, keeping the anchor
// table in step with the file.
func (s *Service) reindexNote(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, res.Body, res.Anchors)
}

// noteBasename strips the directory and the note extension, matching the
// wikilink convention of referencing notes by name.
func noteBasename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, storage.ExtNote)
}
