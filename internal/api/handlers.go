package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/sendservice"
	"github.com/starford/sowilo/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	svc *sendservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *sendservice.Service) *Handler {
	return &Handler{svc: svc}
}

// boardPath extracts the board path from the URL (everything after
// /api/canvases/). Supports encoded slashes from OpenAPI clients
// (e.g. boards%2Fmain.canvas).
func boardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Send handles POST /api/send.
//
//	@Summary		Send a note fragment to a canvas board
//	@Tags			send
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SendRequest	true	"Fragment to send"
//	@Success		200		{object}	SendResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/send [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Send(r.Context(), sendservice.SendRequest{
		NotePath: req.Note,
		Fragment: req.Fragment,
		Line:     req.Line,
		Kind:     req.Kind,
		Canvas:   req.Canvas,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNoCanvasSelected):
			writeJSON(w, http.StatusConflict, errorBody("no canvas selected"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("note not found"))
		case errors.Is(err, apperr.ErrAnchorFailed):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("fragment could not be anchored"))
		default:
			slog.Error("send failed", slog.String("note", req.Note), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListCanvases handles GET /api/canvases.
//
//	@Summary		List indexed canvas boards
//	@Tags			canvases
//	@Produce		json
//	@Success		200	{object}	CanvasListResponse
//	@Security		BearerAuth
//	@Router			/canvases [get]
func (h *Handler) ListCanvases(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.ListCanvases(r.Context())
	if err != nil {
		slog.Error("list canvases failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]CanvasListItem, len(boards))
	for i, b := range boards {
		items[i] = CanvasListItem{
			Path:      b.Path,
			Checksum:  b.Checksum,
			NodeCount: b.NodeCount,
			EdgeCount: b.EdgeCount,
			UpdatedAt: b.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"canvases": items,
	})
}

// GetCanvas handles GET /api/canvases/*.
//
//	@Summary		Get a single board by path
//	@Tags			canvases
//	@Produce		json
//	@Param			path	path		string	true	"Board path"
//	@Success		200		{object}	CanvasDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{path} [get]
func (h *Handler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	path := boardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.svc.GetCanvas(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get canvas failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteCanvas handles DELETE /api/canvases/*.
//
//	@Summary		Delete a board
//	@Tags			canvases
//	@Param			path	path	string	true	"Board path"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{path} [delete]
func (h *Handler) DeleteCanvas(w http.ResponseWriter, r *http.Request) {
	path := boardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if !strings.HasSuffix(path, storage.ExtCanvas) {
		writeJSON(w, http.StatusBadRequest, errorBody("not a canvas path"))
		return
	}
	if err := h.svc.DeleteCanvas(r.Context(), path); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("delete canvas failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectedCanvas handles GET /api/workspace/selected.
//
//	@Summary		Get the currently selected board
//	@Tags			workspace
//	@Produce		json
//	@Success		200	{object}	SelectedCanvas
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workspace/selected [get]
func (h *Handler) SelectedCanvas(w http.ResponseWriter, r *http.Request) {
	sel, err := h.svc.SelectedCanvas(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNoCanvasSelected) {
			writeJSON(w, http.StatusNotFound, errorBody("no canvas selected"))
		} else {
			slog.Error("selected canvas failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, SelectedCanvas{Path: sel})
}

// SetSelectedCanvas handles PUT /api/workspace/selected.
//
//	@Summary		Select the target board for sends
//	@Tags			workspace
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectedCanvas	true	"Board to select"
//	@Success		200		{object}	SelectedCanvas
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workspace/selected [put]
func (h *Handler) SetSelectedCanvas(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SelectedCanvas
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.SelectCanvas(r.Context(), req.Path); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List indexed notes
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context())
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]NoteListItem, len(notes))
	for i, n := range notes {
		items[i] = NoteListItem{
			Path:      n.Path,
			Title:     n.Title,
			Checksum:  n.Checksum,
			UpdatedAt: n.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": items,
	})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
