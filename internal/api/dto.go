package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sowilo/internal/sendservice"
)

// SendRequest is the request body for POST /api/send.
type SendRequest struct {
	Note     string `json:"note" example:"notes/ideas.md" validate:"required"`
	Fragment string `json:"fragment" example:"Build a canvas bridge"`
	Line     int    `json:"line" example:"3"`
	Kind     string `json:"kind" example:"link" validate:"required"`
	Canvas   string `json:"canvas,omitempty" example:"boards/main.canvas"`
}

// Validate checks field presence and the node kind.
func (r SendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Note, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(
			sendservice.KindPlain,
			sendservice.KindLink,
			sendservice.KindEmbed,
			sendservice.KindNote,
		)),
		validation.Field(&r.Fragment, validation.Required.When(r.Kind != sendservice.KindNote)),
		validation.Field(&r.Line, validation.Min(0)),
	)
}

// SendResult is the send response (aliased from the domain layer).
type SendResult = sendservice.SendResult

// CanvasDetail is the full board response type (aliased from the domain layer).
type CanvasDetail = sendservice.CanvasDetail

// CanvasListItem is a lightweight board entry in a list response.
type CanvasListItem struct {
	Path      string    `json:"path" example:"boards/main.canvas" validate:"required"`
	Checksum  string    `json:"checksum" example:"abc123..." validate:"required"`
	NodeCount int       `json:"node_count" example:"12" validate:"required"`
	EdgeCount int       `json:"edge_count" example:"4" validate:"required"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanvasListResponse wraps board listings.
type CanvasListResponse struct {
	Canvases []CanvasListItem `json:"canvases" validate:"required"`
}

// SelectedCanvas is the GET/PUT /api/workspace/selected payload.
type SelectedCanvas struct {
	Path string `json:"path" example:"boards/main.canvas" validate:"required"`
}

// Validate checks the selection payload.
func (s SelectedCanvas) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Path, validation.Required),
	)
}

// NoteListItem is a lightweight note entry in a list response.
type NoteListItem struct {
	Path      string    `json:"path" example:"notes/ideas.md" validate:"required"`
	Title     string    `json:"title" example:"Ideas"`
	Checksum  string    `json:"checksum" example:"abc123..."`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"notes/ideas.md" validate:"required"`
	Title   string `json:"title" example:"Ideas" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
