package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoCanvasSelected = errors.New("no canvas selected")
	ErrAnchorFailed     = errors.New("anchor generation failed")
)
