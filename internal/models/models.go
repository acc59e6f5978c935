// Package models defines the domain types for Sowilo.
package models

import "time"

// FileMetadata is a lightweight representation returned by vault list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnchorRef is a block anchor found in (or written to) a note line.
type AnchorRef struct {
	ID   string `json:"id"`
	Line int    `json:"line"`
}
