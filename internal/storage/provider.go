package storage

import "github.com/starford/sowilo/internal/models"

// Provider abstracts vault file access so services and the index can be
// tested against alternative backends.
type Provider interface {
	List(dir string) ([]models.FileMetadata, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Delete(path string) error
}
