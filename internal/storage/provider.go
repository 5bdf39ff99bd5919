// Package storage reads site sources and templates and writes build output.
package storage

import "github.com/starford/vellum/internal/models"

// Provider is the interface for site file operations. Paths are slash
// separated and relative to the provider root; a leading "/" is allowed.
type Provider interface {
	// List returns a record for every file under dir whose name ends in ext.
	// Record paths start with "/".
	List(dir, ext string) ([]models.File, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Root returns the absolute directory backing the provider.
	Root() string
}
