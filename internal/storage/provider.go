// Package storage defines the snapshot file-system abstraction.
package storage

import "github.com/starford/promptdesk/internal/models"

// Provider is the interface for snapshot file operations. Names are
// relative to the store root.
type Provider interface {
	// List returns metadata for every file directly under the root whose name ends in ext.
	List(ext string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically replaces the named file.
	Write(name string, content []byte) error
	// Delete removes the named file.
	Delete(name string) error
	// Root is the absolute directory backing the store.
	Root() string
}
