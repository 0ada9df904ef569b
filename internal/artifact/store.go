// Package artifact defines the outputs-tree abstraction that capture,
// montage, and the gallery share.
package artifact

import "github.com/starford/sowilo/internal/models"

// Store is the interface for outputs-tree file operations.
type Store interface {
	// Root returns the absolute outputs root.
	Root() string
	// Resolve maps a relative path to an absolute one inside the root.
	Resolve(rel string) (string, error)
	// ListImages returns metadata for every .png under dir (relative to root).
	ListImages(dir string) ([]models.ArtifactMetadata, error)
	// Subdirs returns the immediate child directories of dir.
	Subdirs(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
	// EnsureDir creates dir and any missing parents.
	EnsureDir(dir string) error
}

var _ Store = (*Tree)(nil)
