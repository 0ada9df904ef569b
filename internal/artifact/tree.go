package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/models"
)

// Tree implements Store backed by the local file system.
type Tree struct {
	root string // absolute path to the outputs directory
}

// NewTree creates a Tree rooted at the given directory, creating it when
// absent. Capture runs target trees that may not exist yet.
func NewTree(root string) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("artifact: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("artifact: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact: root is not a directory: %s", abs)
	}
	return &Tree{root: abs}, nil
}

// Root returns the absolute outputs root.
func (t *Tree) Root() string { return t.root }

// Resolve maps a relative path to its absolute location, rejecting any
// result that escapes the outputs root (directory traversal).
func (t *Tree) Resolve(rel string) (string, error) {
	if rel == "" {
		return t.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("artifact: absolute path %s: %w", rel, apperr.ErrInvalidPath)
	}
	joined := filepath.Join(t.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("artifact: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, t.root+string(os.PathSeparator)) && abs != t.root {
		return "", fmt.Errorf("artifact: path %s escapes outputs root: %w", rel, apperr.ErrInvalidPath)
	}
	return abs, nil
}

// ListImages walks dir (relative to root) and returns metadata for every
// .png file, sorted by relative path.
func (t *Tree) ListImages(dir string) ([]models.ArtifactMetadata, error) {
	base, err := t.Resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.ArtifactMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".png") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, err := checksum.File(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(t.root, p)
		out = append(out, models.ArtifactMetadata{
			Path:      filepath.ToSlash(rel),
			Checksum:  sum,
			SizeBytes: info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: list: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Subdirs returns the immediate child directory names under dir, sorted.
func (t *Tree) Subdirs(dir string) ([]string, error) {
	base, err := t.Resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("artifact: read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Read returns the raw bytes of a file under the outputs root.
func (t *Tree) Read(path string) ([]byte, error) {
	abs, err := t.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (t *Tree) Write(path string, content []byte) error {
	abs, err := t.Resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sowilo-tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("artifact: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("artifact: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("artifact: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the outputs tree.
func (t *Tree) Delete(path string) error {
	abs, err := t.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("artifact: delete %s: %w", path, err)
	}
	return nil
}

// Move renames a file within the outputs tree, creating the destination
// directory when needed.
func (t *Tree) Move(oldPath, newPath string) error {
	absOld, err := t.Resolve(oldPath)
	if err != nil {
		return err
	}
	absNew, err := t.Resolve(newPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absNew)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("artifact: move: %w", err)
	}
	return nil
}

// EnsureDir creates dir (relative to root) and any missing parents. Unit
// output directories exist even when a run captures nothing.
func (t *Tree) EnsureDir(dir string) error {
	abs, err := t.Resolve(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("artifact: ensure dir %s: %w", dir, err)
	}
	return nil
}
