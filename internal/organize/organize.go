// Package organize migrates legacy flat artifacts into the collection
// tree and normalizes every directory name under the outputs root to its
// slug form. Both passes are idempotent; individual failures are logged
// and skipped.
package organize

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/slug"
)

// figPattern matches the legacy flat naming <base>-fig<num>.png. The base
// is greedy, so "a-fig2-fig3.png" has base "a-fig2" and number "3".
var figPattern = regexp.MustCompile(`^(.+)-fig([0-9]+)\.png$`)

// Run performs both passes over the outputs root. A missing root is not an
// error: there is nothing to organize.
func Run(outputsRoot, labRoot string, logger *slog.Logger) error {
	info, err := os.Stat(outputsRoot)
	if err != nil || !info.IsDir() {
		logger.Info("organize: no outputs directory", slog.String("path", outputsRoot))
		return nil
	}
	tree, err := artifact.NewTree(outputsRoot)
	if err != nil {
		return err
	}
	index := ScriptIndex(labRoot, logger)
	relocateFlat(tree, index, logger)
	normalizeDirs(tree.Root(), logger)
	return nil
}

// ScriptIndex maps script base names (without extension) to their paths
// under root. The extension match is case-insensitive and the first script
// found for a base wins. An unreadable root yields an empty index, which
// routes every relocated artifact to the fallback collection.
func ScriptIndex(root string, logger *slog.Logger) map[string]string {
	index := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".go") {
			return nil
		}
		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if _, ok := index[base]; !ok {
			index[base] = p
		}
		return nil
	})
	if err != nil {
		logger.Warn("organize: script index failed", slog.String("root", root), slog.String("error", err.Error()))
	}
	return index
}

// relocateFlat moves files matching the legacy flat naming from the top
// level of the outputs root into <collection-slug>/<base-slug>/fig<num>.png.
// The figure number is carried over verbatim and an existing destination
// is overwritten.
func relocateFlat(tree *artifact.Tree, index map[string]string, logger *slog.Logger) {
	entries, err := os.ReadDir(tree.Root())
	if err != nil {
		logger.Warn("organize: read outputs root failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := figPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		base, num := m[1], m[2]
		parent := slug.Fallback
		if scriptPath, ok := index[base]; ok {
			parent = filepath.Base(filepath.Dir(scriptPath))
		}
		dest := path.Join(slug.Make(parent), slug.Make(base), "fig"+num+".png")
		if moveErr := tree.Move(e.Name(), dest); moveErr != nil {
			wrapped := fmt.Errorf("%w: %v", apperr.ErrRelocation, moveErr)
			logger.Warn("organize: relocation failed", slog.String("file", e.Name()), slog.String("error", wrapped.Error()))
			continue
		}
		logger.Info("organize: relocated", slog.String("from", e.Name()), slog.String("to", dest))
	}
}

// normalizeDirs renames every directory under root to its slug, deepest
// first. When the slug directory already exists the contents are merged
// into it and the old directory removed; a merge stops that directory at
// the first failed child so nothing is lost.
func normalizeDirs(root string, logger *slog.Logger) {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() && p != root {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil {
		logger.Warn("organize: walk outputs failed", slog.String("error", err.Error()))
		return
	}
	// Children settle before their parents move.
	sep := string(os.PathSeparator)
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], sep), strings.Count(dirs[j], sep)
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	for _, oldPath := range dirs {
		name := filepath.Base(oldPath)
		newName := slug.Make(name)
		if newName == name {
			continue
		}
		newPath := filepath.Join(filepath.Dir(oldPath), newName)
		if _, err := os.Stat(newPath); err != nil {
			if renameErr := os.Rename(oldPath, newPath); renameErr != nil {
				logger.Warn("organize: rename failed", slog.String("dir", oldPath), slog.String("error", renameErr.Error()))
				continue
			}
			logger.Info("organize: renamed", slog.String("from", oldPath), slog.String("to", newPath))
			continue
		}
		if mergeErr := mergeDir(oldPath, newPath); mergeErr != nil {
			logger.Warn("organize: merge failed", slog.String("dir", oldPath), slog.String("error", mergeErr.Error()))
			continue
		}
		logger.Info("organize: merged", slog.String("from", oldPath), slog.String("into", newPath))
	}
}

func mergeDir(oldPath, newPath string) error {
	entries, err := os.ReadDir(oldPath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(oldPath, e.Name()), filepath.Join(newPath, e.Name())); err != nil {
			return err
		}
	}
	return os.Remove(oldPath)
}
