// Package lab discovers collections and runnable units under a lab root.
//
// A collection is a directory whose name carries the collection prefix
// (week-02, week-03, ...). A unit is a .go script directly inside a
// collection directory.
package lab

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Unit is one runnable script inside a collection.
type Unit struct {
	Collection string // collection directory name
	Name       string // script base name without extension
	Path       string // script path relative to the lab root
}

// Collections returns collection directory names under root. When selected
// is non-empty only those that exist as directories are kept, in the given
// order. Otherwise every directory whose name starts with prefix is
// returned in lexical order.
func Collections(root, prefix string, selected []string) ([]string, error) {
	if len(selected) > 0 {
		var out []string
		for _, name := range selected {
			info, err := os.Stat(filepath.Join(root, name))
			if err == nil && info.IsDir() {
				out = append(out, name)
			}
		}
		return out, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("lab: read root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Units lists the .go scripts of each collection in lexical order. The
// include and exclude filters match substrings of the script base name
// without its extension: include keeps a unit when any pattern matches,
// exclude drops it when any pattern matches.
func Units(root string, collections []string, include, exclude []string) ([]Unit, error) {
	var units []Unit
	for _, coll := range collections {
		entries, err := os.ReadDir(filepath.Join(root, coll))
		if err != nil {
			return nil, fmt.Errorf("lab: read collection %s: %w", coll, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".go")
			if len(include) > 0 && !matchesAny(name, include) {
				continue
			}
			if matchesAny(name, exclude) {
				continue
			}
			units = append(units, Unit{
				Collection: coll,
				Name:       name,
				Path:       filepath.Join(coll, e.Name()),
			})
		}
	}
	return units, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}
	return false
}
