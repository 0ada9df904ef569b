// Package testutil provides shared test helpers for setting up outputs
// trees and ledger databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/index"
)

// TestDB creates a temporary SQLite ledger that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sowilo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTree creates a temporary outputs root with an artifact.Tree over it.
func TestTree(t *testing.T) (string, *artifact.Tree) {
	t.Helper()
	root := t.TempDir()
	tree, err := artifact.NewTree(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, tree
}
