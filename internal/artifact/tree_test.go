package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sowilo/internal/apperr"
)

func tempTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree(filepath.Join(t.TempDir(), "outputs"))
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func TestNewTreeCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fresh", "outputs")
	tree, err := NewTree(root)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	info, err := os.Stat(tree.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestWriteAndRead(t *testing.T) {
	tree := tempTree(t)
	content := []byte("png-bytes")
	if err := tree.Write("week-01/demo/01.png", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tree.Read("week-01/demo/01.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestDelete(t *testing.T) {
	tree := tempTree(t)
	_ = tree.Write("del.png", []byte("bye"))
	if err := tree.Delete("del.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := tree.Read("del.png"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestMove(t *testing.T) {
	tree := tempTree(t)
	_ = tree.Write("old.png", []byte("data"))
	if err := tree.Move("old.png", "week-02/unit/fig1.png"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := tree.Read("week-02/unit/fig1.png")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := tree.Read("old.png"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestListImages(t *testing.T) {
	tree := tempTree(t)
	_ = tree.Write("week-01/a/01.png", []byte("a"))
	_ = tree.Write("week-01/b/02-label.png", []byte("b"))
	_ = tree.Write("week-01/b/notes.txt", []byte("not an image"))

	items, err := tree.ListImages("")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Path != "week-01/a/01.png" || items[1].Path != "week-01/b/02-label.png" {
		t.Errorf("unexpected order: %v", items)
	}
	for _, it := range items {
		if it.Checksum == "" || it.SizeBytes == 0 || it.UpdatedAt.IsZero() {
			t.Errorf("incomplete metadata: %+v", it)
		}
	}
}

func TestSubdirs(t *testing.T) {
	tree := tempTree(t)
	_ = tree.Write("week-02/pca/01.png", []byte("x"))
	_ = tree.Write("week-01/kmeans/01.png", []byte("y"))
	_ = tree.Write("loose.png", []byte("z"))

	dirs, err := tree.Subdirs("")
	if err != nil {
		t.Fatalf("Subdirs: %v", err)
	}
	if len(dirs) != 2 || dirs[0] != "week-01" || dirs[1] != "week-02" {
		t.Errorf("dirs = %v", dirs)
	}
}

func TestTraversalBlocked(t *testing.T) {
	tree := tempTree(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.png",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := tree.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) = %v, want ErrInvalidPath", p, err)
		}
		if err := tree.Write(p, []byte("x")); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Write(%q) = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestAtomicWriteNoLeftoverTemp(t *testing.T) {
	tree := tempTree(t)
	_ = tree.Write("atomic.png", []byte("original"))

	if err := tree.Write("atomic.png", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := tree.Read("atomic.png")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(tree.Root(), ".sowilo-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestEnsureDir(t *testing.T) {
	tree := tempTree(t)
	if err := tree.EnsureDir("week-03/empty-unit"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	info, err := os.Stat(filepath.Join(tree.Root(), "week-03", "empty-unit"))
	if err != nil || !info.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}
}

func TestNewTreeFileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "sowilo-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewTree(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
