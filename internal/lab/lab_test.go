package lab

import (
	"os"
	"path/filepath"
	"testing"
)

func scratchLab(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"week-01/alpha.go",
		"week-01/beta.go",
		"week-01/notes.txt",
		"week-02/gamma.go",
		"extra/delta.go",
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("package main\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func TestCollectionsByPrefix(t *testing.T) {
	root := scratchLab(t)
	got, err := Collections(root, "week-", nil)
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(got) != 2 || got[0] != "week-01" || got[1] != "week-02" {
		t.Errorf("collections = %v", got)
	}
}

func TestCollectionsSelectedKeepsOrder(t *testing.T) {
	root := scratchLab(t)
	got, err := Collections(root, "week-", []string{"week-02", "week-01", "week-99"})
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(got) != 2 || got[0] != "week-02" || got[1] != "week-01" {
		t.Errorf("collections = %v", got)
	}
}

func TestCollectionsMissingRoot(t *testing.T) {
	if _, err := Collections(filepath.Join(t.TempDir(), "absent"), "week-", nil); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestUnitsListsScripts(t *testing.T) {
	root := scratchLab(t)
	units, err := Units(root, []string{"week-01", "week-02"}, nil, nil)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("len = %d, want 3", len(units))
	}
	if units[0].Name != "alpha" || units[1].Name != "beta" || units[2].Name != "gamma" {
		t.Errorf("order = %v", units)
	}
	if units[2].Collection != "week-02" || units[2].Path != filepath.Join("week-02", "gamma.go") {
		t.Errorf("unit = %+v", units[2])
	}
}

func TestUnitsIncludeFilter(t *testing.T) {
	root := scratchLab(t)
	units, err := Units(root, []string{"week-01", "week-02"}, []string{"alph"}, nil)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 1 || units[0].Name != "alpha" {
		t.Errorf("units = %v", units)
	}
}

func TestUnitsExcludeFilter(t *testing.T) {
	root := scratchLab(t)
	units, err := Units(root, []string{"week-01", "week-02"}, nil, []string{"bet"})
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	if len(units) != 2 || units[0].Name != "alpha" || units[1].Name != "gamma" {
		t.Errorf("units = %v", units)
	}
}

func TestUnitsSkipsNonScripts(t *testing.T) {
	root := scratchLab(t)
	units, err := Units(root, []string{"week-01"}, nil, nil)
	if err != nil {
		t.Fatalf("Units: %v", err)
	}
	for _, u := range units {
		if u.Name == "notes" {
			t.Error("non-script file listed as unit")
		}
	}
}
