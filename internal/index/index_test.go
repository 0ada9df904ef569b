package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "sowilo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM artifacts`).Scan(&count); err != nil {
		t.Fatalf("artifacts table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	a := models.Artifact{
		Path:       "week-01/pca-demo/01-scree-plot.png",
		Collection: "week-01",
		Unit:       "pca-demo",
		Index:      1,
		Label:      "scree-plot",
		Checksum:   "abc123",
		SizeBytes:  512,
		UpdatedAt:  time.Now(),
	}
	if err := db.UpsertArtifact(a); err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}
	cs, err := db.GetChecksum(a.Path)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetArtifact(t *testing.T) {
	db := testDB(t)
	in := models.Artifact{
		Path:       "week-02/kmeans/02-clusters.png",
		Collection: "week-02",
		Unit:       "kmeans",
		Index:      2,
		Label:      "clusters",
		Checksum:   "ff00",
		SizeBytes:  2048,
		UpdatedAt:  time.Now(),
	}
	if err := db.UpsertArtifact(in); err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}

	got, err := db.GetArtifact(in.Path)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if got.Collection != "week-02" || got.Unit != "kmeans" || got.Index != 2 || got.Label != "clusters" {
		t.Errorf("artifact = %+v", got)
	}
	if got.SizeBytes != 2048 {
		t.Errorf("size = %d, want 2048", got.SizeBytes)
	}
}

func TestGetArtifact_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetArtifact("nope/nothing.png")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteArtifact(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArtifact(models.Artifact{Path: "del/x/01.png", Collection: "del", Unit: "x", Index: 1, Checksum: "x", UpdatedAt: time.Now()})

	if err := db.DeleteArtifact("del/x/01.png"); err != nil {
		t.Fatalf("DeleteArtifact: %v", err)
	}
	cs, _ := db.GetChecksum("del/x/01.png")
	if cs != "" {
		t.Errorf("deleted artifact still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertArtifact(models.Artifact{Path: "up/u/01.png", Collection: "up", Unit: "u", Index: 1, Label: "old", Checksum: "1", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "up/u/01.png", Collection: "up", Unit: "u", Index: 1, Label: "new", Checksum: "2", UpdatedAt: now})

	cs, _ := db.GetChecksum("up/u/01.png")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	a, err := db.GetArtifact("up/u/01.png")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if a.Label != "new" {
		t.Errorf("label = %q, want %q", a.Label, "new")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListCollections(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertArtifact(models.Artifact{Path: "week-02/b/01.png", Collection: "week-02", Unit: "b", Index: 1, Checksum: "1", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "week-01/a/01.png", Collection: "week-01", Unit: "a", Index: 1, Checksum: "2", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "week-01/a/02.png", Collection: "week-01", Unit: "a", Index: 2, Checksum: "3", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "week-01/c/01.png", Collection: "week-01", Unit: "c", Index: 1, Checksum: "4", UpdatedAt: now})

	cols, err := db.ListCollections()
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 collections, got %d", len(cols))
	}
	if cols[0].Name != "week-01" || cols[0].Units != 2 || cols[0].Artifacts != 3 {
		t.Errorf("week-01 row = %+v", cols[0])
	}
	if cols[1].Name != "week-02" || cols[1].Units != 1 || cols[1].Artifacts != 1 {
		t.Errorf("week-02 row = %+v", cols[1])
	}
}

func TestListUnits(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertArtifact(models.Artifact{Path: "week-01/beta/01.png", Collection: "week-01", Unit: "beta", Index: 1, Checksum: "1", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "week-01/alpha/01.png", Collection: "week-01", Unit: "alpha", Index: 1, Checksum: "2", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "week-01/alpha/02.png", Collection: "week-01", Unit: "alpha", Index: 2, Checksum: "3", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "week-02/other/01.png", Collection: "week-02", Unit: "other", Index: 1, Checksum: "4", UpdatedAt: now})

	units, err := db.ListUnits("week-01")
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Name != "alpha" || units[0].Artifacts != 2 {
		t.Errorf("alpha row = %+v", units[0])
	}
	if units[1].Name != "beta" || units[1].Artifacts != 1 {
		t.Errorf("beta row = %+v", units[1])
	}
}

func TestListArtifacts(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertArtifact(models.Artifact{Path: "w/u/02-second.png", Collection: "w", Unit: "u", Index: 2, Checksum: "1", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "w/u/01-first.png", Collection: "w", Unit: "u", Index: 1, Checksum: "2", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "w/other/01.png", Collection: "w", Unit: "other", Index: 1, Checksum: "3", UpdatedAt: now})

	arts, err := db.ListArtifacts("w", "u")
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(arts))
	}
	if arts[0].Path != "w/u/01-first.png" || arts[1].Path != "w/u/02-second.png" {
		t.Errorf("order = %q, %q", arts[0].Path, arts[1].Path)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertArtifact(models.Artifact{Path: "a/b/01.png", Collection: "a", Unit: "b", Index: 1, Checksum: "c1", UpdatedAt: now})
	_ = db.UpsertArtifact(models.Artifact{Path: "a/b/02.png", Collection: "a", Unit: "b", Index: 2, Checksum: "c2", UpdatedAt: now})

	m, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(m) != 2 || m["a/b/01.png"] != "c1" || m["a/b/02.png"] != "c2" {
		t.Errorf("checksums = %v", m)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArtifact(models.Artifact{
		Path: "week-03/pca/01-projection.png", Collection: "week-03", Unit: "pca",
		Index: 1, Label: "projection", Checksum: "1", UpdatedAt: time.Now(),
	})

	results, err := db.Search("projection", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "week-03/pca/01-projection.png" {
		t.Errorf("search results = %+v, want 1 hit", results)
	}
}

func TestInsertAndListRuns(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	id1, err := db.InsertRun(models.Run{Collection: "week-01", Unit: "alpha", Status: models.RunStatusOK, Artifacts: 2, StartedAt: now, FinishedAt: now})
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	id2, err := db.InsertRun(models.Run{Collection: "week-01", Unit: "beta", Status: models.RunStatusFailed, Error: "boom", StartedAt: now, FinishedAt: now})
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("run ids not increasing: %d then %d", id1, id2)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Unit != "beta" || runs[0].Status != models.RunStatusFailed || runs[0].Error != "boom" {
		t.Errorf("newest run = %+v", runs[0])
	}
	if runs[1].Unit != "alpha" || runs[1].Artifacts != 2 {
		t.Errorf("older run = %+v", runs[1])
	}
}

func TestArtifactFromMeta(t *testing.T) {
	now := time.Now()
	cases := []struct {
		path       string
		collection string
		unit       string
		index      int
		label      string
	}{
		{"week-01/pca-demo/01-scree-plot.png", "week-01", "pca-demo", 1, "scree-plot"},
		{"week-01/pca-demo/02.png", "week-01", "pca-demo", 2, ""},
		{"week-02/kmeans/fig3.png", "week-02", "kmeans", 3, ""},
		{"week-01/overview/overview.png", "week-01", "overview", 0, ""},
		{"week-01/stray.png", "week-01", "", 0, ""},
		{"loose.png", "", "", 0, ""},
	}
	for _, tc := range cases {
		a := artifactFromMeta(models.ArtifactMetadata{Path: tc.path, Checksum: "x", UpdatedAt: now})
		if a.Collection != tc.collection || a.Unit != tc.unit || a.Index != tc.index || a.Label != tc.label {
			t.Errorf("%s: parsed %+v, want coll=%q unit=%q idx=%d label=%q",
				tc.path, a, tc.collection, tc.unit, tc.index, tc.label)
		}
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	tree, err := artifact.NewTree(root)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	if err := tree.Write("week-01/alpha/01.png", []byte("png-one")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := tree.Write("week-01/alpha/02-extra.png", []byte("png-two")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := Sync(db, tree, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	arts, err := db.ListArtifacts("week-01", "alpha")
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("expected 2 indexed artifacts, got %d", len(arts))
	}
	if arts[1].Label != "extra" || arts[1].Index != 2 {
		t.Errorf("parsed artifact = %+v", arts[1])
	}

	// Remove one file, add another, sync again.
	if err := tree.Delete("week-01/alpha/01.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := tree.Write("week-01/beta/01.png", []byte("png-three")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Sync(db, tree, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	cs, _ := db.GetChecksum("week-01/alpha/01.png")
	if cs != "" {
		t.Errorf("stale entry survived sync")
	}
	if cs, _ := db.GetChecksum("week-01/beta/01.png"); cs == "" {
		t.Errorf("new file not indexed")
	}

	// Idempotent when nothing changed.
	before, _ := db.AllChecksums()
	if err := Sync(db, tree, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	after, _ := db.AllChecksums()
	if len(before) != len(after) {
		t.Errorf("checksum count changed on no-op sync: %d -> %d", len(before), len(after))
	}
}
