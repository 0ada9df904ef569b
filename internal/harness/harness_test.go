package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/artifact"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Style.CanvasWidth = 160
	opts.Style.CanvasHeight = 120
	opts.Style.BaseDPI = 100
	opts.Style.SaveDPI = 100
	opts.Style.PadInches = 0
	return opts
}

func newFixture(t *testing.T) (*Harness, *artifact.Tree, string) {
	t.Helper()
	base := t.TempDir()
	tree, err := artifact.NewTree(filepath.Join(base, "outputs"))
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	labDir := filepath.Join(base, "week-05")
	if err := os.MkdirAll(labDir, 0o755); err != nil {
		t.Fatalf("mkdir lab: %v", err)
	}
	return New(tree, testOptions()), tree, labDir
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func TestCaptureSavesArtifacts(t *testing.T) {
	h, tree, labDir := newFixture(t)
	script := writeScript(t, labDir, "pca-demo.go", `package main

import "sowilo/plot"

func main() {
	a := plot.NewCanvas("Scree Plot")
	a.Region("").Line([]float64{1, 2, 3}, []float64{3, 2, 1})

	b := plot.NewCanvas("Projection")
	b.Region("").Scatter([]float64{1, 2}, []float64{2, 1})
}
`)

	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	want := []string{
		"week-05/pca-demo/01-scree-plot.png",
		"week-05/pca-demo/02-projection.png",
	}
	if len(saved) != len(want) {
		t.Fatalf("saved %v, want %v", saved, want)
	}
	for i := range want {
		if saved[i] != want[i] {
			t.Errorf("saved[%d] = %q, want %q", i, saved[i], want[i])
		}
		data, err := tree.Read(want[i])
		if err != nil {
			t.Fatalf("Read %s: %v", want[i], err)
		}
		if len(data) < 8 || string(data[1:4]) != "PNG" {
			t.Errorf("%s is not a PNG", want[i])
		}
	}
}

func TestCaptureHonorsMaxFigures(t *testing.T) {
	h, tree, labDir := newFixture(t)
	script := writeScript(t, labDir, "many.go", `package main

import "sowilo/plot"

func main() {
	plot.NewCanvas("First")
	plot.NewCanvas("Second")
	plot.NewCanvas("Third")
}
`)

	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d artifacts, want 2", len(saved))
	}
	items, err := tree.ListImages("week-05/many")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("tree holds %d images, want 2", len(items))
	}
}

func TestCaptureNoCanvases(t *testing.T) {
	h, tree, labDir := newFixture(t)
	script := writeScript(t, labDir, "silent.go", `package main

func main() {}
`)

	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("saved = %v, want none", saved)
	}
	// The unit directory still exists for downstream tooling.
	info, err := os.Stat(filepath.Join(tree.Root(), "week-05", "silent"))
	if err != nil || !info.IsDir() {
		t.Errorf("unit dir missing: %v", err)
	}
}

func TestCaptureScriptErrorIsUnitExecution(t *testing.T) {
	h, tree, labDir := newFixture(t)
	script := writeScript(t, labDir, "broken.go", `package main

func main() { this is not valid go }
`)

	_, err := h.Capture(context.Background(), script, nil)
	if !errors.Is(err, apperr.ErrUnitExecution) {
		t.Fatalf("want ErrUnitExecution, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(tree.Root(), "week-05", "broken")); statErr == nil {
		t.Error("unit dir created despite execution failure")
	}
}

func TestCapturePanicIsUnitExecution(t *testing.T) {
	h, _, labDir := newFixture(t)
	script := writeScript(t, labDir, "crash.go", `package main

import "sowilo/plot"

func main() {
	plot.NewCanvas("Before Crash")
	panic("boom")
}
`)

	_, err := h.Capture(context.Background(), script, nil)
	if !errors.Is(err, apperr.ErrUnitExecution) {
		t.Fatalf("want ErrUnitExecution, got %v", err)
	}
}

func TestCaptureLabelFromRegionTitle(t *testing.T) {
	h, _, labDir := newFixture(t)
	script := writeScript(t, labDir, "faces.go", `package main

import "sowilo/plot"

func main() {
	c := plot.NewCanvas("")
	c.Region("Mean Face").Matrix([][]float64{{0, 1}, {1, 0}})
}
`)

	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(saved) != 1 || saved[0] != "week-05/faces/01-mean-face.png" {
		t.Errorf("saved = %v", saved)
	}
}

func TestCaptureLabelKeptWhenDistinct(t *testing.T) {
	h, _, labDir := newFixture(t)
	script := writeScript(t, labDir, "kmeans.go", `package main

import "sowilo/plot"

func main() {
	plot.NewCanvas("K Means")
}
`)

	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	// "K Means" slugs to "k-means", which differs from the base
	// "kmeans" and so stays in the name.
	if len(saved) != 1 || saved[0] != "week-05/kmeans/01-k-means.png" {
		t.Errorf("saved = %v", saved)
	}
}

func TestCaptureLabelEqualToBaseDropped(t *testing.T) {
	h, _, labDir := newFixture(t)
	script := writeScript(t, labDir, "scree.go", `package main

import "sowilo/plot"

func main() {
	plot.NewCanvas("Scree")
}
`)

	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(saved) != 1 || saved[0] != "week-05/scree/01.png" {
		t.Errorf("saved = %v", saved)
	}
}

func TestCapturePassesArgs(t *testing.T) {
	h, _, labDir := newFixture(t)
	script := writeScript(t, labDir, "titled.go", `package main

import (
	"os"

	"sowilo/plot"
)

func main() {
	title := "fallback"
	if len(os.Args) > 1 {
		title = os.Args[1]
	}
	plot.NewCanvas(title)
}
`)

	saved, err := h.Capture(context.Background(), script, []string{"--", "Custom Title"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(saved) != 1 || saved[0] != "week-05/titled/01-custom-title.png" {
		t.Errorf("saved = %v", saved)
	}
}

func TestCaptureEigenfacesDemo(t *testing.T) {
	base := t.TempDir()
	tree, err := artifact.NewTree(base)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	h := New(tree, testOptions())

	saved, err := h.Capture(context.Background(), filepath.Join("testdata", "week-02", "eigenfaces.go"), nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	// No canvas title, so the label comes from the first region title.
	if len(saved) != 1 || saved[0] != "week-02/eigenfaces/01-eigenface-1.png" {
		t.Fatalf("saved = %v", saved)
	}
	data, err := tree.Read(saved[0])
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("demo artifact is not a PNG")
	}
}

func TestCaptureRunsInScriptDirectory(t *testing.T) {
	h, _, labDir := newFixture(t)
	if err := os.WriteFile(filepath.Join(labDir, "title.txt"), []byte("From File\n"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	script := writeScript(t, labDir, "reader.go", `package main

import (
	"os"
	"strings"

	"sowilo/plot"
)

func main() {
	data, err := os.ReadFile("title.txt")
	if err != nil {
		panic(err)
	}
	plot.NewCanvas(strings.TrimSpace(string(data)))
}
`)

	cwd, _ := os.Getwd()
	saved, err := h.Capture(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if after, _ := os.Getwd(); after != cwd {
		t.Errorf("working directory not restored: %s", after)
	}
	if len(saved) != 1 || saved[0] != "week-05/reader/01-from-file.png" {
		t.Errorf("saved = %v", saved)
	}
}
