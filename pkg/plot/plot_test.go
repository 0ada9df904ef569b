package plot

import "testing"

func TestRegistryCreationOrder(t *testing.T) {
	r := NewRegistry()
	a := r.NewCanvas("first")
	b := r.NewCanvas("second")
	c := r.NewCanvas("")

	if r.Count() != 3 {
		t.Fatalf("Count = %d, want 3", r.Count())
	}
	got := r.Drain()
	if len(got) != 3 {
		t.Fatalf("Drain len = %d, want 3", len(got))
	}
	if got[0] != a || got[1] != b || got[2] != c {
		t.Error("Drain order does not match creation order")
	}
	if got[0].ID() != 1 || got[2].ID() != 3 {
		t.Errorf("IDs = %d,%d,%d, want 1,2,3", got[0].ID(), got[1].ID(), got[2].ID())
	}
}

func TestRegistryDrainEmpties(t *testing.T) {
	r := NewRegistry()
	r.NewCanvas("x")
	_ = r.Drain()
	if r.Count() != 0 {
		t.Errorf("Count after Drain = %d, want 0", r.Count())
	}
	if got := r.Drain(); len(got) != 0 {
		t.Errorf("second Drain returned %d canvases", len(got))
	}
}

func TestRegistryCanvasSize(t *testing.T) {
	r := NewRegistry()
	r.SetCanvasSize(320, 240)
	c := r.NewCanvas("sized")
	st := DefaultStyle()
	st.SaveDPI = st.BaseDPI
	img := c.Render(st)
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("rendered %dx%d, want 320x240", b.Dx(), b.Dy())
	}
}

func TestCanvasTitles(t *testing.T) {
	r := NewRegistry()
	c := r.NewCanvas("Overview")
	if c.Title() != "Overview" {
		t.Errorf("Title = %q", c.Title())
	}
	c.SetTitle("Changed")
	if c.Title() != "Changed" {
		t.Errorf("Title after SetTitle = %q", c.Title())
	}
}

func TestFirstRegionTitle(t *testing.T) {
	r := NewRegistry()
	c := r.NewCanvas("")
	c.Region("")
	c.Region("Mean Face")
	c.Region("Later")
	if got := c.FirstRegionTitle(); got != "Mean Face" {
		t.Errorf("FirstRegionTitle = %q, want %q", got, "Mean Face")
	}
}

func TestFirstRegionTitleEmpty(t *testing.T) {
	r := NewRegistry()
	c := r.NewCanvas("")
	c.Region("")
	if got := c.FirstRegionTitle(); got != "" {
		t.Errorf("FirstRegionTitle = %q, want empty", got)
	}
}

func TestRegionSeriesValidation(t *testing.T) {
	reg := &Region{}
	// Mismatched and empty pairs are dropped; only the last call sticks.
	reg.Line([]float64{1, 2}, []float64{1})
	reg.Scatter(nil, nil)
	reg.Line([]float64{1, 2}, []float64{3, 4})
	if len(reg.series) != 1 {
		t.Errorf("series len = %d, want 1", len(reg.series))
	}
}

func TestRegionMatrixRejectsRagged(t *testing.T) {
	reg := &Region{}
	reg.Matrix([][]float64{{1, 2}, {3}})
	if reg.matrix != nil {
		t.Error("ragged matrix should be dropped")
	}
	reg.Matrix([][]float64{{1, 2}, {3, 4}})
	if reg.matrix == nil {
		t.Error("rectangular matrix should be kept")
	}
}

func TestCanvasRelease(t *testing.T) {
	r := NewRegistry()
	c := r.NewCanvas("x")
	reg := c.Region("data")
	reg.Line([]float64{1, 2}, []float64{3, 4})
	c.Release()
	if len(c.Regions()) != 0 {
		t.Error("regions should be dropped after Release")
	}
}
