package plot

import "sync"

// Default canvas size in pixels at the style's base density.
const (
	DefaultWidth  = 960
	DefaultHeight = 720
)

// Canvas is one renderable figure: an optional overall title plus an
// ordered set of titled regions laid out on a grid.
type Canvas struct {
	mu      sync.Mutex
	id      int
	title   string
	width   int
	height  int
	rows    int // 0 means auto: one row of len(regions) columns
	cols    int
	regions []*Region
}

func newCanvas(id int, title string, width, height int) *Canvas {
	return &Canvas{
		id:     id,
		title:  title,
		width:  width,
		height: height,
	}
}

// ID returns the creation-order identifier, starting at 1.
func (c *Canvas) ID() int { return c.id }

// Title returns the overall canvas title.
func (c *Canvas) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// SetTitle replaces the overall canvas title.
func (c *Canvas) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
}

// Resize sets the nominal canvas size in pixels. Non-positive values
// are ignored.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width > 0 {
		c.width = width
	}
	if height > 0 {
		c.height = height
	}
}

// Grid fixes the region layout to rows x cols. Without an explicit grid
// the regions render as a single row. Extra regions beyond the grid's
// capacity extend the grid downward at render time.
func (c *Canvas) Grid(rows, cols int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rows > 0 && cols > 0 {
		c.rows, c.cols = rows, cols
	}
}

// Region appends a new titled region and returns it. Pass "" for an
// untitled region.
func (c *Canvas) Region(title string) *Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg := &Region{title: title}
	c.regions = append(c.regions, reg)
	return reg
}

// Regions returns the regions in creation order.
func (c *Canvas) Regions() []*Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// FirstRegionTitle returns the first non-empty region title in creation
// order, or "" when every region is untitled.
func (c *Canvas) FirstRegionTitle() string {
	for _, reg := range c.Regions() {
		if t := reg.Title(); t != "" {
			return t
		}
	}
	return ""
}

// Release drops the canvas's drawing data. The canvas must not be
// rendered afterwards.
func (c *Canvas) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, reg := range c.regions {
		reg.release()
	}
	c.regions = nil
}

// Region is one sub-plot of a canvas. The first drawing call decides
// whether the region renders as a chart (lines, points, bars) or as a
// grayscale matrix raster; later calls of the same family accumulate.
type Region struct {
	mu     sync.Mutex
	title  string
	xLabel string
	yLabel string
	series []series
	bars   []barValue
	matrix [][]float64
}

type seriesKind int

const (
	seriesLine seriesKind = iota
	seriesPoints
)

type series struct {
	kind seriesKind
	xs   []float64
	ys   []float64
}

type barValue struct {
	label string
	value float64
}

// Title returns the region title.
func (r *Region) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// SetTitle replaces the region title.
func (r *Region) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
}

// XLabel sets the horizontal axis label.
func (r *Region) XLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.xLabel = label
}

// YLabel sets the vertical axis label.
func (r *Region) YLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.yLabel = label
}

// Line adds a connected line series. xs and ys must be the same length;
// a mismatched or empty pair is dropped.
func (r *Region) Line(xs, ys []float64) {
	r.addSeries(seriesLine, xs, ys)
}

// Scatter adds a points-only series. xs and ys must be the same length;
// a mismatched or empty pair is dropped.
func (r *Region) Scatter(xs, ys []float64) {
	r.addSeries(seriesPoints, xs, ys)
}

func (r *Region) addSeries(kind seriesKind, xs, ys []float64) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cx := make([]float64, len(xs))
	cy := make([]float64, len(ys))
	copy(cx, xs)
	copy(cy, ys)
	r.series = append(r.series, series{kind: kind, xs: cx, ys: cy})
}

// Bars adds labeled bars. labels and values must be the same length;
// a mismatched or empty pair is dropped.
func (r *Region) Bars(labels []string, values []float64) {
	if len(labels) == 0 || len(labels) != len(values) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range labels {
		r.bars = append(r.bars, barValue{label: labels[i], value: values[i]})
	}
}

// Matrix sets a grayscale raster for the region, replacing any earlier
// matrix. Values are normalized over the matrix's own min/max range at
// render time. Ragged or empty input is dropped.
func (r *Region) Matrix(rows [][]float64) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	width := len(rows[0])
	m := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return
		}
		m[i] = make([]float64, width)
		copy(m[i], row)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matrix = m
}

func (r *Region) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = nil
	r.bars = nil
	r.matrix = nil
}
