package plot

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
)

var seriesPalette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorAlternateGray,
	chart.ColorCyan,
}

// Render rasterizes the canvas at the style's save density: title band on
// top when a title is set, regions on their grid below, background
// everywhere else. Rendering never fails; a region that cannot be drawn
// degrades to a blank tile.
func (c *Canvas) Render(st Style) *image.RGBA {
	c.mu.Lock()
	width, height, rows, cols := c.width, c.height, c.rows, c.cols
	title := c.title
	regions := make([]*Region, len(c.regions))
	copy(regions, c.regions)
	c.mu.Unlock()

	scale := st.Scale()
	w := int(float64(width) * scale)
	h := int(float64(height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	bg := st.BackgroundRGBA()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	titleFace := LoadFace(st.FontFile, st.TitleSize, st.SaveDPI)
	regionFace := LoadFace(st.FontFile, st.FontSize, st.SaveDPI)

	top := 0
	if title != "" {
		band := bandHeight(titleFace)
		DrawCentered(out, titleFace, title, image.Rect(0, 0, w, band), st.TextRGBA())
		top = band
	}

	n := len(regions)
	if n == 0 {
		return out
	}
	if rows <= 0 || cols <= 0 {
		rows, cols = 1, n
	}
	for rows*cols < n {
		rows++
	}

	pad := int(8 * scale)
	cellW := (w - pad*(cols+1)) / cols
	cellH := (h - top - pad*(rows+1)) / rows
	if cellW < 1 || cellH < 1 {
		return out
	}

	for i, reg := range regions {
		row, col := i/cols, i%cols
		x := pad + col*(cellW+pad)
		y := top + pad + row*(cellH+pad)
		tile := reg.render(cellW, cellH, st, regionFace)
		draw.Draw(out, image.Rect(x, y, x+cellW, y+cellH), tile, tile.Bounds().Min, draw.Src)
	}
	return out
}

// render rasterizes one region into a w x h tile.
func (r *Region) render(w, h int, st Style, face font.Face) image.Image {
	r.mu.Lock()
	title, xLabel, yLabel := r.title, r.xLabel, r.yLabel
	ser := make([]series, len(r.series))
	copy(ser, r.series)
	bars := make([]barValue, len(r.bars))
	copy(bars, r.bars)
	matrix := r.matrix
	r.mu.Unlock()

	switch {
	case matrix != nil:
		return renderMatrix(matrix, w, h, st, title, face)
	case len(bars) > 0:
		return renderBars(bars, w, h, st, title, face)
	case len(ser) > 0:
		return renderSeries(ser, w, h, st, title, xLabel, yLabel, face)
	default:
		return blankTile(w, h, st, title, face)
	}
}

func renderSeries(ser []series, w, h int, st Style, title, xLabel, yLabel string, face font.Face) image.Image {
	bg := st.BackgroundRGBA()
	fill := drawing.Color{R: bg.R, G: bg.G, B: bg.B, A: 255}

	var cs []chart.Series
	minX, maxX := ser[0].xs[0], ser[0].xs[0]
	minY, maxY := ser[0].ys[0], ser[0].ys[0]
	for i, s := range ser {
		for j := range s.xs {
			minX, maxX = minMax(minX, maxX, s.xs[j])
			minY, maxY = minMax(minY, maxY, s.ys[j])
		}
		col := seriesPalette[i%len(seriesPalette)]
		style := chart.Style{StrokeColor: col, StrokeWidth: 1.5 * st.Scale()}
		if s.kind == seriesPoints {
			style = chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2.5 * st.Scale(),
				DotColor:    col,
			}
		}
		cs = append(cs, chart.ContinuousSeries{
			XValues: s.xs,
			YValues: s.ys,
			Style:   style,
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		DPI:        st.SaveDPI,
		Background: chart.Style{FillColor: fill},
		Canvas:     chart.Style{FillColor: fill},
		XAxis:      chart.XAxis{Name: xLabel},
		YAxis:      chart.YAxis{Name: yLabel},
		Series:     cs,
	}
	// Degenerate ranges (single point, flat line) make the renderer bail;
	// widen them by one unit instead.
	if minX == maxX {
		ch.XAxis.Range = &chart.ContinuousRange{Min: minX - 1, Max: maxX + 1}
	}
	if minY == maxY {
		ch.YAxis.Range = &chart.ContinuousRange{Min: minY - 1, Max: maxY + 1}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return blankTile(w, h, st, title, face)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return blankTile(w, h, st, title, face)
	}
	return img
}

func renderBars(bars []barValue, w, h int, st Style, title string, face font.Face) image.Image {
	bg := st.BackgroundRGBA()
	fill := drawing.Color{R: bg.R, G: bg.G, B: bg.B, A: 255}

	values := make([]chart.Value, len(bars))
	for i, b := range bars {
		values[i] = chart.Value{Label: b.label, Value: b.value}
	}
	barWidth := (w-80)/len(bars) - 10
	if barWidth < 4 {
		barWidth = 4
	}
	if barWidth > 80 {
		barWidth = 80
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      w,
		Height:     h,
		DPI:        st.SaveDPI,
		Background: chart.Style{FillColor: fill},
		Canvas:     chart.Style{FillColor: fill},
		BarWidth:   barWidth,
		Bars:       values,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return blankTile(w, h, st, title, face)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return blankTile(w, h, st, title, face)
	}
	return img
}

func renderMatrix(m [][]float64, w, h int, st Style, title string, face font.Face) image.Image {
	tile := newFilled(w, h, st.BackgroundRGBA())

	band := 0
	if title != "" {
		band = bandHeight(face)
		DrawCentered(tile, face, title, image.Rect(0, 0, w, band), st.TextRGBA())
	}
	availW, availH := w, h-band
	if availW < 1 || availH < 1 {
		return tile
	}

	rows, cols := len(m), len(m[0])
	mn, mx := m[0][0], m[0][0]
	for _, row := range m {
		for _, v := range row {
			mn, mx = minMax(mn, mx, v)
		}
	}
	rng := mx - mn

	gray := image.NewGray(image.Rect(0, 0, cols, rows))
	for y, row := range m {
		for x, v := range row {
			g := 0.5
			if rng != 0 {
				g = (v - mn) / rng
			}
			gray.SetGray(x, y, color.Gray{Y: uint8(g * 255)})
		}
	}

	// Fit into the tile preserving aspect ratio. Upscaling keeps hard cell
	// edges; downscaling resamples.
	ratioW := float64(availW) / float64(cols)
	ratioH := float64(availH) / float64(rows)
	ratio := ratioW
	if ratioH < ratio {
		ratio = ratioH
	}
	dw := int(float64(cols) * ratio)
	dh := int(float64(rows) * ratio)
	if dw < 1 || dh < 1 {
		return tile
	}
	x0 := (availW - dw) / 2
	y0 := band + (availH-dh)/2
	dst := image.Rect(x0, y0, x0+dw, y0+dh)

	var scaler xdraw.Scaler = xdraw.CatmullRom
	if dw >= cols {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(tile, dst, gray, gray.Bounds(), xdraw.Src, nil)
	return tile
}

func blankTile(w, h int, st Style, title string, face font.Face) image.Image {
	tile := newFilled(w, h, st.BackgroundRGBA())
	if title != "" {
		DrawCentered(tile, face, title, image.Rect(0, 0, w, bandHeight(face)), st.TextRGBA())
	}
	return tile
}

// TightCrop trims img to the bounding box of its non-background pixels
// and re-centers it on a fresh background with a uniform margin. An image
// that is entirely background comes back unchanged.
func TightCrop(img *image.RGBA, bg color.RGBA, margin int) *image.RGBA {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != bg {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX || maxY < minY {
		return img
	}
	if margin < 0 {
		margin = 0
	}
	content := image.Rect(minX, minY, maxX+1, maxY+1)
	out := newFilled(content.Dx()+2*margin, content.Dy()+2*margin, bg)
	draw.Draw(out, image.Rect(margin, margin, margin+content.Dx(), margin+content.Dy()),
		img, content.Min, draw.Src)
	return out
}

// EncodePNG encodes img for persistence.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newFilled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func bandHeight(face font.Face) int {
	m := face.Metrics()
	return m.Ascent.Ceil() + m.Descent.Ceil() + 8
}

func minMax(mn, mx, v float64) (float64, float64) {
	if v < mn {
		mn = v
	}
	if v > mx {
		mx = v
	}
	return mn, mx
}
