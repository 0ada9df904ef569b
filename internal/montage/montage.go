// Package montage composes ordered source images into a single row-major
// grid image with configurable padding, borders, and label bands.
package montage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/pkg/plot"
)

// Options controls montage composition. Use DefaultOptions as the base;
// zero values are taken literally except where noted.
type Options struct {
	// TileWidth and TileHeight force a uniform tile size. When either is
	// unset the maximum width and height across the inputs are used.
	TileWidth  int
	TileHeight int

	// Padding separates tiles from each other and the canvas edge.
	Padding int

	Background color.RGBA

	// BorderWidth concentric outline pixels drawn outward from each tile
	// edge. Zero disables borders.
	BorderWidth int
	BorderColor color.RGBA

	// Labels, when non-empty, must parallel the images slice. An empty
	// string renders no text for that slot.
	Labels []string

	// LabelHeight is the band below each tile. Defaults to 24 when
	// labels are present and the height is unset.
	LabelHeight int
	LabelColor  color.RGBA

	// LabelFill paints the label band background. A zero-alpha color
	// leaves the band unfilled.
	LabelFill color.RGBA

	// FontFile optionally points at a TTF/OTF for label text; the
	// builtin fixed face is the fallback.
	FontFile string

	// LabelMaxRunes caps label length before layout. Non-positive
	// disables the cap.
	LabelMaxRunes int
}

// DefaultOptions returns the composition defaults shared by the CLI and
// the run orchestrator's per-collection overviews.
func DefaultOptions() Options {
	return Options{
		Padding:       16,
		Background:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
		BorderColor:   color.RGBA{R: 200, G: 200, B: 200, A: 255},
		LabelColor:    color.RGBA{R: 30, G: 30, B: 30, A: 255},
		LabelMaxRunes: 48,
	}
}

// Compose lays images onto a rows x cols grid in row-major order and
// returns the composed canvas. It fails with apperr.ErrInvalidLayout when
// the grid cannot hold every image, and with a plain error when images is
// empty or labels do not parallel images.
func Compose(images []image.Image, rows, cols int, opts Options) (image.Image, error) {
	n := len(images)
	if n == 0 {
		return nil, fmt.Errorf("montage: no images")
	}
	if rows*cols < n {
		return nil, fmt.Errorf("montage: %d images exceed %dx%d grid: %w", n, rows, cols, apperr.ErrInvalidLayout)
	}
	if len(opts.Labels) > 0 && len(opts.Labels) != n {
		return nil, fmt.Errorf("montage: %d labels for %d images", len(opts.Labels), n)
	}

	tw, th := opts.TileWidth, opts.TileHeight
	if tw <= 0 || th <= 0 {
		tw, th = maxDims(images)
	}
	pad := opts.Padding
	if pad < 0 {
		pad = 0
	}
	lh := 0
	if len(opts.Labels) > 0 {
		lh = opts.LabelHeight
		if lh <= 0 {
			lh = 24
		}
	}

	w := cols*tw + (cols+1)*pad
	h := rows*(th+lh) + (rows+1)*pad
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	var face = plot.LoadFace(opts.FontFile, labelPoints(lh), 96)

	for i, img := range images {
		row, col := i/cols, i%cols
		x := pad + col*(tw+pad)
		y := pad + row*(th+lh+pad)

		tile := resizeTo(img, tw, th)
		draw.Draw(canvas, image.Rect(x, y, x+tw, y+th), tile, image.Point{}, draw.Src)

		for k := 1; k <= opts.BorderWidth; k++ {
			drawOutline(canvas, image.Rect(x-k, y-k, x+tw+k, y+th+k), opts.BorderColor)
		}

		if lh > 0 {
			band := image.Rect(x, y+th, x+tw, y+th+lh)
			if opts.LabelFill.A != 0 {
				draw.Draw(canvas, band, image.NewUniform(opts.LabelFill), image.Point{}, draw.Src)
			}
			label := truncateRunes(opts.Labels[i], opts.LabelMaxRunes)
			if label != "" {
				plot.DrawCentered(canvas, face, label, band, opts.LabelColor)
			}
		}
	}
	return canvas, nil
}

func maxDims(images []image.Image) (int, int) {
	var w, h int
	for _, img := range images {
		b := img.Bounds()
		if b.Dx() > w {
			w = b.Dx()
		}
		if b.Dy() > h {
			h = b.Dy()
		}
	}
	return w, h
}

// drawOutline draws a one-pixel rectangle outline. Pixels falling outside
// the canvas are dropped by the underlying image bounds check.
func drawOutline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

// labelPoints sizes label text to roughly half the band height.
func labelPoints(bandHeight int) float64 {
	if bandHeight <= 0 {
		return 12
	}
	return float64(bandHeight) * 0.5
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
