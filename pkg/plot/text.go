package plot

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// LoadFace loads the TTF/OTF font at path at the given point size and
// density. Any failure (missing file, parse error, empty path) falls
// back to the builtin fixed face rather than erroring.
func LoadFace(path string, points, dpi float64) font.Face {
	if path == "" {
		return basicfont.Face7x13
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return basicfont.Face7x13
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return basicfont.Face7x13
	}
	if dpi <= 0 {
		dpi = 72
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    points,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// StringWidth measures the advance of s in pixels for the given face.
func StringWidth(face font.Face, s string) int {
	d := &font.Drawer{Face: face}
	return d.MeasureString(s).Ceil()
}

// DrawCentered draws s centered horizontally and vertically inside rect.
// Text wider than rect still starts at the rect's left edge so at least
// its head stays visible.
func DrawCentered(dst draw.Image, face font.Face, s string, rect image.Rectangle, col color.Color) {
	if s == "" || rect.Empty() {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}
	w := d.MeasureString(s).Ceil()
	x := rect.Min.X + (rect.Dx()-w)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	m := face.Metrics()
	asc := m.Ascent.Ceil()
	desc := m.Descent.Ceil()
	y := rect.Min.Y + (rect.Dy()-(asc+desc))/2 + asc
	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d.DrawString(s)
}
