package plot

import (
	"image/color"

	"github.com/starford/sowilo/pkg/config"
)

// Style is the process-wide rendering configuration: one value built at
// startup and passed to the harness, never mutated per unit. Colors are
// "R,G,B" strings so styles round-trip through YAML sheets.
type Style struct {
	Name         string  `yaml:"name"`
	CanvasWidth  int     `yaml:"canvas_width"`
	CanvasHeight int     `yaml:"canvas_height"`
	BaseDPI      float64 `yaml:"base_dpi"`
	SaveDPI      float64 `yaml:"save_dpi"`
	PadInches    float64 `yaml:"pad_inches"`
	FontSize     float64 `yaml:"font_size"`
	TitleSize    float64 `yaml:"title_size"`
	Background   string  `yaml:"background"`
	TextColor    string  `yaml:"text_color"`
	FontFile     string  `yaml:"font_file"`
}

// DefaultStyle returns the publication style: 8x6 inch canvases at a 120
// density, saved at 300, with a small tight-crop margin.
func DefaultStyle() Style {
	return Style{
		Name:         "publication",
		CanvasWidth:  DefaultWidth,
		CanvasHeight: DefaultHeight,
		BaseDPI:      120,
		SaveDPI:      300,
		PadInches:    0.1,
		FontSize:     12,
		TitleSize:    14,
		Background:   "255,255,255",
		TextColor:    "30,30,30",
	}
}

// Builtin styles selectable by name.
var builtins = map[string]Style{
	"publication": DefaultStyle(),
	"draft": {
		Name:         "draft",
		CanvasWidth:  DefaultWidth,
		CanvasHeight: DefaultHeight,
		BaseDPI:      120,
		SaveDPI:      150,
		PadInches:    0.1,
		FontSize:     12,
		TitleSize:    14,
		Background:   "250,250,250",
		TextColor:    "30,30,30",
	},
}

// LoadStyle resolves the rendering style: try the YAML sheet at path,
// then the builtin called name, then the default. It never fails; a
// broken sheet or unknown name silently degrades down the chain.
func LoadStyle(path, name string) Style {
	if path != "" {
		st := DefaultStyle()
		if err := config.Load(path, &st); err == nil {
			return st.normalized()
		}
	}
	if st, ok := builtins[name]; ok {
		return st.normalized()
	}
	return DefaultStyle()
}

// normalized fills zero fields with defaults so partial style sheets work.
func (s Style) normalized() Style {
	def := DefaultStyle()
	if s.CanvasWidth <= 0 {
		s.CanvasWidth = def.CanvasWidth
	}
	if s.CanvasHeight <= 0 {
		s.CanvasHeight = def.CanvasHeight
	}
	if s.BaseDPI <= 0 {
		s.BaseDPI = def.BaseDPI
	}
	if s.SaveDPI <= 0 {
		s.SaveDPI = def.SaveDPI
	}
	if s.PadInches < 0 {
		s.PadInches = def.PadInches
	}
	if s.FontSize <= 0 {
		s.FontSize = def.FontSize
	}
	if s.TitleSize <= 0 {
		s.TitleSize = def.TitleSize
	}
	if s.Background == "" {
		s.Background = def.Background
	}
	if s.TextColor == "" {
		s.TextColor = def.TextColor
	}
	return s
}

// Scale is the save-density multiplier applied to every pixel dimension
// when a canvas is rendered for persistence.
func (s Style) Scale() float64 {
	if s.BaseDPI <= 0 || s.SaveDPI <= 0 {
		return 1
	}
	return s.SaveDPI / s.BaseDPI
}

// PadPixels is the tight-crop margin in output pixels.
func (s Style) PadPixels() int {
	px := int(s.PadInches * s.SaveDPI)
	if px < 0 {
		return 0
	}
	return px
}

// BackgroundRGBA returns the parsed background color.
func (s Style) BackgroundRGBA() color.RGBA {
	return ParseColor(s.Background, color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

// TextRGBA returns the parsed text color.
func (s Style) TextRGBA() color.RGBA {
	return ParseColor(s.TextColor, color.RGBA{R: 30, G: 30, B: 30, A: 255})
}
