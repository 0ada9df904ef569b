// Package harness executes unit scripts in-process and captures the
// canvases they open as PNG artifacts in the outputs tree.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/logging"
	"github.com/starford/sowilo/internal/slug"
	"github.com/starford/sowilo/pkg/plot"
)

// Options tunes a capture pass. Start from DefaultOptions; the zero value
// of MaxFigures means "save nothing", mirroring an explicit zero cap.
type Options struct {
	Style plot.Style
	// MaxFigures caps how many canvases are saved per unit, in creation
	// order. Negative values clamp to zero.
	MaxFigures int
	// LabelMaxRunes caps the label portion of an artifact file name.
	LabelMaxRunes int
	// DupSuffix resolves file-name collisions within a single capture.
	DupSuffix string
}

// DefaultOptions returns the capture defaults the CLI exposes as flags.
func DefaultOptions() Options {
	return Options{
		Style:         plot.DefaultStyle(),
		MaxFigures:    2,
		LabelMaxRunes: 64,
		DupSuffix:     "-dup",
	}
}

// Harness runs unit scripts and persists their canvases.
type Harness struct {
	tree artifact.Store
	opts Options
	log  *slog.Logger
}

// New returns a harness writing into tree.
func New(tree artifact.Store, opts Options) *Harness {
	return &Harness{tree: tree, opts: opts, log: logging.New("harness")}
}

// Capture executes the script and writes each captured canvas under
// <collection-slug>/<unit-slug>/ in the outputs tree, returning the
// relative paths written in save order. The unit directory exists
// afterwards even when the script opens no canvas; an execution failure
// leaves the tree untouched.
func (h *Harness) Capture(ctx context.Context, scriptPath string, args []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("harness: resolve script: %w", err)
	}

	reg := plot.NewRegistry()
	reg.SetCanvasSize(h.opts.Style.CanvasWidth, h.opts.Style.CanvasHeight)
	if err := execute(abs, args, reg); err != nil {
		return nil, err
	}

	base := slug.Make(trimExt(filepath.Base(abs)))
	parent := slug.Make(filepath.Base(filepath.Dir(abs)))
	unitDir := path.Join(parent, base)
	if err := h.tree.EnsureDir(unitDir); err != nil {
		return nil, err
	}

	canvases := reg.Drain()
	if len(canvases) == 0 {
		h.log.Info("no canvases captured", slog.String("script", scriptPath))
		return nil, nil
	}

	limit := h.opts.MaxFigures
	if limit < 0 {
		limit = 0
	}

	used := make(map[string]bool)
	var saved []string
	for idx, cv := range canvases {
		if idx >= limit {
			cv.Release()
			continue
		}
		name := fmt.Sprintf("%02d", idx+1)
		if label := h.deriveLabel(cv, base); label != "" {
			name += "-" + label
		}
		fname := name + ".png"
		for used[fname] {
			name += h.opts.DupSuffix
			fname = name + ".png"
		}
		used[fname] = true

		rel := path.Join(unitDir, fname)
		img := cv.Render(h.opts.Style)
		cropped := plot.TightCrop(img, h.opts.Style.BackgroundRGBA(), h.opts.Style.PadPixels())
		cv.Release()
		data, err := plot.EncodePNG(cropped)
		if err != nil {
			return saved, fmt.Errorf("harness: encode %s: %w", rel, err)
		}
		if err := h.tree.Write(rel, data); err != nil {
			return saved, err
		}
		h.log.Info("saved artifact", slog.String("path", rel))
		saved = append(saved, rel)
	}
	return saved, nil
}

// deriveLabel prefers the canvas title, then the first non-empty region
// title. A label matching the unit slug is dropped as redundant, and the
// remainder is capped at LabelMaxRunes.
func (h *Harness) deriveLabel(cv *plot.Canvas, base string) string {
	title := strings.TrimSpace(cv.Title())
	if title == "" {
		title = strings.TrimSpace(cv.FirstRegionTitle())
	}
	if title == "" {
		return ""
	}
	label := slug.Normalize(title)
	if label == base {
		return ""
	}
	return slug.Truncate(label, h.opts.LabelMaxRunes)
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
