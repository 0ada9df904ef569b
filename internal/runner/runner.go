// Package runner orchestrates full pipeline passes: discover units, invoke
// a capture for each, then assemble one overview montage per collection.
// Unit failures are isolated; the pass continues and the failure lands in
// the run record.
package runner

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/lab"
	"github.com/starford/sowilo/internal/logging"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/montage"
	"github.com/starford/sowilo/internal/slug"
	"github.com/starford/sowilo/pkg/plot"
)

// Event kinds emitted during a pass.
const (
	EventRunStarted   = "run.started"
	EventRunFinished  = "run.finished"
	EventRunFailed    = "run.failed"
	EventMontageBuilt = "montage.built"
)

// Event describes one orchestration step for subscribers.
type Event struct {
	Kind       string `json:"kind"`
	Collection string `json:"collection,omitempty"`
	Unit       string `json:"unit,omitempty"`
	Path       string `json:"path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// EventFunc receives orchestration events. May be nil.
type EventFunc func(Event)

// Options selects and filters what a pass covers.
type Options struct {
	// CollectionPrefix filters directories under the lab root when no
	// explicit Collections are given.
	CollectionPrefix string
	// Collections restricts the pass to these collection directories.
	Collections []string
	// Include and Exclude are substring filters on unit names.
	Include []string
	Exclude []string
	// MontageExclude drops unit output directories from overviews by
	// substring, without affecting the run itself.
	MontageExclude []string
	// UnitArgs maps a unit name to extra arguments for its script.
	UnitArgs map[string][]string
	// Montage styles the per-collection overview composition.
	Montage montage.Options
}

// DefaultMontageOptions returns the overview composition settings: thin
// light border, filled label band below each tile.
func DefaultMontageOptions() montage.Options {
	o := montage.DefaultOptions()
	o.BorderWidth = 1
	o.LabelHeight = 26
	o.LabelFill = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	return o
}

// Runner drives a pass over the lab.
type Runner struct {
	labRoot string
	tree    *artifact.Tree
	invoker Invoker
	opts    Options
	notify  EventFunc
	log     *slog.Logger
}

// New returns a runner over labRoot writing into tree. notify may be nil.
func New(labRoot string, tree *artifact.Tree, invoker Invoker, opts Options, notify EventFunc) *Runner {
	return &Runner{
		labRoot: labRoot,
		tree:    tree,
		invoker: invoker,
		opts:    opts,
		notify:  notify,
		log:     logging.New("runner"),
	}
}

func (r *Runner) emit(ev Event) {
	if r.notify != nil {
		r.notify(ev)
	}
}

// Run executes every selected unit and then builds one overview per
// collection. It returns a record per unit in execution order. Only
// discovery failures and context cancellation abort the pass.
func (r *Runner) Run(ctx context.Context) ([]models.Run, error) {
	collections, err := lab.Collections(r.labRoot, r.opts.CollectionPrefix, r.opts.Collections)
	if err != nil {
		return nil, err
	}
	units, err := lab.Units(r.labRoot, collections, r.opts.Include, r.opts.Exclude)
	if err != nil {
		return nil, err
	}

	records := make([]models.Run, 0, len(units))
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rec := r.runUnit(ctx, u)
		records = append(records, rec)
	}

	for _, coll := range collections {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if _, err := r.BuildOverview(coll); err != nil {
			r.log.Warn("overview failed", slog.String("collection", coll), slog.String("error", err.Error()))
		}
	}
	return records, nil
}

// RunOne executes a single unit named by its collection directory and
// script base name. The gallery and MCP surfaces use it for on-demand
// re-runs.
func (r *Runner) RunOne(ctx context.Context, collection, unitName string) (models.Run, error) {
	script := filepath.Join(r.labRoot, collection, unitName+".go")
	if _, err := os.Stat(script); err != nil {
		return models.Run{}, fmt.Errorf("runner: unit %s/%s: %w", collection, unitName, apperr.ErrNotFound)
	}
	u := lab.Unit{Collection: collection, Name: unitName, Path: script}
	return r.runUnit(ctx, u), nil
}

func (r *Runner) runUnit(ctx context.Context, u lab.Unit) models.Run {
	collSlug := slug.Make(u.Collection)
	unitSlug := slug.Make(u.Name)
	rec := models.Run{
		Collection: collSlug,
		Unit:       unitSlug,
		StartedAt:  time.Now().UTC(),
	}
	r.emit(Event{Kind: EventRunStarted, Collection: collSlug, Unit: unitSlug})
	r.log.Info("running unit", slog.String("script", u.Path))

	err := r.invoker.Invoke(ctx, u.Path, r.opts.UnitArgs[u.Name])
	rec.FinishedAt = time.Now().UTC()
	if err != nil {
		rec.Status = models.RunStatusFailed
		rec.Error = err.Error()
		r.log.Warn("unit failed", slog.String("script", u.Path), slog.String("error", err.Error()))
		r.emit(Event{Kind: EventRunFailed, Collection: collSlug, Unit: unitSlug, Error: err.Error()})
		return rec
	}

	rec.Status = models.RunStatusOK
	if items, listErr := r.tree.ListImages(path.Join(collSlug, unitSlug)); listErr == nil {
		rec.Artifacts = len(items)
	}
	r.emit(Event{Kind: EventRunFinished, Collection: collSlug, Unit: unitSlug})
	return rec
}

// BuildOverview composes the overview montage for one collection from the
// primary image of each unit output directory and writes it to
// <collection>/overview/overview.png. It returns the written path, or ""
// when the collection has nothing to compose.
func (r *Runner) BuildOverview(collection string) (string, error) {
	collSlug := slug.Make(collection)
	dirs, err := r.tree.Subdirs(collSlug)
	if err != nil {
		// Nothing captured for this collection; no overview.
		return "", nil
	}

	var paths []string
	var labels []string
	for _, d := range dirs {
		if strings.ToLower(d) == "overview" {
			continue
		}
		if substringAny(d, r.opts.MontageExclude) {
			continue
		}
		rel, ok := r.primaryImage(path.Join(collSlug, d))
		if !ok {
			continue
		}
		abs, err := r.tree.Resolve(rel)
		if err != nil {
			continue
		}
		paths = append(paths, abs)
		labels = append(labels, titleize(d))
	}
	if len(paths) == 0 {
		return "", nil
	}

	rows, cols := montage.Grid(len(paths))
	if rows == 0 {
		return "", nil
	}
	images, err := montage.LoadImages(paths)
	if err != nil {
		return "", err
	}
	opts := r.opts.Montage
	opts.Labels = labels
	composed, err := montage.Compose(images, rows, cols, opts)
	if err != nil {
		return "", err
	}
	data, err := plot.EncodePNG(composed)
	if err != nil {
		return "", fmt.Errorf("runner: encode overview: %w", err)
	}
	out := path.Join(collSlug, "overview", "overview.png")
	if err := r.tree.Write(out, data); err != nil {
		return "", err
	}
	r.log.Info("overview built", slog.String("path", out), slog.Int("tiles", len(paths)))
	r.emit(Event{Kind: EventMontageBuilt, Collection: collSlug, Path: out})
	return out, nil
}

// primaryImage picks the representative image of a unit output directory:
// fig1.png when present, otherwise the lexically first image directly in
// the directory.
func (r *Runner) primaryImage(dir string) (string, bool) {
	items, err := r.tree.ListImages(dir)
	if err != nil {
		return "", false
	}
	first := ""
	for _, it := range items {
		if path.Dir(it.Path) != dir {
			continue
		}
		if path.Base(it.Path) == "fig1.png" {
			return it.Path, true
		}
		if first == "" {
			first = it.Path
		}
	}
	return first, first != ""
}

func substringAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// titleize turns a slug into a display label: hyphens and underscores
// become spaces and each word is capitalized.
func titleize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
