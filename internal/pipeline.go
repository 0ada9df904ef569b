package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/harness"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/logging"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/montage"
	"github.com/starford/sowilo/internal/organize"
	"github.com/starford/sowilo/pkg/plot"
)

// RunPass executes every selected unit through capture subprocesses,
// then composes one overview montage per collection. Unit failures are
// logged and the pass continues; the exit stays clean so partial
// results remain usable. Only discovery failures and cancellation
// abort.
func RunPass(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	initLogging(cfg, "text")
	logger := logging.New("run")

	labRoot, err := filepath.Abs(cfg.Lab.Path)
	if err != nil {
		return fmt.Errorf("resolve lab root: %w", err)
	}
	outRoot := cfg.Outputs.Path
	if app.outDir != "" {
		outRoot = app.outDir
	}
	tree, err := artifact.NewTree(outRoot)
	if err != nil {
		return fmt.Errorf("init outputs tree: %w", err)
	}

	ropts := cfg.RunnerOptions()
	ropts.Collections = app.collections
	r, err := newSubprocessRunner(app, tree, labRoot, ropts, nil)
	if err != nil {
		return err
	}

	records, err := r.Run(ctx)
	if err != nil {
		return err
	}

	ok, failed := 0, 0
	for _, rec := range records {
		if rec.Status == models.RunStatusOK {
			ok++
		} else {
			failed++
		}
	}
	logger.Info("run finished",
		slog.Int("units", len(records)),
		slog.Int("ok", ok),
		slog.Int("failed", failed))
	return nil
}

// Capture executes one unit script in-process and saves its canvases.
// The run orchestrator spawns this same path as a child process per
// unit; a failing unit is this command's own failure.
func Capture(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	initLogging(cfg, "text")
	logger := logging.New("capture")

	if app.script == "" {
		return fmt.Errorf("capture: unit script path is required")
	}
	outRoot := cfg.Outputs.Path
	if app.outDir != "" {
		outRoot = app.outDir
	}
	tree, err := artifact.NewTree(outRoot)
	if err != nil {
		return fmt.Errorf("init outputs tree: %w", err)
	}

	hopts := cfg.HarnessOptions()
	if app.maxFigures != nil {
		hopts.MaxFigures = *app.maxFigures
	}

	saved, err := harness.New(tree, hopts).Capture(ctx, app.script, app.unitArgs)
	if err != nil {
		return err
	}
	logger.Info("capture finished",
		slog.String("script", app.script),
		slog.Int("artifacts", len(saved)))
	return nil
}

// MontageRequest carries the compositor inputs.
type MontageRequest struct {
	Paths       []string
	Out         string
	Rows        int
	Cols        int
	TileWidth   int
	TileHeight  int
	Padding     int
	Background  string
	BorderWidth int
	BorderColor string
	Labels      []string
	LabelHeight int
	LabelColor  string
	LabelFill   string
}

// ComposeMontage lays the given images onto a grid and writes the
// result to req.Out. Rows and cols default to the near-square grid for
// the image count. Malformed colors keep the defaults; a grid too small
// for the images is a hard failure.
func ComposeMontage(_ context.Context, req MontageRequest) error {
	logger := logging.New("montage")

	if len(req.Paths) == 0 {
		return fmt.Errorf("montage: no input images")
	}
	if req.Out == "" {
		return fmt.Errorf("montage: output path is required")
	}

	images, err := montage.LoadImages(req.Paths)
	if err != nil {
		return err
	}

	rows, cols := req.Rows, req.Cols
	if rows <= 0 || cols <= 0 {
		rows, cols = montage.Grid(len(images))
	}

	mopts := montage.DefaultOptions()
	mopts.TileWidth = req.TileWidth
	mopts.TileHeight = req.TileHeight
	mopts.Padding = req.Padding
	mopts.BorderWidth = req.BorderWidth
	mopts.Background = plot.ParseColor(req.Background, mopts.Background)
	mopts.BorderColor = plot.ParseColor(req.BorderColor, mopts.BorderColor)
	mopts.LabelColor = plot.ParseColor(req.LabelColor, mopts.LabelColor)
	mopts.LabelFill = plot.ParseColor(req.LabelFill, mopts.LabelFill)
	if len(req.Labels) > 0 {
		mopts.Labels = req.Labels
		mopts.LabelHeight = req.LabelHeight
	}

	composed, err := montage.Compose(images, rows, cols, mopts)
	if err != nil {
		return err
	}
	data, err := plot.EncodePNG(composed)
	if err != nil {
		return fmt.Errorf("montage: encode: %w", err)
	}

	if dir := filepath.Dir(req.Out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("montage: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(req.Out, data, 0o644); err != nil {
		return fmt.Errorf("montage: write %s: %w", req.Out, err)
	}
	logger.Info("montage written",
		slog.String("path", req.Out),
		slog.Int("tiles", len(images)),
		slog.Int("rows", rows),
		slog.Int("cols", cols))
	return nil
}

// Organize relocates legacy flat artifacts into the collection tree and
// slug-normalizes every directory under the outputs root.
func Organize(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	initLogging(cfg, "text")
	logger := logging.New("organize")

	labRoot, err := filepath.Abs(cfg.Lab.Path)
	if err != nil {
		return fmt.Errorf("resolve lab root: %w", err)
	}
	outRoot, err := filepath.Abs(cfg.Outputs.Path)
	if err != nil {
		return fmt.Errorf("resolve outputs root: %w", err)
	}
	return organize.Run(outRoot, labRoot, logger)
}

// IndexSync reconciles the artifact ledger against the outputs tree
// once and exits.
func IndexSync(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	initLogging(cfg, "text")
	logger := logging.New("index")

	tree, err := artifact.NewTree(cfg.Outputs.Path)
	if err != nil {
		return fmt.Errorf("init outputs tree: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, tree, logger); err != nil {
		return err
	}
	logger.Info("index sync complete", slog.String("sqlite", cfg.SQLite.Path))
	return nil
}

// InitConfig writes a starter configuration file. It refuses to
// overwrite an existing one.
func InitConfig(_ context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("init: %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("init: create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("init: write %s: %w", path, err)
	}
	slog.Info("config written", slog.String("path", path))
	return nil
}

const configTemplate = `# Sowilo configuration.
app:
  log_level: info          # debug | info | warn | error
  # log_format: json       # text | json; serve defaults to json, other commands to text
  http:
    port: 8080

lab:
  path: ./lab              # collections of unit scripts live here
  collection_prefix: week-

outputs:
  path: ./outputs

sqlite:
  path: ./sowilo.db

auth:
  mode: disabled           # disabled | token
  # token: ${SOWILO_API_TOKEN}

run:
  max_figures: 2
  style_name: publication
  # style_file: ./config/style.yaml
  # exclude: [wip]
  # montage_exclude: [scratch]
  # unit_args:
  #   pca_demo: ["--seed", "7"]

montage:
  padding: 16
  border_width: 1
  label_height: 26
  # background: "255,255,255"
  # border_color: "200,200,200"
  # label_color: "30,30,30"
  # label_fill: "245,245,245"
  # font_file: ./config/DejaVuSans.ttf
  # label_max_runes: 48
`
