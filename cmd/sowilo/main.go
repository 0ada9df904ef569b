package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/sowilo/internal"
	"github.com/starford/sowilo/internal/logging"
	pkgconfig "github.com/starford/sowilo/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig resolves the configuration for a subcommand. A missing
// file at the default path falls back to built-in defaults; a path the
// user set explicitly must exist. The returned path is absolute so
// capture subprocesses can be pointed at the same file regardless of
// their working directory.
func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); err != nil {
		if cmd.IsSet("config") || !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		if verr := cfg.Validate(); verr != nil {
			return nil, "", fmt.Errorf("config validation failed: %w", verr)
		}
		return cfg, "", nil
	}

	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve config path: %w", err)
	}
	return cfg, abs, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if ex := cmd.StringSlice("exclude"); len(ex) > 0 {
		cfg.Run.Exclude = append(cfg.Run.Exclude, ex...)
	}

	return internal.RunPass(ctx,
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
		internal.WithCollections(cmd.StringSlice("collections")),
		internal.WithOutDir(cmd.String("outdir")),
	)
}

func captureAction(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("capture: unit script path is required")
	}
	script, rest := args[0], args[1:]
	// A literal separator token is stripped, not forwarded to the unit.
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
		internal.WithScript(script),
		internal.WithOutDir(cmd.String("outdir")),
		internal.WithUnitArgs(rest),
	}
	if cmd.IsSet("max-figures") {
		opts = append(opts, internal.WithMaxFigures(int(cmd.Int("max-figures"))))
	}
	return internal.Capture(ctx, opts...)
}

func montageAction(ctx context.Context, cmd *cli.Command) error {
	logging.Init("info", "text")

	return internal.ComposeMontage(ctx, internal.MontageRequest{
		Paths:       cmd.Args().Slice(),
		Out:         cmd.String("out"),
		Rows:        int(cmd.Int("rows")),
		Cols:        int(cmd.Int("cols")),
		TileWidth:   int(cmd.Int("tile-width")),
		TileHeight:  int(cmd.Int("tile-height")),
		Padding:     int(cmd.Int("padding")),
		Background:  cmd.String("bg"),
		BorderWidth: int(cmd.Int("border-width")),
		BorderColor: cmd.String("border-color"),
		Labels:      cmd.StringSlice("labels"),
		LabelHeight: int(cmd.Int("label-height")),
		LabelColor:  cmd.String("label-color"),
		LabelFill:   cmd.String("label-bg"),
	})
}

func organizeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Organize(ctx, internal.WithConfig(cfg))
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Serve(ctx,
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
	)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
	)
}

func indexAction(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.IndexSync(ctx, internal.WithConfig(cfg))
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	logging.Init("info", "text")

	path := cmd.Args().First()
	if path == "" {
		path = "config/config.yaml"
	}
	return internal.InitConfig(ctx, path)
}

func main() {
	cmd := &cli.Command{
		Name:  "sowilo",
		Usage: "Batch figure capture for lab scripts, with overview montages, a gallery API, and an artifact ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("SOWILO_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run every selected unit and compose per-collection overview montages",
				Action: runAction,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "collections",
						Usage: "collection directories to run (default: every prefixed collection)",
					},
					&cli.StringFlag{
						Name:  "outdir",
						Usage: "outputs root override",
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "skip units whose name contains any of these substrings",
					},
				},
			},
			{
				Name:      "capture",
				Usage:     "Run one unit script and save its rendered canvases",
				ArgsUsage: "<unit-script> [-- unit args...]",
				Action:    captureAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "outdir",
						Usage: "outputs root override",
					},
					&cli.IntFlag{
						Name:  "max-figures",
						Usage: "cap on saved figures per unit (0 saves nothing)",
					},
				},
			},
			{
				Name:      "montage",
				Usage:     "Compose ordered images onto a labeled grid",
				ArgsUsage: "<image>...",
				Action:    montageAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "output PNG path",
					},
					&cli.IntFlag{
						Name:  "rows",
						Usage: "grid rows (default: near-square for the image count)",
					},
					&cli.IntFlag{
						Name:  "cols",
						Usage: "grid columns (default: near-square for the image count)",
					},
					&cli.IntFlag{
						Name:  "tile-width",
						Usage: "force tile width (default: widest input)",
					},
					&cli.IntFlag{
						Name:  "tile-height",
						Usage: "force tile height (default: tallest input)",
					},
					&cli.IntFlag{
						Name:  "padding",
						Usage: "pixels between tiles and canvas edge",
						Value: 16,
					},
					&cli.StringFlag{
						Name:  "bg",
						Usage: "canvas background as R,G,B (default 255,255,255)",
					},
					&cli.IntFlag{
						Name:  "border-width",
						Usage: "tile border width in pixels",
					},
					&cli.StringFlag{
						Name:  "border-color",
						Usage: "tile border as R,G,B (default 200,200,200)",
					},
					&cli.StringSliceFlag{
						Name:  "labels",
						Usage: "per-tile captions, in image order",
					},
					&cli.IntFlag{
						Name:  "label-height",
						Usage: "caption band height (default 24 when labels are given)",
					},
					&cli.StringFlag{
						Name:  "label-color",
						Usage: "caption text as R,G,B (default 30,30,30)",
					},
					&cli.StringFlag{
						Name:  "label-bg",
						Usage: "caption band fill as R,G,B (default: unfilled)",
					},
				},
			},
			{
				Name:   "organize",
				Usage:  "Relocate legacy flat artifacts and slug-normalize the outputs tree",
				Action: organizeAction,
			},
			{
				Name:   "serve",
				Usage:  "Serve the gallery HTTP API and watch the outputs tree",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP stdio interface for LLM clients",
				Action: mcpAction,
			},
			{
				Name:   "index",
				Usage:  "Reconcile the artifact ledger against the outputs tree once",
				Action: indexAction,
			},
			{
				Name:      "init",
				Usage:     "Write a starter configuration file",
				ArgsUsage: "[path]",
				Action:    initAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
