package internal

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sowilo/internal/harness"
	"github.com/starford/sowilo/internal/montage"
	"github.com/starford/sowilo/internal/runner"
	"github.com/starford/sowilo/pkg/plot"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Lab     LabConfig         `yaml:"lab"`
	Outputs OutputsConfig     `yaml:"outputs"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Run     RunConfig         `yaml:"run"`
	Montage MontageConfig     `yaml:"montage"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Lab.Validate(); err != nil {
		return err
	}
	if err := c.Outputs.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Run.Validate(); err != nil {
		return err
	}
	return c.Montage.Validate()
}

// ApplicationConfig holds application-level configuration. An empty
// LogFormat lets each command pick its default: text for pipeline runs,
// json for serve.
type ApplicationConfig struct {
	LogLevel  string     `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In("text", "json")),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LabConfig locates the unit scripts.
type LabConfig struct {
	Path             string `yaml:"path"`
	CollectionPrefix string `yaml:"collection_prefix"`
}

// Validate validates the lab configuration.
func (c *LabConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OutputsConfig locates the artifact tree.
type OutputsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the outputs configuration.
func (c *OutputsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// RunConfig tunes capture passes.
type RunConfig struct {
	MaxFigures     int                 `yaml:"max_figures"`
	Include        []string            `yaml:"include"`
	Exclude        []string            `yaml:"exclude"`
	MontageExclude []string            `yaml:"montage_exclude"`
	UnitArgs       map[string][]string `yaml:"unit_args"`
	StyleFile      string              `yaml:"style_file"`
	StyleName      string              `yaml:"style_name"`
}

// Validate validates the run configuration.
func (c *RunConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxFigures, validation.Min(0)),
	)
}

// MontageConfig styles the per-collection overview composition. Colors
// are "R,G,B" strings; malformed values keep the defaults.
type MontageConfig struct {
	Padding       int    `yaml:"padding"`
	BorderWidth   int    `yaml:"border_width"`
	LabelHeight   int    `yaml:"label_height"`
	Background    string `yaml:"background"`
	BorderColor   string `yaml:"border_color"`
	LabelColor    string `yaml:"label_color"`
	LabelFill     string `yaml:"label_fill"`
	FontFile      string `yaml:"font_file"`
	LabelMaxRunes int    `yaml:"label_max_runes"`
}

// Validate validates the montage configuration.
func (c *MontageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Padding, validation.Min(0)),
		validation.Field(&c.BorderWidth, validation.Min(0)),
		validation.Field(&c.LabelHeight, validation.Min(0)),
		validation.Field(&c.LabelMaxRunes, validation.Min(0)),
	)
}

// Options materializes the montage composition settings. Unset (zero)
// fields keep the overview defaults.
func (c *MontageConfig) Options() montage.Options {
	o := runner.DefaultMontageOptions()
	if c.Padding > 0 {
		o.Padding = c.Padding
	}
	if c.BorderWidth > 0 {
		o.BorderWidth = c.BorderWidth
	}
	if c.LabelHeight > 0 {
		o.LabelHeight = c.LabelHeight
	}
	if c.LabelMaxRunes > 0 {
		o.LabelMaxRunes = c.LabelMaxRunes
	}
	if c.FontFile != "" {
		o.FontFile = c.FontFile
	}
	o.Background = plot.ParseColor(c.Background, o.Background)
	o.BorderColor = plot.ParseColor(c.BorderColor, o.BorderColor)
	o.LabelColor = plot.ParseColor(c.LabelColor, o.LabelColor)
	o.LabelFill = plot.ParseColor(c.LabelFill, o.LabelFill)
	return o
}

// RunnerOptions assembles the orchestration options from the lab, run,
// and montage sections.
func (c *Config) RunnerOptions() runner.Options {
	return runner.Options{
		CollectionPrefix: c.Lab.CollectionPrefix,
		Include:          c.Run.Include,
		Exclude:          c.Run.Exclude,
		MontageExclude:   c.Run.MontageExclude,
		UnitArgs:         c.Run.UnitArgs,
		Montage:          c.Montage.Options(),
	}
}

// HarnessOptions assembles the capture options, resolving the rendering
// style from the configured sheet with builtin and default fallbacks.
func (c *Config) HarnessOptions() harness.Options {
	o := harness.DefaultOptions()
	o.Style = plot.LoadStyle(c.Run.StyleFile, c.Run.StyleName)
	if c.Run.MaxFigures > 0 {
		o.MaxFigures = c.Run.MaxFigures
	}
	return o
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: "info",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Lab: LabConfig{
			Path:             "./lab",
			CollectionPrefix: "week-",
		},
		Outputs: OutputsConfig{
			Path: "./outputs",
		},
		SQLite: SQLiteConfig{
			Path: "./sowilo.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Run: RunConfig{
			MaxFigures: 2,
			StyleName:  "publication",
		},
	}
}
