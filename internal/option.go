package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config      *Config
	configPath  string
	script      string
	outDir      string
	unitArgs    []string
	collections []string
	maxFigures  *int
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath records where the configuration was loaded from so
// capture subprocesses can be pointed at the same file.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithScript sets the unit script a capture pass executes.
func WithScript(path string) Option {
	return func(a *application) {
		a.script = path
	}
}

// WithOutDir overrides the configured outputs root.
func WithOutDir(dir string) Option {
	return func(a *application) {
		a.outDir = dir
	}
}

// WithUnitArgs sets the arguments passed through to the unit script.
func WithUnitArgs(args []string) Option {
	return func(a *application) {
		a.unitArgs = args
	}
}

// WithCollections restricts a pass to the named collection directories.
func WithCollections(names []string) Option {
	return func(a *application) {
		a.collections = names
	}
}

// WithMaxFigures overrides the per-unit canvas cap for a capture pass.
// Zero is a valid cap meaning "save nothing".
func WithMaxFigures(n int) Option {
	return func(a *application) {
		a.maxFigures = &n
	}
}
