package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/pkg/plot"
)

// execute interprets the script with the script's directory as working
// directory and the plot bindings routed to reg. Each call builds a fresh
// interpreter, so scripts never share state. Script failures of any kind
// map to apperr.ErrUnitExecution.
func execute(scriptPath string, args []string, reg *plot.Registry) (err error) {
	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		return fmt.Errorf("harness: resolve script: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("harness: getwd: %w", err)
	}
	if err := os.Chdir(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("harness: chdir: %w", err)
	}
	defer os.Chdir(cwd) //nolint:errcheck

	// argv mirrors a direct invocation of the script; bare "--"
	// separators are dropped.
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, abs)
	for _, a := range args {
		if a != "--" {
			argv = append(argv, a)
		}
	}

	i := interp.New(interp.Options{Args: argv})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("harness: load stdlib symbols: %w", err)
	}
	if err := i.Use(Symbols(reg)); err != nil {
		return fmt.Errorf("harness: load plot symbols: %w", err)
	}

	// A panic escaping the interpreter surfaces here instead of taking
	// down the process.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("harness: run %s: panic: %v: %w", scriptPath, r, apperr.ErrUnitExecution)
		}
	}()
	if _, err := i.EvalPath(abs); err != nil {
		return fmt.Errorf("harness: run %s: %v: %w", scriptPath, err, apperr.ErrUnitExecution)
	}
	return nil
}
