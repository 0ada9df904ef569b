package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/starford/sowilo/internal/apperr"
)

// Invoker captures a single unit script. extraArgs pass through to the
// script untouched.
type Invoker interface {
	Invoke(ctx context.Context, scriptPath string, extraArgs []string) error
}

// ExecInvoker runs the capture subcommand of the given binary in a child
// process, so a crashing unit cannot take the orchestrator down with it.
type ExecInvoker struct {
	Bin        string // path to the sowilo binary, usually os.Executable()
	ConfigPath string // forwarded when set
	OutDir     string // outputs root forwarded to the capture pass
	LabRoot    string // working directory for the child
}

func (e ExecInvoker) Invoke(ctx context.Context, scriptPath string, extraArgs []string) error {
	// The config flag belongs to the root command, so it goes before the
	// subcommand name.
	var args []string
	if e.ConfigPath != "" {
		args = append(args, "--config", e.ConfigPath)
	}
	args = append(args, "capture", "--outdir", e.OutDir, scriptPath)
	if len(extraArgs) > 0 {
		args = append(args, "--")
		args = append(args, extraArgs...)
	}

	cmd := exec.CommandContext(ctx, e.Bin, args...)
	cmd.Dir = e.LabRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("runner: invoke %s: %v: %w", scriptPath, err, apperr.ErrUnitExecution)
	}
	return nil
}
