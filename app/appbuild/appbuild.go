package appbuild

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const waitDelay = 5 * time.Second

// Builder runs the client application's build command before pages are
// emitted, so the asset resolver sees the fresh bundle.
type Builder struct {
	command string
	dir     string
	stdout  io.Writer
	stderr  io.Writer
}

func New(command, dir string) *Builder {
	return &Builder{
		command: command,
		dir:     dir,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithOutput redirects the command's streams.
func (b *Builder) WithOutput(stdout, stderr io.Writer) *Builder {
	b.stdout = stdout
	b.stderr = stderr
	return b
}

// Run executes the command through sh. An empty command is a no-op; a
// non-zero exit is an error and must stop the build.
func (b *Builder) Run(ctx context.Context) error {
	if b.command == "" {
		slog.Debug("No application build command configured")
		return nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", b.command)
	cmd.Dir = b.dir
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr
	cmd.WaitDelay = waitDelay

	slog.Info("Building application", "command", b.command, "dir", b.dir)
	start := time.Now()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("application build cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("application build %q failed: %w", b.command, err)
	}

	slog.Info("Application built", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
