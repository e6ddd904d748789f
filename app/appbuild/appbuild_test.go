package appbuild

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunEmptyCommand(t *testing.T) {
	if err := New("", "").Run(context.Background()); err != nil {
		t.Errorf("Expected empty command to be a no-op, got: %v", err)
	}
}

func TestRunStreamsOutput(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	b := New("mkdir -p dist/assets && echo built && echo warn >&2", dir).WithOutput(&stdout, &stderr)
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.TrimSpace(stdout.String()) != "built" {
		t.Errorf("Expected stdout to be streamed, got %q", stdout.String())
	}
	if strings.TrimSpace(stderr.String()) != "warn" {
		t.Errorf("Expected stderr to be streamed, got %q", stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "dist", "assets")); err != nil {
		t.Errorf("Expected command to run in the configured directory: %v", err)
	}
}

func TestRunFailsOnNonZeroExit(t *testing.T) {
	var stderr bytes.Buffer
	err := New("exit 3", t.TempDir()).WithOutput(&bytes.Buffer{}, &stderr).Run(context.Background())
	if err == nil {
		t.Fatal("Expected error on non-zero exit")
	}
	if !strings.Contains(err.Error(), "exit status 3") {
		t.Errorf("Expected exit status in error, got: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New("sleep 5", t.TempDir()).WithOutput(&bytes.Buffer{}, &bytes.Buffer{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
