package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher calls rebuild once changes to its targets settle. Targets may be
// files or directories; files are watched through their parent directory so
// editors that replace files on save are still seen.
type Watcher struct {
	targets  []string
	rebuild  func(ctx context.Context)
	debounce time.Duration
}

func New(targets []string, rebuild func(ctx context.Context)) *Watcher {
	return &Watcher{targets: targets, rebuild: rebuild, debounce: DefaultDebounce}
}

func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run blocks until ctx is cancelled. Rebuilds run on the calling goroutine,
// so they never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dirs := map[string]bool{}
	files := map[string]bool{}
	for _, target := range w.targets {
		if target == "" {
			continue
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", target, err)
		}

		dir := abs
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			dir = filepath.Dir(abs)
			files[abs] = true
		} else {
			dirs[abs] = true
		}

		if err := fw.Add(dir); err != nil {
			slog.Warn("Cannot watch path", "path", dir, "error", err)
			continue
		}
		slog.Debug("Watching for changes", "path", dir)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, dirs, files) {
				continue
			}
			slog.Debug("Change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)

		case <-timer.C:
			slog.Info("Rebuilding after change")
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, dirs, files map[string]bool) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if files[event.Name] {
		return true
	}
	return dirs[filepath.Dir(event.Name)]
}
