package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/routesnap/app/api"
	"github.com/lysyi3m/routesnap/app/cfg"
	"github.com/lysyi3m/routesnap/app/watch"
)

type serveCommand struct {
	Watch   bool `long:"watch" description:"Rebuild pages when the site file, articles or compiled assets change"`
	NoBuild bool `long:"no-build" description:"Serve the existing output without building first"`
}

func (s *serveCommand) Execute(args []string) error {
	c := cfg.Get()
	setupLogger(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := &api.BuildState{}
	if !s.NoBuild {
		report, err := runBuild(ctx, c, true)
		state.Set(report, err)
		if err != nil && !s.Watch {
			return err
		}
		if err != nil {
			slog.Error("Initial build failed, waiting for changes", "error", err)
		}
	}

	server := api.NewServer(api.NewHandler(c.OutputDir, state, c.Version))

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting preview server", "port", c.Port, "root", c.OutputDir)
		slog.Info("Endpoints",
			"site", fmt.Sprintf("http://localhost:%s/", c.Port),
			"health", fmt.Sprintf("http://localhost:%s/health", c.Port),
			"build", fmt.Sprintf("http://localhost:%s/_routesnap/build", c.Port))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	watchDone := make(chan error, 1)
	if s.Watch {
		targets := []string{c.SiteFile, c.ArticlesFile, filepath.Join(c.OutputDir, c.AssetsSubdir)}
		w := watch.New(targets, func(ctx context.Context) {
			// The application bundle is rebuilt by its own tooling in watch mode.
			report, err := runBuild(ctx, c, false)
			state.Set(report, err)
			if err != nil {
				slog.Error("Rebuild failed", "error", err)
			}
		})
		go func() { watchDone <- w.Run(ctx) }()
	} else {
		watchDone <- nil
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown requested")
	case runErr = <-serverErrChan:
		slog.Error("Server error", "error", runErr)
	}

	// Graceful shutdown
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	if err := <-watchDone; err != nil {
		slog.Error("Watcher stopped with error", "error", err)
	}

	return runErr
}
