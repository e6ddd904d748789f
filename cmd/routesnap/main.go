package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/routesnap/app/cfg"
)

func main() {
	parser := cfg.NewParser()
	parser.ShortDescription = "Pre-render a single-page application for search engines"

	commands := []struct {
		name, short, long string
		data              flags.Commander
	}{
		{"build", "Emit pages and manifests", "Build the client application, then emit one page per route plus sitemap.xml, robots.txt and the content manifest.", &buildCommand{}},
		{"serve", "Preview the output directory", "Serve the output directory the way a static host would, optionally rebuilding on change.", &serveCommand{}},
		{"verify", "Check emitted output", "Check every emitted page against the route registry and simulate crawler and visitor loads.", &verifyCommand{}},
		{"history", "Show recent builds", "List recent builds recorded in the build ledger.", &historyCommand{}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			slog.Error("Failed to register command", "command", c.name, "error", err)
			os.Exit(1)
		}
	}

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		// flags.Default includes PrintErrors, so the error is already on stderr.
		os.Exit(1)
	}
}

func setupLogger(c *cfg.Cfg) {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
