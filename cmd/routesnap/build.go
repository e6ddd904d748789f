package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/routesnap/app/appbuild"
	"github.com/lysyi3m/routesnap/app/articles"
	"github.com/lysyi3m/routesnap/app/assets"
	"github.com/lysyi3m/routesnap/app/cfg"
	"github.com/lysyi3m/routesnap/app/ledger"
	"github.com/lysyi3m/routesnap/app/pipeline"
	"github.com/lysyi3m/routesnap/app/registry"
)

type buildCommand struct {
	SkipApp bool `long:"skip-app" description:"Do not run the application build command"`
}

func (b *buildCommand) Execute(args []string) error {
	c := cfg.Get()
	setupLogger(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := runBuild(ctx, c, !b.SkipApp)
	return err
}

// runBuild performs one full build: application bundle, articles, registry,
// then the page pipeline. The report is printed even when the build aborts.
func runBuild(ctx context.Context, c *cfg.Cfg, buildApp bool) (*pipeline.Report, error) {
	if buildApp {
		if err := appbuild.New(c.AppBuildCommand, c.AppDir).Run(ctx); err != nil {
			return nil, err
		}
	}

	fetcher := articles.NewFetcher(nil, c.UserAgent)
	collection, articleWarnings, err := articles.Load(ctx, articles.Sources{File: c.ArticlesFile, FeedURL: c.ArticlesFeedURL}, fetcher)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}

	reg, err := registry.Load(c.SiteFile, collection)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		OutputDir: c.OutputDir,
		Workers:   c.WorkerCount,
		Assets:    assets.Options{Subdir: c.AssetsSubdir},
	}
	for _, w := range articleWarnings {
		opts.Warnings = append(opts.Warnings, pipeline.Warning{Component: "articles", Message: w})
	}

	if c.LedgerPath != "" {
		l, err := ledger.Open(c.LedgerPath)
		if err != nil {
			return nil, err
		}
		defer l.Close()
		opts.Recorder = l
	}

	slog.Info("Building pages", "routes", reg.Len(), "articles", collection.Len(), "output", c.OutputDir)

	report, err := pipeline.New(reg, collection, opts).Run(ctx)
	printReport(report)
	return report, err
}

func printReport(report *pipeline.Report) {
	if report == nil {
		return
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, r := range report.Failed() {
		fmt.Fprintf(os.Stderr, "failed:  %s (%s): %s\n", r.Path, r.Output, r.Error)
	}
	for _, r := range report.Skipped() {
		fmt.Fprintf(os.Stderr, "skipped: %s\n", r.Path)
	}

	label := "Build"
	if report.RunID != "" {
		label += " " + report.RunID
	}
	fmt.Printf("%s: %s in %s\n", label, report.Summary(), report.Duration().Round(time.Millisecond))
}
