package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/routesnap/app/articles"
	"github.com/lysyi3m/routesnap/app/assets"
	"github.com/lysyi3m/routesnap/app/content"
	"github.com/lysyi3m/routesnap/app/manifest"
	"github.com/lysyi3m/routesnap/app/page"
	"github.com/lysyi3m/routesnap/app/registry"
)

// Recorder persists run outcomes. Failures to record are reported as
// warnings and never fail the build.
type Recorder interface {
	StartRun(ctx context.Context, report *Report) (string, error)
	RecordRoute(ctx context.Context, runID string, result RouteResult) error
	FinishRun(ctx context.Context, report *Report, runErr error) error
}

type Options struct {
	OutputDir string
	Workers   int
	Assets    assets.Options
	Now       func() time.Time
	Recorder  Recorder
	Warnings  []Warning // degraded conditions found before the run, such as article loading
}

type Pipeline struct {
	registry   *registry.Registry
	synth      *content.Synthesizer
	emitter    *page.Emitter
	resolver   *assets.Resolver
	aggregator *manifest.Aggregator
	recorder   Recorder
	outputDir  string
	workers    int
	now        func() time.Time
	preWarn    []Warning
}

func New(reg *registry.Registry, collection *articles.Collection, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}

	site := reg.Site()
	return &Pipeline{
		registry:   reg,
		synth:      content.NewSynthesizer(site, collection),
		emitter:    page.NewEmitter(site),
		resolver:   assets.NewResolver(opts.Assets),
		aggregator: manifest.NewAggregator(site, opts.Now),
		recorder:   opts.Recorder,
		outputDir:  opts.OutputDir,
		workers:    opts.Workers,
		now:        opts.Now,
		preWarn:    opts.Warnings,
	}
}

// DefaultWorkers is a small multiple of the available cores.
func DefaultWorkers() int {
	return 2 * runtime.GOMAXPROCS(0)
}

// Run resolves assets once, renders and writes every route on a bounded pool
// and, only when all writes succeeded, writes the aggregate manifests. The
// first write failure cancels the routes not yet started.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	routes := p.registry.ListRoutes()
	report := newReport(routes, p.outputDir, p.now())
	for _, w := range p.preWarn {
		report.warn(w.Component, w.Path, w.Message)
	}

	runID := p.startRun(ctx, report)

	slog.Info("Build started", "routes", len(routes), "workers", p.workers, "output", p.outputDir)

	assetManifest, warnings := p.resolver.ResolveDir(p.outputDir)
	report.Assets = assetManifest
	for _, w := range warnings {
		report.warn("assets", "", w)
	}

	parity := make([]manifest.ParityEntry, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, route := range routes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			result, entry, err := p.processRoute(route, assetManifest, report)
			report.setRoute(i, result)
			parity[i] = entry
			p.recordRoute(ctx, runID, result, report)
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		report.seal(p.now())
		err = fmt.Errorf("%w: %w", ErrAborted, err)
		slog.Error("Build aborted", "error", err, "summary", report.Summary())
		p.finishRun(ctx, report, err)
		return report, err
	}
	report.seal(p.now())

	files, err := p.aggregator.Write(p.outputDir, report, routes, parity)
	report.Manifests = files
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAborted, err)
		slog.Error("Build aborted", "error", err, "summary", report.Summary())
		p.finishRun(ctx, report, err)
		return report, err
	}

	slog.Info("Build finished", "summary", report.Summary(), "duration", report.Duration())
	p.finishRun(ctx, report, nil)
	return report, nil
}

func (p *Pipeline) processRoute(route registry.RouteEntry, m assets.Manifest, report *Report) (RouteResult, manifest.ParityEntry, error) {
	result := RouteResult{Path: route.Path, Output: page.OutputPath(route.Path)}

	c, err := p.synth.Synthesize(route)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, manifest.ParityEntry{}, err
	}
	result.Template = c.Template
	result.Fallback = c.Fallback
	if c.Fallback {
		report.warn("content", route.Path, fmt.Sprintf("%q content unavailable, rendered generic content", route.ContentKey))
	}

	doc, err := p.emitter.Emit(route, c, m)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, manifest.ParityEntry{}, err
	}

	if _, err := page.Write(doc, p.outputDir); err != nil {
		werr := &WriteError{Path: route.Path, Output: doc.Output, Err: err}
		result.Status = StatusFailed
		result.Error = werr.Error()
		slog.Error("Route write failed", "path", route.Path, "output", doc.Output, "error", err)
		return result, manifest.ParityEntry{}, werr
	}

	result.Status = StatusWritten
	slog.Debug("Route emitted", "path", route.Path, "output", doc.Output, "template", c.Template)

	entry := manifest.ParityEntry{
		Path:     route.Path,
		Headline: c.Headline,
		Template: string(c.Template),
		CTAs:     c.CTAs,
		Links:    c.Links,
	}
	return result, entry, nil
}

func (p *Pipeline) startRun(ctx context.Context, report *Report) string {
	if p.recorder == nil {
		return ""
	}
	id, err := p.recorder.StartRun(ctx, report)
	if err != nil {
		report.warn("ledger", "", fmt.Sprintf("failed to record run start: %v", err))
		return ""
	}
	report.RunID = id
	return id
}

func (p *Pipeline) recordRoute(ctx context.Context, runID string, result RouteResult, report *Report) {
	if p.recorder == nil || runID == "" {
		return
	}
	if err := p.recorder.RecordRoute(context.WithoutCancel(ctx), runID, result); err != nil {
		report.warn("ledger", result.Path, fmt.Sprintf("failed to record route: %v", err))
	}
}

func (p *Pipeline) finishRun(ctx context.Context, report *Report, runErr error) {
	if p.recorder == nil || report.RunID == "" {
		return
	}
	if err := p.recorder.FinishRun(context.WithoutCancel(ctx), report, runErr); err != nil {
		slog.Warn("Failed to record run outcome", "run", report.RunID, "error", err)
	}
}
