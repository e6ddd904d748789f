package manifest

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/routesnap/app/page"
	"github.com/lysyi3m/routesnap/app/registry"
)

const (
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
)

// Completion is satisfied by a build report once every route's write has
// been attempted.
type Completion interface {
	Complete() bool
}

type Aggregator struct {
	site registry.Site
	now  func() time.Time
}

func NewAggregator(site registry.Site, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{site: site, now: now}
}

// Write replaces sitemap.xml, robots.txt and the content manifest under dir.
// Calling it before every route was attempted is a programming error.
func (a *Aggregator) Write(dir string, done Completion, routes []registry.RouteEntry, parity []ParityEntry) ([]string, error) {
	if done == nil || !done.Complete() {
		panic("manifest: aggregation invoked before all routes were processed")
	}

	contentManifest, err := BuildContentManifest(parity)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data []byte
	}{
		{SitemapFile, BuildSitemap(routes, a.now())},
		{RobotsFile, BuildCrawlPolicy(routes, a.site.SitemapURL(), a.site.Robots)},
		{ContentManifestFile, contentManifest},
	}

	var written []string
	for _, f := range files {
		path, err := page.WriteFile(dir, f.name, f.data)
		if err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		written = append(written, path)
		slog.Debug("Manifest written", "file", path, "bytes", len(f.data))
	}

	return written, nil
}
