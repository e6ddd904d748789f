package articles

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const defaultFetchTimeout = 30 * time.Second

// Fetcher pulls the published-article list from a CMS feed. WordPress exposes
// RSS at /feed, which is what the site's CMS serves.
type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	policy       *bluemonday.Policy
	userAgent    string
	timeout      time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		policy:       bluemonday.StrictPolicy(),
		userAgent:    userAgent,
		timeout:      defaultFetchTimeout,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]Article, error) {
	data, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return f.Run(data)
}

// Run parses a raw feed document into articles.
func (f *Fetcher) Run(data []byte) ([]Article, error) {
	feed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	out := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		out = append(out, f.normalizeItem(item))
	}
	return out, nil
}

func (f *Fetcher) normalizeItem(item *gofeed.Item) Article {
	a := Article{
		Slug:        slugFromLink(item.Link),
		Title:       f.plainText(item.Title),
		Description: f.plainText(cmp.Or(item.Description, item.Content)),
		Link:        item.Link,
	}

	if len(item.Categories) > 0 {
		a.Category = strings.TrimSpace(item.Categories[0])
	}

	switch {
	case item.PublishedParsed != nil:
		a.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		a.PublishedAt = item.UpdatedParsed.UTC()
	}

	return a
}

// plainText strips markup from CMS excerpts; the emitter escapes on output.
func (f *Fetcher) plainText(s string) string {
	return collapseSpace(html.UnescapeString(f.policy.Sanitize(s)))
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// slugFromLink takes the last path segment of a permalink such as
// https://cms.example.com/2025/01/local-seo-2025/.
func slugFromLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return Slugify(base)
}
