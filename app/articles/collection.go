package articles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Collection is an ordered, slug-unique list of articles: newest first,
// ties broken by slug.
type Collection struct {
	items  []Article
	bySlug map[string]int
}

// NewCollection normalises and orders items. Entries without a usable slug or
// title are dropped and later duplicates of a slug lose to the first one; both
// cases are reported as warnings.
func NewCollection(items []Article) (*Collection, []string) {
	var warnings []string

	seen := make(map[string]bool, len(items))
	kept := make([]Article, 0, len(items))
	for _, a := range items {
		a.Title = collapseSpace(a.Title)
		a.Description = collapseSpace(a.Description)
		if a.Slug == "" {
			a.Slug = Slugify(a.Title)
		}
		if a.Slug == "" || a.Title == "" {
			warnings = append(warnings, fmt.Sprintf("article %q dropped: missing slug or title", a.Link))
			continue
		}
		if seen[a.Slug] {
			warnings = append(warnings, fmt.Sprintf("duplicate article slug %q ignored", a.Slug))
			continue
		}
		seen[a.Slug] = true
		kept = append(kept, a)
	}

	slices.SortStableFunc(kept, func(a, b Article) int {
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})

	c := &Collection{items: kept, bySlug: make(map[string]int, len(kept))}
	for i, a := range kept {
		c.bySlug[a.Slug] = i
	}
	return c, warnings
}

// Empty returns a collection with no articles.
func Empty() *Collection {
	c, _ := NewCollection(nil)
	return c
}

func (c *Collection) List() []Article {
	if c == nil {
		return nil
	}
	return slices.Clone(c.items)
}

func (c *Collection) Get(slug string) (Article, bool) {
	if c == nil {
		return Article{}, false
	}
	i, ok := c.bySlug[slug]
	if !ok {
		return Article{}, false
	}
	return c.items[i], true
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Load merges the local file and the remote feed. A broken local file is a
// configuration error; an unreachable feed only degrades to the local
// collection.
func Load(ctx context.Context, src Sources, fetcher *Fetcher) (*Collection, []string, error) {
	var all []Article
	var warnings []string

	if src.File != "" {
		local, err := LoadFile(src.File)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, local...)
		slog.Debug("Local articles loaded", "file", src.File, "count", len(local))
	}

	if src.FeedURL != "" && fetcher != nil {
		remote, err := fetcher.Fetch(ctx, src.FeedURL)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("article feed unavailable, using local collection: %v", err))
		} else {
			all = append(all, remote...)
			slog.Debug("Remote articles fetched", "url", src.FeedURL, "count", len(remote))
		}
	}

	c, more := NewCollection(all)
	return c, append(warnings, more...), nil
}

// LoadFile reads a static collection. JSON files parse as YAML too.
func LoadFile(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles file: %w", err)
	}

	var fc fileCollection
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse articles file %s: %w", path, err)
	}

	out := make([]Article, 0, len(fc.Articles))
	for i, e := range fc.Articles {
		published, err := parseDate(e.Published)
		if err != nil {
			return nil, fmt.Errorf("article at index %d: %w", i, err)
		}
		out = append(out, Article{
			Slug:        strings.TrimSpace(e.Slug),
			Title:       e.Title,
			Description: firstNonEmpty(e.Description, e.Excerpt),
			Category:    strings.TrimSpace(e.Category),
			Link:        e.Link,
			PublishedAt: published,
		})
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid published date %q", s)
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonSlugRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
