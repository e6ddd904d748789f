package verify

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lysyi3m/routesnap/app/crawl"
	"github.com/lysyi3m/routesnap/app/manifest"
	"github.com/lysyi3m/routesnap/app/page"
	"github.com/lysyi3m/routesnap/app/registry"
)

// User agents used when simulating both branches of a page load.
const (
	CrawlerUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	VisitorUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// Result collects every problem found in an output directory.
type Result struct {
	Checked  int
	Problems []Problem
}

func (r *Result) OK() bool {
	return len(r.Problems) == 0
}

// Err returns nil when the output passed every check.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		msgs[i] = p.String()
	}
	return fmt.Errorf("%d verification problems: %s", len(r.Problems), strings.Join(msgs, "; "))
}

func (r *Result) add(path, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Output checks a finished build in dir against the registry it was built
// from: per-page document contract, content parity and both manifests.
func Output(dir string, reg *registry.Registry) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output path %s is not a directory", dir)
	}

	res := &Result{}

	parity, ok := readContentManifest(dir, res)
	for _, route := range reg.ListRoutes() {
		res.Checked++
		checkPage(res, dir, route, parity, ok)
	}

	checkSitemap(res, dir, reg)
	checkCrawlPolicy(res, dir, reg)

	slog.Debug("Output verified", "dir", dir, "routes", res.Checked, "problems", len(res.Problems))
	return res, nil
}

func readContentManifest(dir string, res *Result) (manifest.ContentManifest, bool) {
	data, err := os.ReadFile(filepath.Join(dir, manifest.ContentManifestFile))
	if err != nil {
		res.add("", "content manifest unreadable: %v", err)
		return manifest.ContentManifest{}, false
	}
	m, err := manifest.ParseContentManifest(data)
	if err != nil {
		res.add("", "%v", err)
		return manifest.ContentManifest{}, false
	}
	return m, true
}

func loadDocument(path string) (*goquery.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

func checkPage(res *Result, dir string, route registry.RouteEntry, parity manifest.ContentManifest, haveParity bool) {
	path := route.Path

	doc, err := loadDocument(filepath.Join(dir, filepath.FromSlash(page.OutputPath(route.Path))))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			res.add(path, "page was not emitted")
			return
		}
		res.add(path, "%v", err)
		return
	}

	pre := doc.Find("#" + crawl.PrerenderID)
	mount := doc.Find("#" + crawl.MountID)
	if pre.Length() != 1 {
		res.add(path, "expected exactly one pre-rendered container, found %d", pre.Length())
	}
	if mount.Length() != 1 {
		res.add(path, "expected exactly one mount point, found %d", mount.Length())
	} else if mount.Children().Length() != 0 {
		res.add(path, "mount point must be empty")
	}

	if got := strings.TrimSpace(doc.Find("head > title").Text()); got != route.Title {
		res.add(path, "title %q does not match %q", got, route.Title)
	}

	robots, _ := doc.Find(`meta[name="robots"]`).Attr("content")
	canonical := doc.Find(`link[rel="canonical"]`)
	if route.Indexable {
		if strings.Contains(robots, "noindex") {
			res.add(path, "indexable route carries noindex")
		}
		href, _ := canonical.Attr("href")
		if canonical.Length() != 1 || href != route.CanonicalURL {
			res.add(path, "canonical %q does not match %q", href, route.CanonicalURL)
		}
	} else {
		if !strings.Contains(robots, "noindex") {
			res.add(path, "non-indexable route is missing noindex")
		}
		if canonical.Length() != 0 {
			res.add(path, "non-indexable route must not declare a canonical URL")
		}
	}

	headings := pre.Find("h1")
	if headings.Length() != 1 {
		res.add(path, "expected one primary heading, found %d", headings.Length())
	} else if got := strings.TrimSpace(headings.Text()); got != route.Headline {
		res.add(path, "primary heading %q does not match %q", got, route.Headline)
	}

	checkBranches(res, path, doc)

	if !haveParity {
		return
	}
	entry, ok := parity.Lookup(route.Path)
	if !ok {
		res.add(path, "missing from content manifest")
		return
	}
	checkParity(res, path, pre, entry)
}

func checkBranches(res *Result, path string, doc *goquery.Document) {
	crawler, err := Simulate(doc, CrawlerUserAgent)
	if err != nil {
		res.add(path, "crawler simulation: %v", err)
		return
	}
	if !crawler.PrerenderVisible || crawler.ApplicationLoaded {
		res.add(path, "crawler load must keep the pre-rendered content and skip the application")
	}

	visitor, err := Simulate(doc, VisitorUserAgent)
	if err != nil {
		res.add(path, "visitor simulation: %v", err)
		return
	}
	if visitor.PrerenderVisible || !visitor.ApplicationLoaded {
		res.add(path, "visitor load must hide the pre-rendered content and load the application")
	}
}

func checkParity(res *Result, path string, pre *goquery.Selection, entry manifest.ParityEntry) {
	if got := strings.TrimSpace(pre.Find("h1").First().Text()); got != entry.Headline {
		res.add(path, "headline %q differs from content manifest %q", got, entry.Headline)
	}

	var ctas []registry.Link
	pre.Find("a[data-cta]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ctas = append(ctas, registry.Link{Label: strings.TrimSpace(s.Text()), Href: href})
	})
	if !slices.EqualFunc(ctas, entry.CTAs, func(a, b registry.Link) bool {
		return a.Label == b.Label && unescapeHref(a.Href) == unescapeHref(b.Href)
	}) {
		res.add(path, "calls to action %v differ from content manifest %v", ctas, entry.CTAs)
	}

	var hrefs []string
	pre.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, unescapeHref(href))
	})
	for _, l := range entry.Links {
		if !slices.Contains(hrefs, unescapeHref(l.Href)) {
			res.add(path, "link %s from content manifest is not in the pre-rendered content", l.Href)
		}
	}
}

// unescapeHref undoes the percent-encoding html/template applies to
// non-ASCII hrefs, so rendered and declared links compare equal.
func unescapeHref(href string) string {
	if u, err := url.PathUnescape(href); err == nil {
		return u
	}
	return href
}

type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

func checkSitemap(res *Result, dir string, reg *registry.Registry) {
	data, err := os.ReadFile(filepath.Join(dir, manifest.SitemapFile))
	if err != nil {
		res.add("", "sitemap unreadable: %v", err)
		return
	}

	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		res.add("", "failed to parse sitemap: %v", err)
		return
	}

	listed := make(map[string]int, len(set.URLs))
	for _, u := range set.URLs {
		listed[strings.TrimSpace(u.Loc)]++
	}

	for _, route := range reg.ListRoutes() {
		n := listed[route.CanonicalURL]
		switch {
		case route.Indexable && n == 0:
			res.add(route.Path, "indexable route missing from sitemap")
		case route.Indexable && n > 1:
			res.add(route.Path, "listed %d times in sitemap", n)
		}
		delete(listed, route.CanonicalURL)
	}
	for loc := range listed {
		res.add("", "sitemap lists unknown URL %s", loc)
	}
}

func checkCrawlPolicy(res *Result, dir string, reg *registry.Registry) {
	data, err := os.ReadFile(filepath.Join(dir, manifest.RobotsFile))
	if err != nil {
		res.add("", "robots.txt unreadable: %v", err)
		return
	}

	lines := strings.Split(string(data), "\n")
	has := func(line string) bool {
		return slices.Contains(lines, line)
	}

	for _, route := range reg.ListRoutes() {
		rule := "Disallow: " + route.Path
		if route.Path == "/" {
			rule = "Disallow: /$"
		}
		switch {
		case !route.Indexable && !has(rule):
			res.add(route.Path, "non-indexable route is not disallowed in robots.txt")
		case route.Indexable && has(rule):
			res.add(route.Path, "indexable route is disallowed in robots.txt")
		}
	}

	if want := "Sitemap: " + reg.Site().SitemapURL(); !has(want) {
		res.add("", "robots.txt does not reference %s", reg.Site().SitemapURL())
	}
}
