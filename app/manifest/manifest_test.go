package manifest

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/routesnap/app/registry"
)

var buildTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testRoutes() []registry.RouteEntry {
	return []registry.RouteEntry{
		{Path: "/", CanonicalURL: "https://example.com/", Indexable: true, Priority: 1, ChangeFrequency: "weekly"},
		{Path: "/services", CanonicalURL: "https://example.com/services", Indexable: true, Priority: 0.8, ChangeFrequency: "monthly"},
		{Path: "/admin", Priority: 0.5, ChangeFrequency: "monthly"},
		{Path: "/checkout/success", Priority: 0.5, ChangeFrequency: "monthly"},
	}
}

type urlset struct {
	URLs []struct {
		Loc        string `xml:"loc"`
		LastMod    string `xml:"lastmod"`
		ChangeFreq string `xml:"changefreq"`
		Priority   string `xml:"priority"`
	} `xml:"url"`
}

func TestBuildSitemap(t *testing.T) {
	data := BuildSitemap(testRoutes(), buildTime)

	var set urlset
	if err := xml.Unmarshal(data, &set); err != nil {
		t.Fatalf("Invalid sitemap XML: %v", err)
	}
	if len(set.URLs) != 2 {
		t.Fatalf("Expected 2 urls, got %d", len(set.URLs))
	}
	if set.URLs[0].Loc != "https://example.com/" || set.URLs[0].Priority != "1.0" {
		t.Errorf("Unexpected first url %+v", set.URLs[0])
	}
	for _, u := range set.URLs {
		if u.LastMod != "2025-06-01" {
			t.Errorf("Expected shared lastmod, got %q", u.LastMod)
		}
	}
	if strings.Contains(string(data), "/admin") {
		t.Error("Expected non-indexable routes to be excluded")
	}
	if !strings.Contains(string(data), `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`) {
		t.Error("Expected sitemap namespace")
	}
}

func TestBuildSitemapEscapes(t *testing.T) {
	data := BuildSitemap([]registry.RouteEntry{
		{Path: "/a", CanonicalURL: "https://example.com/a&b", Indexable: true, ChangeFrequency: "monthly"},
	}, buildTime)
	if !strings.Contains(string(data), "https://example.com/a&amp;b") {
		t.Errorf("Expected escaped location, got %s", data)
	}
}

func TestBuildCrawlPolicy(t *testing.T) {
	policy := string(BuildCrawlPolicy(testRoutes(), "https://example.com/sitemap.xml", registry.RobotsOptions{}))

	if !strings.HasPrefix(policy, "User-agent: *\nAllow: /\n") {
		t.Errorf("Expected allow-by-default group, got:\n%s", policy)
	}
	if strings.Count(policy, "Disallow:") != 2 {
		t.Errorf("Expected one Disallow per non-indexable route, got:\n%s", policy)
	}
	for _, want := range []string{"Disallow: /admin\n", "Disallow: /checkout/success\n", "Sitemap: https://example.com/sitemap.xml\n"} {
		if !strings.Contains(policy, want) {
			t.Errorf("Expected %q in policy:\n%s", want, policy)
		}
	}
	for _, indexable := range []string{"/services", "/\n"} {
		if strings.Contains(policy, "Disallow: "+indexable) {
			t.Errorf("Unexpected Disallow for indexable %q", indexable)
		}
	}
	if strings.Contains(policy, "Crawl-delay") {
		t.Error("Expected no crawl delay by default")
	}
}

func TestBuildCrawlPolicyShadowedRoute(t *testing.T) {
	routes := []registry.RouteEntry{
		{Path: "/", Indexable: true},
		{Path: "/admin"},
		{Path: "/admin-tips", Indexable: true},
	}

	policy := string(BuildCrawlPolicy(routes, "https://example.com/sitemap.xml", registry.RobotsOptions{CrawlDelay: 10}))
	if !strings.Contains(policy, "Allow: /admin-tips\n") {
		t.Errorf("Expected explicit Allow for shadowed route:\n%s", policy)
	}
	if !strings.Contains(policy, "Crawl-delay: 10\n") {
		t.Errorf("Expected crawl delay:\n%s", policy)
	}
}

func TestBuildContentManifestSorted(t *testing.T) {
	data, err := BuildContentManifest([]ParityEntry{
		{Path: "/services", Headline: "Services"},
		{Path: "/", Headline: "Home", CTAs: []registry.Link{{Label: "Go", Href: "/contact"}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	m, err := ParseContentManifest(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Routes[0].Path != "/" || m.Routes[1].Path != "/services" {
		t.Errorf("Expected routes sorted by path, got %+v", m.Routes)
	}
	if e, ok := m.Lookup("/"); !ok || e.CTAs[0].Href != "/contact" {
		t.Errorf("Unexpected lookup result %+v", e)
	}
	if !strings.Contains(string(data), `"links": []`) {
		t.Error("Expected empty link lists encoded as arrays")
	}
}

type completion bool

func (c completion) Complete() bool { return bool(c) }

func TestAggregatorWrite(t *testing.T) {
	dir := t.TempDir()
	site := registry.Site{Name: "Example", Origin: "https://example.com"}

	files, err := NewAggregator(site, func() time.Time { return buildTime }).Write(dir, completion(true), testRoutes(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("Expected 3 files, got %v", files)
	}

	robots, err := os.ReadFile(filepath.Join(dir, RobotsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(robots), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("Unexpected robots.txt:\n%s", robots)
	}
	if _, err := os.Stat(filepath.Join(dir, ContentManifestFile)); err != nil {
		t.Errorf("Expected content manifest: %v", err)
	}
}

func TestAggregatorPanicsWhenIncomplete(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for incomplete build")
		}
	}()

	NewAggregator(registry.Site{}, nil).Write(t.TempDir(), completion(false), testRoutes(), nil)
}
