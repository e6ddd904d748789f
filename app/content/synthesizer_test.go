package content

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/lysyi3m/routesnap/app/articles"
	"github.com/lysyi3m/routesnap/app/registry"
)

func testSite() registry.Site {
	return registry.Site{
		Name:       "Example SEO",
		Origin:     "https://example.com",
		Navigation: []registry.Link{{Label: "Home", Href: "/"}, {Label: "Services", Href: "/services"}, {Label: "Blog", Href: "/blog"}},
		Footer: []registry.FooterGroup{
			{Title: "Company", Links: []registry.Link{{Label: "Contact", Href: "/contact"}, {Label: "Privacy", Href: "/privacy"}}},
		},
		Articles: &registry.ArticleRoutes{Prefix: "/blog"},
	}
}

func testCollection(t *testing.T) *articles.Collection {
	t.Helper()
	c, warnings := articles.NewCollection([]articles.Article{
		{Slug: "local-seo-2025", Title: "Local SEO in 2025", Description: "Win the map pack.", Category: "Local", Link: "https://cms.example.com/local-seo-2025/", PublishedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Slug: "eeat", Title: "E-E-A-T Guide", Description: "Trust signals that matter.", PublishedAt: time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)},
	})
	if len(warnings) != 0 {
		t.Fatalf("Unexpected warnings %v", warnings)
	}
	return c
}

func parse(t *testing.T, c Content) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(c.HTML)))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func route(path, title string, key registry.ContentKey) registry.RouteEntry {
	return registry.RouteEntry{
		Path:        path,
		Title:       title,
		Headline:    title,
		Description: "A valid description of appropriate length.",
		Indexable:   true,
		ContentKey:  key,
		CTA:         registry.Link{Label: "Get Started", Href: "/contact"},
	}
}

func TestSynthesizeCommonStructure(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))

	for _, key := range []registry.ContentKey{registry.ContentHome, registry.ContentListing, registry.ContentGeneric} {
		c, err := s.Synthesize(route("/x", "Heading for "+string(key), key))
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		doc := parse(t, c)

		if n := doc.Find("h1").Length(); n != 1 {
			t.Errorf("%s: expected exactly one h1, got %d", key, n)
		}
		if got := doc.Find("h1").Text(); got != "Heading for "+string(key) {
			t.Errorf("%s: unexpected h1 %q", key, got)
		}
		if doc.Find(`nav a[href="/services"]`).Length() != 1 {
			t.Errorf("%s: expected global navigation", key)
		}
		if doc.Find(`a[data-cta="primary"][href="/contact"]`).Length() != 1 {
			t.Errorf("%s: expected primary call to action", key)
		}
		if doc.Find(`footer a[href="/privacy"]`).Length() != 1 {
			t.Errorf("%s: expected footer links", key)
		}
		if c.Template != key || c.Fallback {
			t.Errorf("%s: unexpected template %q fallback=%v", key, c.Template, c.Fallback)
		}
	}
}

func TestSynthesizeIsPure(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))
	r := route("/", "Home", registry.ContentHome)
	r.Sections = []registry.Section{{Heading: "Why us", Items: []string{"Fast", "Honest"}}}

	first, err := s.Synthesize(r)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Synthesize(r)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Expected identical output (-first +second):\n%s", diff)
	}
}

func TestSynthesizeUnknownKeyFallsBack(t *testing.T) {
	s := NewSynthesizer(testSite(), nil)
	r := route("/pricing", "Pricing", "pricing")
	r.Sections = []registry.Section{{Heading: "Plans"}}

	c, err := s.Synthesize(r)
	if err != nil {
		t.Fatalf("Expected fallback, got error: %v", err)
	}
	if !c.Fallback || c.Template != registry.ContentGeneric {
		t.Errorf("Expected generic fallback, got %q fallback=%v", c.Template, c.Fallback)
	}

	doc := parse(t, c)
	if doc.Find("h1").Text() != "Pricing" {
		t.Errorf("Expected title heading, got %q", doc.Find("h1").Text())
	}
	if !strings.Contains(doc.Find(".description").Text(), "appropriate length") {
		t.Error("Expected description to be rendered")
	}
	if doc.Find("main h2").Length() != 0 {
		t.Error("Expected fallback to render title and description only")
	}
}

func TestSynthesizeListing(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))
	r := route("/blog", "Blog", registry.ContentListing)
	r.ListArticles = true

	c, err := s.Synthesize(r)
	if err != nil {
		t.Fatal(err)
	}
	doc := parse(t, c)

	items := doc.Find(".articles li")
	if items.Length() != 2 {
		t.Fatalf("Expected 2 listed articles, got %d", items.Length())
	}
	if href, _ := items.First().Find("a").Attr("href"); href != "/blog/local-seo-2025" {
		t.Errorf("Expected newest article first, got %q", href)
	}
	if doc.Find(`time[datetime="2025-03-01"]`).Length() != 1 {
		t.Error("Expected publication date")
	}

	found := false
	for _, l := range c.Links {
		if l.Href == "/blog/eeat" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected article links in link list, got %+v", c.Links)
	}
}

func TestSynthesizeArticle(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))
	r := route("/blog/local-seo-2025", "Local SEO in 2025", registry.ContentArticle)
	r.ArticleSlug = "local-seo-2025"

	c, err := s.Synthesize(r)
	if err != nil {
		t.Fatal(err)
	}
	doc := parse(t, c)

	if doc.Find("article h1").Text() != "Local SEO in 2025" {
		t.Errorf("Unexpected heading %q", doc.Find("article h1").Text())
	}
	if doc.Find(".excerpt").Text() != "Win the map pack." {
		t.Errorf("Unexpected excerpt %q", doc.Find(".excerpt").Text())
	}
	if !strings.Contains(doc.Find(".meta").Text(), "Local") {
		t.Error("Expected category in meta line")
	}
}

func TestSynthesizeMissingArticleFallsBack(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))
	r := route("/blog/gone", "Gone", registry.ContentArticle)
	r.ArticleSlug = "gone"

	c, err := s.Synthesize(r)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Fallback || c.Template != registry.ContentGeneric {
		t.Errorf("Expected generic fallback, got %q", c.Template)
	}
}

func TestSynthesizeEscapesMetadata(t *testing.T) {
	s := NewSynthesizer(testSite(), nil)
	c, err := s.Synthesize(route("/x", `<script>alert("x")</script>`, registry.ContentGeneric))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(c.HTML), "<script>") {
		t.Error("Expected metadata to be escaped")
	}
}

func TestLinksDeduplicated(t *testing.T) {
	s := NewSynthesizer(testSite(), nil)
	c, err := s.Synthesize(route("/x", "X", registry.ContentGeneric))
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for _, l := range c.Links {
		if seen[l.Href] {
			t.Errorf("Duplicate link %q", l.Href)
		}
		seen[l.Href] = true
	}
	if !seen["/contact"] || !seen["/services"] {
		t.Errorf("Expected navigation and CTA links, got %+v", c.Links)
	}
}

func TestSynthesizeCTAAnchorsMatchContent(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))

	primaryOnly := route("/", "Home", registry.ContentHome)
	both := route("/services", "Services", registry.ContentListing)
	both.SecondaryCTA = registry.Link{Label: "See pricing", Href: "/pricing"}
	labelOnly := route("/about", "About", registry.ContentGeneric)
	labelOnly.SecondaryCTA = registry.Link{Label: "Dangling"}
	article := route("/blog/local-seo-2025", "Local SEO in 2025", registry.ContentArticle)
	article.ArticleSlug = "local-seo-2025"

	for _, r := range []registry.RouteEntry{primaryOnly, both, labelOnly, article} {
		c, err := s.Synthesize(r)
		if err != nil {
			t.Fatalf("%s: %v", r.Path, err)
		}
		doc := parse(t, c)

		anchors := doc.Find("a[data-cta]")
		if anchors.Length() != len(c.CTAs) {
			t.Errorf("%s: rendered %d call to action anchors, content lists %d", r.Path, anchors.Length(), len(c.CTAs))
			continue
		}
		anchors.Each(func(i int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if href == "" || href != c.CTAs[i].Href {
				t.Errorf("%s: anchor %d has href %q, want %q", r.Path, i, href, c.CTAs[i].Href)
			}
		})
	}
}

func TestSynthesizeTemplatesDiffer(t *testing.T) {
	s := NewSynthesizer(testSite(), testCollection(t))
	r := route("/services", "Services", "")
	r.Sections = []registry.Section{{Heading: "Technical SEO", Items: []string{"Core Web Vitals"}, Link: registry.Link{Label: "Details", Href: "/services/technical"}}}
	r.ListArticles = true

	raw := map[registry.ContentKey]string{}
	rendered := map[registry.ContentKey]*goquery.Document{}
	for _, key := range []registry.ContentKey{registry.ContentHome, registry.ContentListing, registry.ContentGeneric} {
		r.ContentKey = key
		c, err := s.Synthesize(r)
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		for other, html := range raw {
			if html == string(c.HTML) {
				t.Errorf("Expected %s and %s to render differently", key, other)
			}
		}
		raw[key] = string(c.HTML)
		rendered[key] = parse(t, c)
	}

	if rendered[registry.ContentListing].Find(".service-card h2").Text() != "Technical SEO" {
		t.Error("Expected listing to render sections as service cards")
	}
	if rendered[registry.ContentListing].Find(".articles li").Length() != 2 {
		t.Error("Expected listing to list every article")
	}
	if rendered[registry.ContentHome].Find(".featured-articles .article-preview").Length() != 2 {
		t.Error("Expected home to feature articles")
	}
	if rendered[registry.ContentHome].Find(".service-card").Length() != 0 {
		t.Error("Expected home sections not to render as service cards")
	}

	generic := rendered[registry.ContentGeneric]
	if generic.Find("main h2").Length() != 0 || generic.Find("main article").Length() != 0 {
		t.Error("Expected generic to render the hero only")
	}
	if generic.Find(`a[data-cta="primary"]`).Length() != 1 {
		t.Error("Expected generic to keep the call to action")
	}
}
