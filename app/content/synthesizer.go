package content

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/lysyi3m/routesnap/app/articles"
	"github.com/lysyi3m/routesnap/app/registry"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const featuredArticles = 3

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var known = map[registry.ContentKey]bool{
	registry.ContentHome:    true,
	registry.ContentListing: true,
	registry.ContentArticle: true,
	registry.ContentGeneric: true,
}

// Synthesizer renders the crawler-visible body of each route from the shared
// site description and the article collection. It does no I/O.
type Synthesizer struct {
	site     registry.Site
	articles *articles.Collection
}

func NewSynthesizer(site registry.Site, collection *articles.Collection) *Synthesizer {
	return &Synthesizer{site: site, articles: collection}
}

// Synthesize is deterministic: the same route and collection always produce
// byte-identical output.
func (s *Synthesizer) Synthesize(route registry.RouteEntry) (Content, error) {
	key := route.ContentKey
	v := view{Site: s.site, Route: route}
	fallback := false

	if !known[key] {
		slog.Warn("Unknown content template, using generic", "path", route.Path, "content", key)
		fallback = true
	}

	if key == registry.ContentArticle {
		a, ok := s.articles.Get(route.ArticleSlug)
		if ok {
			av := s.articleView(a)
			v.Article = &av
		} else {
			slog.Warn("Article not in collection, using generic", "path", route.Path, "article", route.ArticleSlug)
			fallback = true
		}
	}

	if fallback {
		key = registry.ContentGeneric
		v.Route.Sections = nil
	} else if key != registry.ContentGeneric {
		v.Articles, v.ArticlesHeading = s.articleList(route)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(key), v); err != nil {
		return Content{}, fmt.Errorf("failed to render %s content for %s: %w", key, route.Path, err)
	}

	return Content{
		HTML:     template.HTML(buf.String()),
		Headline: route.Headline,
		CTAs:     ctas(v.Route),
		Links:    links(key, v),
		Template: key,
		Fallback: fallback,
	}, nil
}

func (s *Synthesizer) articleList(route registry.RouteEntry) ([]articleView, string) {
	if s.site.Articles == nil || s.articles.Len() == 0 {
		return nil, ""
	}

	switch {
	case route.ListArticles:
		all := s.articles.List()
		out := make([]articleView, len(all))
		for i, a := range all {
			out[i] = s.articleView(a)
		}
		return out, "Latest articles"
	case route.ContentKey == registry.ContentHome:
		all := s.articles.List()
		n := min(featuredArticles, len(all))
		out := make([]articleView, n)
		for i, a := range all[:n] {
			out[i] = s.articleView(a)
		}
		return out, "From the blog"
	}
	return nil, ""
}

func (s *Synthesizer) articleView(a articles.Article) articleView {
	av := articleView{
		Title:       a.Title,
		Source:      a.Link,
		Description: a.Description,
		Category:    a.Category,
	}
	if s.site.Articles != nil {
		av.Href = s.site.Articles.Prefix + "/" + a.Slug
	}
	if !a.PublishedAt.IsZero() {
		av.Published = a.PublishedAt.UTC().Format("January 2, 2006")
		av.Datetime = a.PublishedAt.UTC().Format("2006-01-02")
	}
	return av
}

func ctas(route registry.RouteEntry) []registry.Link {
	var out []registry.Link
	for _, l := range []registry.Link{route.CTA, route.SecondaryCTA} {
		if strings.TrimSpace(l.Href) != "" {
			out = append(out, l)
		}
	}
	return out
}

// links mirrors the document order of the template rendered for key.
func links(key registry.ContentKey, v view) []registry.Link {
	var out []registry.Link
	seen := map[string]bool{}
	add := func(l registry.Link) {
		href := strings.TrimSpace(l.Href)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		out = append(out, l)
	}

	add(registry.Link{Label: v.Site.Name, Href: "/"})
	for _, l := range v.Site.Navigation {
		add(l)
	}

	switch key {
	case registry.ContentArticle:
		if v.Article.Source != "" {
			add(registry.Link{Label: "Read the full article", Href: v.Article.Source})
		}
		for _, sec := range v.Route.Sections {
			add(sec.Link)
		}
		for _, l := range ctas(v.Route) {
			add(l)
		}
	case registry.ContentGeneric:
		for _, l := range ctas(v.Route) {
			add(l)
		}
	default:
		for _, l := range ctas(v.Route) {
			add(l)
		}
		for _, sec := range v.Route.Sections {
			add(sec.Link)
		}
		for _, a := range v.Articles {
			if a.Href != "" {
				add(registry.Link{Label: a.Title, Href: a.Href})
			}
		}
	}

	for _, g := range v.Site.Footer {
		for _, l := range g.Links {
			add(l)
		}
	}
	return out
}
