package registry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/routesnap/app/articles"
)

var ErrNotFound = errors.New("route not found")

// Registry is the single authoritative list of routes. It is immutable after
// construction and safe for concurrent readers.
type Registry struct {
	site   Site
	routes []RouteEntry
	byPath map[string]int
}

// Load reads the site file and builds the registry, expanding article routes
// from the collection when the site declares an article prefix.
func Load(path string, collection *articles.Collection) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}

	var f siteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse site file %s: %w", path, err)
	}

	reg, err := New(f.Site, f.Routes, collection)
	if err != nil {
		return nil, fmt.Errorf("invalid site file %s: %w", path, err)
	}

	slog.Debug("Route registry loaded", "file", path, "routes", len(reg.routes))
	return reg, nil
}

// New applies defaults and validates. Any invariant violation fails the whole
// registry so no output is produced from a partially valid route list.
func New(site Site, specs []RouteSpec, collection *articles.Collection) (*Registry, error) {
	site = normalizeSite(site)

	var problems []string
	problems = append(problems, validateSite(site)...)

	routes := make([]RouteEntry, 0, len(specs)+collection.Len())
	for _, spec := range specs {
		routes = append(routes, buildRoute(site, spec))
	}
	if site.Articles != nil {
		routes = append(routes, articleRoutes(site, collection)...)
	}

	if len(site.Navigation) == 0 {
		site.Navigation = deriveNavigation(routes)
	}

	problems = append(problems, validateRoutes(site, routes)...)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	reg := &Registry{
		site:   site,
		routes: routes,
		byPath: make(map[string]int, len(routes)),
	}
	for i, r := range routes {
		reg.byPath[r.Path] = i
	}
	return reg, nil
}

// ListRoutes returns every route in declaration order, article routes last.
func (r *Registry) ListRoutes() []RouteEntry {
	out := make([]RouteEntry, len(r.routes))
	for i, route := range r.routes {
		out[i] = route.clone()
	}
	return out
}

func (r *Registry) GetRoute(path string) (RouteEntry, error) {
	i, ok := r.byPath[path]
	if !ok {
		return RouteEntry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return r.routes[i].clone(), nil
}

// Indexable returns the routes search engines may list, in registry order.
func (r *Registry) Indexable() []RouteEntry {
	var out []RouteEntry
	for _, route := range r.routes {
		if route.Indexable {
			out = append(out, route.clone())
		}
	}
	return out
}

func (r *Registry) Site() Site {
	return r.site
}

func (r *Registry) Len() int {
	return len(r.routes)
}

func (e RouteEntry) clone() RouteEntry {
	e.Keywords = slices.Clone(e.Keywords)
	e.Sections = slices.Clone(e.Sections)
	return e
}

func normalizeSite(site Site) Site {
	site.Name = strings.TrimSpace(site.Name)
	site.Origin = strings.TrimRight(strings.TrimSpace(site.Origin), "/")
	if site.Locale == "" {
		site.Locale = "en"
	}
	if site.DescriptionLength.Min == 0 && site.DescriptionLength.Max == 0 {
		site.DescriptionLength = DescriptionBounds{Min: DefaultDescriptionMin, Max: DefaultDescriptionMax}
	}
	if site.DefaultCTA.IsZero() {
		site.DefaultCTA = Link{Label: "Get Started", Href: "/contact"}
	}
	if a := site.Articles; a != nil {
		copied := *a
		copied.Prefix = strings.TrimRight(strings.TrimSpace(copied.Prefix), "/")
		if copied.Priority == 0 {
			copied.Priority = 0.6
		}
		if copied.ChangeFrequency == "" {
			copied.ChangeFrequency = DefaultChangeFrequency
		}
		site.Articles = &copied
	}
	return site
}

func buildRoute(site Site, spec RouteSpec) RouteEntry {
	route := RouteEntry{
		Path:            strings.TrimSpace(spec.Path),
		Title:           strings.TrimSpace(spec.Title),
		Description:     strings.TrimSpace(spec.Description),
		Keywords:        cleanKeywords(spec.Keywords),
		Indexable:       true,
		Priority:        DefaultPriority,
		ChangeFrequency: strings.ToLower(strings.TrimSpace(spec.ChangeFrequency)),
		ContentKey:      ContentKey(strings.ToLower(strings.TrimSpace(string(spec.Content)))),
		Headline:        strings.TrimSpace(spec.Headline),
		Subheadline:     strings.TrimSpace(spec.Subheadline),
		CTA:             spec.CTA,
		SecondaryCTA:    spec.SecondaryCTA,
		Sections:        slices.Clone(spec.Sections),
		ArticleSlug:     strings.TrimSpace(spec.Article),
	}

	if spec.Indexable != nil {
		route.Indexable = *spec.Indexable
	}
	if spec.Priority != nil {
		route.Priority = *spec.Priority
	} else if route.Path == "/" {
		route.Priority = RootPriority
	}
	if route.ChangeFrequency == "" {
		route.ChangeFrequency = DefaultChangeFrequency
	}
	if spec.ListArticles != nil {
		route.ListArticles = *spec.ListArticles
	} else if site.Articles != nil && route.Path == site.Articles.Prefix {
		route.ListArticles = true
	}
	if route.ContentKey == "" {
		switch {
		case route.Path == "/":
			route.ContentKey = ContentHome
		case route.ArticleSlug != "":
			route.ContentKey = ContentArticle
		case route.ListArticles || len(route.Sections) > 0:
			route.ContentKey = ContentListing
		default:
			route.ContentKey = ContentGeneric
		}
	}
	if route.Headline == "" {
		route.Headline = route.Title
	}
	if route.CTA.IsZero() {
		route.CTA = site.DefaultCTA
	}
	if route.Indexable {
		route.CanonicalURL = canonicalURL(site.Origin, route.Path)
	}

	return route
}

func articleRoutes(site Site, collection *articles.Collection) []RouteEntry {
	cfg := site.Articles
	bounds := site.DescriptionLength

	var routes []RouteEntry
	for _, a := range collection.List() {
		description := fitDescription(a.Description, bounds)
		if DescriptionLength(description) < bounds.Min {
			description = fitDescription(fmt.Sprintf("%s. %s", a.Title, a.Description), bounds)
		}

		route := RouteEntry{
			Path:            cfg.Prefix + "/" + a.Slug,
			Title:           a.Title + cfg.TitleSuffix,
			Description:     description,
			Keywords:        cleanKeywords(append(slices.Clone(cfg.Keywords), a.Category)),
			Indexable:       true,
			Priority:        cfg.Priority,
			ChangeFrequency: cfg.ChangeFrequency,
			ContentKey:      ContentArticle,
			Headline:        a.Title,
			CTA:             site.DefaultCTA,
			SecondaryCTA:    Link{Label: "More articles", Href: cmp.Or(cfg.Prefix, "/")},
			ArticleSlug:     a.Slug,
		}
		route.CanonicalURL = canonicalURL(site.Origin, route.Path)
		routes = append(routes, route)
	}
	return routes
}

// canonicalURL joins the origin and path into the escaped form that
// html/template, the sitemap and crawlers all agree on.
func canonicalURL(origin, path string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return origin + path
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path + path}).String()
}

func deriveNavigation(routes []RouteEntry) []Link {
	var nav []Link
	for _, r := range routes {
		if !r.Indexable || r.ContentKey == ContentArticle {
			continue
		}
		nav = append(nav, Link{Label: r.Headline, Href: r.Path})
	}
	return nav
}

func cleanKeywords(in []string) []string {
	var out []string
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k != "" && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
