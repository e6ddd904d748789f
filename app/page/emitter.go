package page

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/lysyi3m/routesnap/app/assets"
	"github.com/lysyi3m/routesnap/app/content"
	"github.com/lysyi3m/routesnap/app/crawl"
	"github.com/lysyi3m/routesnap/app/registry"
)

//go:embed document.tmpl
var documentSource string

var document = template.Must(template.New("document").Parse(documentSource))

const (
	RobotsIndex   = "index, follow"
	RobotsNoIndex = "noindex, nofollow"
)

// Page is a finished document and the file it belongs in, relative to the
// output root.
type Page struct {
	Path   string
	Output string
	HTML   []byte
}

type Emitter struct {
	site registry.Site
}

func NewEmitter(site registry.Site) *Emitter {
	return &Emitter{site: site}
}

type documentData struct {
	Lang           string
	Title          string
	Description    string
	Keywords       string
	Robots         string
	Canonical      string
	OGType         string
	OGLocale       string
	Image          string
	SiteName       string
	TwitterCard    string
	StylePath      string
	StructuredData template.JS
	PrerenderID    string
	MountID        string
	Content        template.HTML
	Script         template.JS
}

// Emit composes the document. The head is a function of the route alone, so
// repeated builds produce identical bytes.
func (e *Emitter) Emit(route registry.RouteEntry, c content.Content, m assets.Manifest) (Page, error) {
	script, err := crawl.Script(m.ScriptPath)
	if err != nil {
		return Page{}, err
	}

	ld, err := e.structuredData(route)
	if err != nil {
		return Page{}, err
	}

	data := documentData{
		Lang:           strings.ReplaceAll(e.site.Locale, "_", "-"),
		Title:          route.Title,
		Description:    route.Description,
		Keywords:       strings.Join(route.Keywords, ", "),
		Robots:         RobotsNoIndex,
		OGType:         "website",
		OGLocale:       strings.ReplaceAll(e.site.Locale, "-", "_"),
		Image:          e.site.Image,
		SiteName:       e.site.Name,
		TwitterCard:    "summary",
		StylePath:      m.StylePath,
		StructuredData: ld,
		PrerenderID:    crawl.PrerenderID,
		MountID:        crawl.MountID,
		Content:        c.HTML,
		Script:         script,
	}
	if route.Indexable {
		data.Robots = RobotsIndex
		data.Canonical = route.CanonicalURL
	}
	if route.ContentKey == registry.ContentArticle {
		data.OGType = "article"
	}
	if e.site.Image != "" {
		data.TwitterCard = "summary_large_image"
	}

	var buf bytes.Buffer
	if err := document.Execute(&buf, data); err != nil {
		return Page{}, fmt.Errorf("failed to render document for %s: %w", route.Path, err)
	}

	return Page{
		Path:   route.Path,
		Output: OutputPath(route.Path),
		HTML:   buf.Bytes(),
	}, nil
}

type webSite struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type structuredPage struct {
	Context     string   `json:"@context"`
	Type        string   `json:"@type"`
	Name        string   `json:"name,omitempty"`
	Headline    string   `json:"headline,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	InLanguage  string   `json:"inLanguage,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
	Image       string   `json:"image,omitempty"`
	IsPartOf    *webSite `json:"isPartOf,omitempty"`
	Publisher   *webSite `json:"publisher,omitempty"`
}

func (e *Emitter) structuredData(route registry.RouteEntry) (template.JS, error) {
	site := &webSite{Type: "WebSite", Name: e.site.Name, URL: e.site.Origin + "/"}
	sd := structuredPage{
		Context:     "https://schema.org",
		Type:        "WebPage",
		Name:        route.Title,
		Description: route.Description,
		URL:         route.CanonicalURL,
		InLanguage:  e.site.Locale,
		IsPartOf:    site,
	}
	if route.ContentKey == registry.ContentArticle {
		sd.Type = "Article"
		sd.Name = ""
		sd.Headline = route.Headline
		sd.Keywords = strings.Join(route.Keywords, ", ")
		sd.Image = e.site.Image
		sd.IsPartOf = nil
		sd.Publisher = &webSite{Type: "Organization", Name: e.site.Name, URL: e.site.Origin + "/"}
	}

	b, err := json.Marshal(sd)
	if err != nil {
		return "", fmt.Errorf("failed to encode structured data for %s: %w", route.Path, err)
	}
	return template.JS(b), nil
}
