package content

import (
	"html/template"

	"github.com/lysyi3m/routesnap/app/registry"
)

// Content is the pre-rendered body for one route. It is produced once per
// route per build and never modified after.
type Content struct {
	HTML     template.HTML
	Headline string
	CTAs     []registry.Link
	Links    []registry.Link // every link the region carries, in document order, deduplicated by href
	Template registry.ContentKey
	Fallback bool // the route's content key had no template, or its article was missing
}

type articleView struct {
	Title       string
	Href        string
	Source      string
	Description string
	Category    string
	Published   string
	Datetime    string
}

type view struct {
	Site            registry.Site
	Route           registry.RouteEntry
	Article         *articleView
	Articles        []articleView
	ArticlesHeading string
}
