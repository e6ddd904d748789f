package registry

// ContentKey selects the content template for a route.
type ContentKey string

const (
	ContentHome    ContentKey = "home"
	ContentListing ContentKey = "listing"
	ContentArticle ContentKey = "article"
	ContentGeneric ContentKey = "generic"
)

const (
	DefaultChangeFrequency = "monthly"
	DefaultPriority        = 0.5
	RootPriority           = 1.0

	DefaultDescriptionMin = 25
	DefaultDescriptionMax = 165
)

var validChangeFrequencies = map[string]bool{
	"always":  true,
	"hourly":  true,
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"yearly":  true,
	"never":   true,
}

type Link struct {
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

func (l Link) IsZero() bool {
	return l.Label == "" && l.Href == ""
}

type FooterGroup struct {
	Title string `yaml:"title"`
	Links []Link `yaml:"links"`
}

// Section is a block of supporting copy rendered under the headline.
type Section struct {
	Heading string   `yaml:"heading"`
	Text    string   `yaml:"text"`
	Items   []string `yaml:"items"`
	Link    Link     `yaml:"link"`
}

// RouteEntry is one logical page and its search metadata.
type RouteEntry struct {
	Path            string
	Title           string
	Description     string
	Keywords        []string
	CanonicalURL    string // empty when not indexable
	Indexable       bool
	Priority        float64
	ChangeFrequency string
	ContentKey      ContentKey

	Headline     string
	Subheadline  string
	CTA          Link
	SecondaryCTA Link
	Sections     []Section
	ListArticles bool
	ArticleSlug  string
}

type DescriptionBounds struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type RobotsOptions struct {
	CrawlDelay int `yaml:"crawl_delay"`
}

// ArticleRoutes expands the article collection into one route per article.
type ArticleRoutes struct {
	Prefix          string   `yaml:"prefix"`
	Priority        float64  `yaml:"priority"`
	ChangeFrequency string   `yaml:"change_frequency"`
	TitleSuffix     string   `yaml:"title_suffix"`
	Keywords        []string `yaml:"keywords"`
}

// Site is the content-description layer shared by every page: identity,
// navigation, footer and the default call to action.
type Site struct {
	Name              string            `yaml:"name"`
	Origin            string            `yaml:"origin"`
	Locale            string            `yaml:"locale"`
	Image             string            `yaml:"image"`
	DefaultCTA        Link              `yaml:"cta"`
	DescriptionLength DescriptionBounds `yaml:"description_length"`
	Navigation        []Link            `yaml:"navigation"`
	Footer            []FooterGroup     `yaml:"footer"`
	Robots            RobotsOptions     `yaml:"robots"`
	Articles          *ArticleRoutes    `yaml:"articles"`
}

// SitemapURL is the public location of the sitemap.
func (s Site) SitemapURL() string {
	return s.Origin + "/sitemap.xml"
}

// RouteSpec is a route as written in the site file, before defaults.
type RouteSpec struct {
	Path            string     `yaml:"path"`
	Title           string     `yaml:"title"`
	Description     string     `yaml:"description"`
	Keywords        []string   `yaml:"keywords"`
	Indexable       *bool      `yaml:"indexable"`
	Priority        *float64   `yaml:"priority"`
	ChangeFrequency string     `yaml:"change_frequency"`
	Content         ContentKey `yaml:"content"`
	Headline        string     `yaml:"headline"`
	Subheadline     string     `yaml:"subheadline"`
	CTA             Link       `yaml:"cta"`
	SecondaryCTA    Link       `yaml:"secondary_cta"`
	Sections        []Section  `yaml:"sections"`
	ListArticles    *bool      `yaml:"list_articles"`
	Article         string     `yaml:"article"`
}

type siteFile struct {
	Site   Site        `yaml:"site"`
	Routes []RouteSpec `yaml:"routes"`
}

// Bool returns a pointer to b for optional RouteSpec fields.
func Bool(b bool) *bool {
	return &b
}
