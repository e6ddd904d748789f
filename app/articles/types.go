package articles

import (
	"time"
)

// Article is one published post as the build sees it. The collection is
// read-only once loaded.
type Article struct {
	Slug        string
	Title       string
	Description string
	Category    string
	Link        string
	PublishedAt time.Time
}

// Sources names where the collection comes from. Both are optional.
type Sources struct {
	File    string // local YAML/JSON collection
	FeedURL string // remote CMS feed (RSS/Atom/JSON Feed)
}

type fileEntry struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Excerpt     string `yaml:"excerpt"`
	Category    string `yaml:"category"`
	Link        string `yaml:"link"`
	Published   string `yaml:"published"`
}

type fileCollection struct {
	Articles []fileEntry `yaml:"articles"`
}
