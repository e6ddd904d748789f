package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lysyi3m/routesnap/app/articles"
	"github.com/lysyi3m/routesnap/app/crawl"
	"github.com/lysyi3m/routesnap/app/manifest"
	"github.com/lysyi3m/routesnap/app/page"
	"github.com/lysyi3m/routesnap/app/registry"
)

// Articles reads back the articles a build rendered under prefix, using the
// content manifest to find the article pages. Verifying against these keeps
// later changes to a remote feed from showing up as output problems.
func Articles(dir, prefix string) ([]articles.Article, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifest.ContentManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read content manifest: %w", err)
	}
	m, err := manifest.ParseContentManifest(data)
	if err != nil {
		return nil, err
	}

	prefix = strings.TrimRight(prefix, "/") + "/"

	var out []articles.Article
	for _, e := range m.Routes {
		if e.Template != string(registry.ContentArticle) || !strings.HasPrefix(e.Path, prefix) {
			continue
		}

		doc, err := loadDocument(filepath.Join(dir, filepath.FromSlash(page.OutputPath(e.Path))))
		if err != nil {
			return nil, fmt.Errorf("failed to read article page %s: %w", e.Path, err)
		}
		body := doc.Find("#" + crawl.PrerenderID + " article").First()
		if body.Length() == 0 {
			return nil, fmt.Errorf("article page %s has no article body", e.Path)
		}

		a := articles.Article{
			Slug:        strings.TrimPrefix(e.Path, prefix),
			Title:       strings.TrimSpace(body.Find("h1").First().Text()),
			Description: strings.TrimSpace(body.Find(".excerpt").First().Text()),
		}
		a.Link, _ = body.Find(`a[rel="noopener"]`).First().Attr("href")

		meta := body.Find(".meta").First()
		when := meta.Find("time")
		if datetime, ok := when.Attr("datetime"); ok {
			if a.PublishedAt, err = time.Parse("2006-01-02", datetime); err != nil {
				return nil, fmt.Errorf("article page %s: invalid publication date %q", e.Path, datetime)
			}
		}
		category := strings.TrimPrefix(meta.Text(), when.Text())
		a.Category = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(category), "·"))

		out = append(out, a)
	}
	return out, nil
}
