package manifest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lysyi3m/routesnap/app/registry"
)

// BuildCrawlPolicy allows everything by default and disallows each
// non-indexable path. Robots rules match by prefix, so an indexable route
// that a disallowed prefix would shadow gets an explicit Allow.
func BuildCrawlPolicy(routes []registry.RouteEntry, sitemapURL string, opts registry.RobotsOptions) []byte {
	var disallowed []string
	for _, r := range routes {
		if !r.Indexable {
			disallowed = append(disallowed, r.Path)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("User-agent: *\n")
	buf.WriteString("Allow: /\n")

	for _, p := range disallowed {
		if p == "/" {
			// "$" anchors the rule so only the root itself is blocked.
			buf.WriteString("Disallow: /$\n")
			continue
		}
		fmt.Fprintf(&buf, "Disallow: %s\n", p)
	}

	for _, r := range routes {
		if r.Indexable && shadowed(r.Path, disallowed) {
			fmt.Fprintf(&buf, "Allow: %s\n", r.Path)
		}
	}

	if opts.CrawlDelay > 0 {
		fmt.Fprintf(&buf, "Crawl-delay: %d\n", opts.CrawlDelay)
	}

	if sitemapURL != "" {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "Sitemap: %s\n", sitemapURL)
	}

	return buf.Bytes()
}

func shadowed(path string, disallowed []string) bool {
	for _, d := range disallowed {
		if d == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, d) {
			return true
		}
	}
	return false
}
