package registry

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ValidationError lists every problem found in a site file so authors can fix
// them in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf("%d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// DescriptionLength counts characters the way search snippets do: user
// perceived runes after NFC composition.
func DescriptionLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

func validateSite(site Site) []string {
	var problems []string

	if site.Name == "" {
		problems = append(problems, "site name is required")
	}

	u, err := url.Parse(site.Origin)
	switch {
	case site.Origin == "":
		problems = append(problems, "site origin is required")
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		problems = append(problems, fmt.Sprintf("site origin must be an absolute http(s) URL: %q", site.Origin))
	case u.RawQuery != "" || u.Fragment != "":
		problems = append(problems, fmt.Sprintf("site origin must not carry a query or fragment: %q", site.Origin))
	}

	bounds := site.DescriptionLength
	if bounds.Min < 0 || bounds.Max <= 0 || bounds.Min > bounds.Max {
		problems = append(problems, fmt.Sprintf("invalid description length bounds %d..%d", bounds.Min, bounds.Max))
	}

	if site.Robots.CrawlDelay < 0 {
		problems = append(problems, "robots crawl delay must be non-negative")
	}

	if a := site.Articles; a != nil {
		if err := validatePath(a.Prefix); err != nil || a.Prefix == "/" {
			problems = append(problems, fmt.Sprintf("invalid article prefix %q", a.Prefix))
		}
		if a.Priority < 0 || a.Priority > 1 {
			problems = append(problems, fmt.Sprintf("article priority must be within 0.0..1.0, got %v", a.Priority))
		}
		if !validChangeFrequencies[a.ChangeFrequency] {
			problems = append(problems, fmt.Sprintf("invalid article change frequency %q", a.ChangeFrequency))
		}
	}

	for i, l := range site.Navigation {
		if strings.TrimSpace(l.Href) == "" {
			problems = append(problems, fmt.Sprintf("navigation link at index %d has no href", i))
		}
	}
	for _, g := range site.Footer {
		for i, l := range g.Links {
			if strings.TrimSpace(l.Href) == "" {
				problems = append(problems, fmt.Sprintf("footer group %q link at index %d has no href", g.Title, i))
			}
		}
	}

	return problems
}

func validateRoutes(site Site, routes []RouteEntry) []string {
	var problems []string
	seen := make(map[string]bool, len(routes))
	roots := 0

	for i, r := range routes {
		label := r.Path
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if err := validatePath(r.Path); err != nil {
			problems = append(problems, fmt.Sprintf("route %s: %v", label, err))
		}
		if seen[r.Path] {
			problems = append(problems, fmt.Sprintf("route %s: duplicate path", label))
		}
		seen[r.Path] = true
		if r.Path == "/" {
			roots++
		}

		if r.Priority < 0 || r.Priority > 1 {
			problems = append(problems, fmt.Sprintf("route %s: priority must be within 0.0..1.0, got %v", label, r.Priority))
		}
		if !validChangeFrequencies[r.ChangeFrequency] {
			problems = append(problems, fmt.Sprintf("route %s: invalid change frequency %q", label, r.ChangeFrequency))
		}

		if r.Indexable {
			if r.Title == "" {
				problems = append(problems, fmt.Sprintf("route %s: indexable route requires a title", label))
			}
			n := DescriptionLength(r.Description)
			if n < site.DescriptionLength.Min || n > site.DescriptionLength.Max {
				problems = append(problems, fmt.Sprintf("route %s: description length %d outside %d..%d",
					label, n, site.DescriptionLength.Min, site.DescriptionLength.Max))
			}
		}

		for _, l := range []Link{r.CTA, r.SecondaryCTA} {
			if !l.IsZero() && strings.TrimSpace(l.Href) == "" {
				problems = append(problems, fmt.Sprintf("route %s: call to action %q has no href", label, l.Label))
			}
		}
	}

	switch {
	case roots == 0:
		problems = append(problems, `registry must contain a root route "/"`)
	case roots > 1:
		problems = append(problems, `registry must contain exactly one root route "/"`)
	}

	return problems
}

func validatePath(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("path is required")
	case !strings.HasPrefix(p, "/"):
		return fmt.Errorf("path must begin with /")
	case p != "/" && strings.HasSuffix(p, "/"):
		return fmt.Errorf("path must not end with /")
	case strings.ContainsAny(p, "?#\\"):
		return fmt.Errorf("path must not contain a query, fragment or backslash")
	case strings.Contains(p, "//"):
		return fmt.Errorf("path must not contain empty segments")
	}

	for _, r := range p {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("path must not contain whitespace")
		}
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("path must not contain relative segments")
		}
	}
	return nil
}

// fitDescription trims s to the upper bound at a word boundary.
func fitDescription(s string, bounds DescriptionBounds) string {
	s = norm.NFC.String(strings.Join(strings.Fields(s), " "))
	if bounds.Max < 2 || utf8.RuneCountInString(s) <= bounds.Max {
		return s
	}

	runes := []rune(s)
	cut := runes[:bounds.Max-1]
	if i := lastSpace(cut); i > bounds.Max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " ,;:.-") + "…"
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
