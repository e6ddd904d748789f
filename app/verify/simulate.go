package verify

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lysyi3m/routesnap/app/crawl"
)

var appSrcPattern = regexp.MustCompile(`s\.src=("(?:[^"\\]|\\.)*")`)

// Simulation is the DOM state of a page after its adaptation script ran for
// one user agent.
type Simulation struct {
	Classification    crawl.Classification
	Decision          crawl.Decision
	PrerenderVisible  bool
	ApplicationLoaded bool
	AppSource         string
}

// Simulate applies the page-load decision for userAgent to a copy of doc,
// doing to the tree what the inline script does in a browser. doc is left
// untouched.
func Simulate(doc *goquery.Document, userAgent string) (Simulation, error) {
	clone := goquery.NewDocumentFromNode(doc.Selection.Clone().Get(0))

	pre := clone.Find("#" + crawl.PrerenderID)
	mount := clone.Find("#" + crawl.MountID)
	if pre.Length() != 1 || mount.Length() != 1 {
		return Simulation{}, fmt.Errorf("page must have one %q container and one %q mount point", crawl.PrerenderID, crawl.MountID)
	}

	src, err := appSource(clone)
	if err != nil {
		return Simulation{}, err
	}

	load := crawl.NewPageLoad()
	decision := load.Run(userAgent)

	root := clone.Find("html")
	root.SetAttr(crawl.BranchAttr, string(decision.Branch))
	if decision.BootApplication {
		pre.SetAttr("hidden", "")
		clone.Find("body").AppendNodes(&html.Node{
			Type:     html.ElementNode,
			Data:     "script",
			DataAtom: atom.Script,
			Attr: []html.Attribute{
				{Key: "type", Val: "module"},
				{Key: "src", Val: src},
				{Key: crawl.AppScriptAttr},
			},
		})
	}

	_, hidden := pre.Attr("hidden")
	return Simulation{
		Classification:    load.Classification(),
		Decision:          decision,
		PrerenderVisible:  !hidden,
		ApplicationLoaded: clone.Find("script["+crawl.AppScriptAttr+"]").Length() > 0,
		AppSource:         src,
	}, nil
}

// appSource reads the application bundle location out of the inline
// adaptation script.
func appSource(doc *goquery.Document) (string, error) {
	var src string
	var found bool
	doc.Find("script:not([src])").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := appSrcPattern.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		found = json.Unmarshal([]byte(m[1]), &src) == nil
		return !found
	})
	if !found {
		return "", fmt.Errorf("page has no adaptation script")
	}
	return src, nil
}
