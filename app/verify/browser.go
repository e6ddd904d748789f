package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/lysyi3m/routesnap/app/crawl"
	"github.com/lysyi3m/routesnap/app/registry"
)

const navigationTimeout = 30 * time.Second

const stateScript = `() => {
	const h = document.documentElement;
	const pre = document.getElementById(%q);
	return JSON.stringify({
		branch: h.getAttribute(%q) || "",
		visible: !!pre && !pre.hidden,
		app: !!document.querySelector("script[%s]"),
	});
}`

type browserState struct {
	Branch  string `json:"branch"`
	Visible bool   `json:"visible"`
	App     bool   `json:"app"`
}

// Browser loads every route from a running preview server in headless
// Chrome, once as a crawler and once as a visitor, and checks the branch the
// inline script actually took.
func Browser(ctx context.Context, baseURL string, routes []registry.RouteEntry) (*Result, error) {
	l := launcher.New().Headless(true).Context(ctx)
	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	defer l.Cleanup()

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	defer b.Close()

	res := &Result{}
	base := strings.TrimRight(baseURL, "/")
	script := fmt.Sprintf(stateScript, crawl.PrerenderID, crawl.BranchAttr, crawl.AppScriptAttr)

	for _, route := range routes {
		res.Checked++
		for _, ua := range []string{CrawlerUserAgent, VisitorUserAgent} {
			state, err := loadState(ctx, b, base+route.Path, ua, script)
			if err != nil {
				res.add(route.Path, "%v", err)
				continue
			}

			want := crawl.Decide(crawl.Classify(ua))
			if state.Branch != string(want.Branch) {
				res.add(route.Path, "browser took branch %q, expected %q", state.Branch, want.Branch)
			}
			if state.Visible != want.ShowPrerendered || state.App != want.BootApplication {
				res.add(route.Path, "%s: pre-rendered visible=%t application=%t", want.Branch, state.Visible, state.App)
			}
		}
	}

	slog.Debug("Browser verification finished", "routes", res.Checked, "problems", len(res.Problems))
	return res, nil
}

func loadState(ctx context.Context, b *rod.Browser, url, userAgent, script string) (browserState, error) {
	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return browserState{}, fmt.Errorf("browser: new page: %w", err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		return browserState{}, fmt.Errorf("browser: set user agent: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return browserState{}, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		return browserState{}, fmt.Errorf("browser: wait load %s: %w", url, err)
	}

	out, err := page.Context(navCtx).Eval(script)
	if err != nil {
		return browserState{}, fmt.Errorf("browser: eval: %w", err)
	}

	var state browserState
	if err := json.Unmarshal([]byte(out.Value.Str()), &state); err != nil {
		return browserState{}, fmt.Errorf("browser: decode page state: %w", err)
	}
	return state, nil
}
