package crawl

import (
	"encoding/json"
	"fmt"
	"html/template"
)

const (
	PrerenderID = "prerendered-content"
	MountID     = "root"

	// BranchAttr is set on <html> once the page has taken its branch.
	BranchAttr = "data-crawl-branch"
	// AppScriptAttr marks the module script injected for ordinary visitors.
	AppScriptAttr = "data-routesnap-app"
)

const scriptTemplate = `(function(){` +
	`var d=document,h=d.documentElement;` +
	`if(h.hasAttribute(%[1]s))return;` +
	`var ua=navigator.userAgent||"";` +
	`if(new RegExp(%[2]s,"i").test(ua)){h.setAttribute(%[1]s,%[3]s);return;}` +
	`h.setAttribute(%[1]s,%[4]s);` +
	`var pre=d.getElementById(%[5]s);if(pre)pre.hidden=true;` +
	`var s=d.createElement("script");s.type="module";s.src=%[6]s;s.setAttribute(%[7]s,"");` +
	`d.body.appendChild(s);` +
	`})();`

// Script returns the inline adaptation script for a page whose application
// bundle lives at appSrc. It runs synchronously once, before the bundle is
// requested, and never suspends.
func Script(appSrc string) (template.JS, error) {
	args := []any{BranchAttr, Pattern, BranchPrerendered, BranchApplication, PrerenderID, appSrc, AppScriptAttr}
	quoted := make([]any, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument: %w", err)
		}
		quoted[i] = string(b)
	}
	return template.JS(fmt.Sprintf(scriptTemplate, quoted...)), nil
}
