package crawl

import (
	"regexp"
	"strings"
)

// Signatures are case-insensitive substrings of user agents that belong to
// search engine indexers and social preview fetchers.
var Signatures = []string{
	"crawl",
	"slurp",
	"spider",
	"bingbot",
	"googlebot",
	"yandex",
	"baidu",
	"twitterbot",
	"facebookexternalhit",
	"rogerbot",
	"linkedinbot",
	"embedly",
	"quora link preview",
	"showyoubot",
	"outbrain",
	"pinterest",
	"developers.google.com",
	"whatsapp",
	"skypeuripreview",
	"vkshare",
	"w3c_validator",
}

// genericBot matches "bot" as a word or at the end of a product token
// ("AhrefsBot/7.0", "DuckDuckBot-Https") but not inside handset model names
// such as "CUBOT P40" or "CUBOT_X30".
const genericBot = `\bbot\b|bot[/;)+-]|bot$`

// Pattern is the alternation of quoted signatures followed by genericBot.
// The same source is compiled here and embedded in the page script, so it
// stays within the syntax Go and JavaScript share.
var Pattern = buildPattern(Signatures) + "|" + genericBot

var matcher = regexp.MustCompile("(?i)" + Pattern)

func buildPattern(signatures []string) string {
	quoted := make([]string, len(signatures))
	for i, s := range signatures {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(quoted, "|")
}

type Branch string

const (
	// BranchPrerendered keeps the static snapshot as the visible page.
	BranchPrerendered Branch = "prerendered"
	// BranchApplication hides the snapshot and boots the client application.
	BranchApplication Branch = "application"
)

// Classification exists only for one page load or one request.
type Classification struct {
	UserAgent        string
	IsAutomatedAgent bool
	Signature        string
}

// Classify is a pure function of the user agent string.
func Classify(userAgent string) Classification {
	c := Classification{UserAgent: userAgent}
	if m := matcher.FindString(userAgent); m != "" {
		c.IsAutomatedAgent = true
		c.Signature = strings.TrimRight(strings.ToLower(m), "/;)+-")
	}
	return c
}

type Decision struct {
	Branch          Branch
	ShowPrerendered bool
	BootApplication bool
}

func Decide(c Classification) Decision {
	if c.IsAutomatedAgent {
		return Decision{Branch: BranchPrerendered, ShowPrerendered: true}
	}
	return Decision{Branch: BranchApplication, BootApplication: true}
}

func (c Classification) String() string {
	if c.IsAutomatedAgent {
		return "crawler:" + c.Signature
	}
	return "visitor"
}
