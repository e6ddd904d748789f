package manifest

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"time"

	"github.com/lysyi3m/routesnap/app/registry"
)

// BuildSitemap lists every indexable route with one shared lastmod.
func BuildSitemap(routes []registry.RouteEntry, lastmod time.Time) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	buf.WriteString("\n")

	date := lastmod.UTC().Format("2006-01-02")
	for _, r := range routes {
		if !r.Indexable {
			continue
		}
		buf.WriteString("  <url>\n")
		writeElement(&buf, "loc", r.CanonicalURL, 4)
		writeElement(&buf, "lastmod", date, 4)
		writeElement(&buf, "changefreq", r.ChangeFrequency, 4)
		writeElement(&buf, "priority", strconv.FormatFloat(r.Priority, 'f', 1, 64), 4)
		buf.WriteString("  </url>\n")
	}

	buf.WriteString("</urlset>\n")
	return buf.Bytes()
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
