package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/lysyi3m/routesnap/app/registry"
)

const ContentManifestFile = "prerender-manifest.json"

// ParityEntry is what both the pre-rendered region and the client view of a
// route must agree on.
type ParityEntry struct {
	Path     string          `json:"path"`
	Headline string          `json:"headline"`
	Template string          `json:"template"`
	CTAs     []registry.Link `json:"ctas"`
	Links    []registry.Link `json:"links"`
}

type ContentManifest struct {
	Routes []ParityEntry `json:"routes"`
}

// BuildContentManifest sorts by path so the file does not depend on the order
// in which workers finished.
func BuildContentManifest(entries []ParityEntry) ([]byte, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b ParityEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	for i := range sorted {
		if sorted[i].CTAs == nil {
			sorted[i].CTAs = []registry.Link{}
		}
		if sorted[i].Links == nil {
			sorted[i].Links = []registry.Link{}
		}
	}

	data, err := json.MarshalIndent(ContentManifest{Routes: sorted}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode content manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func ParseContentManifest(data []byte) (ContentManifest, error) {
	var m ContentManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return ContentManifest{}, fmt.Errorf("failed to parse content manifest: %w", err)
	}
	return m, nil
}

func (m ContentManifest) Lookup(path string) (ParityEntry, bool) {
	for _, e := range m.Routes {
		if e.Path == path {
			return e, true
		}
	}
	return ParityEntry{}, false
}
