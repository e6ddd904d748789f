package assets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"
)

// Manifest holds the public URLs of the compiled entry bundle and stylesheet.
type Manifest struct {
	ScriptPath string `json:"script_path"`
	StylePath  string `json:"style_path"`
	Degraded   bool   `json:"degraded"`
}

type Options struct {
	Subdir     string   // asset directory relative to the output root
	Prefixes   []string // entry point name prefixes, most preferred first
	PublicBase string   // URL prefix the assets are served under
}

func DefaultOptions() Options {
	return Options{
		Subdir:     "assets",
		Prefixes:   []string{"index-", "main-"},
		PublicBase: "/assets/",
	}
}

type Resolver struct {
	opts    Options
	pattern *regexp.Regexp
}

func NewResolver(opts Options) *Resolver {
	defaults := DefaultOptions()
	if opts.Subdir == "" {
		opts.Subdir = defaults.Subdir
	}
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = defaults.Prefixes
	}
	if opts.PublicBase == "" {
		opts.PublicBase = "/" + strings.Trim(opts.Subdir, "/") + "/"
	}
	if !strings.HasSuffix(opts.PublicBase, "/") {
		opts.PublicBase += "/"
	}

	quoted := make([]string, len(opts.Prefixes))
	for i, p := range opts.Prefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	pattern := regexp.MustCompile(`^(` + strings.Join(quoted, "|") + `)[A-Za-z0-9_-]+\.(js|css)$`)

	return &Resolver{opts: opts, pattern: pattern}
}

// Fallback is the pair substituted when the compiled output cannot be
// matched: the unhashed entry names under the public base.
func (r *Resolver) Fallback() Manifest {
	return Manifest{
		ScriptPath: r.opts.PublicBase + "index.js",
		StylePath:  r.opts.PublicBase + "index.css",
	}
}

// ResolveDir resolves against the compiled output rooted at dir.
func (r *Resolver) ResolveDir(dir string) (Manifest, []string) {
	return r.Resolve(os.DirFS(dir))
}

// Resolve only needs a directory listing of the asset subdirectory. Missing
// or ambiguous matches degrade to Fallback and are reported as warnings.
func (r *Resolver) Resolve(fsys fs.FS) (Manifest, []string) {
	var warnings []string

	entries, err := fs.ReadDir(fsys, path.Clean(strings.Trim(r.opts.Subdir, "/")))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("asset directory %q unreadable, using fallback assets: %v", r.opts.Subdir, err))
		slog.Warn("Asset resolution degraded", "dir", r.opts.Subdir, "error", err)
		m := r.Fallback()
		m.Degraded = true
		return m, warnings
	}

	candidates := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := r.pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		candidates[m[2]] = append(candidates[m[2]], e.Name())
	}

	fallback := r.Fallback()
	manifest := Manifest{}
	for _, kind := range []string{"js", "css"} {
		name, warning := r.pick(kind, candidates[kind])
		if warning != "" {
			warnings = append(warnings, warning)
		}

		var resolved string
		if name != "" {
			resolved = r.opts.PublicBase + name
		}

		switch kind {
		case "js":
			manifest.ScriptPath = resolved
			if resolved == "" {
				manifest.ScriptPath = fallback.ScriptPath
				manifest.Degraded = true
			}
		case "css":
			manifest.StylePath = resolved
			if resolved == "" {
				manifest.StylePath = fallback.StylePath
				manifest.Degraded = true
			}
		}
	}

	for _, w := range warnings {
		slog.Warn("Asset resolution", "warning", w)
	}
	slog.Debug("Assets resolved", "script", manifest.ScriptPath, "style", manifest.StylePath, "degraded", manifest.Degraded)

	return manifest, warnings
}

// pick orders candidates by prefix preference, then name, so the same
// listing always yields the same file.
func (r *Resolver) pick(kind string, names []string) (string, string) {
	if len(names) == 0 {
		return "", fmt.Sprintf("no %s entry point matching %v in %q, using fallback", kind, r.opts.Prefixes, r.opts.Subdir)
	}

	slices.SortFunc(names, func(a, b string) int {
		if pa, pb := r.prefixRank(a), r.prefixRank(b); pa != pb {
			return pa - pb
		}
		return strings.Compare(a, b)
	})

	if len(names) > 1 {
		return names[0], fmt.Sprintf("multiple %s entry points %v, using %s", kind, names, names[0])
	}
	return names[0], ""
}

func (r *Resolver) prefixRank(name string) int {
	for i, p := range r.opts.Prefixes {
		if strings.HasPrefix(name, p) {
			return i
		}
	}
	return len(r.opts.Prefixes)
}
