package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/routesnap/app/crawl"
	"github.com/lysyi3m/routesnap/app/page"
)

func NewHandler(root string, state *BuildState, version string) *Handler {
	if state == nil {
		state = &BuildState{}
	}
	return &Handler{root: root, state: state, version: version}
}

// ServeOutput serves emitted files the way a static host would: real files
// as-is, route paths from their index.html, anything else from the root
// document so the client application can route it.
func (h *Handler) ServeOutput(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + c.Request.URL.Path)

	if file, ok := h.regularFile(clean); ok {
		h.setCacheHeaders(c, clean)
		c.File(file)
		return
	}

	if file, ok := h.regularFile(path.Join("/", page.OutputPath(clean))); ok {
		c.Header("Cache-Control", "no-cache")
		c.File(file)
		return
	}

	if path.Ext(clean) != "" {
		c.Status(http.StatusNotFound)
		return
	}

	if file, ok := h.regularFile("/index.html"); ok {
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Fallback", "spa")
		c.File(file)
		return
	}

	c.Status(http.StatusNotFound)
}

func (h *Handler) regularFile(urlPath string) (string, bool) {
	full := filepath.Join(h.root, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return full, true
}

func (h *Handler) setCacheHeaders(c *gin.Context, urlPath string) {
	switch {
	case strings.HasSuffix(urlPath, ".html"), strings.HasSuffix(urlPath, ".xml"),
		strings.HasSuffix(urlPath, ".txt"), strings.HasSuffix(urlPath, ".json"):
		c.Header("Cache-Control", "no-cache")
	case strings.HasPrefix(urlPath, "/assets/"):
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	report, err := h.state.Get()
	if report != nil {
		health["last_build"] = report.Summary()
		health["last_build_at"] = report.FinishedAt.In(time.Local).Format(time.RFC3339)
	}
	if err != nil {
		health["status"] = "degraded"
		health["error"] = err.Error()
	}

	c.JSON(http.StatusOK, health)
}

// GetClassification reports how the request's user agent is classified.
func (h *Handler) GetClassification(c *gin.Context) {
	ua := c.Query("ua")
	if ua == "" {
		ua = c.Request.UserAgent()
	}
	cl := crawl.Classify(ua)
	d := crawl.Decide(cl)

	c.JSON(http.StatusOK, gin.H{
		"user_agent":         cl.UserAgent,
		"is_automated_agent": cl.IsAutomatedAgent,
		"signature":          cl.Signature,
		"branch":             d.Branch,
	})
}

func (h *Handler) GetBuild(c *gin.Context) {
	report, err := h.state.Get()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No build yet"})
		return
	}

	routes := make([]map[string]interface{}, 0, len(report.Routes))
	for _, r := range report.Routes {
		routes = append(routes, map[string]interface{}{
			"path":     r.Path,
			"output":   r.Output,
			"status":   r.Status,
			"template": r.Template,
			"fallback": r.Fallback,
			"error":    r.Error,
		})
	}

	warnings := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		warnings = append(warnings, w.String())
	}

	body := gin.H{
		"run_id":      report.RunID,
		"started_at":  report.StartedAt,
		"finished_at": report.FinishedAt,
		"summary":     report.Summary(),
		"assets":      report.Assets,
		"routes":      routes,
		"warnings":    warnings,
	}
	if err != nil {
		body["error"] = err.Error()
	}

	c.JSON(http.StatusOK, body)
}
