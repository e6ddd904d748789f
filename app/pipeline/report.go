package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lysyi3m/routesnap/app/assets"
	"github.com/lysyi3m/routesnap/app/registry"
)

// ErrAborted marks a run that stopped on a fatal error. Files written before
// the failure are left in place.
var ErrAborted = errors.New("build aborted")

// WriteError is a fatal output failure for one route.
type WriteError struct {
	Path   string
	Output string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s (%s): %v", e.Path, e.Output, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type RouteStatus string

const (
	StatusPending RouteStatus = ""
	StatusWritten RouteStatus = "written"
	StatusFailed  RouteStatus = "failed"
	StatusSkipped RouteStatus = "skipped"
)

type RouteResult struct {
	Path     string
	Output   string
	Status   RouteStatus
	Template registry.ContentKey
	Fallback bool
	Error    string
}

type Warning struct {
	Component string
	Path      string
	Message   string
}

func (w Warning) String() string {
	if w.Path != "" {
		return fmt.Sprintf("%s %s: %s", w.Component, w.Path, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Component, w.Message)
}

// Report is the consolidated outcome of one run. Workers update it
// concurrently until it is sealed.
type Report struct {
	mu sync.Mutex

	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	OutputDir  string
	Assets     assets.Manifest
	Routes     []RouteResult
	Warnings   []Warning
	Manifests  []string

	sealed bool
}

func newReport(routes []registry.RouteEntry, outputDir string, startedAt time.Time) *Report {
	r := &Report{
		StartedAt: startedAt,
		OutputDir: outputDir,
		Routes:    make([]RouteResult, len(routes)),
	}
	for i, route := range routes {
		r.Routes[i].Path = route.Path
	}
	return r
}

func (r *Report) warn(component, path, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, Warning{Component: component, Path: path, Message: message})
}

func (r *Report) setRoute(i int, result RouteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Routes[i] = result
}

// seal marks every route never attempted as skipped.
func (r *Report) seal(finishedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Routes {
		if r.Routes[i].Status == StatusPending {
			r.Routes[i].Status = StatusSkipped
		}
	}
	r.FinishedAt = finishedAt
	r.sealed = true
}

// Complete reports whether the run finished and every route's write was
// attempted.
func (r *Report) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		return false
	}
	for _, route := range r.Routes {
		if route.Status == StatusPending || route.Status == StatusSkipped {
			return false
		}
	}
	return true
}

func (r *Report) count(status RouteStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, route := range r.Routes {
		if route.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) filter(status RouteStatus) []RouteResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RouteResult
	for _, route := range r.Routes {
		if route.Status == status {
			out = append(out, route)
		}
	}
	return out
}

func (r *Report) Written() []RouteResult { return r.filter(StatusWritten) }
func (r *Report) Failed() []RouteResult  { return r.filter(StatusFailed) }
func (r *Report) Skipped() []RouteResult { return r.filter(StatusSkipped) }

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) Summary() string {
	r.mu.Lock()
	total, warnings := len(r.Routes), len(r.Warnings)
	r.mu.Unlock()
	return fmt.Sprintf("%d routes: %d written, %d failed, %d skipped; %d warnings",
		total, r.count(StatusWritten), r.count(StatusFailed), r.count(StatusSkipped), warnings)
}
