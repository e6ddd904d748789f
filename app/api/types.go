package api

import (
	"sync"

	"github.com/lysyi3m/routesnap/app/pipeline"
)

const (
	ClassificationHeader = "X-Crawl-Classification"
	classificationKey    = "crawl"
)

// BuildState holds the outcome of the latest build for the status endpoints.
// The watcher updates it while requests read it.
type BuildState struct {
	mu     sync.RWMutex
	report *pipeline.Report
	err    error
}

func (s *BuildState) Set(report *pipeline.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
	s.err = err
}

func (s *BuildState) Get() (*pipeline.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.err
}

type Handler struct {
	root    string
	state   *BuildState
	version string
}
