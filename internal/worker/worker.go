// Package worker defines the uniform invocation contract every worker kind
// implements, the dispatch registry keyed by the closed kind enum, and the
// built-in adapters. Worker internals (fetching, API calls, generation,
// chart rendering) sit behind small interfaces so the orchestration core
// never depends on their transport.
package worker

import (
	"context"
	"fmt"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// Invocation is the read-only context a worker receives. Workers write
// nothing back through it; their only output is the returned Result.
type Invocation struct {
	SessionID string
	Spec      report.RequestSpec
	Subtasks  []report.Subtask
	Sections  []report.Section
}

// Worker is one worker kind. Execute runs all assigned subtasks to
// completion and returns the uniform result record. A returned error means
// the execution unit failed as a whole; partial trouble is reported inside
// the Result instead.
type Worker interface {
	Kind() report.Kind
	Execute(ctx context.Context, inv Invocation) (report.Result, error)
}

// Registry is the dispatch table from kind to worker implementation.
type Registry struct {
	workers map[report.Kind]Worker
}

func NewRegistry(workers ...Worker) (*Registry, error) {
	r := &Registry{workers: make(map[report.Kind]Worker, len(workers))}
	for _, w := range workers {
		k := w.Kind()
		if !k.Valid() {
			return nil, fmt.Errorf("worker has unknown kind %q", k)
		}
		if _, dup := r.workers[k]; dup {
			return nil, fmt.Errorf("duplicate worker for kind %s", k)
		}
		r.workers[k] = w
	}
	return r, nil
}

func (r *Registry) Get(k report.Kind) (Worker, bool) {
	w, ok := r.workers[k]
	return w, ok
}

// Covers verifies every required kind has a registered worker. Called
// before fan-out so a missing handler fails the submit, not the barrier.
func (r *Registry) Covers(required []report.Kind) error {
	for _, k := range required {
		if _, ok := r.workers[k]; !ok {
			return fmt.Errorf("no worker registered for required kind %s", k)
		}
	}
	return nil
}

// matchSection picks the section a finding should enrich: the first
// section whose ID contains one of the hints, falling back to key
// findings, then to the first non-mandatory section.
func matchSection(sections []report.Section, hints ...string) string {
	for _, hint := range hints {
		for _, sec := range sections {
			if containsFold(sec.ID, hint) || containsFold(sec.Title, hint) {
				return sec.ID
			}
		}
	}
	for _, sec := range sections {
		if sec.ID == "key_findings" {
			return sec.ID
		}
	}
	for _, sec := range sections {
		if !sec.Mandatory {
			return sec.ID
		}
	}
	if len(sections) > 0 {
		return sections[0].ID
	}
	return ""
}
