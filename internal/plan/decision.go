// Package plan turns a validated report request into a worker allocation,
// a per-kind task assignment and the structural section list. Everything in
// this package is a pure function of its inputs: no I/O, deterministic
// output including the human-readable reasoning strings.
package plan

import (
	"fmt"
	"strings"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// apiKeywords mark topics that benefit from external API data. Matching is
// a lowercase substring scan over topic and detailed requirements.
var apiKeywords = []string{"market", "financial", "crypto", "stock", "economy", "technology"}

// Allocation is the decision engine's output: how many instances of each
// worker kind to run, why, and which kinds gate aggregation.
type Allocation struct {
	Complexity          report.Complexity          `json:"complexity"`
	SourcesPerCollector int                        `json:"sources_per_collector"`
	Counts              map[report.Kind]int        `json:"counts"`
	Reasoning           map[report.Kind]string     `json:"reasoning"`
	Summary             []string                   `json:"summary"`
	Required            []report.Kind              `json:"required"`
}

// Allocate maps a request to a worker allocation. The narrator is always
// allocated and always required, independent of every other input.
func Allocate(spec report.RequestSpec) (*Allocation, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	multiplier, _ := spec.Complexity.Multiplier()

	a := &Allocation{
		Complexity: spec.Complexity,
		Counts:     make(map[report.Kind]int),
		Reasoning:  make(map[report.Kind]string),
	}

	// One collector handles 3-5 sources depending on complexity. Zero
	// requested sources still gets a single collector for baseline coverage.
	a.SourcesPerCollector = max(3, int(5/multiplier))
	collectors := max(1, ceilDiv(spec.SourceCount, a.SourcesPerCollector))
	a.Counts[report.KindDataCollector] = collectors
	a.Reasoning[report.KindDataCollector] = fmt.Sprintf(
		"%d source(s) at %s complexity need %d data collector(s), each handling ~%d sources",
		spec.SourceCount, spec.Complexity, collectors, a.SourcesPerCollector)

	// API researchers only for medium/complex topics that mention
	// market or financial data.
	researchers := 0
	if spec.Complexity != report.ComplexitySimple && mentionsAPIData(spec) {
		researchers = 1
		if spec.Complexity == report.ComplexityComplex {
			researchers = 2
		}
		a.Reasoning[report.KindAPIResearcher] = fmt.Sprintf(
			"topic mentions market/financial data, deploying %d API researcher(s) for external sources",
			researchers)
	} else {
		a.Reasoning[report.KindAPIResearcher] = "topic does not require external API data, web sources only"
	}
	a.Counts[report.KindAPIResearcher] = researchers

	// One analyst per 20 requested pages when analysis is requested.
	// Visualizations change the analyst subtasks, not the count.
	analysts := 0
	if spec.IncludeAnalysis {
		analysts = max(1, spec.PageCount/20)
		a.Reasoning[report.KindAnalyst] = fmt.Sprintf(
			"analysis requested for a %d-page report, deploying %d analyst(s)",
			spec.PageCount, analysts)
	} else {
		a.Reasoning[report.KindAnalyst] = "no analysis requested, collected data will be summarized directly"
	}
	a.Counts[report.KindAnalyst] = analysts

	a.Counts[report.KindNarrator] = 1
	a.Reasoning[report.KindNarrator] = "narrator always runs to guarantee complete content for every section"

	for _, k := range report.Kinds() {
		if a.Counts[k] > 0 {
			a.Required = append(a.Required, k)
			a.Summary = append(a.Summary, fmt.Sprintf("%s x%d: %s", k, a.Counts[k], a.Reasoning[k]))
		}
	}

	return a, nil
}

// RequiresWorker reports whether k gates aggregation for this allocation.
func (a *Allocation) RequiresWorker(k report.Kind) bool {
	for _, r := range a.Required {
		if r == k {
			return true
		}
	}
	return false
}

func mentionsAPIData(spec report.RequestSpec) bool {
	text := strings.ToLower(spec.Topic + " " + spec.DetailedRequirements)
	for _, kw := range apiKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
