package plan

import (
	"fmt"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// Assignment maps each worker kind to its ordered subtask list. It is
// produced once during planning and read-only thereafter.
type Assignment map[report.Kind][]report.Subtask

// researchAspects are the standing research dimensions used to give each
// collector and analyst instance a distinct focus.
var researchAspects = []string{
	"market size and growth trends",
	"competitive landscape analysis",
	"technology and innovation trends",
	"regulatory and policy factors",
	"consumer behavior and demographics",
}

// apiDatasets are the external dataset families cycled across API
// researcher instances.
var apiDatasets = []string{
	"market data and financial metrics",
	"industry statistics and trends",
	"competitive analysis data",
	"economic indicators",
}

// wordsPerPage is the narrator's word budget per requested page.
const wordsPerPage = 250

// Distribute splits the allocation into discrete subtasks per worker kind.
// Every required kind is guaranteed at least one non-empty subtask; an
// empty assignment for a required kind is a construction defect and fails
// immediately rather than surfacing later as a stuck session.
func Distribute(alloc *Allocation, spec report.RequestSpec) (Assignment, error) {
	assign := make(Assignment, len(alloc.Required))

	if n := alloc.Counts[report.KindDataCollector]; n > 0 {
		assign[report.KindDataCollector] = collectorSubtasks(spec, n)
	}
	if n := alloc.Counts[report.KindAPIResearcher]; n > 0 {
		assign[report.KindAPIResearcher] = researcherSubtasks(n)
	}
	if n := alloc.Counts[report.KindAnalyst]; n > 0 {
		assign[report.KindAnalyst] = analystSubtasks(spec, n)
	}

	assign[report.KindNarrator] = []report.Subtask{{
		Description: "produce complete content for every structural section regardless of other workers' availability",
		TargetWords: spec.PageCount * wordsPerPage,
	}}

	for _, k := range alloc.Required {
		tasks := assign[k]
		if len(tasks) == 0 {
			return nil, fmt.Errorf("required worker %s has no subtasks", k)
		}
		for _, t := range tasks {
			if t.Description == "" {
				return nil, fmt.Errorf("required worker %s has an empty subtask", k)
			}
		}
	}

	return assign, nil
}

// collectorSubtasks splits the requested sources near-evenly across n
// collector instances: the first sources%n instances take one extra source.
func collectorSubtasks(spec report.RequestSpec, n int) []report.Subtask {
	base := spec.SourceCount / n
	extra := spec.SourceCount % n

	tasks := make([]report.Subtask, 0, n)
	for i := 0; i < n; i++ {
		share := base
		if i < extra {
			share++
		}
		focus := researchAspects[i%len(researchAspects)]
		desc := fmt.Sprintf("research %s for %q, collecting from ~%d sources", focus, spec.Topic, share)
		if share == 0 {
			desc = fmt.Sprintf("survey baseline sources on %s for %q", focus, spec.Topic)
		}
		tasks = append(tasks, report.Subtask{
			Description: desc,
			SourceShare: share,
			Focus:       focus,
		})
	}
	return tasks
}

func researcherSubtasks(n int) []report.Subtask {
	tasks := make([]report.Subtask, 0, n)
	for i := 0; i < n; i++ {
		dataset := apiDatasets[i%len(apiDatasets)]
		tasks = append(tasks, report.Subtask{
			Description: fmt.Sprintf("gather %s via external APIs", dataset),
			Focus:       dataset,
		})
	}
	return tasks
}

// analystSubtasks gives each analyst instance one analysis focus. When
// visualizations are requested a chart subtask is appended; the chart count
// scales with page count but never drops below two.
func analystSubtasks(spec report.RequestSpec, n int) []report.Subtask {
	tasks := make([]report.Subtask, 0, n+1)
	for i := 0; i < n; i++ {
		focus := researchAspects[i%len(researchAspects)]
		tasks = append(tasks, report.Subtask{
			Description: fmt.Sprintf("analyze collected data on %s and derive key insights", focus),
			Focus:       focus,
		})
	}
	if spec.IncludeVisualizations {
		charts := max(2, spec.PageCount/10)
		tasks = append(tasks, report.Subtask{
			Description: fmt.Sprintf("create %d data visualizations from the analysis", charts),
			Focus:       "visualizations",
		})
	}
	return tasks
}
