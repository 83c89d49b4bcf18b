package plan

import (
	"strings"
	"testing"

	"github.com/vikasvdk5/WestBay/internal/report"
)

func TestDistributeSplitsSourcesEvenly(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Electric vehicle supply chains",
		PageCount:   20,
		SourceCount: 25,
		Complexity:  report.ComplexityComplex,
	}
	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	assign, err := Distribute(alloc, spec)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	tasks := assign[report.KindDataCollector]
	if len(tasks) != alloc.Counts[report.KindDataCollector] {
		t.Fatalf("expected %d collector subtasks, got %d",
			alloc.Counts[report.KindDataCollector], len(tasks))
	}

	total := 0
	minShare, maxShare := tasks[0].SourceShare, tasks[0].SourceShare
	for _, task := range tasks {
		total += task.SourceShare
		if task.SourceShare < minShare {
			minShare = task.SourceShare
		}
		if task.SourceShare > maxShare {
			maxShare = task.SourceShare
		}
		if task.Description == "" {
			t.Error("collector subtask has no description")
		}
	}
	if total != spec.SourceCount {
		t.Errorf("source shares sum to %d, want %d", total, spec.SourceCount)
	}
	if maxShare-minShare > 1 {
		t.Errorf("uneven split: shares range from %d to %d", minShare, maxShare)
	}
}

func TestDistributeNarratorAlwaysAssigned(t *testing.T) {
	spec := simpleSpec()
	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	assign, err := Distribute(alloc, spec)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	tasks := assign[report.KindNarrator]
	if len(tasks) != 1 {
		t.Fatalf("expected exactly 1 narrator subtask, got %d", len(tasks))
	}
	if want := spec.PageCount * wordsPerPage; tasks[0].TargetWords != want {
		t.Errorf("expected %d target words, got %d", want, tasks[0].TargetWords)
	}
}

func TestDistributeVisualizationSubtask(t *testing.T) {
	spec := report.RequestSpec{
		Topic:                 "Semiconductor market",
		PageCount:             50,
		SourceCount:           10,
		Complexity:            report.ComplexityMedium,
		IncludeAnalysis:       true,
		IncludeVisualizations: true,
	}
	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	assign, err := Distribute(alloc, spec)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	tasks := assign[report.KindAnalyst]
	// analyst instances plus one chart subtask
	if len(tasks) != alloc.Counts[report.KindAnalyst]+1 {
		t.Fatalf("expected %d analyst subtasks, got %d",
			alloc.Counts[report.KindAnalyst]+1, len(tasks))
	}
	last := tasks[len(tasks)-1]
	if last.Focus != "visualizations" {
		t.Errorf("expected final subtask focus visualizations, got %q", last.Focus)
	}
	// max(2, 50/10) = 5 charts
	if !strings.Contains(last.Description, "5") {
		t.Errorf("expected 5 charts in description, got %q", last.Description)
	}
}

func TestDistributeEveryRequiredKindCovered(t *testing.T) {
	spec := report.RequestSpec{
		Topic:           "Global stock exchanges",
		PageCount:       40,
		SourceCount:     0,
		Complexity:      report.ComplexityComplex,
		IncludeAnalysis: true,
	}
	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	assign, err := Distribute(alloc, spec)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	for _, k := range alloc.Required {
		if len(assign[k]) == 0 {
			t.Errorf("required kind %s has no subtasks", k)
		}
	}
}
