package plan

import (
	"reflect"
	"testing"

	"github.com/vikasvdk5/WestBay/internal/report"
)

func simpleSpec() report.RequestSpec {
	return report.RequestSpec{
		Topic:       "Renewable Energy Adoption",
		PageCount:   10,
		SourceCount: 5,
		Complexity:  report.ComplexitySimple,
	}
}

func TestAllocateSimple(t *testing.T) {
	alloc, err := Allocate(simpleSpec())
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	// multiplier 1.0 -> 5 sources per collector -> ceil(5/5) = 1
	if got := alloc.Counts[report.KindDataCollector]; got != 1 {
		t.Errorf("expected 1 collector, got %d", got)
	}
	if alloc.SourcesPerCollector != 5 {
		t.Errorf("expected 5 sources per collector, got %d", alloc.SourcesPerCollector)
	}
	if got := alloc.Counts[report.KindAPIResearcher]; got != 0 {
		t.Errorf("expected 0 api researchers, got %d", got)
	}
	if got := alloc.Counts[report.KindAnalyst]; got != 0 {
		t.Errorf("expected 0 analysts without analysis, got %d", got)
	}
	if got := alloc.Counts[report.KindNarrator]; got != 1 {
		t.Errorf("expected 1 narrator, got %d", got)
	}

	want := []report.Kind{report.KindDataCollector, report.KindNarrator}
	if !reflect.DeepEqual(alloc.Required, want) {
		t.Errorf("expected required %v, got %v", want, alloc.Required)
	}
}

func TestAllocateComplex(t *testing.T) {
	spec := report.RequestSpec{
		Topic:                 "Cryptocurrency Market Trends",
		PageCount:             50,
		SourceCount:           25,
		Complexity:            report.ComplexityComplex,
		IncludeAnalysis:       true,
		IncludeVisualizations: true,
	}

	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	// multiplier 2.0 -> int(5/2.0) = 2, floored to min 3 -> ceil(25/3) = 9
	if alloc.SourcesPerCollector != 3 {
		t.Errorf("expected 3 sources per collector, got %d", alloc.SourcesPerCollector)
	}
	if got := alloc.Counts[report.KindDataCollector]; got != 9 {
		t.Errorf("expected 9 collectors, got %d", got)
	}
	// "cryptocurrency" contains "crypto" and the topic mentions "market"
	if got := alloc.Counts[report.KindAPIResearcher]; got != 2 {
		t.Errorf("expected 2 api researchers at complex, got %d", got)
	}
	// max(1, 50/20) = 2
	if got := alloc.Counts[report.KindAnalyst]; got != 2 {
		t.Errorf("expected 2 analysts, got %d", got)
	}
	if got := alloc.Counts[report.KindNarrator]; got != 1 {
		t.Errorf("expected 1 narrator, got %d", got)
	}

	for _, k := range alloc.Required {
		if alloc.Reasoning[k] == "" {
			t.Errorf("missing reasoning for %s", k)
		}
	}
	if len(alloc.Summary) == 0 {
		t.Error("expected a non-empty decision summary")
	}
}

func TestAllocateDeterministic(t *testing.T) {
	spec := report.RequestSpec{
		Topic:           "Stock market outlook",
		PageCount:       30,
		SourceCount:     12,
		Complexity:      report.ComplexityMedium,
		IncludeAnalysis: true,
	}

	first, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Allocate(spec)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if !reflect.DeepEqual(first.Counts, again.Counts) {
			t.Fatalf("counts changed between runs: %v vs %v", first.Counts, again.Counts)
		}
		if !reflect.DeepEqual(first.Reasoning, again.Reasoning) {
			t.Fatal("reasoning changed between runs")
		}
		if !reflect.DeepEqual(first.Required, again.Required) {
			t.Fatal("required set changed between runs")
		}
	}
}

func TestAllocateAPIResearchersGatedByComplexity(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Financial technology market",
		PageCount:   5,
		SourceCount: 4,
		Complexity:  report.ComplexitySimple,
	}
	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := alloc.Counts[report.KindAPIResearcher]; got != 0 {
		t.Errorf("simple complexity must not add api researchers, got %d", got)
	}

	spec.Complexity = report.ComplexityMedium
	alloc, err = Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := alloc.Counts[report.KindAPIResearcher]; got != 1 {
		t.Errorf("expected 1 api researcher at medium, got %d", got)
	}
}

func TestAllocateKeywordInRequirements(t *testing.T) {
	spec := report.RequestSpec{
		Topic:                "Urban transit systems",
		DetailedRequirements: "Include economy-wide ridership statistics",
		PageCount:            20,
		SourceCount:          10,
		Complexity:           report.ComplexityComplex,
	}
	alloc, err := Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got := alloc.Counts[report.KindAPIResearcher]; got != 2 {
		t.Errorf("keyword in requirements should add api researchers, got %d", got)
	}
}

func TestAllocateRejectsInvalidSpec(t *testing.T) {
	cases := []struct {
		name string
		spec report.RequestSpec
	}{
		{"empty topic", report.RequestSpec{PageCount: 5, Complexity: report.ComplexitySimple}},
		{"zero pages", report.RequestSpec{Topic: "x", Complexity: report.ComplexitySimple}},
		{"negative sources", report.RequestSpec{Topic: "x", PageCount: 1, SourceCount: -1, Complexity: report.ComplexitySimple}},
		{"unknown complexity", report.RequestSpec{Topic: "x", PageCount: 1, Complexity: "extreme"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Allocate(tc.spec); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
