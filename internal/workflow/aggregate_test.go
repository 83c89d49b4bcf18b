package workflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/vikasvdk5/WestBay/internal/plan"
	"github.com/vikasvdk5/WestBay/internal/report"
	"github.com/vikasvdk5/WestBay/internal/session"
)

func aggregatingState(t *testing.T, spec report.RequestSpec) *session.State {
	t.Helper()
	st := session.New("agg-1", spec)

	alloc, err := plan.Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	assign, err := plan.Distribute(alloc, spec)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if err := st.SetPlan(plan.BuildSections(spec), alloc.Required, assign); err != nil {
		t.Fatalf("set plan: %v", err)
	}
	return st
}

func narratorResult(st *session.State) report.Result {
	content := make(map[string]string, len(st.Sections))
	for _, sec := range st.Sections {
		content[sec.ID] = "Baseline narrative for " + sec.Title + "."
	}
	return report.Result{
		Kind:           report.KindNarrator,
		Status:         report.StatusOK,
		SectionContent: content,
	}
}

func TestAggregateRequiresNarrator(t *testing.T) {
	st := aggregatingState(t, report.RequestSpec{
		Topic: "Lithium mining", PageCount: 5, SourceCount: 3, Complexity: report.ComplexitySimple,
	})

	_, err := Aggregate(st)
	if err == nil {
		t.Fatal("expected error without a narrator result")
	}
	var aggErr *report.AggregationError
	if !errors.As(err, &aggErr) {
		t.Errorf("expected AggregationError, got %T", err)
	}
}

func TestAggregateRejectsEmptySectionBody(t *testing.T) {
	st := aggregatingState(t, report.RequestSpec{
		Topic: "Lithium mining", PageCount: 5, SourceCount: 3, Complexity: report.ComplexitySimple,
	})
	res := narratorResult(st)
	res.SectionContent["references"] = "   "
	st.MarkWorkerDone(report.KindNarrator, res)

	_, err := Aggregate(st)
	var aggErr *report.AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregationError, got %v", err)
	}
	if aggErr.SectionID != "references" {
		t.Errorf("expected failing section references, got %q", aggErr.SectionID)
	}
}

func TestAggregateEnrichmentsNeverReplaceBase(t *testing.T) {
	st := aggregatingState(t, report.RequestSpec{
		Topic:           "Battery technology market",
		PageCount:       20,
		SourceCount:     6,
		Complexity:      report.ComplexityMedium,
		IncludeAnalysis: true,
	})
	st.MarkWorkerDone(report.KindNarrator, narratorResult(st))
	st.MarkWorkerDone(report.KindDataCollector, report.Result{
		Kind:   report.KindDataCollector,
		Status: report.StatusOK,
		Findings: []report.Finding{
			{SectionID: "market_overview", Source: "web:1", Text: "Market grew 12% year over year."},
			{SectionID: "no_such_section", Source: "web:2", Text: "Orphaned finding."},
		},
	})
	st.MarkWorkerDone(report.KindAnalyst, report.Result{
		Kind:      report.KindAnalyst,
		Status:    report.StatusOK,
		Insights:  []string{"Demand outpaces supply."},
		Artifacts: []string{"chart://agg-1/demand"},
	})

	artifact, err := Aggregate(st)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	byID := make(map[string]report.SectionContent)
	for _, sec := range artifact.Sections {
		byID[sec.ID] = sec
	}

	overview := byID["market_overview"]
	if !strings.HasPrefix(overview.Body, "Baseline narrative") {
		t.Errorf("base narrative was replaced: %q", overview.Body)
	}
	if len(overview.Enrichments) != 1 || overview.Enrichments[0].Text != "Market grew 12% year over year." {
		t.Errorf("finding not overlaid on market_overview: %v", overview.Enrichments)
	}

	// orphaned finding lands on key_findings
	found := false
	for _, e := range byID["key_findings"].Enrichments {
		if e.Text == "Orphaned finding." {
			found = true
		}
	}
	if !found {
		t.Error("finding with unknown section should fall back to key_findings")
	}

	insights := byID["analysis_insights"]
	hasInsight, hasAssets := false, false
	for _, e := range insights.Enrichments {
		if e.Text == "Demand outpaces supply." {
			hasInsight = true
		}
		if len(e.Assets) == 1 && e.Assets[0] == "chart://agg-1/demand" {
			hasAssets = true
		}
	}
	if !hasInsight || !hasAssets {
		t.Errorf("analyst output not overlaid: %v", insights.Enrichments)
	}

	if artifact.WordCount == 0 {
		t.Error("expected a non-zero word count")
	}
	if artifact.Topic != st.Spec.Topic {
		t.Errorf("artifact topic %q, want %q", artifact.Topic, st.Spec.Topic)
	}
}
