package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vikasvdk5/WestBay/internal/plan"
	"github.com/vikasvdk5/WestBay/internal/report"
)

var fastRetry = RetryPolicy{MaxAttempts: 2, Base: time.Millisecond, Max: 5 * time.Millisecond}

// invocationFor plans the request and returns the invocation one kind receives.
func invocationFor(t *testing.T, spec report.RequestSpec, kind report.Kind) Invocation {
	t.Helper()
	alloc, err := plan.Allocate(spec)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	assign, err := plan.Distribute(alloc, spec)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	return Invocation{
		SessionID: "w-1",
		Spec:      spec,
		Subtasks:  assign[kind],
		Sections:  plan.BuildSections(spec),
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	n := NewNarrator(LocalGenerator{}, fastRetry)
	if _, err := NewRegistry(n, n); err == nil {
		t.Error("expected error for duplicate kinds")
	}
}

func TestRegistryCovers(t *testing.T) {
	reg, err := NewRegistry(NewNarrator(LocalGenerator{}, fastRetry))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := reg.Covers([]report.Kind{report.KindNarrator}); err != nil {
		t.Errorf("narrator should be covered: %v", err)
	}
	if err := reg.Covers([]report.Kind{report.KindAnalyst}); err == nil {
		t.Error("expected error for uncovered kind")
	}
}

func TestNarratorFillsEverySection(t *testing.T) {
	spec := report.RequestSpec{
		Topic:           "Hydrogen fuel technology market",
		PageCount:       20,
		SourceCount:     5,
		Complexity:      report.ComplexityMedium,
		IncludeAnalysis: true,
	}
	inv := invocationFor(t, spec, report.KindNarrator)

	n := NewNarrator(LocalGenerator{}, fastRetry)
	res, err := n.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != report.StatusOK {
		t.Errorf("expected ok status, got %s", res.Status)
	}
	for _, sec := range inv.Sections {
		if res.SectionContent[sec.ID] == "" {
			t.Errorf("section %s has no content", sec.ID)
		}
	}
	if res.Metrics["word_count"] == 0 {
		t.Error("expected a word count metric")
	}
}

func TestNarratorErrorsWithoutSections(t *testing.T) {
	n := NewNarrator(LocalGenerator{}, fastRetry)
	_, err := n.Execute(context.Background(), Invocation{SessionID: "w-1"})
	if err == nil {
		t.Error("expected error with no sections")
	}
}

// flakyFetcher fails queries containing a marker substring.
type flakyFetcher struct {
	failOn string
}

func (f flakyFetcher) Fetch(_ context.Context, query string, limit int) ([]SourceDoc, error) {
	if f.failOn != "" && contains(query, f.failOn) {
		return nil, fmt.Errorf("connection reset")
	}
	return OfflineFetcher{}.Fetch(context.Background(), query, limit)
}

func contains(haystack, needle string) bool { return containsFold(haystack, needle) }

func TestCollectorHappyPath(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Rare earth supply",
		PageCount:   10,
		SourceCount: 7,
		Complexity:  report.ComplexitySimple,
	}
	inv := invocationFor(t, spec, report.KindDataCollector)

	c := NewCollector(OfflineFetcher{}, fastRetry)
	res, err := c.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != report.StatusOK {
		t.Errorf("expected ok, got %s", res.Status)
	}
	if len(res.Findings) == 0 {
		t.Fatal("expected findings")
	}
	for _, f := range res.Findings {
		if f.SectionID == "" || f.Source == "" || f.Text == "" {
			t.Errorf("incomplete finding: %+v", f)
		}
	}
}

func TestCollectorPartialOnFetchFailure(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Rare earth supply",
		PageCount:   10,
		SourceCount: 12,
		Complexity:  report.ComplexitySimple,
	}
	inv := invocationFor(t, spec, report.KindDataCollector)
	if len(inv.Subtasks) < 2 {
		t.Fatalf("test needs at least 2 subtasks, got %d", len(inv.Subtasks))
	}

	// the first aspect is "market size and growth trends"
	c := NewCollector(flakyFetcher{failOn: "market size"}, fastRetry)
	res, err := c.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != report.StatusPartial {
		t.Errorf("expected partial, got %s", res.Status)
	}
	if len(res.Errors) == 0 {
		t.Error("expected recorded subtask errors")
	}
	if len(res.Findings) == 0 {
		t.Error("surviving subtasks should still produce findings")
	}
}

func TestCollectorFailsWhenEverySubtaskFails(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Rare earth supply",
		PageCount:   10,
		SourceCount: 3,
		Complexity:  report.ComplexitySimple,
	}
	inv := invocationFor(t, spec, report.KindDataCollector)

	c := NewCollector(flakyFetcher{failOn: "rare earth"}, fastRetry)
	if _, err := c.Execute(context.Background(), inv); err == nil {
		t.Error("expected execution failure when every fetch fails")
	}
}

func TestAPIResearcherFindings(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Cryptocurrency Market Trends",
		PageCount:   20,
		SourceCount: 10,
		Complexity:  report.ComplexityComplex,
	}
	inv := invocationFor(t, spec, report.KindAPIResearcher)
	if len(inv.Subtasks) == 0 {
		t.Fatal("expected api researcher subtasks for a market topic")
	}

	a := NewAPIResearcher(OfflineAPIClient{}, nil, fastRetry)
	res, err := a.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Findings) == 0 {
		t.Fatal("expected findings from api datasets")
	}
	for _, f := range res.Findings {
		if f.SectionID != "market_overview" && f.SectionID != "key_findings" {
			t.Errorf("finding routed to unexpected section %s", f.SectionID)
		}
	}
}

type staticCreds map[string]string

func (c staticCreds) Credentials(string) (map[string]string, error) { return c, nil }

type recordingAPIClient struct {
	creds map[string]string
}

func (r *recordingAPIClient) Query(ctx context.Context, dataset, topic string, creds map[string]string) (APIData, error) {
	r.creds = creds
	return OfflineAPIClient{}.Query(ctx, dataset, topic, creds)
}

func TestAPIResearcherPassesCredentials(t *testing.T) {
	spec := report.RequestSpec{
		Topic:       "Stock index futures",
		PageCount:   10,
		SourceCount: 5,
		Complexity:  report.ComplexityMedium,
	}
	inv := invocationFor(t, spec, report.KindAPIResearcher)

	client := &recordingAPIClient{}
	a := NewAPIResearcher(client, staticCreds{"api_key": "k"}, fastRetry)
	if _, err := a.Execute(context.Background(), inv); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if client.creds["api_key"] != "k" {
		t.Errorf("credentials not passed through: %v", client.creds)
	}
}

func TestAnalystChartCount(t *testing.T) {
	spec := report.RequestSpec{
		Topic:                 "Server hardware market",
		PageCount:             50,
		SourceCount:           5,
		Complexity:            report.ComplexityMedium,
		IncludeAnalysis:       true,
		IncludeVisualizations: true,
	}
	inv := invocationFor(t, spec, report.KindAnalyst)

	a := NewAnalyst(LocalRenderer{}, fastRetry)
	res, err := a.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// max(2, 50/10) = 5
	if len(res.Artifacts) != 5 {
		t.Errorf("expected 5 chart references, got %d", len(res.Artifacts))
	}
	if len(res.Insights) == 0 {
		t.Error("expected insights from analysis subtasks")
	}
}

func TestAnalystMinimumTwoCharts(t *testing.T) {
	spec := report.RequestSpec{
		Topic:                 "Server hardware market",
		PageCount:             5,
		SourceCount:           5,
		Complexity:            report.ComplexitySimple,
		IncludeAnalysis:       true,
		IncludeVisualizations: true,
	}
	inv := invocationFor(t, spec, report.KindAnalyst)

	a := NewAnalyst(LocalRenderer{}, fastRetry)
	res, err := a.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("chart count must never drop below 2, got %d", len(res.Artifacts))
	}
}

func TestRetryEscalatesToExternalServiceError(t *testing.T) {
	calls := 0
	err := fastRetry.Do(context.Background(), "flaky api", func(ctx context.Context) error {
		calls++
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	var extErr *report.ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExternalServiceError, got %T", err)
	}
	if extErr.Service != "flaky api" || extErr.Attempts != fastRetry.MaxAttempts {
		t.Errorf("unexpected escalation detail: %+v", extErr)
	}
	if calls != fastRetry.MaxAttempts {
		t.Errorf("expected %d attempts, got %d", fastRetry.MaxAttempts, calls)
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := fastRetry.Do(context.Background(), "api", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxAttempts: 5, Base: time.Hour, Max: time.Hour}
	err := policy.Do(ctx, "api", func(ctx context.Context) error {
		return fmt.Errorf("always fails")
	})
	var extErr *report.ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
	if !errors.Is(extErr.Err, context.Canceled) {
		t.Errorf("expected context.Canceled cause, got %v", extErr.Err)
	}
}

func TestMatchSection(t *testing.T) {
	sections := []report.Section{
		{ID: "executive_summary", Title: "Executive Summary", Mandatory: true},
		{ID: "key_findings", Title: "Key Findings"},
		{ID: "market_overview", Title: "Market Overview"},
	}

	if got := matchSection(sections, "market"); got != "market_overview" {
		t.Errorf("hint match failed: %s", got)
	}
	if got := matchSection(sections, "nonexistent"); got != "key_findings" {
		t.Errorf("key findings fallback failed: %s", got)
	}
	onlyMandatory := []report.Section{{ID: "references", Title: "References", Mandatory: true}}
	if got := matchSection(onlyMandatory, "x"); got != "references" {
		t.Errorf("final fallback failed: %s", got)
	}
}
