package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// SourceDoc is one document returned by a fetcher.
type SourceDoc struct {
	Source  string
	Excerpt string
}

// Fetcher is the collector's external collaborator: given a research query
// it returns up to limit source documents.
type Fetcher interface {
	Fetch(ctx context.Context, query string, limit int) ([]SourceDoc, error)
}

// OfflineFetcher synthesizes findings from the query alone, without any
// network access. It stands in wherever a scraping backend is not wired.
type OfflineFetcher struct{}

func (OfflineFetcher) Fetch(_ context.Context, query string, limit int) ([]SourceDoc, error) {
	if limit < 1 {
		limit = 1
	}
	docs := make([]SourceDoc, 0, limit)
	for i := 0; i < limit; i++ {
		docs = append(docs, SourceDoc{
			Source:  fmt.Sprintf("offline:%s/%d", slugify(query), i+1),
			Excerpt: fmt.Sprintf("Reference material %d on %s.", i+1, query),
		})
	}
	return docs, nil
}

// Collector gathers facts from web sources, one fetch per assigned
// subtask. A failing fetch degrades the result to partial; the session
// carries on either way.
type Collector struct {
	fetch Fetcher
	retry RetryPolicy
}

func NewCollector(fetch Fetcher, retry RetryPolicy) *Collector {
	return &Collector{fetch: fetch, retry: retry}
}

func (c *Collector) Kind() report.Kind { return report.KindDataCollector }

func (c *Collector) Execute(ctx context.Context, inv Invocation) (report.Result, error) {
	res := report.Result{
		Kind:    report.KindDataCollector,
		Status:  report.StatusOK,
		Metrics: map[string]float64{},
	}

	fetched := 0
	failed := 0
	for _, task := range inv.Subtasks {
		query := task.Focus
		if query == "" {
			query = inv.Spec.Topic
		}

		var docs []SourceDoc
		err := c.retry.Do(ctx, "source fetch", func(ctx context.Context) error {
			var fetchErr error
			docs, fetchErr = c.fetch.Fetch(ctx, query+" "+inv.Spec.Topic, max(task.SourceShare, 1))
			return fetchErr
		})
		if err != nil {
			failed++
			res.Errors = append(res.Errors, err.Error())
			continue
		}

		sectionID := matchSection(inv.Sections, firstWord(task.Focus))
		for _, doc := range docs {
			res.Findings = append(res.Findings, report.Finding{
				SectionID: sectionID,
				Source:    doc.Source,
				Text:      doc.Excerpt,
			})
			fetched++
		}
	}

	switch {
	case failed == len(inv.Subtasks) && len(inv.Subtasks) > 0:
		return report.Result{}, fmt.Errorf("all %d collection subtasks failed", failed)
	case failed > 0:
		res.Status = report.StatusPartial
	}

	res.Summary = fmt.Sprintf("collected %d findings across %d subtasks (%d failed)", fetched, len(inv.Subtasks), failed)
	res.Metrics["sources_fetched"] = float64(fetched)
	res.Metrics["subtasks_failed"] = float64(failed)
	return res, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
