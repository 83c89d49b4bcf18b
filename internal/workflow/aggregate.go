package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/vikasvdk5/WestBay/internal/report"
	"github.com/vikasvdk5/WestBay/internal/session"
)

// Aggregate assembles the final artifact from the session's worker
// results. The narrator's narrative is the base of every section; other
// workers' findings, insights and assets are overlaid as enrichments and
// never replace base content. A missing or empty narrator section is the
// one unrecoverable condition.
func Aggregate(st *session.State) (*report.Artifact, error) {
	narr, ok := st.ResultFor(report.KindNarrator)
	if !ok {
		return nil, &report.AggregationError{Err: fmt.Errorf("narrator result missing")}
	}

	sections := make([]report.SectionContent, 0, len(st.Sections))
	for _, sec := range st.Sections {
		body := narr.SectionContent[sec.ID]
		if strings.TrimSpace(body) == "" {
			return nil, &report.AggregationError{
				SectionID: sec.ID,
				Err:       fmt.Errorf("no base narrative for section"),
			}
		}
		sections = append(sections, report.SectionContent{
			ID:    sec.ID,
			Title: sec.Title,
			Body:  body,
		})
	}

	overlay(sections, st)

	artifact := &report.Artifact{
		SessionID:   st.ID,
		Topic:       st.Spec.Topic,
		GeneratedAt: time.Now().UTC(),
		Sections:    sections,
	}
	for _, sec := range sections {
		artifact.WordCount += len(strings.Fields(sec.Body))
	}
	return artifact, nil
}

// overlay attaches collector and researcher findings to their target
// sections and analyst insights plus chart assets to the analysis section,
// falling back to key findings and then the first section.
func overlay(sections []report.SectionContent, st *session.State) {
	index := make(map[string]int, len(sections))
	for i, sec := range sections {
		index[sec.ID] = i
	}
	fallback := func(ids ...string) int {
		for _, id := range ids {
			if i, ok := index[id]; ok {
				return i
			}
		}
		return 0
	}

	for _, kind := range []report.Kind{report.KindDataCollector, report.KindAPIResearcher} {
		res, ok := st.ResultFor(kind)
		if !ok {
			continue
		}
		for _, f := range res.Findings {
			i, ok := index[f.SectionID]
			if !ok {
				i = fallback("key_findings")
			}
			sections[i].Enrichments = append(sections[i].Enrichments, report.Enrichment{
				Kind:   kind,
				Text:   f.Text,
				Source: f.Source,
			})
		}
	}

	if res, ok := st.ResultFor(report.KindAnalyst); ok {
		i := fallback("analysis_insights", "key_findings")
		for _, insight := range res.Insights {
			sections[i].Enrichments = append(sections[i].Enrichments, report.Enrichment{
				Kind: report.KindAnalyst,
				Text: insight,
			})
		}
		if len(res.Artifacts) > 0 {
			sections[i].Enrichments = append(sections[i].Enrichments, report.Enrichment{
				Kind:   report.KindAnalyst,
				Text:   fmt.Sprintf("%d visualizations produced", len(res.Artifacts)),
				Assets: append([]string(nil), res.Artifacts...),
			})
		}
	}
}
