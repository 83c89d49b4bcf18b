package plan

import (
	"fmt"
	"strings"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// mandatorySections appear in every report. Dynamic sections are inserted
// between the introduction and the methodology.
var mandatorySections = []report.Section{
	{ID: "executive_summary", Title: "Executive Summary", Purpose: "concise overview of the whole report", Mandatory: true},
	{ID: "introduction", Title: "Introduction", Purpose: "scope, motivation and reading guide", Mandatory: true},
	{ID: "methodology", Title: "Methodology", Purpose: "how data was gathered and analyzed", Mandatory: true},
	{ID: "references", Title: "References", Purpose: "sources and citations", Mandatory: true},
}

// BuildSections derives the structural section list for a request during
// planning. The list is fixed before fan-out; workers tie their output to
// these section IDs. Deterministic for identical specs.
func BuildSections(spec report.RequestSpec) []report.Section {
	dynamic := []report.Section{
		{ID: "key_findings", Title: "Key Findings", Purpose: "the most important results of the research"},
	}

	topic := strings.ToLower(spec.Topic + " " + spec.DetailedRequirements)
	if strings.Contains(topic, "market") || strings.Contains(topic, "industry") {
		dynamic = append(dynamic, report.Section{
			ID: "market_overview", Title: "Market Overview",
			Purpose: fmt.Sprintf("current state and size of the %s market", spec.Topic),
		})
	}
	if strings.Contains(topic, "technology") || strings.Contains(topic, "innovation") {
		dynamic = append(dynamic, report.Section{
			ID: "technology_landscape", Title: "Technology Landscape",
			Purpose: "relevant technologies and where they are heading",
		})
	}
	if spec.IncludeAnalysis {
		dynamic = append(dynamic, report.Section{
			ID: "analysis_insights", Title: "Analysis & Insights",
			Purpose: "trends, interpretation and recommendations",
		})
	}

	sections := make([]report.Section, 0, len(mandatorySections)+len(dynamic))
	sections = append(sections, mandatorySections[0], mandatorySections[1])
	sections = append(sections, dynamic...)
	sections = append(sections, mandatorySections[2], mandatorySections[3])
	return sections
}
