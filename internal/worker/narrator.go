package worker

import (
	"context"
	"fmt"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// Narrator is the always-required guarantee worker. Given only the
// structural section list and the request, it produces non-empty content
// for every section using its generator alone. Even if every data-gathering
// worker fails, the aggregator still has a complete report to assemble.
type Narrator struct {
	gen   Generator
	retry RetryPolicy
}

func NewNarrator(gen Generator, retry RetryPolicy) *Narrator {
	return &Narrator{gen: gen, retry: retry}
}

func (n *Narrator) Kind() report.Kind { return report.KindNarrator }

func (n *Narrator) Execute(ctx context.Context, inv Invocation) (report.Result, error) {
	if len(inv.Sections) == 0 {
		return report.Result{}, fmt.Errorf("no structural sections to narrate")
	}

	targetWords := 0
	for _, t := range inv.Subtasks {
		if t.TargetWords > targetWords {
			targetWords = t.TargetWords
		}
	}
	perSection := targetWords / len(inv.Sections)

	content := make(map[string]string, len(inv.Sections))
	totalWords := 0
	for _, sec := range inv.Sections {
		req := GenRequest{
			Topic:        inv.Spec.Topic,
			Requirements: inv.Spec.DetailedRequirements,
			SectionTitle: sec.Title,
			Purpose:      sec.Purpose,
			TargetWords:  perSection,
		}

		var body string
		err := n.retry.Do(ctx, "generator", func(ctx context.Context) error {
			var genErr error
			body, genErr = n.gen.Generate(ctx, req)
			return genErr
		})
		if err != nil {
			return report.Result{}, fmt.Errorf("generate section %s: %w", sec.ID, err)
		}
		if body == "" {
			return report.Result{}, fmt.Errorf("generator returned empty content for section %s", sec.ID)
		}
		content[sec.ID] = body
		totalWords += wordCount(body)
	}

	return report.Result{
		Kind:           report.KindNarrator,
		Status:         report.StatusOK,
		Summary:        fmt.Sprintf("generated baseline narrative for %d sections (%d words)", len(inv.Sections), totalWords),
		SectionContent: content,
		Metrics: map[string]float64{
			"sections_generated": float64(len(inv.Sections)),
			"word_count":         float64(totalWords),
		},
	}, nil
}
