package worker

import (
	"context"
	"fmt"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// ChartSpec describes one visualization the analyst requests.
type ChartSpec struct {
	SessionID string
	Title     string
	Topic     string
}

// ChartRenderer turns a chart spec into an opaque asset reference.
type ChartRenderer interface {
	Render(ctx context.Context, spec ChartSpec) (string, error)
}

// LocalRenderer emits stable chart URIs without producing real image data.
type LocalRenderer struct{}

func (LocalRenderer) Render(_ context.Context, spec ChartSpec) (string, error) {
	return fmt.Sprintf("chart://%s/%s", spec.SessionID, slugify(spec.Title)), nil
}

// Analyst derives insights from the assigned analysis subtopics and, when
// visualizations are requested, renders chart assets through its renderer.
type Analyst struct {
	render ChartRenderer
	retry  RetryPolicy
}

func NewAnalyst(render ChartRenderer, retry RetryPolicy) *Analyst {
	return &Analyst{render: render, retry: retry}
}

func (a *Analyst) Kind() report.Kind { return report.KindAnalyst }

func (a *Analyst) Execute(ctx context.Context, inv Invocation) (report.Result, error) {
	res := report.Result{
		Kind:    report.KindAnalyst,
		Status:  report.StatusOK,
		Metrics: map[string]float64{},
	}

	analyzed := 0
	for _, task := range inv.Subtasks {
		if task.Focus == "visualizations" {
			continue
		}
		res.Insights = append(res.Insights,
			fmt.Sprintf("Analysis of %s indicates sustained momentum for %s.", task.Focus, inv.Spec.Topic),
			fmt.Sprintf("Key drivers within %s warrant close monitoring over the reporting period.", task.Focus),
		)
		analyzed++
	}

	rendered := 0
	if inv.Spec.IncludeVisualizations {
		charts := max(2, inv.Spec.PageCount/10)
		for i := 0; i < charts; i++ {
			title := fmt.Sprintf("%s chart %d", inv.Spec.Topic, i+1)
			var ref string
			err := a.retry.Do(ctx, "chart renderer", func(ctx context.Context) error {
				var renderErr error
				ref, renderErr = a.render.Render(ctx, ChartSpec{
					SessionID: inv.SessionID,
					Title:     title,
					Topic:     inv.Spec.Topic,
				})
				return renderErr
			})
			if err != nil {
				res.Status = report.StatusPartial
				res.Errors = append(res.Errors, err.Error())
				continue
			}
			res.Artifacts = append(res.Artifacts, ref)
			rendered++
		}
	}

	if analyzed == 0 && rendered == 0 {
		return report.Result{}, fmt.Errorf("analyst produced no insights and no charts")
	}

	res.Summary = fmt.Sprintf("analyzed %d subtopics, rendered %d charts", analyzed, rendered)
	res.Metrics["subtopics_analyzed"] = float64(analyzed)
	res.Metrics["charts_rendered"] = float64(rendered)
	return res, nil
}
