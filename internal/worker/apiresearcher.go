package worker

import (
	"context"
	"fmt"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// APIData is one dataset returned by an external API collaborator.
type APIData struct {
	Source string
	Points []string
}

// APIClient queries an external data API for one dataset family.
type APIClient interface {
	Query(ctx context.Context, dataset, topic string, credentials map[string]string) (APIData, error)
}

// CredentialSource resolves the secrets a client presents to an API.
// Backed by the vault in production wiring; nil means anonymous access.
type CredentialSource interface {
	Credentials(service string) (map[string]string, error)
}

// OfflineAPIClient fabricates dataset points deterministically, standing in
// for live market-data providers.
type OfflineAPIClient struct{}

func (OfflineAPIClient) Query(_ context.Context, dataset, topic string, _ map[string]string) (APIData, error) {
	return APIData{
		Source: fmt.Sprintf("api:%s", slugify(dataset)),
		Points: []string{
			fmt.Sprintf("Indicator series for %s relating to %s.", dataset, topic),
			fmt.Sprintf("Aggregate figures for %s over the trailing period.", dataset),
		},
	}, nil
}

// APIResearcher pulls market and financial figures through external APIs,
// one dataset family per assigned subtask.
type APIResearcher struct {
	client APIClient
	creds  CredentialSource
	retry  RetryPolicy
}

func NewAPIResearcher(client APIClient, creds CredentialSource, retry RetryPolicy) *APIResearcher {
	return &APIResearcher{client: client, creds: creds, retry: retry}
}

func (a *APIResearcher) Kind() report.Kind { return report.KindAPIResearcher }

func (a *APIResearcher) Execute(ctx context.Context, inv Invocation) (report.Result, error) {
	res := report.Result{
		Kind:    report.KindAPIResearcher,
		Status:  report.StatusOK,
		Metrics: map[string]float64{},
	}

	var credentials map[string]string
	if a.creds != nil {
		var err error
		credentials, err = a.creds.Credentials("market-data")
		if err != nil {
			return report.Result{}, fmt.Errorf("resolve api credentials: %w", err)
		}
	}

	queried := 0
	failed := 0
	for _, task := range inv.Subtasks {
		var data APIData
		err := a.retry.Do(ctx, "data api", func(ctx context.Context) error {
			var queryErr error
			data, queryErr = a.client.Query(ctx, task.Focus, inv.Spec.Topic, credentials)
			return queryErr
		})
		if err != nil {
			failed++
			res.Errors = append(res.Errors, err.Error())
			continue
		}

		sectionID := matchSection(inv.Sections, "market", "findings")
		for _, point := range data.Points {
			res.Findings = append(res.Findings, report.Finding{
				SectionID: sectionID,
				Source:    data.Source,
				Text:      point,
			})
		}
		queried++
	}

	switch {
	case failed == len(inv.Subtasks) && len(inv.Subtasks) > 0:
		return report.Result{}, fmt.Errorf("all %d API subtasks failed", failed)
	case failed > 0:
		res.Status = report.StatusPartial
	}

	res.Summary = fmt.Sprintf("queried %d dataset families (%d failed)", queried, failed)
	res.Metrics["datasets_queried"] = float64(queried)
	return res, nil
}
