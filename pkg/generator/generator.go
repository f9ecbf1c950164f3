package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/analytics"
	"github.com/lirany1/test-metrics-charts/pkg/logger"
	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/lirany1/test-metrics-charts/pkg/transform"
)

// Fetcher loads raw timeseries tables; *metrics.Client satisfies it
type Fetcher interface {
	FetchTimeseries(ctx context.Context, q models.Query) (models.RawTable, error)
}

// History records fetched tables; *storage.Database satisfies it
type History interface {
	SaveSnapshot(q models.Query, columns models.RawTable, fetchedAt time.Time) (string, error)
}

// Generator turns a query into a styled, summarized report
type Generator struct {
	fetcher Fetcher
	history History
	styles  models.StyleTable
	now     func() time.Time
}

// NewGenerator creates a report generator. history may be nil.
func NewGenerator(fetcher Fetcher, styles models.StyleTable, history History) *Generator {
	return &Generator{
		fetcher: fetcher,
		history: history,
		styles:  styles,
		now:     time.Now,
	}
}

// Generate fetches the query's table, records it, and transforms it.
// Fetch and transform errors are returned unchanged in kind so callers can
// match them with errors.As.
func (g *Generator) Generate(ctx context.Context, q models.Query) (*models.Report, error) {
	startTime := g.now()

	raw, err := g.fetcher.FetchTimeseries(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", q, err)
	}

	report := &models.Report{
		Query:     q,
		FetchedAt: startTime,
	}

	// history is best effort and never fails the request
	if g.history != nil {
		id, err := g.history.SaveSnapshot(q, raw, startTime)
		if err != nil {
			logger.Warnf("Failed to save snapshot: %v", err)
		} else {
			report.SnapshotID = id
		}
	}

	series, err := transform.Transform(raw, g.styles)
	if err != nil {
		return nil, fmt.Errorf("failed to transform %s: %w", q, err)
	}

	report.Series = series
	report.Summary = analytics.Summarize(series)

	logger.Debugf("Generated report for %s with %d series in %v", q, len(series), g.now().Sub(startTime))
	return report, nil
}
