package analytics

import (
	"strings"

	"github.com/lirany1/test-metrics-charts/pkg/models"
)

// trendThreshold is the pass-rate change, in percentage points, that
// counts as a real movement
const trendThreshold = 5.0

// Summarize derives headline numbers from transformed series: latest
// counts, pass rate on the latest date, and the pass-rate trend between
// the first and latest date.
func Summarize(series []models.CategorySeries) *models.Summary {
	summary := &models.Summary{
		Latest: make([]models.CategoryCount, 0, len(series)),
		Trend:  "stable",
	}

	n := pointCount(series)
	if n == 0 {
		return summary
	}

	summary.LatestDate = series[0].Points[n-1].Date
	for _, s := range series {
		summary.Latest = append(summary.Latest, models.CategoryCount{
			Label: s.Label,
			Count: s.Points[n-1].Count,
		})
	}

	summary.PassRate = passRateAt(series, n-1)
	if n >= 2 {
		change := summary.PassRate - passRateAt(series, 0)
		if change > trendThreshold {
			summary.Trend = "improving"
		} else if change < -trendThreshold {
			summary.Trend = "degrading"
		}
	}

	return summary
}

// passRateAt computes passed/total at one date index. Without a total row
// the non-total categories are summed instead.
func passRateAt(series []models.CategorySeries, idx int) float64 {
	var passed, total, sum float64
	hasTotal := false

	for _, s := range series {
		count := s.Points[idx].Count
		switch strings.ToLower(s.Label) {
		case "passed":
			passed += count
			sum += count
		case "total":
			total = count
			hasTotal = true
		default:
			sum += count
		}
	}

	if !hasTotal {
		total = sum
	}
	return CalculateSuccessRate(passed, total)
}

// pointCount returns the shared number of points, 0 if series are empty
// or disagree
func pointCount(series []models.CategorySeries) int {
	if len(series) == 0 {
		return 0
	}
	n := len(series[0].Points)
	for _, s := range series[1:] {
		if len(s.Points) != n {
			return 0
		}
	}
	return n
}

// CalculateSuccessRate calculates the success rate percentage
func CalculateSuccessRate(passed, total float64) float64 {
	if total == 0 {
		return 0.0
	}
	return passed / total * 100.0
}
