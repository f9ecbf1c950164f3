package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/models"
)

func series(label string, counts ...float64) models.CategorySeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := models.CategorySeries{Label: label}
	for i, c := range counts {
		s.Points = append(s.Points, models.Point{Date: start.AddDate(0, 0, i), Count: c})
	}
	return s
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		series       []models.CategorySeries
		wantPassRate float64
		wantTrend    string
	}{
		{
			name:         "improving with total row",
			series:       []models.CategorySeries{series("Passed", 2, 8), series("Failed", 8, 2), series("Total", 10, 10)},
			wantPassRate: 80,
			wantTrend:    "improving",
		},
		{
			name:         "degrading without total row",
			series:       []models.CategorySeries{series("passed", 9, 5), series("failed", 1, 5)},
			wantPassRate: 50,
			wantTrend:    "degrading",
		},
		{
			name:         "small change is stable",
			series:       []models.CategorySeries{series("passed", 50, 52), series("total", 100, 100)},
			wantPassRate: 52,
			wantTrend:    "stable",
		},
		{
			name:         "single date is stable",
			series:       []models.CategorySeries{series("passed", 3), series("failed", 1)},
			wantPassRate: 75,
			wantTrend:    "stable",
		},
		{
			name:         "zero total",
			series:       []models.CategorySeries{series("passed", 0, 0), series("total", 0, 0)},
			wantPassRate: 0,
			wantTrend:    "stable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(tt.series)
			if math.Abs(summary.PassRate-tt.wantPassRate) > 1e-9 {
				t.Errorf("PassRate = %v, want %v", summary.PassRate, tt.wantPassRate)
			}
			if summary.Trend != tt.wantTrend {
				t.Errorf("Trend = %v, want %v", summary.Trend, tt.wantTrend)
			}
			if len(summary.Latest) != len(tt.series) {
				t.Errorf("len(Latest) = %v, want %v", len(summary.Latest), len(tt.series))
			}
		})
	}
}

func TestSummarize_LatestCounts(t *testing.T) {
	summary := Summarize([]models.CategorySeries{series("passed", 1, 4, 7), series("blocked", 0, 1, 2)})

	want := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	if !summary.LatestDate.Equal(want) {
		t.Errorf("LatestDate = %v, want %v", summary.LatestDate, want)
	}
	if summary.Latest[0] != (models.CategoryCount{Label: "passed", Count: 7}) {
		t.Errorf("Latest[0] = %v", summary.Latest[0])
	}
	if summary.Latest[1] != (models.CategoryCount{Label: "blocked", Count: 2}) {
		t.Errorf("Latest[1] = %v", summary.Latest[1])
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	if !summary.LatestDate.IsZero() || len(summary.Latest) != 0 || summary.Trend != "stable" {
		t.Errorf("Summarize(nil) = %+v", summary)
	}

	summary = Summarize([]models.CategorySeries{{Label: "passed"}})
	if len(summary.Latest) != 0 {
		t.Errorf("Summarize(no points).Latest = %v", summary.Latest)
	}
}

func TestCalculateSuccessRate(t *testing.T) {
	if got := CalculateSuccessRate(3, 4); got != 75 {
		t.Errorf("CalculateSuccessRate(3, 4) = %v, want 75", got)
	}
	if got := CalculateSuccessRate(3, 0); got != 0 {
		t.Errorf("CalculateSuccessRate(3, 0) = %v, want 0", got)
	}
}
