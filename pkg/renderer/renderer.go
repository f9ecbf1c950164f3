package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/models"
	chart "github.com/wcharczuk/go-chart/v2"
)

// ErrNoPoints is returned when there is nothing to draw
var ErrNoPoints = errors.New("no data points to chart")

// SeriesRenderer draws styled category series into an output format
type SeriesRenderer interface {
	RenderSeries(title string, series []models.CategorySeries) ([]byte, error)
	ContentType() string
}

// SVGRenderer draws series as an inline SVG line chart
type SVGRenderer struct {
	width  int
	height int
}

// NewSVGRenderer creates an SVG renderer with the given size in pixels
func NewSVGRenderer(width, height int) *SVGRenderer {
	return &SVGRenderer{width: width, height: height}
}

// ContentType returns the MIME type of the rendered output
func (r *SVGRenderer) ContentType() string {
	return "image/svg+xml"
}

// RenderSeries draws one line per series on a shared date axis
func (r *SVGRenderer) RenderSeries(title string, series []models.CategorySeries) ([]byte, error) {
	if err := checkPoints(series); err != nil {
		return nil, err
	}

	chartSeries := make([]chart.Series, 0, len(series))
	for _, s := range series {
		color, err := ResolveColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		chartSeries = append(chartSeries, chart.TimeSeries{
			Name: s.Label,
			Style: chart.Style{
				StrokeColor:     color,
				StrokeWidth:     2,
				StrokeDashArray: dashArray(s.LineStyle),
			},
			XValues: s.Dates(),
			YValues: s.Counts(),
		})
	}

	first, last := dateBounds(series)
	if first.Equal(last) {
		first = first.Add(-12 * time.Hour)
		last = last.Add(12 * time.Hour)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  r.width,
		Height: r.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "date",
			ValueFormatter: chart.TimeValueFormatterWithFormat(models.DateLayout),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(first),
				Max: chart.TimeToFloat64(last),
			},
		},
		YAxis: chart.YAxis{
			Name: "count",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: countCeiling(series),
			},
		},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render line chart: %w", err)
	}
	return buf.Bytes(), nil
}

func checkPoints(series []models.CategorySeries) error {
	if len(series) == 0 {
		return ErrNoPoints
	}
	for _, s := range series {
		if len(s.Points) == 0 {
			return ErrNoPoints
		}
	}
	return nil
}

func dateBounds(series []models.CategorySeries) (time.Time, time.Time) {
	first := series[0].Points[0].Date
	last := first
	for _, s := range series {
		for _, p := range s.Points {
			if p.Date.Before(first) {
				first = p.Date
			}
			if p.Date.After(last) {
				last = p.Date
			}
		}
	}
	return first, last
}

// countCeiling leaves headroom above the largest count
func countCeiling(series []models.CategorySeries) float64 {
	max := 0.0
	for _, s := range series {
		for _, p := range s.Points {
			if p.Count > max {
				max = p.Count
			}
		}
	}
	if max <= 0 {
		return 1
	}
	return max * 1.1
}
