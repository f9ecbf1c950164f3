package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Bar is one labelled bar
type Bar struct {
	Label string
	Value float64
}

// BarChart describes a single-color vertical bar chart
type BarChart struct {
	Title  string
	Width  int
	Height int
	Color  string
	// BarWidth is the fraction of each slot the bar fills, 0 < BarWidth <= 1
	BarWidth float64
	Bars     []Bar
}

// NumericBars labels bars by their x position
func NumericBars(xs, tops []float64) ([]Bar, error) {
	if len(xs) != len(tops) {
		return nil, fmt.Errorf("got %d x values and %d tops", len(xs), len(tops))
	}
	bars := make([]Bar, len(xs))
	for i := range xs {
		bars[i] = Bar{Label: strconv.FormatFloat(xs[i], 'g', -1, 64), Value: tops[i]}
	}
	return bars, nil
}

// RenderBars draws the chart as SVG
func RenderBars(bc BarChart) ([]byte, error) {
	if len(bc.Bars) == 0 {
		return nil, ErrNoPoints
	}

	color, err := ResolveColor(bc.Color)
	if err != nil {
		return nil, err
	}

	fraction := bc.BarWidth
	if fraction <= 0 || fraction > 1 {
		fraction = 0.5
	}
	// canvas width minus the default padding and y axis gutter
	slot := (bc.Width - 120) / len(bc.Bars)
	if slot < 2 {
		return nil, fmt.Errorf("chart width %d too small for %d bars", bc.Width, len(bc.Bars))
	}
	barWidth := int(float64(slot) * fraction)
	if barWidth < 1 {
		barWidth = 1
	}
	// go-chart substitutes its own default for a zero spacing
	spacing := slot - barWidth
	if spacing < 1 {
		spacing = 1
		barWidth = slot - 1
	}

	max := 0.0
	values := make([]chart.Value, len(bc.Bars))
	for i, b := range bc.Bars {
		if b.Value > max {
			max = b.Value
		}
		values[i] = chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
				StrokeWidth: 1,
			},
		}
	}
	if max <= 0 {
		max = 1
	}

	graph := chart.BarChart{
		Title:  bc.Title,
		Width:  bc.Width,
		Height: bc.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: max * 1.1},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}
