package renderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"github.com/lirany1/test-metrics-charts/pkg/logger"
	"github.com/lirany1/test-metrics-charts/pkg/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// screenDPI converts pixel sizes into plot lengths
const screenDPI = 96

// PNGRenderer draws series as a PNG line chart
type PNGRenderer struct {
	width  int
	height int
}

// NewPNGRenderer creates a PNG renderer with the given size in pixels
func NewPNGRenderer(width, height int) *PNGRenderer {
	return &PNGRenderer{width: width, height: height}
}

// ContentType returns the MIME type of the rendered output
func (r *PNGRenderer) ContentType() string {
	return "image/png"
}

// RenderSeries draws one line per series against a date axis
func (r *PNGRenderer) RenderSeries(title string, series []models.CategorySeries) ([]byte, error) {
	if err := checkPoints(series); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "date"
	p.Y.Label.Text = "count"
	p.Y.Min = 0
	p.X.Tick.Marker = plot.TimeTicks{Format: models.DateLayout}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for _, s := range series {
		c, err := ResolveColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}

		xys := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			xys[i].X = float64(pt.Date.Unix())
			xys[i].Y = pt.Count
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			logger.Errorf("Can't create line for %s; error=%v", s.Label, err)
			return nil, err
		}
		line.LineStyle.Color = color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		line.LineStyle.Width = vg.Points(2)
		for _, d := range dashArray(s.LineStyle) {
			line.LineStyle.Dashes = append(line.LineStyle.Dashes, vg.Points(d))
		}

		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	return writePNG(p, r.width, r.height)
}

// RenderStaticPlot draws a single default-styled line through the points
// in the given order
func RenderStaticPlot(xs, ys []float64, width, height int) ([]byte, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("got %d x values and %d y values", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, ErrNoPoints
	}

	xys := make(plotter.XYs, len(xs))
	for i := range xs {
		xys[i].X = xs[i]
		xys[i].Y = ys[i]
	}

	p := plot.New()
	line, err := plotter.NewLine(xys)
	if err != nil {
		logger.Errorf("Can't create static plot line; error=%v", err)
		return nil, err
	}
	line.LineStyle.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(line)

	return writePNG(p, width, height)
}

// ImageTag wraps PNG bytes in an inline <img> element
func ImageTag(png []byte) string {
	return fmt.Sprintf(`<img src="data:image/png;base64,%s">`, base64.StdEncoding.EncodeToString(png))
}

func writePNG(p *plot.Plot, width, height int) ([]byte, error) {
	w := vg.Length(width) * vg.Inch / screenDPI
	h := vg.Length(height) * vg.Inch / screenDPI

	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write png: %w", err)
	}
	return buf.Bytes(), nil
}
