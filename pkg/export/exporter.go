package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/lirany1/test-metrics-charts/pkg/pages"
	"github.com/lirany1/test-metrics-charts/pkg/renderer"
)

// Formats lists the supported export formats
var Formats = []string{"html", "svg", "png", "json", "xlsx"}

// Exporter writes a report to disk in various formats
type Exporter struct {
	title string
	svg   renderer.SeriesRenderer
	png   renderer.SeriesRenderer
	pages *pages.Renderer
}

// NewExporter creates a new exporter
func NewExporter(title string, svg, png renderer.SeriesRenderer, pageRenderer *pages.Renderer) *Exporter {
	return &Exporter{
		title: title,
		svg:   svg,
		png:   png,
		pages: pageRenderer,
	}
}

// Export writes the report in the given format and returns the file path
func (e *Exporter) Export(report *models.Report, outputDir, format string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, "timeseries."+format)

	var data []byte
	var err error
	switch format {
	case "html":
		data, err = e.exportHTML(report)
	case "svg":
		data, err = e.svg.RenderSeries(e.title, report.Series)
	case "png":
		data, err = e.png.RenderSeries(e.title, report.Series)
	case "json":
		data, err = json.MarshalIndent(report, "", "  ")
	case "xlsx":
		data, err = workbook(e.title, report)
	default:
		return "", fmt.Errorf("unsupported export format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (e *Exporter) exportHTML(report *models.Report) ([]byte, error) {
	svg, err := e.svg.RenderSeries(e.title, report.Series)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := e.pages.Render(&buf, "chart.html", pages.TimeseriesPage(e.title, report, svg)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
