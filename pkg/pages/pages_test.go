package pages

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func TestRenderer_RenderPlots(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	page := Page{
		Title: "Test Cases",
		Query: &models.Query{Type: "timeseries", Release: "settlers", Build: "100", About: "status"},
		Plots: []Plot{SVGPlot("test_case_data", []byte(`<svg width="10" height="10"></svg>`))},
		Summary: &models.Summary{
			LatestDate: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
			Latest:     []models.CategoryCount{{Label: "passed", Count: 5}},
			PassRate:   83.333,
			Trend:      "improving",
		},
	}
	if err := r.Render(&buf, "chart.html", page); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<title>Test Cases</title>",
		`<svg width="10" height="10"></svg>`,
		`id="test_case_data"`,
		"release settlers, build 100",
		"Latest (2020-01-02)",
		"<td>5</td>",
		"83.3%",
		"trend-improving",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "bars_count") {
		t.Error("plot page should not render the bars section")
	}
}

func TestRenderer_RenderBarsCount(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		count    int
		wantBars int
	}{
		{count: 1, wantBars: 1},
		{count: 7, wantBars: 7},
		{count: 5000, wantBars: MaxVisibleBars},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := r.Render(&buf, "chart.html", Page{Title: "Bars", BarsCount: tt.count}); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		html := buf.String()
		if got := strings.Count(html, `<div class="bar"></div>`); got != tt.wantBars {
			t.Errorf("count %d: bars = %v, want %v", tt.count, got, tt.wantBars)
		}
		if !strings.Contains(html, `<span id="bars-count">`) {
			t.Errorf("count %d: missing bars-count", tt.count)
		}
	}
}

func TestRenderer_EscapesTitle(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.Render(&buf, "chart.html", Page{Title: "<script>x</script>"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), "<script>x</script>") {
		t.Error("title was not escaped")
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.Render(&buf, "missing.html", Page{}); err == nil {
		t.Error("Render(missing.html) expected error")
	}
	if buf.Len() != 0 {
		t.Error("failed render wrote output")
	}
}
