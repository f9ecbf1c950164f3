package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// MaxVisibleBars caps the placeholder bars drawn on a bars page
const MaxVisibleBars = 200

// Plot is one named chart embedded in a page. Markup is trusted renderer
// output (inline SVG or an <img> tag).
type Plot struct {
	Name   string
	Markup template.HTML
}

// Page is the data passed to chart.html
type Page struct {
	Title     string
	Query     *models.Query
	Plots     []Plot
	BarsCount int
	Summary   *models.Summary
}

// VisibleBars is how many placeholder bars the page draws
func (p Page) VisibleBars() int {
	if p.BarsCount > MaxVisibleBars {
		return MaxVisibleBars
	}
	return p.BarsCount
}

// Renderer executes page templates
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"seq": func(n int) []int {
			s := make([]int, n)
			for i := range s {
				s[i] = i + 1
			}
			return s
		},
		"formatDate": func(t time.Time) string {
			return t.Format(models.DateLayout)
		},
		"formatCount": func(c float64) string {
			return strconv.FormatFloat(c, 'f', -1, 64)
		},
		"formatRate": func(rate float64) string {
			return fmt.Sprintf("%.1f", rate)
		},
	}

	tmpl, err := template.New("pages").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the named template for page to w. The page is rendered
// into a buffer first so a template error never leaves half a document.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// SVGPlot wraps renderer SVG output for embedding
func SVGPlot(name string, svg []byte) Plot {
	return Plot{Name: name, Markup: template.HTML(svg)}
}

// TimeseriesPage builds the line chart page for a report
func TimeseriesPage(title string, report *models.Report, svg []byte) Page {
	return Page{
		Title:   title,
		Query:   &report.Query,
		Plots:   []Plot{SVGPlot("test_case_data", svg)},
		Summary: report.Summary,
	}
}
