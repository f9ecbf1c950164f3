package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the layout of every date cell in a RawTable header row
const DateLayout = "2006-01-02"

// RawTable is the `data.columns` payload returned by the metrics API.
// Row 0 holds "date" followed by date strings, every other row holds a
// status name followed by one count per date.
type RawTable [][]interface{}

// Point is a single (date, count) sample
type Point struct {
	Date  time.Time `json:"date"`
	Count float64   `json:"count"`
}

// CategorySeries is one status category's counts over time plus its styling
type CategorySeries struct {
	Label     string    `json:"label"`
	Points    []Point   `json:"points"`
	Color     string    `json:"color"`
	LineStyle LineStyle `json:"lineStyle"`
}

// Dates returns the x values of the series
func (s *CategorySeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// Counts returns the y values of the series
func (s *CategorySeries) Counts() []float64 {
	counts := make([]float64, len(s.Points))
	for i, p := range s.Points {
		counts[i] = p.Count
	}
	return counts
}

// LineStyle is the dash pattern of a series line
type LineStyle string

const (
	LineSolid   LineStyle = "solid"
	LineDotDash LineStyle = "dotdash"
)

// ParseLineStyle validates a line style name
func ParseLineStyle(s string) (LineStyle, error) {
	switch LineStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", LineSolid:
		return LineSolid, nil
	case LineDotDash:
		return LineDotDash, nil
	default:
		return "", fmt.Errorf("unknown line style %q", s)
	}
}

// Style is the display style of a category
type Style struct {
	Color     string    `json:"color"`
	LineStyle LineStyle `json:"lineStyle"`
}

// StyleTable maps lower-cased category names to their style. It is
// immutable once built.
type StyleTable struct {
	entries map[string]Style
}

// DefaultStyles returns the built-in status styles
func DefaultStyles() map[string]Style {
	return map[string]Style{
		"passed":      {Color: "seagreen", LineStyle: LineSolid},
		"failed":      {Color: "firebrick", LineStyle: LineSolid},
		"blocked":     {Color: "orange", LineStyle: LineSolid},
		"not run":     {Color: "lightblue", LineStyle: LineSolid},
		"in progress": {Color: "orchid", LineStyle: LineSolid},
		"total":       {Color: "black", LineStyle: LineDotDash},
	}
}

// NewStyleTable builds a table from the given entries, lower-casing keys
func NewStyleTable(entries map[string]Style) StyleTable {
	t := StyleTable{entries: make(map[string]Style, len(entries))}
	for name, style := range entries {
		t.entries[strings.ToLower(name)] = style
	}
	return t
}

// DefaultStyleTable returns a table holding DefaultStyles
func DefaultStyleTable() StyleTable {
	return NewStyleTable(DefaultStyles())
}

// Lookup finds the style for a category name, ignoring case
func (t StyleTable) Lookup(name string) (Style, bool) {
	s, ok := t.entries[strings.ToLower(name)]
	return s, ok
}

// Merge returns a new table with overrides applied on top of t
func (t StyleTable) Merge(overrides map[string]Style) StyleTable {
	merged := make(map[string]Style, len(t.entries)+len(overrides))
	for k, v := range t.entries {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[strings.ToLower(k)] = v
	}
	return NewStyleTable(merged)
}

// Names returns the category names in sorted order
func (t StyleTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of categories
func (t StyleTable) Len() int {
	return len(t.entries)
}

// Query identifies one timeseries request against the metrics API
type Query struct {
	Type    string `json:"type"`
	Release string `json:"release"`
	Build   string `json:"build"`
	About   string `json:"about"`
}

// String renders the query for logs
func (q Query) String() string {
	return fmt.Sprintf("%s release=%s build=%s about=%s", q.Type, q.Release, q.Build, q.About)
}

// Summary holds headline numbers derived from a set of series
type Summary struct {
	LatestDate time.Time       `json:"latestDate"`
	Latest     []CategoryCount `json:"latest"`
	PassRate   float64         `json:"passRate"`
	Trend      string          `json:"trend"` // "improving", "degrading", "stable"
}

// CategoryCount is a category's count on a single date
type CategoryCount struct {
	Label string  `json:"label"`
	Count float64 `json:"count"`
}

// Report is one fetched and transformed timeseries, ready to render
type Report struct {
	Query      Query            `json:"query"`
	FetchedAt  time.Time        `json:"fetchedAt"`
	SnapshotID string           `json:"snapshotId,omitempty"`
	Series     []CategorySeries `json:"series"`
	Summary    *Summary         `json:"summary"`
}
