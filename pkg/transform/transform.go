package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/models"
)

// MalformedTableError reports a table whose shape can't be charted
type MalformedTableError struct {
	Row    int
	Reason string
}

func (e *MalformedTableError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("malformed table: %s", e.Reason)
	}
	return fmt.Sprintf("malformed table: row %d: %s", e.Row, e.Reason)
}

// ParseError reports a date or count cell that doesn't parse
type ParseError struct {
	Row    int
	Column int
	Kind   string // "date" or "count"
	Value  interface{}
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d column %d: invalid %s %v: %v", e.Row, e.Column, e.Kind, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownCategoryError reports a status label missing from the style table
type UnknownCategoryError struct {
	Label string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Label)
}

// Transform turns a raw metrics table into one styled series per status
// row, preserving row order. Any bad cell or unknown label fails the whole
// table.
func Transform(raw models.RawTable, styles models.StyleTable) ([]models.CategorySeries, error) {
	if err := checkShape(raw); err != nil {
		return nil, err
	}

	dates, err := parseDates(raw[0])
	if err != nil {
		return nil, err
	}

	series := make([]models.CategorySeries, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]
		label := row[0].(string)

		style, ok := styles.Lookup(label)
		if !ok {
			return nil, &UnknownCategoryError{Label: label}
		}

		points := make([]models.Point, len(dates))
		for j, date := range dates {
			count, err := ParseCount(row[j+1])
			if err != nil {
				return nil, &ParseError{Row: i, Column: j + 1, Kind: "count", Value: row[j+1], Err: err}
			}
			points[j] = models.Point{Date: date, Count: count}
		}

		series = append(series, models.CategorySeries{
			Label:     label,
			Points:    points,
			Color:     style.Color,
			LineStyle: style.LineStyle,
		})
	}

	return series, nil
}

func checkShape(raw models.RawTable) error {
	if len(raw) < 2 {
		return &MalformedTableError{Row: -1, Reason: fmt.Sprintf("need a header row and at least one data row, got %d rows", len(raw))}
	}
	width := len(raw[0])
	if width == 0 {
		return &MalformedTableError{Row: 0, Reason: "empty header row"}
	}
	for i := 1; i < len(raw); i++ {
		if len(raw[i]) != width {
			return &MalformedTableError{Row: i, Reason: fmt.Sprintf("has %d cells, header has %d", len(raw[i]), width)}
		}
		if _, ok := raw[i][0].(string); !ok {
			return &MalformedTableError{Row: i, Reason: fmt.Sprintf("label %v is not a string", raw[i][0])}
		}
	}
	return nil
}

// parseDates skips the header label and parses the remaining cells
func parseDates(header []interface{}) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(header)-1)
	for j := 1; j < len(header); j++ {
		s, ok := header[j].(string)
		if !ok {
			return nil, &ParseError{Row: 0, Column: j, Kind: "date", Value: header[j], Err: fmt.Errorf("not a string")}
		}
		d, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return nil, &ParseError{Row: 0, Column: j, Kind: "date", Value: s, Err: err}
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ParseCount coerces a decoded JSON cell into a finite count
func ParseCount(v interface{}) (float64, error) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, err
		}
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, err
		}
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}
