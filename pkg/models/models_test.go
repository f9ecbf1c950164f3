package models

import (
	"testing"
	"time"
)

func TestParseLineStyle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LineStyle
		wantErr  bool
	}{
		{name: "solid", input: "solid", expected: LineSolid},
		{name: "dotdash", input: "dotdash", expected: LineDotDash},
		{name: "mixed case", input: " DotDash ", expected: LineDotDash},
		{name: "empty defaults to solid", input: "", expected: LineSolid},
		{name: "unknown", input: "dashed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseLineStyle(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLineStyle(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ParseLineStyle(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStyleTable_Lookup(t *testing.T) {
	table := DefaultStyleTable()

	tests := []struct {
		name     string
		label    string
		expected Style
		found    bool
	}{
		{name: "exact", label: "passed", expected: Style{"seagreen", LineSolid}, found: true},
		{name: "capitalised", label: "Passed", expected: Style{"seagreen", LineSolid}, found: true},
		{name: "upper with space", label: "NOT RUN", expected: Style{"lightblue", LineSolid}, found: true},
		{name: "total is dotdash", label: "Total", expected: Style{"black", LineDotDash}, found: true},
		{name: "unknown", label: "skipped", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := table.Lookup(tt.label)
			if ok != tt.found {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.label, ok, tt.found)
			}
			if result != tt.expected {
				t.Errorf("Lookup(%q) = %v, want %v", tt.label, result, tt.expected)
			}
		})
	}
}

func TestStyleTable_IsImmutable(t *testing.T) {
	entries := map[string]Style{"Passed": {Color: "seagreen", LineStyle: LineSolid}}
	table := NewStyleTable(entries)

	entries["Passed"] = Style{Color: "red"}
	entries["failed"] = Style{Color: "firebrick"}

	if s, _ := table.Lookup("passed"); s.Color != "seagreen" {
		t.Errorf("Lookup(passed).Color = %v, want seagreen", s.Color)
	}
	if _, ok := table.Lookup("failed"); ok {
		t.Error("table picked up an entry added after construction")
	}
}

func TestStyleTable_Merge(t *testing.T) {
	base := DefaultStyleTable()
	merged := base.Merge(map[string]Style{
		"Skipped": {Color: "gray", LineStyle: LineSolid},
		"passed":  {Color: "green", LineStyle: LineDotDash},
	})

	if merged.Len() != base.Len()+1 {
		t.Errorf("Len() = %v, want %v", merged.Len(), base.Len()+1)
	}
	if s, _ := merged.Lookup("passed"); s.Color != "green" {
		t.Errorf("merged passed color = %v, want green", s.Color)
	}
	if s, _ := base.Lookup("passed"); s.Color != "seagreen" {
		t.Errorf("base passed color = %v, want seagreen", s.Color)
	}
	if _, ok := merged.Lookup("skipped"); !ok {
		t.Error("expected skipped in merged table")
	}
}

func TestStyleTable_Names(t *testing.T) {
	names := DefaultStyleTable().Names()
	expected := []string{"blocked", "failed", "in progress", "not run", "passed", "total"}

	if len(names) != len(expected) {
		t.Fatalf("Names() length = %v, want %v", len(names), len(expected))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Names()[%d] = %v, want %v", i, names[i], expected[i])
		}
	}
}

func TestCategorySeries_DatesAndCounts(t *testing.T) {
	d1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	s := &CategorySeries{Points: []Point{{d1, 3}, {d2, 5}}}

	dates := s.Dates()
	counts := s.Counts()
	if len(dates) != 2 || !dates[1].Equal(d2) {
		t.Errorf("Dates() = %v, want [%v %v]", dates, d1, d2)
	}
	if len(counts) != 2 || counts[0] != 3 || counts[1] != 5 {
		t.Errorf("Counts() = %v, want [3 5]", counts)
	}
}
