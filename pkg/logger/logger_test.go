package logger

import "testing"

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		input    string
		expected string
	}{
		{input: "debug", expected: "debug"},
		{input: "warn", expected: "warning"},
		{input: "error", expected: "error"},
		{input: "info", expected: "info"},
		{input: "verbose", expected: "info"},
		{input: "", expected: "info"},
	}

	for _, tt := range tests {
		SetLevel(tt.input)
		if got := Level(); got != tt.expected {
			t.Errorf("SetLevel(%q) then Level() = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
