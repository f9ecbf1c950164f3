package renderer

import (
	"fmt"
	"strings"

	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/colornames"
)

// ResolveColor turns an SVG/CSS color name or #rrggbb value into a drawing color
func ResolveColor(name string) (drawing.Color, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := colornames.Map[key]; ok {
		return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	if strings.HasPrefix(key, "#") && len(key) == 7 && isHex(key[1:]) {
		return drawing.ColorFromHex(key[1:]), nil
	}
	return drawing.Color{}, fmt.Errorf("unknown color %q", name)
}

// ValidateStyles checks that every style in the table has a drawable color
func ValidateStyles(table models.StyleTable) error {
	for _, name := range table.Names() {
		style, _ := table.Lookup(name)
		if _, err := ResolveColor(style.Color); err != nil {
			return fmt.Errorf("style %q: %w", name, err)
		}
	}
	return nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// dashArray returns the stroke pattern for a line style, nil for solid
func dashArray(ls models.LineStyle) []float64 {
	if ls == models.LineDotDash {
		return []float64{2, 4, 6, 4}
	}
	return nil
}
