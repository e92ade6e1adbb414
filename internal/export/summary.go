package export

import (
	"fmt"

	"github.com/eugenenazirov/circle-packer/internal/packing"
)

// Metric is one labelled line of the results panel.
type Metric struct {
	Label string
	Value string
}

// Summarize lists the figures shown next to a drawing: counts, per-row
// counts, clearances, pattern and bounding box.
func Summarize(s Sheet) []Metric {
	res := s.Result
	unit := s.unit()
	mm := func(v float64) string { return fmt.Sprintf("%.2f %s", v, unit) }

	metrics := []Metric{
		{"Number of circles", fmt.Sprint(res.Count)},
		{"Number of rows", fmt.Sprint(res.NumRows)},
	}

	switch res.Pattern {
	case packing.PatternTriangular:
		metrics = append(metrics, Metric{"Circles per row", fmt.Sprintf("%d (even rows) / %d (odd rows)", deref(res.EvenRowCount), deref(res.OddRowCount))})
		metrics = append(metrics, Metric{"Horizontal clearance", mm(res.HorizontalClearance)})
		if res.DiagonalClearance != nil {
			metrics = append(metrics, Metric{"Diagonal clearance", mm(*res.DiagonalClearance)})
		}
	case packing.PatternRectangular:
		metrics = append(metrics, Metric{"Circles per row", fmt.Sprint(deref(res.CirclesPerRow))})
		metrics = append(metrics, Metric{"Horizontal clearance", mm(res.HorizontalClearance)})
		if res.VerticalClearance != nil {
			metrics = append(metrics, Metric{"Vertical clearance", mm(*res.VerticalClearance)})
		}
	}

	pattern := string(res.Pattern)
	if res.Angle != nil {
		pattern = fmt.Sprintf("%s (%.1f°)", pattern, *res.Angle)
	}
	if res.Spread {
		pattern += ", spread"
	}
	metrics = append(metrics,
		Metric{"Pattern", pattern},
		Metric{"Bounding box width", mm(res.ActualWidth)},
		Metric{"Bounding box height", mm(res.ActualHeight)},
	)
	return metrics
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
