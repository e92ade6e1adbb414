package packing

import (
	"fmt"
	"math"
)

const (
	minAngle = 30.0
	maxAngle = 60.0
)

// ClampAngle limits a lattice angle to the range where neither row
// neighbours nor offset neighbours overlap.
func ClampAngle(deg float64) float64 {
	return math.Min(maxAngle, math.Max(minAngle, deg))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// latticeCount is the number of circles of the given diameter that fit in
// extent when consecutive centres are pitch apart, never negative.
func latticeCount(extent, diameter, pitch float64) int {
	n := math.Floor((extent-diameter)/pitch) + 1
	if !(n > 0) {
		return 0
	}
	return int(n)
}

// spreadPitch is the centre distance that makes the first and last of n
// circles tangent to both edges of extent. One circle gets diameter/2.
func spreadPitch(extent, diameter float64, n int) float64 {
	if n > 1 {
		return (extent - diameter) / float64(n-1)
	}
	return diameter / 2
}

// boundingBox returns the size of the smallest axis-aligned box holding
// every disk. An empty layout has a zero box.
func boundingBox(circles []Position, diameter float64) (float64, float64) {
	if len(circles) == 0 {
		return 0, 0
	}
	r := diameter / 2
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range circles {
		minX = math.Min(minX, c.X-r)
		maxX = math.Max(maxX, c.X+r)
		minY = math.Min(minY, c.Y-r)
		maxY = math.Max(maxY, c.Y+r)
	}
	return maxX - minX, maxY - minY
}

// MinCenterDistance returns the smallest distance between any two circle
// centres, or +Inf when the layout has fewer than two circles.
func (r Result) MinCenterDistance() float64 {
	best := math.Inf(1)
	for i := 0; i < len(r.Circles); i++ {
		for j := i + 1; j < len(r.Circles); j++ {
			dx := r.Circles[i].X - r.Circles[j].X
			dy := r.Circles[i].Y - r.Circles[j].Y
			best = math.Min(best, math.Hypot(dx, dy))
		}
	}
	return best
}

// Validate reports the first out-of-range field as a *ConfigurationError.
// Panels smaller than one circle are valid and produce empty layouts.
func (in Inputs) Validate() error {
	fields := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"diameter", in.Diameter, true},
		{"clearance", in.Clearance, false},
		{"width", in.Width, true},
		{"height", in.Height, true},
	}
	for _, f := range fields {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			return &ConfigurationError{Field: f.name, Value: f.value, Reason: "must be a finite number"}
		case f.positive && f.value <= 0:
			return &ConfigurationError{Field: f.name, Value: f.value, Reason: "must be greater than zero"}
		case !f.positive && f.value < 0:
			return &ConfigurationError{Field: f.name, Value: f.value, Reason: "must not be negative"}
		}
	}
	return nil
}

// Validate checks the inputs and the pattern/mode combination.
func (req Request) Validate() error {
	if err := req.Inputs.Validate(); err != nil {
		return err
	}
	if _, err := ParsePattern(string(req.Pattern)); err != nil {
		return err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return err
	}
	if req.Optimize && req.Pattern != PatternTriangular {
		return ErrOptimizeRectangular
	}
	if req.Optimize && mode != ModeSpread {
		return ErrOptimizeTight
	}
	if angle := req.LatticeAngle(); math.IsNaN(angle) || math.IsInf(angle, 0) {
		return fmt.Errorf("%w: angle must be a finite number", ErrInvalidInputs)
	}
	return nil
}
