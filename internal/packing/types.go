package packing

import "fmt"

// Pattern selects the lattice used to place circles.
type Pattern string

const (
	PatternRectangular Pattern = "rectangular"
	PatternTriangular  Pattern = "triangular"
)

// Mode selects whether circles keep their minimum spacing or are stretched to the panel edges.
type Mode string

const (
	ModeTight  Mode = "tight"
	ModeSpread Mode = "spread"
)

// DefaultAngle is the lattice angle of hexagonal close packing, in degrees.
const DefaultAngle = 60.0

// Inputs are the four numbers every packing is computed from. Units are
// arbitrary but shared (the UI works in millimetres).
type Inputs struct {
	Diameter  float64 `json:"diameter" yaml:"diameter" toml:"diameter"`
	Clearance float64 `json:"clearance" yaml:"clearance" toml:"clearance"`
	Width     float64 `json:"width" yaml:"width" toml:"width"`
	Height    float64 `json:"height" yaml:"height" toml:"height"`
}

// Pitch is the minimum centre-to-centre distance between two circles.
func (in Inputs) Pitch() float64 {
	return in.Diameter + in.Clearance
}

// Position is a circle centre. The origin is the top-left panel corner, y grows downwards.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is a computed layout. Pointer fields are only set for the
// pattern that produces them and are omitted from JSON otherwise.
type Result struct {
	Circles             []Position `json:"circles"`
	ActualWidth         float64    `json:"actualWidth"`
	ActualHeight        float64    `json:"actualHeight"`
	HorizontalClearance float64    `json:"horizontalClearance"`
	DiagonalClearance   *float64   `json:"diagonalClearance,omitempty"`
	VerticalClearance   *float64   `json:"verticalClearance,omitempty"`
	Count               int        `json:"count"`
	Pattern             Pattern    `json:"pattern"`
	Angle               *float64   `json:"angle,omitempty"`
	NumRows             int        `json:"numRows"`
	CirclesPerRow       *int       `json:"circlesPerRow,omitempty"`
	EvenRowCount        *int       `json:"evenRowCount,omitempty"`
	OddRowCount         *int       `json:"oddRowCount,omitempty"`
	Spread              bool       `json:"spread"`
}

// Request is the two-axis layout configuration: a pattern, a mode, and for
// triangular layouts either a lattice angle or the angle optimizer.
// A nil Angle means DefaultAngle; any other value is clamped to [30°, 60°].
// The optimizer always produces spread layouts, so Optimize requires ModeSpread.
type Request struct {
	Inputs   Inputs   `json:"inputs"`
	Pattern  Pattern  `json:"pattern"`
	Mode     Mode     `json:"mode"`
	Angle    *float64 `json:"angle,omitempty"`
	Optimize bool     `json:"optimize,omitempty"`
}

// LatticeAngle returns the requested angle before clamping.
func (req Request) LatticeAngle() float64 {
	if req.Angle == nil {
		return DefaultAngle
	}
	return *req.Angle
}

// Engine describes the behaviour required from a circle packer.
type Engine interface {
	Rectangular(in Inputs, spread bool) (Result, error)
	Triangular(in Inputs, angle float64, spread bool, forcedRows int) (Result, error)
	OptimalAngle(in Inputs) (Result, error)
	Pack(req Request) (Result, error)
}

// ParsePattern converts a user supplied name into a Pattern.
func ParsePattern(raw string) (Pattern, error) {
	switch p := Pattern(raw); p {
	case PatternRectangular, PatternTriangular:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPattern, raw)
}

// ParseMode converts a user supplied name into a Mode. "full" is accepted as
// an alias of spread.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case string(ModeTight):
		return ModeTight, nil
	case string(ModeSpread), "full":
		return ModeSpread, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
