package packing

import (
	"fmt"
	"slices"
)

// Preset names one of the stock layouts offered by the UI.
type Preset string

const (
	PresetRectTight  Preset = "rect-tight"
	PresetRectFull   Preset = "rect-full"
	PresetTriTight   Preset = "tri-tight"
	PresetTriFull    Preset = "tri-full"
	PresetTriOptimal Preset = "tri-optimal"
)

var presets = map[Preset]Request{
	PresetRectTight:  {Pattern: PatternRectangular, Mode: ModeTight},
	PresetRectFull:   {Pattern: PatternRectangular, Mode: ModeSpread},
	PresetTriTight:   {Pattern: PatternTriangular, Mode: ModeTight},
	PresetTriFull:    {Pattern: PatternTriangular, Mode: ModeSpread},
	PresetTriOptimal: {Pattern: PatternTriangular, Mode: ModeSpread, Optimize: true},
}

// Presets lists the preset names in a stable order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for p := range presets {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ParsePreset converts a user supplied name into a Preset.
func ParsePreset(raw string) (Preset, error) {
	p := Preset(raw)
	if _, ok := presets[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, raw)
	}
	return p, nil
}

// Request builds the packing request the preset stands for.
func (p Preset) Request(in Inputs) Request {
	req := presets[p]
	req.Inputs = in
	if req.Pattern == PatternTriangular && !req.Optimize {
		req.Angle = floatPtr(DefaultAngle)
	}
	return req
}
