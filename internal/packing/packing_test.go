package packing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

// referenceInputs are the defaults of the sizing form.
var referenceInputs = Inputs{Diameter: 33, Clearance: 1, Width: 600, Height: 120}

var propertyInputs = []Inputs{
	referenceInputs,
	{Diameter: 10, Clearance: 0, Width: 100, Height: 100},
	{Diameter: 8, Clearance: 2.5, Width: 250, Height: 97},
	{Diameter: 33, Clearance: 1, Width: 600, Height: 40},
	{Diameter: 5, Clearance: 5, Width: 12, Height: 300},
	{Diameter: 12.7, Clearance: 3.2, Width: 1220, Height: 610},
	{Diameter: 50, Clearance: 1, Width: 60, Height: 60},
}

func TestPackRectangular_TightReference(t *testing.T) {
	res := PackRectangular(referenceInputs, false)

	require.NotNil(t, res.CirclesPerRow)
	assert.Equal(t, 17, *res.CirclesPerRow)
	assert.Equal(t, 3, res.NumRows)
	assert.Equal(t, 51, res.Count)
	assert.Len(t, res.Circles, res.Count)
	assert.Equal(t, float64(17-1)*(33+1)+33, res.ActualWidth)
	assert.Equal(t, float64(3-1)*(33+1)+33, res.ActualHeight)
	assert.InDelta(t, 1.0, res.HorizontalClearance, eps)
	require.NotNil(t, res.VerticalClearance)
	assert.InDelta(t, 1.0, *res.VerticalClearance, eps)
	assert.Equal(t, PatternRectangular, res.Pattern)
	assert.False(t, res.Spread)
	assert.Nil(t, res.DiagonalClearance)
	assert.Nil(t, res.Angle)
	assert.Nil(t, res.EvenRowCount)
}

func TestPackRectangular_RowMajorOrder(t *testing.T) {
	res := PackRectangular(Inputs{Diameter: 10, Clearance: 2, Width: 34, Height: 22}, false)

	want := []Position{
		{X: 5, Y: 5}, {X: 17, Y: 5}, {X: 29, Y: 5},
		{X: 5, Y: 17}, {X: 17, Y: 17}, {X: 29, Y: 17},
	}
	assert.Equal(t, want, res.Circles)
}

func TestPackRectangular_SpreadTouchesEdges(t *testing.T) {
	in := referenceInputs
	res := PackRectangular(in, true)

	require.Equal(t, 51, res.Count)
	assert.Equal(t, in.Width, res.ActualWidth)
	assert.Equal(t, in.Height, res.ActualHeight)
	assert.True(t, res.Spread)

	first := res.Circles[0]
	last := res.Circles[len(res.Circles)-1]
	r := in.Diameter / 2
	assert.InDelta(t, r, first.X, eps)
	assert.InDelta(t, r, first.Y, eps)
	assert.InDelta(t, in.Width-r, last.X, eps)
	assert.InDelta(t, in.Height-r, last.Y, eps)

	assert.InDelta(t, 567.0/16-33, res.HorizontalClearance, eps)
	assert.InDelta(t, 87.0/2-33, *res.VerticalClearance, eps)
}

func TestPackRectangular_SpreadSingleRow(t *testing.T) {
	in := Inputs{Diameter: 33, Clearance: 1, Width: 600, Height: 40}
	res := PackRectangular(in, true)

	assert.Equal(t, 1, res.NumRows)
	assert.Equal(t, in.Height, res.ActualHeight)
	for _, c := range res.Circles {
		assert.False(t, math.IsNaN(c.X) || math.IsNaN(c.Y))
		assert.InDelta(t, 16.5, c.Y, eps)
	}
	assert.InDelta(t, in.Width-16.5, res.Circles[len(res.Circles)-1].X, eps)
}

func TestPackRectangular_SpreadSingleColumn(t *testing.T) {
	in := Inputs{Diameter: 33, Clearance: 1, Width: 50, Height: 120}
	res := PackRectangular(in, true)

	require.NotNil(t, res.CirclesPerRow)
	assert.Equal(t, 1, *res.CirclesPerRow)
	assert.Equal(t, 3, res.Count)
	for _, c := range res.Circles {
		assert.InDelta(t, 16.5, c.X, eps)
	}
}

func TestPack_PanelSmallerThanCircleIsEmpty(t *testing.T) {
	in := Inputs{Diameter: 33, Clearance: 1, Width: 20, Height: 120}

	for _, spread := range []bool{false, true} {
		rect := PackRectangular(in, spread)
		assert.Zero(t, rect.Count)
		assert.Empty(t, rect.Circles)
		assert.Zero(t, *rect.CirclesPerRow)

		tri := PackTriangular(in, 60, spread, 0)
		assert.Zero(t, tri.Count)
		assert.Empty(t, tri.Circles)
		assert.Zero(t, *tri.EvenRowCount)
		assert.Zero(t, *tri.OddRowCount)
	}

	tight := PackRectangular(in, false)
	assert.Zero(t, tight.ActualWidth)
	assert.Zero(t, tight.ActualHeight)
}

func TestPackTriangular_TightReference(t *testing.T) {
	res := PackTriangular(referenceInputs, 60, false, 0)

	rowHeight := 34 * math.Sin(math.Pi/3)
	assert.Equal(t, 3, res.NumRows)
	require.NotNil(t, res.EvenRowCount)
	require.NotNil(t, res.OddRowCount)
	assert.Equal(t, 17, *res.EvenRowCount)
	assert.Equal(t, 17, *res.OddRowCount)
	assert.Equal(t, 51, res.Count)
	assert.Len(t, res.Circles, 51)

	// The odd row is offset by half a pitch and is the widest.
	assert.InDelta(t, 16*34+17+33, res.ActualWidth, eps)
	assert.InDelta(t, 2*rowHeight+33, res.ActualHeight, eps)
	assert.InDelta(t, 1.0, res.HorizontalClearance, eps)
	require.NotNil(t, res.DiagonalClearance)
	assert.InDelta(t, 1.0, *res.DiagonalClearance, eps)
	require.NotNil(t, res.Angle)
	assert.Equal(t, 60.0, *res.Angle)
	assert.Nil(t, res.VerticalClearance)
	assert.Nil(t, res.CirclesPerRow)

	assert.InDelta(t, 16.5+17, res.Circles[17].X, eps)
	assert.InDelta(t, 16.5+rowHeight, res.Circles[17].Y, eps)
}

func TestPackTriangular_ClampsAngle(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
		want  float64
	}{
		{name: "AboveRange", angle: 85, want: 60},
		{name: "BelowRange", angle: 5, want: 30},
		{name: "InRange", angle: 45, want: 45},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := PackTriangular(referenceInputs, tc.angle, false, 0)
			require.NotNil(t, res.Angle)
			assert.InDelta(t, tc.want, *res.Angle, eps)
		})
	}
}

func TestPackTriangular_SpreadTouchesEdges(t *testing.T) {
	in := referenceInputs
	res := PackTriangular(in, 60, true, 0)

	require.Equal(t, 51, res.Count)
	assert.Equal(t, in.Width, res.ActualWidth)
	assert.Equal(t, in.Height, res.ActualHeight)

	r := in.Diameter / 2
	minX, maxX := math.Inf(1), math.Inf(-1)
	maxY := math.Inf(-1)
	for _, c := range res.Circles {
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	assert.InDelta(t, r, minX, eps)
	assert.InDelta(t, in.Width-r, maxX, eps)
	assert.InDelta(t, in.Height-r, maxY, eps)
}

func TestPackTriangular_SpreadReportsAchievedAngle(t *testing.T) {
	res := PackTriangular(referenceInputs, 60, true, 0)

	hs := 34 * 567.0 / (16*34 + 17)
	rowHeight := 87.0 / 2
	want := math.Atan2(rowHeight, hs/2) * 180 / math.Pi

	require.NotNil(t, res.Angle)
	assert.InDelta(t, want, *res.Angle, eps)
	assert.NotEqual(t, 60.0, *res.Angle)
	assert.InDelta(t, math.Hypot(hs/2, rowHeight)-33, *res.DiagonalClearance, eps)
}

func TestPackTriangular_SpreadSingleRow(t *testing.T) {
	in := Inputs{Diameter: 33, Clearance: 1, Width: 600, Height: 40}
	res := PackTriangular(in, 60, true, 0)

	require.Equal(t, 1, res.NumRows)
	require.Equal(t, 17, res.Count)
	for _, c := range res.Circles {
		assert.False(t, math.IsNaN(c.X) || math.IsInf(c.X, 0))
		assert.InDelta(t, 16.5, c.Y, eps)
	}
	assert.InDelta(t, in.Width-16.5, res.Circles[16].X, eps)
	assert.False(t, math.IsNaN(*res.DiagonalClearance))
}

func TestPackTriangular_ForcedRows(t *testing.T) {
	res := PackTriangular(referenceInputs, 45, false, 2)

	assert.Equal(t, 2, res.NumRows)
	assert.Equal(t, *res.EvenRowCount+*res.OddRowCount, res.Count)
}

func TestOptimizeAngle_Reference(t *testing.T) {
	baseline := PackTriangular(referenceInputs, 60, true, 0)
	res := OptimizeAngle(referenceInputs)

	assert.Equal(t, 51, baseline.Count)
	assert.Equal(t, 64, res.Count)
	assert.Equal(t, 4, res.NumRows)
	assert.Equal(t, 16, *res.EvenRowCount)
	assert.Equal(t, 16, *res.OddRowCount)
	assert.True(t, res.Spread)
	assert.Equal(t, referenceInputs.Width, res.ActualWidth)
	assert.GreaterOrEqual(t, res.MinCenterDistance(), referenceInputs.Pitch()-eps)
}

func TestOptimizeAngle_FallsBackToBaseline(t *testing.T) {
	// Only one row fits, so no candidate row count is feasible.
	in := Inputs{Diameter: 33, Clearance: 1, Width: 600, Height: 40}

	assert.Equal(t, PackTriangular(in, 60, true, 0), OptimizeAngle(in))
}

func TestProperties(t *testing.T) {
	t.Parallel()

	type layout struct {
		name string
		pack func(Inputs) Result
	}
	layouts := []layout{
		{"RectTight", func(in Inputs) Result { return PackRectangular(in, false) }},
		{"RectSpread", func(in Inputs) Result { return PackRectangular(in, true) }},
		{"Tri60Tight", func(in Inputs) Result { return PackTriangular(in, 60, false, 0) }},
		{"Tri60Spread", func(in Inputs) Result { return PackTriangular(in, 60, true, 0) }},
		{"Tri45Tight", func(in Inputs) Result { return PackTriangular(in, 45, false, 0) }},
		{"Tri30Spread", func(in Inputs) Result { return PackTriangular(in, 30, true, 0) }},
		{"Optimal", OptimizeAngle},
	}

	for _, l := range layouts {
		for _, in := range propertyInputs {
			res := l.pack(in)

			assert.Equal(t, len(res.Circles), res.Count, "%s %+v count", l.name, in)
			assert.GreaterOrEqual(t, res.MinCenterDistance(), in.Pitch()-1e-6, "%s %+v overlap", l.name, in)
			assert.Equal(t, res, l.pack(in), "%s %+v idempotent", l.name, in)

			r := in.Diameter / 2
			for _, c := range res.Circles {
				assert.GreaterOrEqual(t, c.X-r, -1e-6, "%s %+v left edge", l.name, in)
				assert.GreaterOrEqual(t, c.Y-r, -1e-6, "%s %+v top edge", l.name, in)
				assert.LessOrEqual(t, c.X+r, res.ActualWidth+1e-6, "%s %+v right edge", l.name, in)
				assert.LessOrEqual(t, c.Y+r, res.ActualHeight+1e-6, "%s %+v bottom edge", l.name, in)
			}

			if res.Pattern == PatternTriangular {
				assert.LessOrEqual(t, *res.OddRowCount, *res.EvenRowCount, "%s %+v odd rows", l.name, in)
			}
		}
	}

	for _, in := range propertyInputs {
		assert.GreaterOrEqual(t, OptimizeAngle(in).Count, PackTriangular(in, 60, true, 0).Count, "%+v", in)
	}
}

func TestEngineValidatesInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    Inputs
		field string
	}{
		{name: "ZeroDiameter", in: Inputs{Diameter: 0, Clearance: 1, Width: 10, Height: 10}, field: "diameter"},
		{name: "NegativeClearance", in: Inputs{Diameter: 1, Clearance: -1, Width: 10, Height: 10}, field: "clearance"},
		{name: "ZeroWidth", in: Inputs{Diameter: 1, Clearance: 1, Width: 0, Height: 10}, field: "width"},
		{name: "NegativeHeight", in: Inputs{Diameter: 1, Clearance: 1, Width: 10, Height: -3}, field: "height"},
		{name: "NaNDiameter", in: Inputs{Diameter: math.NaN(), Clearance: 1, Width: 10, Height: 10}, field: "diameter"},
		{name: "InfWidth", in: Inputs{Diameter: 1, Clearance: 1, Width: math.Inf(1), Height: 10}, field: "width"},
	}

	engine := New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Rectangular(tc.in, false)
			require.ErrorIs(t, err, ErrInvalidInputs)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)

			_, err = engine.Triangular(tc.in, 60, true, 0)
			assert.ErrorIs(t, err, ErrInvalidInputs)
			_, err = engine.OptimalAngle(tc.in)
			assert.ErrorIs(t, err, ErrInvalidInputs)
		})
	}
}

func TestEngineAllowsZeroClearance(t *testing.T) {
	res, err := New().Rectangular(Inputs{Diameter: 10, Width: 100, Height: 100}, false)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Count)
}

func TestEnginePack(t *testing.T) {
	t.Parallel()

	engine := New()
	tests := []struct {
		name    string
		req     Request
		want    Result
		wantErr error
	}{
		{
			name: "RectangularTight",
			req:  Request{Inputs: referenceInputs, Pattern: PatternRectangular, Mode: ModeTight},
			want: PackRectangular(referenceInputs, false),
		},
		{
			name: "TriangularDefaultsTo60",
			req:  Request{Inputs: referenceInputs, Pattern: PatternTriangular, Mode: ModeSpread},
			want: PackTriangular(referenceInputs, 60, true, 0),
		},
		{
			name: "TriangularAngle",
			req:  Request{Inputs: referenceInputs, Pattern: PatternTriangular, Mode: ModeTight, Angle: floatPtr(50)},
			want: PackTriangular(referenceInputs, 50, false, 0),
		},
		{
			name: "Optimize",
			req:  Request{Inputs: referenceInputs, Pattern: PatternTriangular, Mode: ModeSpread, Optimize: true},
			want: OptimizeAngle(referenceInputs),
		},
		{
			name: "ZeroAngleClampsTo30",
			req:  Request{Inputs: referenceInputs, Pattern: PatternTriangular, Mode: ModeTight, Angle: floatPtr(0)},
			want: PackTriangular(referenceInputs, 30, false, 0),
		},
		{
			name: "FullModeAlias",
			req:  Request{Inputs: referenceInputs, Pattern: PatternRectangular, Mode: "full"},
			want: PackRectangular(referenceInputs, true),
		},
		{
			name:    "OptimizeTight",
			req:     Request{Inputs: referenceInputs, Pattern: PatternTriangular, Mode: ModeTight, Optimize: true},
			wantErr: ErrOptimizeTight,
		},
		{
			name:    "NaNAngle",
			req:     Request{Inputs: referenceInputs, Pattern: PatternTriangular, Mode: ModeTight, Angle: floatPtr(math.NaN())},
			wantErr: ErrInvalidInputs,
		},
		{
			name:    "UnknownPattern",
			req:     Request{Inputs: referenceInputs, Pattern: "hexagonal", Mode: ModeTight},
			wantErr: ErrUnknownPattern,
		},
		{
			name:    "UnknownMode",
			req:     Request{Inputs: referenceInputs, Pattern: PatternRectangular, Mode: "loose"},
			wantErr: ErrUnknownMode,
		},
		{
			name:    "OptimizeRectangular",
			req:     Request{Inputs: referenceInputs, Pattern: PatternRectangular, Mode: ModeSpread, Optimize: true},
			wantErr: ErrOptimizeRectangular,
		},
		{
			name:    "InvalidInputs",
			req:     Request{Inputs: Inputs{Diameter: -1, Width: 1, Height: 1}, Pattern: PatternRectangular, Mode: ModeTight},
			wantErr: ErrInvalidInputs,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Pack(tc.req)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPresets(t *testing.T) {
	assert.Len(t, Presets(), 5)

	p, err := ParsePreset("tri-optimal")
	require.NoError(t, err)
	req := p.Request(referenceInputs)
	assert.Equal(t, referenceInputs, req.Inputs)
	assert.True(t, req.Optimize)
	assert.Equal(t, PatternTriangular, req.Pattern)
	assert.Equal(t, ModeSpread, req.Mode)
	assert.Nil(t, req.Angle)

	tight := PresetTriTight.Request(referenceInputs)
	require.NotNil(t, tight.Angle)
	assert.Equal(t, DefaultAngle, *tight.Angle)
	*tight.Angle = 45
	assert.Equal(t, DefaultAngle, PresetTriTight.Request(referenceInputs).LatticeAngle(), "presets must not share angle storage")
	assert.Nil(t, PresetRectTight.Request(referenceInputs).Angle)

	_, err = ParsePreset("tri-random")
	assert.ErrorIs(t, err, ErrUnknownPreset)

	mode, err := ParseMode("full")
	require.NoError(t, err)
	assert.Equal(t, ModeSpread, mode)
}

func TestResultJSONOmitsOtherPatternFields(t *testing.T) {
	rect, err := json.Marshal(PackRectangular(referenceInputs, false))
	require.NoError(t, err)
	var rectFields map[string]any
	require.NoError(t, json.Unmarshal(rect, &rectFields))
	assert.Contains(t, rectFields, "verticalClearance")
	assert.Contains(t, rectFields, "circlesPerRow")
	assert.NotContains(t, rectFields, "diagonalClearance")
	assert.NotContains(t, rectFields, "angle")
	assert.NotContains(t, rectFields, "oddRowCount")

	tri, err := json.Marshal(PackTriangular(referenceInputs, 60, false, 0))
	require.NoError(t, err)
	var triFields map[string]any
	require.NoError(t, json.Unmarshal(tri, &triFields))
	assert.Contains(t, triFields, "diagonalClearance")
	assert.Contains(t, triFields, "angle")
	assert.Contains(t, triFields, "evenRowCount")
	assert.NotContains(t, triFields, "verticalClearance")
}

func BenchmarkOptimizeAngle(b *testing.B) {
	in := Inputs{Diameter: 12.7, Clearance: 3.2, Width: 1220, Height: 610}
	for i := 0; i < b.N; i++ {
		_ = OptimizeAngle(in)
	}
}
