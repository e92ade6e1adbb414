package packing

// PackRectangular places circles on a square grid with pitch
// diameter+clearance. In spread mode the outer rows and columns are pushed
// against the panel edges and the reported box is the panel itself.
func PackRectangular(in Inputs, spread bool) Result {
	d := in.Diameter
	pitch := in.Pitch()

	cols := latticeCount(in.Width, d, pitch)
	rows := latticeCount(in.Height, d, pitch)

	hPitch, vPitch := pitch, pitch
	actualWidth, actualHeight := gridSpan(cols, pitch, d), gridSpan(rows, pitch, d)
	if spread {
		hPitch = spreadPitch(in.Width, d, cols)
		vPitch = spreadPitch(in.Height, d, rows)
		actualWidth, actualHeight = in.Width, in.Height
	}

	circles := make([]Position, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			circles = append(circles, Position{
				X: float64(x)*hPitch + d/2,
				Y: float64(y)*vPitch + d/2,
			})
		}
	}

	return Result{
		Circles:             circles,
		ActualWidth:         actualWidth,
		ActualHeight:        actualHeight,
		HorizontalClearance: hPitch - d,
		VerticalClearance:   floatPtr(vPitch - d),
		Count:               len(circles),
		Pattern:             PatternRectangular,
		NumRows:             rows,
		CirclesPerRow:       intPtr(cols),
		Spread:              spread,
	}
}

// gridSpan is the extent covered by n circles at the given pitch.
func gridSpan(n int, pitch, diameter float64) float64 {
	if n == 0 {
		return 0
	}
	return float64(n-1)*pitch + diameter
}
