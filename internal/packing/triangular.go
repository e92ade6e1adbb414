package packing

import "math"

// PackTriangular places circles on a staggered lattice. Every circle sits
// diameter+clearance away from its diagonal neighbours in the next row; the
// angle (clamped to [30°, 60°]) controls how steep that diagonal is. 60° is
// hexagonal close packing.
//
// forcedRows overrides the row count when positive. In spread mode rows are
// stretched to touch the top and bottom edges, columns are scaled to touch
// the side edges, and the reported angle is the one actually achieved.
func PackTriangular(in Inputs, angle float64, spread bool, forcedRows int) Result {
	d := in.Diameter
	pitch := in.Pitch()
	theta := ClampAngle(angle)
	rad := radians(theta)

	rowHeight := math.Sin(rad) * pitch
	horizSpacing := 2 * math.Cos(rad) * pitch

	numRows := forcedRows
	if numRows <= 0 {
		numRows = latticeCount(in.Height, d, rowHeight)
	}

	evenCount := latticeCount(in.Width, d, horizSpacing)
	oddCount := min(latticeCount(in.Width-horizSpacing/2, d, horizSpacing), evenCount)

	actualHoriz, actualRow := horizSpacing, rowHeight
	if spread {
		actualRow = spreadPitch(in.Height, d, numRows)

		evenSpan := float64(evenCount-1) * horizSpacing
		target := evenSpan
		if numRows > 1 {
			oddSpan := float64(oddCount-1)*horizSpacing + horizSpacing/2
			target = math.Max(evenSpan, oddSpan)
		}
		// A single circle per row has nothing to stretch.
		if target > 0 {
			actualHoriz = horizSpacing * (in.Width - d) / target
		}
	}

	circles := make([]Position, 0, numRows*evenCount)
	for row := 0; row < numRows; row++ {
		n, offset := evenCount, 0.0
		if row%2 == 1 {
			n, offset = oddCount, actualHoriz/2
		}
		for col := 0; col < n; col++ {
			circles = append(circles, Position{
				X: float64(col)*actualHoriz + offset + d/2,
				Y: float64(row)*actualRow + d/2,
			})
		}
	}

	reportedAngle := theta
	actualWidth, actualHeight := boundingBox(circles, d)
	if spread {
		reportedAngle = degrees(math.Atan2(actualRow, actualHoriz/2))
		actualWidth, actualHeight = in.Width, in.Height
	}

	return Result{
		Circles:             circles,
		ActualWidth:         actualWidth,
		ActualHeight:        actualHeight,
		HorizontalClearance: actualHoriz - d,
		DiagonalClearance:   floatPtr(math.Hypot(actualHoriz/2, actualRow) - d),
		Count:               len(circles),
		Pattern:             PatternTriangular,
		Angle:               floatPtr(reportedAngle),
		NumRows:             numRows,
		EvenRowCount:        intPtr(evenCount),
		OddRowCount:         intPtr(oddCount),
		Spread:              spread,
	}
}
