package packing

import "math"

// rowSearchRadius is how many row counts either side of the 60° estimate
// OptimizeAngle tries.
const rowSearchRadius = 2

// OptimizeAngle returns the spread triangular layout holding the most
// circles. It starts from the 60° spread layout and, for row counts close to
// the 60° estimate, solves for the angle that makes exactly that many rows
// span the panel height. Only angles in [30°, 60°] are considered.
func OptimizeAngle(in Inputs) Result {
	d := in.Diameter
	pitch := in.Pitch()

	best := PackTriangular(in, DefaultAngle, true, 0)
	initialRows := int(math.Floor((in.Height-d)/(pitch*math.Sin(radians(DefaultAngle))))) + 1

	for targetRows := max(2, initialRows-rowSearchRadius); targetRows <= initialRows+rowSearchRadius; targetRows++ {
		sinTheta := (in.Height - d) / (pitch * float64(targetRows-1))
		if sinTheta > 1 || sinTheta < 0 {
			continue
		}
		angle := degrees(math.Asin(sinTheta))
		if angle < minAngle || angle > maxAngle {
			continue
		}
		if candidate := PackTriangular(in, angle, true, targetRows); candidate.Count > best.Count {
			best = candidate
		}
	}

	return best
}
