package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// OBBSeparation computes the maximum separation gap across all 15 SAT axes for two oriented
// bounding boxes using Ericson's R-matrix formulation ("Real-Time Collision Detection" Ch. 4.4).
// Inputs are in A's local frame, as for OBBOverlap.
//
// Returns the maximum gap across all 15 axes:
//   - Positive: boxes are separated by at least this distance
//   - Negative: boxes overlap with this penetration depth
func OBBSeparation(rotation mgl64.Mat3, translation, halfA, halfB r3.Vector) float64 {
	const eps = 1e-10

	var r, absR [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = rotation.At(i, j)
			absR[i][j] = math.Abs(r[i][j]) + eps
		}
	}
	a := [3]float64{halfA.X, halfA.Y, halfA.Z}
	b := [3]float64{halfB.X, halfB.Y, halfB.Z}
	t := [3]float64{translation.X, translation.Y, translation.Z}

	best := math.Inf(-1)

	// Face axes of A.
	for i := 0; i < 3; i++ {
		rb := b[0]*absR[i][0] + b[1]*absR[i][1] + b[2]*absR[i][2]
		best = math.Max(best, math.Abs(t[i])-a[i]-rb)
	}

	// Face axes of B.
	for j := 0; j < 3; j++ {
		ra := a[0]*absR[0][j] + a[1]*absR[1][j] + a[2]*absR[2][j]
		dist := math.Abs(t[0]*r[0][j] + t[1]*r[1][j] + t[2]*r[2][j])
		best = math.Max(best, dist-b[j]-ra)
	}

	// Edge axes a_i × b_j, normalized by sqrt(1 - R[i][j]^2). Near-parallel edges are skipped
	// since their cross product vanishes.
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			l2 := 1 - r[i][j]*r[i][j]
			if l2 <= eps {
				continue
			}
			j1, j2 := (j+1)%3, (j+2)%3
			ra := a[i1]*absR[i2][j] + a[i2]*absR[i1][j]
			rb := b[j1]*absR[i][j2] + b[j2]*absR[i][j1]
			dist := math.Abs(t[i2]*r[i1][j] - t[i1]*r[i2][j])
			best = math.Max(best, (dist-ra-rb)/math.Sqrt(l2))
		}
	}

	return best
}
