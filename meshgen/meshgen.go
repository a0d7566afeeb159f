// Package meshgen generates simple triangle meshes with outward, counter-clockwise faces.
package meshgen

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/meshbvh/bvh"
)

// cubeFaces indexes corners numbered x + 2y + 4z, two triangles per side.
var cubeFaces = [][3]int{
	{0, 2, 1}, {1, 2, 3}, // -z
	{4, 5, 6}, {5, 7, 6}, // +z
	{0, 1, 4}, {1, 5, 4}, // -y
	{2, 6, 3}, {3, 6, 7}, // +y
	{0, 4, 2}, {2, 4, 6}, // -x
	{1, 3, 5}, {3, 7, 5}, // +x
}

// Box returns the 12 triangle mesh of the axis-aligned box between lower and upper.
func Box(lower, upper r3.Vector) *bvh.IndexedMesh {
	positions := make([]r3.Vector, 8)
	for i := range positions {
		p := lower
		if i&1 != 0 {
			p.X = upper.X
		}
		if i&2 != 0 {
			p.Y = upper.Y
		}
		if i&4 != 0 {
			p.Z = upper.Z
		}
		positions[i] = p
	}
	faces := make([][3]int, len(cubeFaces))
	copy(faces, cubeFaces)
	return bvh.NewIndexedMesh(positions, faces)
}

// UnitCube returns the box between the origin and (1, 1, 1).
func UnitCube() *bvh.IndexedMesh {
	return Box(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
}

// Grid returns an nx by ny grid of square cells in the z=0 plane, facing +z, with its corner at
// the origin.
func Grid(nx, ny int, cell float64) *bvh.IndexedMesh {
	if nx < 1 || ny < 1 {
		return bvh.NewIndexedMesh(nil, nil)
	}
	positions := make([]r3.Vector, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			positions = append(positions, r3.Vector{X: float64(i) * cell, Y: float64(j) * cell})
		}
	}

	at := func(i, j int) int { return j*(nx+1) + i }
	faces := make([][3]int, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i, j+1), at(i+1, j+1)
			faces = append(faces, [3]int{a, b, d}, [3]int{a, d, c})
		}
	}
	return bvh.NewIndexedMesh(positions, faces)
}

// Sphere returns a latitude-longitude sphere around the origin. stacks is clamped to at least 2
// and slices to at least 3.
func Sphere(radius float64, stacks, slices int) *bvh.IndexedMesh {
	stacks = max(stacks, 2)
	slices = max(slices, 3)

	positions := []r3.Vector{{Z: radius}}
	for k := 1; k < stacks; k++ {
		phi := math.Pi * float64(k) / float64(stacks)
		for s := 0; s < slices; s++ {
			theta := 2 * math.Pi * float64(s) / float64(slices)
			positions = append(positions, r3.Vector{
				X: radius * math.Sin(phi) * math.Cos(theta),
				Y: radius * math.Sin(phi) * math.Sin(theta),
				Z: radius * math.Cos(phi),
			})
		}
	}
	bottom := len(positions)
	positions = append(positions, r3.Vector{Z: -radius})

	ring := func(k, s int) int { return 1 + (k-1)*slices + s%slices }
	var faces [][3]int
	for s := 0; s < slices; s++ {
		faces = append(faces, [3]int{0, ring(1, s), ring(1, s+1)})
	}
	for k := 1; k < stacks-1; k++ {
		for s := 0; s < slices; s++ {
			a, b := ring(k, s), ring(k, s+1)
			c, d := ring(k+1, s), ring(k+1, s+1)
			faces = append(faces, [3]int{a, c, d}, [3]int{a, d, b})
		}
	}
	for s := 0; s < slices; s++ {
		faces = append(faces, [3]int{bottom, ring(stacks-1, s+1), ring(stacks-1, s)})
	}
	return bvh.NewIndexedMesh(positions, faces)
}

// Translate returns a copy of m with every vertex moved by offset.
func Translate(m *bvh.IndexedMesh, offset r3.Vector) *bvh.IndexedMesh {
	positions := make([]r3.Vector, len(m.Positions))
	for i, p := range m.Positions {
		positions[i] = p.Add(offset)
	}
	faces := make([][3]int, len(m.Faces))
	copy(faces, m.Faces)
	return bvh.NewIndexedMesh(positions, faces)
}
