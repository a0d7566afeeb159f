package bvh

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/meshbvh/utils"
)

// BuildStats describes the shape of a built tree.
type BuildStats struct {
	Nodes        int
	Leaves       int
	MaxDepth     int
	MaxLeafFaces int
	// Policy is the split policy actually used, which differs from the configured one when the
	// mesh is large enough to force median splitting.
	Policy SplitPolicy
}

type builder struct {
	policy   SplitPolicy
	leafSize int
	set      *faceSet

	// marker[v] == stamp means vertex v has already been folded into the current node's bounds.
	marker []int
	stamp  int

	stats BuildStats
}

func newBuilder(set *faceSet, policy SplitPolicy, leafSize int) *builder {
	return &builder{
		policy:   policy,
		leafSize: leafSize,
		set:      set,
		marker:   make([]int, len(set.vertices)),
		stats:    BuildStats{Policy: policy},
	}
}

// build constructs the subtree over the given faces. The tree is only reachable from the
// returned root, so callers attach it once construction has finished.
func (b *builder) build(indices []int, depth int) *node {
	box := b.bounds(indices)
	n := &node{box: box}

	b.stats.Nodes++
	b.stats.MaxDepth = utils.MaxInt(b.stats.MaxDepth, depth)

	if len(indices) <= b.leafSize {
		box.faces = indices
		b.stats.Leaves++
		b.stats.MaxLeafFaces = utils.MaxInt(b.stats.MaxLeafFaces, len(indices))
		return n
	}

	var left, right []int
	switch b.policy {
	case SplitMedian:
		left, right = splitMedian(indices)
	case SplitSortedMedian:
		left, right = splitSortedMedian(b.set.faces, box, indices)
	default:
		left, right = splitMidpoint(b.set.faces, box, indices)
	}

	n.left = b.build(left, depth+1)
	n.right = b.build(right, depth+1)
	return n
}

// bounds scans each vertex referenced by the faces once.
func (b *builder) bounds(indices []int) *Box {
	b.stamp++
	lower := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	upper := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}

	for _, idx := range indices {
		for _, v := range b.set.faces[idx].indices {
			if b.marker[v] == b.stamp {
				continue
			}
			b.marker[v] = b.stamp
			p := b.set.vertices[v]
			lower = r3.Vector{X: math.Min(lower.X, p.X), Y: math.Min(lower.Y, p.Y), Z: math.Min(lower.Z, p.Z)}
			upper = r3.Vector{X: math.Max(upper.X, p.X), Y: math.Max(upper.Y, p.Y), Z: math.Max(upper.Z, p.Z)}
		}
	}
	return newBox(lower, upper)
}
