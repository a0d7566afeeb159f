package bvh

import (
	"slices"

	"go.viam.com/meshbvh/spatialmath"
)

// splitMidpoint divides faces by centroid against the middle of the box, trying the widest axis
// first and then the next two in order. When no axis puts faces on both sides it falls back to
// splitting by position.
func splitMidpoint(faces []boundFace, box *Box, indices []int) ([]int, []int) {
	first := box.longestAxis()
	for k := 0; k < 3; k++ {
		axis := (first + k) % 3
		split := spatialmath.Component(box.centroid, axis)

		left := make([]int, 0, len(indices))
		right := make([]int, 0, len(indices))
		for _, idx := range indices {
			if spatialmath.Component(faces[idx].centroid, axis) < split {
				left = append(left, idx)
			} else {
				right = append(right, idx)
			}
		}
		if len(left) > 0 && len(right) > 0 {
			return left, right
		}
	}
	return splitMedian(indices)
}

// splitMedian divides faces by position; the left half takes the extra face when the count is
// odd.
func splitMedian(indices []int) ([]int, []int) {
	mid := (len(indices) + 1) / 2
	return indices[:mid:mid], indices[mid:]
}

// splitSortedMedian stably orders faces by centroid along the widest axis, then splits by
// position.
func splitSortedMedian(faces []boundFace, box *Box, indices []int) ([]int, []int) {
	axis := box.longestAxis()
	slices.SortStableFunc(indices, func(a, b int) int {
		ca := spatialmath.Component(faces[a].centroid, axis)
		cb := spatialmath.Component(faces[b].centroid, axis)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})
	return splitMedian(indices)
}
