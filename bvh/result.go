package bvh

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// CollisionResult is one hit. Ray hits carry barycentric coordinates, distance and the struck
// triangle's world vertices; mesh-mesh hits carry a point and normal.
type CollisionResult struct {
	meshID   int
	faceID   int
	u        float64
	v        float64
	distance float64
	vertices [3]r3.Vector
	point    r3.Vector
	normal   r3.Vector

	next *CollisionResult
}

// MeshID returns the index of the hit mesh in its group.
func (r *CollisionResult) MeshID() int { return r.meshID }

// FaceID returns the index of the hit face in its mesh.
func (r *CollisionResult) FaceID() int { return r.faceID }

// UV returns the barycentric coordinates of a ray hit.
func (r *CollisionResult) UV() (float64, float64) { return r.u, r.v }

// Distance returns how far along the ray a hit lies.
func (r *CollisionResult) Distance() float64 { return r.distance }

// Vertices returns the world-space vertices of the triangle a ray hit.
func (r *CollisionResult) Vertices() [3]r3.Vector { return r.vertices }

// HitPoint returns the world-space point a ray hit, interpolated from the vertices.
func (r *CollisionResult) HitPoint() r3.Vector {
	w := 1 - r.u - r.v
	return r.vertices[0].Mul(w).Add(r.vertices[1].Mul(r.u)).Add(r.vertices[2].Mul(r.v))
}

// Point returns the sum of the colliding triangle's three world vertices. Divide by three for
// its centroid.
func (r *CollisionResult) Point() r3.Vector { return r.point }

// Normal returns the colliding triangle's unit normal in world space.
func (r *CollisionResult) Normal() r3.Vector { return r.normal }

// Next returns the following result in the list, or nil.
func (r *CollisionResult) Next() *CollisionResult { return r.next }

// ResultList holds one query's results for one transform slot. It is valid until the next query
// on the owning hierarchy.
type ResultList struct {
	head  *CollisionResult
	count int
	pool  *resultAllocator
}

// Len returns the number of results.
func (l *ResultList) Len() int { return l.count }

// Head returns the first result, or nil. Ray results are ordered nearest first.
func (l *ResultList) Head() *CollisionResult { return l.head }

// Nearest returns the result with the smallest distance; the first one seen wins ties.
func (l *ResultList) Nearest() *CollisionResult {
	var best *CollisionResult
	for r := l.head; r != nil; r = r.next {
		if best == nil || r.distance < best.distance {
			best = r
		}
	}
	return best
}

// Snapshot copies the results out of the list so they survive later queries.
func (l *ResultList) Snapshot() []CollisionResult {
	out := make([]CollisionResult, 0, l.count)
	for r := l.head; r != nil; r = r.next {
		c := *r
		c.next = nil
		out = append(out, c)
	}
	return out
}

// ForMesh returns copies of the results that hit the given mesh.
func (l *ResultList) ForMesh(meshID int) []CollisionResult {
	return lo.Filter(l.Snapshot(), func(r CollisionResult, _ int) bool {
		return r.meshID == meshID
	})
}

func (l *ResultList) clear() {
	for r := l.head; r != nil; {
		next := r.next
		l.pool.deallocate(r)
		r = next
	}
	l.head = nil
	l.count = 0
}

func (l *ResultList) push(r *CollisionResult) {
	r.next = l.head
	l.head = r
	l.count++
}

// insertByDistance keeps the list sorted by ascending distance; equal distances stay in
// insertion order.
func (l *ResultList) insertByDistance(r *CollisionResult) {
	l.count++
	if l.head == nil || r.distance < l.head.distance {
		r.next = l.head
		l.head = r
		return
	}
	prev := l.head
	for prev.next != nil && prev.next.distance <= r.distance {
		prev = prev.next
	}
	r.next = prev.next
	prev.next = r
}
