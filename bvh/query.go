package bvh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/meshbvh/spatialmath"
)

// QueryStats counts the work done by the most recent query on a hierarchy.
type QueryStats struct {
	BoxTests      int
	TriangleTests int
}

// rayQuery carries one ray through the tree. The ray is in world space; boxes and triangles are
// moved into the world with the hierarchy's slot 0 transform.
type rayQuery struct {
	h         *Hierarchy
	tf        *spatialmath.Transform
	axes      [3]r3.Vector
	origin    r3.Vector
	direction r3.Vector
	mode      spatialmath.PickMode
}

func (q *rayQuery) traverse(n *node) {
	if !q.hitsBox(n.box) {
		return
	}
	if n.isLeaf() {
		q.triangles(n.box)
		return
	}
	q.traverse(n.left)
	q.traverse(n.right)
}

func (q *rayQuery) hitsBox(b *Box) bool {
	q.h.stats.BoxTests++
	return spatialmath.RayOBB(q.tf.Point(b.centroid), q.axes, q.tf.ScaleExtent(b.halfWidth), q.origin, q.direction)
}

func (q *rayQuery) triangles(b *Box) {
	for _, idx := range b.faces {
		face := &q.h.set.faces[idx]
		local := q.h.set.triangle(face)
		world := [3]r3.Vector{q.tf.Point(local[0]), q.tf.Point(local[1]), q.tf.Point(local[2])}

		q.h.stats.TriangleTests++
		hit, ok := spatialmath.RayTriangle(world, q.origin, q.direction, q.mode)
		if !ok {
			continue
		}

		r := q.h.pool.allocate()
		r.meshID = face.meshID
		r.faceID = face.faceID
		r.u = hit.U
		r.v = hit.V
		r.distance = hit.Distance
		r.vertices = world
		q.h.results[SlotSelf].insertByDistance(r)
	}
}

// pairQuery co-descends two trees. a is placed by its slot 0 transform and b by its slot 1
// transform; node boxes are compared in a's local frame.
type pairQuery struct {
	a, b     *Hierarchy
	tfA, tfB *spatialmath.Transform
	rotation mgl64.Mat3
	fullSAT  bool
	found    bool

	scratch []*spatialmath.Triangle
}

func newPairQuery(a, b *Hierarchy, tfA, tfB *spatialmath.Transform) *pairQuery {
	return &pairQuery{
		a:        a,
		b:        b,
		tfA:      tfA,
		tfB:      tfB,
		rotation: tfA.RelativeRotation(tfB),
		fullSAT:  a.cfg.FullSAT,
	}
}

func (q *pairQuery) traverse(na, nb *node) {
	if !q.overlap(na.box, nb.box) {
		return
	}
	switch {
	case na.isLeaf() && nb.isLeaf():
		q.triangles(na.box, nb.box)
	case na.isLeaf():
		q.traverse(na, nb.left)
		q.traverse(na, nb.right)
	case nb.isLeaf():
		q.traverse(na.left, nb)
		q.traverse(na.right, nb)
	default:
		q.traverse(na.left, nb.left)
		q.traverse(na.left, nb.right)
		q.traverse(na.right, nb.left)
		q.traverse(na.right, nb.right)
	}
}

func (q *pairQuery) overlap(boxA, boxB *Box) bool {
	q.a.stats.BoxTests++
	centerA := q.tfA.Point(boxA.centroid)
	centerB := q.tfB.Point(boxB.centroid)
	translation := q.tfA.InverseRotate(centerB.Sub(centerA))
	halfA := q.tfA.ScaleExtent(boxA.halfWidth)
	halfB := q.tfB.ScaleExtent(boxB.halfWidth)

	if q.fullSAT {
		return spatialmath.OBBSeparation(q.rotation, translation, halfA, halfB) <= 0
	}
	return spatialmath.OBBOverlap(q.rotation, translation, halfA, halfB)
}

// triangles tests every face pair of two leaves. b's faces are moved into the world once.
func (q *pairQuery) triangles(boxA, boxB *Box) {
	q.scratch = q.scratch[:0]
	for _, idx := range boxB.faces {
		local := q.b.set.triangle(&q.b.set.faces[idx])
		q.scratch = append(q.scratch, spatialmath.NewTriangle(
			q.tfB.Point(local[0]), q.tfB.Point(local[1]), q.tfB.Point(local[2])))
	}

	for _, idxA := range boxA.faces {
		local := q.a.set.triangle(&q.a.set.faces[idxA])
		triA := spatialmath.NewTriangle(q.tfA.Point(local[0]), q.tfA.Point(local[1]), q.tfA.Point(local[2]))

		for k, idxB := range boxB.faces {
			q.a.stats.TriangleTests++
			contact, ok := triA.Intersects(q.scratch[k])
			if !ok {
				continue
			}
			q.found = true
			q.a.record(SlotSelf, idxA, contact.Points[0], contact.Normals[0])
			q.b.record(SlotOther, idxB, contact.Points[1], contact.Normals[1])
		}
	}
}
