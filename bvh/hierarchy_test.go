package bvh_test

import (
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/meshbvh/bvh"
	"go.viam.com/meshbvh/logging"
	"go.viam.com/meshbvh/meshgen"
	"go.viam.com/meshbvh/spatialmath"
)

var unitScale = r3.Vector{X: 1, Y: 1, Z: 1}

func build(t *testing.T, cfg *bvh.Config, meshes ...bvh.Mesh) *bvh.Hierarchy {
	t.Helper()
	h, err := bvh.Build(bvh.NewMeshGroup(meshes...), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return h
}

func place(t *testing.T, h *bvh.Hierarchy, slot bvh.Slot, offset r3.Vector) {
	t.Helper()
	test.That(t, h.SetTransform(slot, mgl64.Translate3D(offset.X, offset.Y, offset.Z), unitScale), test.ShouldBeNil)
}

func faceRefs(l *bvh.ResultList) []bvh.FaceRef {
	var out []bvh.FaceRef
	for r := l.Head(); r != nil; r = r.Next() {
		out = append(out, bvh.FaceRef{MeshID: r.MeshID(), FaceID: r.FaceID()})
	}
	slices.SortFunc(out, func(a, b bvh.FaceRef) int {
		if a.MeshID != b.MeshID {
			return a.MeshID - b.MeshID
		}
		return a.FaceID - b.FaceID
	})
	return out
}

func checkPool(t *testing.T, h *bvh.Hierarchy) {
	t.Helper()
	stats := h.PoolStats()
	held := h.Results(bvh.SlotSelf).Len() + h.Results(bvh.SlotOther).Len()
	test.That(t, stats.Capacity, test.ShouldEqual, stats.Free+held)
}

// hasContactIn reports whether any result's triangle centroid lies in bounds.
func hasContactIn(l *bvh.ResultList, bounds bvh.Bounds) bool {
	const tol = 1e-9
	for r := l.Head(); r != nil; r = r.Next() {
		c := r.Point().Mul(1. / 3.)
		if c.X >= bounds.Min.X-tol && c.X <= bounds.Max.X+tol &&
			c.Y >= bounds.Min.Y-tol && c.Y <= bounds.Max.Y+tol &&
			c.Z >= bounds.Min.Z-tol && c.Z <= bounds.Max.Z+tol {
			return true
		}
	}
	return false
}

func TestBuildErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := bvh.Build(nil, nil, logger)
	test.That(t, errors.Is(err, bvh.ErrNilMeshGroup), test.ShouldBeTrue)

	bad := bvh.NewIndexedMesh([]r3.Vector{{}, {X: 1}, {Y: 1}}, [][3]int{{0, 1, 2}, {0, 1, -1}})
	_, err = bvh.Build(bvh.NewMeshGroup(bad), nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mesh 0 face 1")

	nan := bvh.NewIndexedMesh([]r3.Vector{{}, {X: math.NaN()}, {Y: 1}}, [][3]int{{0, 1, 2}})
	_, err = bvh.Build(bvh.NewMeshGroup(nan), nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = bvh.Build(bvh.NewMeshGroup(meshgen.UnitCube()), &bvh.Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEmptyGroup(t *testing.T) {
	h := build(t, nil, bvh.NewIndexedMesh(nil, nil))
	test.That(t, h.HasGeometry(), test.ShouldBeFalse)
	test.That(t, h.NumFaces(), test.ShouldEqual, 0)
	test.That(t, h.Leaves(), test.ShouldBeNil)
	_, ok := h.Bounds()
	test.That(t, ok, test.ShouldBeFalse)

	place(t, h, bvh.SlotSelf, r3.Vector{})
	place(t, h, bvh.SlotOther, r3.Vector{})

	results, err := h.IntersectRay(r3.Vector{}, r3.Vector{X: 1}, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results.Len(), test.ShouldEqual, 0)

	cube := build(t, nil, meshgen.UnitCube())
	place(t, cube, bvh.SlotSelf, r3.Vector{})
	hit, err := cube.IntersectHierarchy(h)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	_, ok, err = h.IntersectBoxSphere(r3.Vector{}, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLeavesCoverEveryFace(t *testing.T) {
	meshes := []bvh.Mesh{
		meshgen.Sphere(1, 12, 16),
		meshgen.Grid(9, 7, 0.25),
		meshgen.Translate(meshgen.UnitCube(), r3.Vector{X: 3}),
	}

	for _, policy := range []bvh.SplitPolicy{bvh.SplitMidpoint, bvh.SplitMedian, bvh.SplitSortedMedian} {
		t.Run(policy.String(), func(t *testing.T) {
			cfg := bvh.DefaultConfig()
			cfg.SplitPolicy = policy
			h := build(t, cfg, meshes...)

			seen := map[bvh.FaceRef]int{}
			for _, leaf := range h.Leaves() {
				test.That(t, len(leaf.Faces), test.ShouldBeBetweenOrEqual, 1, cfg.LeafSize)
				for _, f := range leaf.Faces {
					seen[f]++
				}
			}

			counts := h.FaceCounts()
			test.That(t, counts, test.ShouldResemble, []int{len(meshes[0].(*bvh.IndexedMesh).Faces), 126, 12})
			total := 0
			for meshID, n := range counts {
				for faceID := 0; faceID < n; faceID++ {
					test.That(t, seen[bvh.FaceRef{MeshID: meshID, FaceID: faceID}], test.ShouldEqual, 1)
				}
				total += n
			}
			test.That(t, len(seen), test.ShouldEqual, total)
			test.That(t, h.NumFaces(), test.ShouldEqual, total)

			stats := h.BuildStats()
			test.That(t, stats.Policy, test.ShouldEqual, policy)
			test.That(t, stats.Leaves, test.ShouldEqual, len(h.Leaves()))
			test.That(t, stats.Nodes, test.ShouldEqual, 2*stats.Leaves-1)
		})
	}
}

func TestForcedMedian(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg := bvh.DefaultConfig()
	cfg.MedianThreshold = 10

	h, err := bvh.Build(bvh.NewMeshGroup(meshgen.Grid(10, 10, 1)), cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.BuildStats().Policy, test.ShouldEqual, bvh.SplitMedian)
	test.That(t, logs.FilterMessage("forcing median split for large mesh").Len(), test.ShouldEqual, 1)

	cfg.MedianThreshold = 0
	logger, logs = logging.NewObservedTestLogger(t)
	h, err = bvh.Build(bvh.NewMeshGroup(meshgen.Grid(10, 10, 1)), cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.BuildStats().Policy, test.ShouldEqual, bvh.SplitMidpoint)
	test.That(t, logs.FilterMessage("forcing median split for large mesh").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("built hierarchy").Len(), test.ShouldEqual, 1)
}

func TestRayHitsEveryFaceCentroid(t *testing.T) {
	mesh := meshgen.Sphere(0.5, 8, 12)
	h := build(t, nil, mesh)

	s := math.Sin(math.Pi / 12)
	orientation := quat.Number{Real: math.Cos(math.Pi / 12), Imag: s / math.Sqrt2, Jmag: s / math.Sqrt2}
	tf, err := spatialmath.NewTransformFromPose(r3.Vector{X: 1, Y: 2, Z: 3}, orientation, r3.Vector{X: 1.5, Y: 1, Z: 0.75})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.SetSlotTransform(bvh.SlotSelf, tf), test.ShouldBeNil)

	for faceID, face := range mesh.Faces {
		tri := spatialmath.NewTriangle(
			tf.Point(mesh.Positions[face[0]]),
			tf.Point(mesh.Positions[face[1]]),
			tf.Point(mesh.Positions[face[2]]))
		origin := tri.Centroid().Add(tri.Normal().Mul(2))

		results, err := h.IntersectRay(origin, tri.Normal().Mul(-3), spatialmath.PickFront)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, results.Len(), test.ShouldEqual, 1)
		test.That(t, results.Head().FaceID(), test.ShouldEqual, faceID)
		test.That(t, results.Head().MeshID(), test.ShouldEqual, 0)
		test.That(t, results.Head().Distance(), test.ShouldAlmostEqual, 2, 1e-9)
		test.That(t, results.Head().HitPoint().Sub(tri.Centroid()).Norm(), test.ShouldBeLessThan, 1e-9)
		checkPool(t, h)
	}
}

func TestRayPickModes(t *testing.T) {
	h := build(t, nil, meshgen.Sphere(1, 12, 16))

	// Disabled picking is checked before the transform.
	results, err := h.IntersectRay(r3.Vector{X: -5}, r3.Vector{X: 1}, spatialmath.PickDisabled)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results.Len(), test.ShouldEqual, 0)

	_, err = h.IntersectRay(r3.Vector{X: -5}, r3.Vector{X: 1}, spatialmath.PickBoth)
	test.That(t, errors.Is(err, bvh.ErrTransformNotSet), test.ShouldBeTrue)

	place(t, h, bvh.SlotSelf, r3.Vector{})
	origin := r3.Vector{X: -5, Y: 0.11, Z: 0.07}
	direction := r3.Vector{X: 2}

	_, err = h.IntersectRay(origin, r3.Vector{}, spatialmath.PickBoth)
	test.That(t, errors.Is(err, bvh.ErrZeroDirection), test.ShouldBeTrue)

	both, err := h.IntersectRay(origin, direction, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, both.Len(), test.ShouldEqual, 2)
	hits := both.Snapshot()
	test.That(t, hits[0].Distance(), test.ShouldBeLessThan, hits[1].Distance())
	test.That(t, both.Nearest().Distance(), test.ShouldEqual, hits[0].Distance())
	test.That(t, hits[0].HitPoint().X, test.ShouldBeLessThan, 0)
	test.That(t, hits[1].HitPoint().X, test.ShouldBeGreaterThan, 0)

	again, err := h.IntersectRay(origin, direction, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Snapshot(), test.ShouldResemble, hits)

	front, err := h.IntersectRay(origin, direction, spatialmath.PickFront)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, front.Len(), test.ShouldEqual, 1)
	test.That(t, front.Head().FaceID(), test.ShouldEqual, hits[0].FaceID())
	test.That(t, front.Head().Distance(), test.ShouldAlmostEqual, hits[0].Distance())

	back, err := h.IntersectRay(origin, direction, spatialmath.PickBack)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Len(), test.ShouldEqual, 1)
	test.That(t, back.Head().FaceID(), test.ShouldEqual, hits[1].FaceID())

	disabled, err := h.IntersectRay(origin, direction, spatialmath.PickDisabled)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, disabled.Len(), test.ShouldEqual, 0)
	checkPool(t, h)
}

func TestRayMissesRoot(t *testing.T) {
	h := build(t, nil, meshgen.Sphere(1, 12, 16))
	place(t, h, bvh.SlotSelf, r3.Vector{})

	results, err := h.IntersectRay(r3.Vector{X: -5, Y: 3}, r3.Vector{X: 1}, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results.Len(), test.ShouldEqual, 0)
	test.That(t, h.QueryStats(), test.ShouldResemble, bvh.QueryStats{BoxTests: 1})

	// Pointing away from the mesh.
	results, err = h.IntersectRay(r3.Vector{X: -5}, r3.Vector{X: -1}, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results.Len(), test.ShouldEqual, 0)
	test.That(t, h.QueryStats().TriangleTests, test.ShouldEqual, 0)
}

func TestRayGrazingFlatMesh(t *testing.T) {
	tri := [3]r3.Vector{{X: 0, Y: -1}, {X: 100, Y: -1}, {X: 0, Y: 1}}
	h := build(t, nil, bvh.NewIndexedMesh(tri[:], [][3]int{{0, 1, 2}}))
	place(t, h, bvh.SlotSelf, r3.Vector{})

	// Almost parallel to the triangle's plane, crossing it 1040 units out.
	origin := r3.Vector{X: -1000, Z: 0.0052}
	direction := r3.Vector{X: 1, Z: -5e-6}.Normalize()
	direct, ok := spatialmath.RayTriangle(tri, origin, direction, spatialmath.PickBoth)
	test.That(t, ok, test.ShouldBeTrue)

	results, err := h.IntersectRay(origin, direction, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results.Len(), test.ShouldEqual, 1)
	test.That(t, results.Head().Distance(), test.ShouldAlmostEqual, direct.Distance, 1e-6)
	test.That(t, h.QueryStats(), test.ShouldResemble, bvh.QueryStats{BoxTests: 1, TriangleTests: 1})
}

func TestRayMultipleMeshes(t *testing.T) {
	h := build(t, nil, meshgen.UnitCube(), meshgen.Translate(meshgen.UnitCube(), r3.Vector{X: 3}))
	test.That(t, h.FaceCounts(), test.ShouldResemble, []int{12, 12})
	test.That(t, h.VertexCounts(), test.ShouldResemble, []int{8, 8})
	test.That(t, h.NumVertices(), test.ShouldEqual, 16)
	place(t, h, bvh.SlotSelf, r3.Vector{})

	results, err := h.IntersectRay(r3.Vector{X: -1, Y: 0.3, Z: 0.4}, r3.Vector{X: 1}, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results.Len(), test.ShouldEqual, 4)

	var meshIDs []int
	var distances []float64
	for r := results.Head(); r != nil; r = r.Next() {
		meshIDs = append(meshIDs, r.MeshID())
		distances = append(distances, r.Distance())
	}
	test.That(t, meshIDs, test.ShouldResemble, []int{0, 0, 1, 1})
	for i, want := range []float64{1, 2, 4, 5} {
		test.That(t, distances[i], test.ShouldAlmostEqual, want, 1e-9)
	}
	test.That(t, len(results.ForMesh(1)), test.ShouldEqual, 2)
}

func TestIntersectHierarchy(t *testing.T) {
	a := build(t, nil, meshgen.UnitCube())
	b := build(t, nil, meshgen.UnitCube())
	place(t, a, bvh.SlotSelf, r3.Vector{})

	t.Run("transform not set", func(t *testing.T) {
		_, err := a.IntersectHierarchy(b)
		test.That(t, errors.Is(err, bvh.ErrTransformNotSet), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "slot other")

		_, err = a.IntersectHierarchy(nil)
		test.That(t, errors.Is(err, bvh.ErrNilHierarchy), test.ShouldBeTrue)
	})

	t.Run("apart", func(t *testing.T) {
		place(t, b, bvh.SlotOther, r3.Vector{X: 10})
		hit, err := a.IntersectHierarchy(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit, test.ShouldBeFalse)
		test.That(t, a.Results(bvh.SlotSelf).Len(), test.ShouldEqual, 0)
		test.That(t, b.Results(bvh.SlotOther).Len(), test.ShouldEqual, 0)
		test.That(t, a.QueryStats(), test.ShouldResemble, bvh.QueryStats{BoxTests: 1})

		_, ok, err := a.IntersectHierarchyQuick(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("overlapping", func(t *testing.T) {
		place(t, b, bvh.SlotOther, r3.Vector{X: 0.5, Y: 0.25, Z: 0.25})
		hit, err := a.IntersectHierarchy(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit, test.ShouldBeTrue)

		selfResults := a.Results(bvh.SlotSelf)
		otherResults := b.Results(bvh.SlotOther)
		test.That(t, selfResults.Len(), test.ShouldBeGreaterThan, 0)
		test.That(t, otherResults.Len(), test.ShouldBeGreaterThan, 0)
		test.That(t, a.Results(bvh.SlotOther).Len(), test.ShouldEqual, 0)
		test.That(t, b.Results(bvh.SlotSelf).Len(), test.ShouldEqual, 0)
		test.That(t, b.QueryStats(), test.ShouldResemble, a.QueryStats())

		// Each face is reported once.
		refs := faceRefs(selfResults)
		test.That(t, len(slices.Compact(slices.Clone(refs))), test.ShouldEqual, len(refs))
		refs = faceRefs(otherResults)
		test.That(t, len(slices.Compact(slices.Clone(refs))), test.ShouldEqual, len(refs))

		sawPlusX := false
		for r := selfResults.Head(); r != nil; r = r.Next() {
			test.That(t, r.Normal().Norm(), test.ShouldAlmostEqual, 1)
			// The -x side of a lies outside b.
			test.That(t, r.FaceID() == 8 || r.FaceID() == 9, test.ShouldBeFalse)
			centroid := r.Point().Mul(1. / 3.)
			if math.Abs(centroid.X-1) < 1e-9 {
				sawPlusX = true
				test.That(t, r.Normal(), test.ShouldResemble, r3.Vector{X: 1})
			}
		}
		test.That(t, sawPlusX, test.ShouldBeTrue)
		for r := otherResults.Head(); r != nil; r = r.Next() {
			// The +x side of b lies outside a.
			test.That(t, r.FaceID() == 10 || r.FaceID() == 11, test.ShouldBeFalse)
		}
		// Both lists have a contact inside the shared volume.
		overlap := bvh.Bounds{Min: r3.Vector{X: 0.5, Y: 0.25, Z: 0.25}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
		test.That(t, hasContactIn(selfResults, overlap), test.ShouldBeTrue)
		test.That(t, hasContactIn(otherResults, overlap), test.ShouldBeTrue)
		checkPool(t, a)
		checkPool(t, b)

		first := selfResults.Snapshot()
		firstOther := otherResults.Snapshot()
		_, err = a.IntersectHierarchy(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, a.Results(bvh.SlotSelf).Snapshot(), test.ShouldResemble, first)
		test.That(t, b.Results(bvh.SlotOther).Snapshot(), test.ShouldResemble, firstOther)

		pair, ok, err := a.IntersectHierarchyQuick(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		bounds, _ := a.Bounds()
		test.That(t, pair.A, test.ShouldResemble, bounds)
		test.That(t, pair.B, test.ShouldResemble, bvh.Bounds{Max: unitScale})
		// The quick query clears results from the previous query.
		test.That(t, a.Results(bvh.SlotSelf).Len(), test.ShouldEqual, 0)
	})
}

func TestFullSATMatches(t *testing.T) {
	sphere := meshgen.Sphere(1, 8, 12)
	fullCfg := bvh.DefaultConfig()
	fullCfg.FullSAT = true
	fullCfg.PoolInitialSize = 1
	fullCfg.PoolChunkSize = 2

	fastA := build(t, nil, sphere)
	fastB := build(t, nil, sphere)
	fullA := build(t, fullCfg, sphere)
	fullB := build(t, fullCfg, sphere)

	s := math.Sin(math.Pi / 8)
	orientation := quat.Number{Real: math.Cos(math.Pi / 8), Imag: s / math.Sqrt(3), Jmag: s / math.Sqrt(3), Kmag: s / math.Sqrt(3)}

	for _, offset := range []r3.Vector{
		{X: 1.7, Y: 0.3, Z: 0.2},
		{X: 1.1, Y: 1.1, Z: 0.5},
		{X: 0.4, Y: -0.3, Z: 1.6},
		{X: 2.5, Y: 2.5, Z: 2.5},
	} {
		tf, err := spatialmath.NewTransformFromPose(offset, orientation, unitScale)
		test.That(t, err, test.ShouldBeNil)
		for _, pair := range [][2]*bvh.Hierarchy{{fastA, fastB}, {fullA, fullB}} {
			place(t, pair[0], bvh.SlotSelf, r3.Vector{})
			test.That(t, pair[1].SetSlotTransform(bvh.SlotOther, tf), test.ShouldBeNil)
		}

		fastHit, err := fastA.IntersectHierarchy(fastB)
		test.That(t, err, test.ShouldBeNil)
		fullHit, err := fullA.IntersectHierarchy(fullB)
		test.That(t, err, test.ShouldBeNil)

		test.That(t, fullHit, test.ShouldEqual, fastHit)
		test.That(t, faceRefs(fullA.Results(bvh.SlotSelf)), test.ShouldResemble, faceRefs(fastA.Results(bvh.SlotSelf)))
		test.That(t, faceRefs(fullB.Results(bvh.SlotOther)), test.ShouldResemble, faceRefs(fastB.Results(bvh.SlotOther)))
		test.That(t, fullA.QueryStats().BoxTests, test.ShouldBeLessThanOrEqualTo, fastA.QueryStats().BoxTests)
		checkPool(t, fullA)
		checkPool(t, fullB)
	}
}

func TestSelfCollision(t *testing.T) {
	h := build(t, nil, meshgen.UnitCube())
	place(t, h, bvh.SlotSelf, r3.Vector{})
	place(t, h, bvh.SlotOther, r3.Vector{X: 0.5, Y: 0.25, Z: 0.25})

	hit, err := h.IntersectHierarchy(h)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
	test.That(t, h.Results(bvh.SlotSelf).Len(), test.ShouldBeGreaterThan, 0)
	test.That(t, h.Results(bvh.SlotOther).Len(), test.ShouldBeGreaterThan, 0)
	checkPool(t, h)

	// Marks from the pairwise query do not leak into the next one.
	_, err = h.IntersectRay(r3.Vector{X: -1, Y: 0.3, Z: 0.4}, r3.Vector{X: 1}, spatialmath.PickBoth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.Results(bvh.SlotOther).Len(), test.ShouldEqual, 0)
	hit, err = h.IntersectHierarchy(h)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
	test.That(t, h.Results(bvh.SlotSelf).Len(), test.ShouldBeGreaterThan, 0)
	checkPool(t, h)
}

func TestIntersectBoxSphere(t *testing.T) {
	h := build(t, nil, meshgen.UnitCube())

	_, _, err := h.IntersectBoxSphere(r3.Vector{}, 1)
	test.That(t, errors.Is(err, bvh.ErrTransformNotSet), test.ShouldBeTrue)

	place(t, h, bvh.SlotSelf, r3.Vector{})

	_, _, err = h.IntersectBoxSphere(r3.Vector{}, -1)
	test.That(t, errors.Is(err, bvh.ErrInvalidRadius), test.ShouldBeTrue)

	contact, ok, err := h.IntersectBoxSphere(r3.Vector{X: 1.5, Y: 0.5, Z: 0.5}, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(contact.Point, r3.Vector{X: 1, Y: 0.5, Z: 0.5}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(contact.Normals[0], r3.Vector{X: -1}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(contact.Normals[1], r3.Vector{X: 1}, 1e-9), test.ShouldBeTrue)

	_, ok, err = h.IntersectBoxSphere(r3.Vector{X: 2.5, Y: 0.5, Z: 0.5}, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	t.Run("center inside", func(t *testing.T) {
		contact, ok, err := h.IntersectBoxSphere(r3.Vector{X: 0.5, Y: 0.5, Z: 0.6}, 0.01)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(contact.Point, r3.Vector{X: 0.5, Y: 0.5, Z: 0.6}, 1e-9), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(contact.Normals[0], r3.Vector{Z: -1}, 1e-9), test.ShouldBeTrue)
	})

	t.Run("rotated and scaled", func(t *testing.T) {
		// Quarter turn about z, then doubled along the local x axis.
		world := mgl64.Translate3D(10, 0, 0).Mul4(mgl64.HomogRotate3DZ(math.Pi / 2))
		test.That(t, h.SetTransform(bvh.SlotSelf, world, r3.Vector{X: 2, Y: 1, Z: 1}), test.ShouldBeNil)

		// The box now spans x in [9, 10] and y in [0, 2].
		contact, ok, err := h.IntersectBoxSphere(r3.Vector{X: 9.5, Y: 2.5, Z: 0.5}, 0.3)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(contact.Point, r3.Vector{X: 9.5, Y: 2, Z: 0.5}, 1e-9), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(contact.Normals[0], r3.Vector{Y: -1}, 1e-9), test.ShouldBeTrue)

		_, ok, err = h.IntersectBoxSphere(r3.Vector{X: 11, Y: 0.5, Z: 0.5}, 0.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestTransformSlots(t *testing.T) {
	h := build(t, nil, meshgen.UnitCube())
	test.That(t, h.Transform(bvh.SlotSelf), test.ShouldBeNil)

	test.That(t, errors.Is(h.SetTransform(bvh.Slot(2), mgl64.Ident4(), unitScale), bvh.ErrInvalidSlot), test.ShouldBeTrue)
	test.That(t, errors.Is(h.SetSlotTransform(bvh.Slot(-1), spatialmath.IdentityTransform()), bvh.ErrInvalidSlot), test.ShouldBeTrue)
	test.That(t, h.Results(bvh.Slot(3)), test.ShouldBeNil)
	test.That(t, h.SetTransform(bvh.SlotSelf, mgl64.Ident4(), r3.Vector{X: 1, Z: 1}), test.ShouldNotBeNil)
	test.That(t, h.SetTransform(bvh.SlotSelf, mgl64.Scale3D(2, 2, 2), unitScale), test.ShouldNotBeNil)
	// Mirroring belongs in the scale, not the rotation.
	test.That(t, h.SetTransform(bvh.SlotSelf, mgl64.Scale3D(-1, 1, 1), unitScale), test.ShouldNotBeNil)
	mirrored := build(t, nil, meshgen.UnitCube())
	test.That(t, mirrored.SetTransform(bvh.SlotSelf, mgl64.Ident4(), r3.Vector{X: -1, Y: 1, Z: 1}), test.ShouldBeNil)

	test.That(t, h.SetSlotTransform(bvh.SlotOther, spatialmath.IdentityTransform()), test.ShouldBeNil)
	test.That(t, h.Transform(bvh.SlotOther), test.ShouldNotBeNil)
	test.That(t, h.Transform(bvh.SlotSelf), test.ShouldBeNil)
	test.That(t, bvh.SlotOther.String(), test.ShouldEqual, "other")
}
