// Package bvh builds bounding volume hierarchies over triangle meshes and answers ray picking,
// mesh-mesh collision and box-sphere queries against them.
//
// A Hierarchy is not safe for concurrent use: every query rewrites its result lists. Distinct
// hierarchies may be queried from different goroutines.
package bvh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/meshbvh/logging"
	"go.viam.com/meshbvh/spatialmath"
	"go.viam.com/meshbvh/utils"
)

// Slot selects one of a hierarchy's two transforms and result lists. SlotSelf places the mesh in
// ray and sphere queries and as the first operand of a pairwise query; SlotOther places it as the
// second operand.
type Slot int

const (
	// SlotSelf is slot 0.
	SlotSelf Slot = iota
	// SlotOther is slot 1.
	SlotOther
)

func (s Slot) String() string {
	switch s {
	case SlotSelf:
		return "self"
	case SlotOther:
		return "other"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

func (s Slot) valid() bool {
	return s == SlotSelf || s == SlotOther
}

// BoxPair is the object-space corners of two root boxes that overlap.
type BoxPair struct {
	A Bounds
	B Bounds
}

// SphereContact is where a sphere touches a hierarchy's root box. Normals[0] points from the
// sphere center toward the contact point and Normals[1] is its opposite.
type SphereContact struct {
	Point   r3.Vector
	Normals [2]r3.Vector
}

// Hierarchy is a bounding volume tree over one mesh group.
type Hierarchy struct {
	cfg Config

	set  *faceSet
	root *node

	transforms [2]*spatialmath.Transform
	results    [2]ResultList
	pool       *resultAllocator
	// flagged lists faces whose recorded marks must be reset before the next query.
	flagged []int

	buildStats BuildStats
	stats      QueryStats
}

// Build extracts every face of the group and builds a hierarchy over them. A nil config uses
// DefaultConfig. A group without faces yields a hierarchy with no geometry whose queries never
// report an intersection.
func Build(group MeshGroup, cfg *Config, logger logging.Logger) (*Hierarchy, error) {
	if group == nil {
		return nil, ErrNilMeshGroup
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global()
	}

	set, err := extractFaces(group)
	if err != nil {
		return nil, err
	}
	logger = logger.With("meshes", group.NumMeshes(), "faces", len(set.faces))

	h := &Hierarchy{
		cfg:  *cfg,
		set:  set,
		pool: newResultAllocator(cfg.PoolInitialSize, cfg.PoolChunkSize),
	}
	for i := range h.results {
		h.results[i].pool = h.pool
	}

	numFaces := len(set.faces)
	if numFaces == 0 {
		logger.Debug("mesh group has no faces, hierarchy is empty")
		return h, nil
	}

	policy := cfg.SplitPolicy
	if cfg.MedianThreshold > 0 && numFaces > cfg.MedianThreshold && policy != SplitMedian {
		logger.Infow("forcing median split for large mesh",
			"threshold", cfg.MedianThreshold, "configured", policy.String())
		policy = SplitMedian
	}

	indices := make([]int, numFaces)
	for i := range indices {
		indices[i] = i
	}
	b := newBuilder(set, policy, cfg.LeafSize)
	root := b.build(indices, 0)

	h.root = root
	h.buildStats = b.stats
	logger.Debugw("built hierarchy",
		"vertices", len(set.vertices),
		"nodes", b.stats.Nodes,
		"leaves", b.stats.Leaves,
		"depth", b.stats.MaxDepth,
		"policy", policy.String())
	return h, nil
}

// HasGeometry reports whether the hierarchy has a tree to query.
func (h *Hierarchy) HasGeometry() bool {
	return h.root != nil
}

// NumFaces returns the total face count over all meshes.
func (h *Hierarchy) NumFaces() int {
	return len(h.set.faces)
}

// NumVertices returns the total vertex count over all meshes.
func (h *Hierarchy) NumVertices() int {
	return len(h.set.vertices)
}

// FaceCounts returns the face count of each mesh in group order.
func (h *Hierarchy) FaceCounts() []int {
	return append([]int(nil), h.set.faceCounts...)
}

// VertexCounts returns the vertex count of each mesh in group order.
func (h *Hierarchy) VertexCounts() []int {
	return append([]int(nil), h.set.vertexCounts...)
}

// Bounds returns the object-space bounds of the whole tree. It is false without geometry.
func (h *Hierarchy) Bounds() (Bounds, bool) {
	if h.root == nil {
		return Bounds{}, false
	}
	return h.root.box.Bounds(), true
}

// BuildStats describes the built tree.
func (h *Hierarchy) BuildStats() BuildStats {
	return h.buildStats
}

// QueryStats counts the work done by the most recent query.
func (h *Hierarchy) QueryStats() QueryStats {
	return h.stats
}

// PoolStats reports how many result records exist and how many are free.
func (h *Hierarchy) PoolStats() PoolStats {
	return h.pool.stats()
}

// FaceRef identifies a face by its mesh's index in the group and its index in the mesh.
type FaceRef struct {
	MeshID int
	FaceID int
}

// Leaf describes one leaf of the tree.
type Leaf struct {
	Bounds Bounds
	Depth  int
	Faces  []FaceRef
}

// Leaves lists the leaves depth first, left to right.
func (h *Hierarchy) Leaves() []Leaf {
	if h.root == nil {
		return nil
	}
	var out []Leaf
	h.root.walk(func(n *node, depth int) {
		if !n.isLeaf() {
			return
		}
		out = append(out, Leaf{
			Bounds: n.box.Bounds(),
			Depth:  depth,
			Faces: lo.Map(n.box.faces, func(idx, _ int) FaceRef {
				f := &h.set.faces[idx]
				return FaceRef{MeshID: f.meshID, FaceID: f.faceID}
			}),
		})
	})
	return out
}

// SetTransform places the hierarchy's mesh for queries using slot. world is a rigid matrix,
// rotation plus translation, and scale is applied in object space before it.
func (h *Hierarchy) SetTransform(slot Slot, world mgl64.Mat4, scale r3.Vector) error {
	if !slot.valid() {
		return ErrInvalidSlot
	}
	tf, err := spatialmath.NewTransform(world, scale)
	if err != nil {
		return err
	}
	h.transforms[slot] = tf
	return nil
}

// SetSlotTransform is SetTransform for an already built transform.
func (h *Hierarchy) SetSlotTransform(slot Slot, tf *spatialmath.Transform) error {
	if !slot.valid() {
		return ErrInvalidSlot
	}
	if tf == nil {
		return newTransformNotSetError(slot)
	}
	h.transforms[slot] = tf
	return nil
}

// Transform returns the transform in slot, or nil if it was never set.
func (h *Hierarchy) Transform(slot Slot) *spatialmath.Transform {
	if !slot.valid() {
		return nil
	}
	return h.transforms[slot]
}

func (h *Hierarchy) transform(slot Slot) (*spatialmath.Transform, error) {
	if tf := h.transforms[slot]; tf != nil {
		return tf, nil
	}
	return nil, newTransformNotSetError(slot)
}

// Results returns the list written by the most recent query for slot.
func (h *Hierarchy) Results(slot Slot) *ResultList {
	if !slot.valid() {
		return nil
	}
	return &h.results[slot]
}

// IntersectRay finds every face the ray from origin along direction strikes, using slot 0 to
// place the mesh. The returned list is ordered nearest first and is empty when nothing is hit.
// direction need not be unit length; distances are in world units.
func (h *Hierarchy) IntersectRay(origin, direction r3.Vector, mode spatialmath.PickMode) (*ResultList, error) {
	h.reset()
	results := &h.results[SlotSelf]
	if mode == spatialmath.PickDisabled {
		return results, nil
	}
	if direction.Norm2() == 0 || !spatialmath.IsFiniteVector(direction) {
		return nil, ErrZeroDirection
	}
	tf, err := h.transform(SlotSelf)
	if err != nil {
		return nil, err
	}
	if h.root == nil {
		return results, nil
	}

	q := &rayQuery{
		h:         h,
		tf:        tf,
		axes:      tf.Axes(),
		origin:    origin,
		direction: direction.Normalize(),
		mode:      mode,
	}
	q.traverse(h.root)
	return results, nil
}

// IntersectHierarchy reports whether this mesh, placed by its slot 0 transform, touches other,
// placed by its slot 1 transform. Each colliding face is recorded once in this hierarchy's
// slot 0 list and in other's slot 1 list.
func (h *Hierarchy) IntersectHierarchy(other *Hierarchy) (bool, error) {
	tfA, tfB, err := h.pairTransforms(other)
	if err != nil {
		return false, err
	}
	if h.root == nil || other.root == nil {
		return false, nil
	}

	q := newPairQuery(h, other, tfA, tfB)
	q.traverse(h.root, other.root)
	if other != h {
		other.stats = h.stats
	}
	return q.found, nil
}

// IntersectHierarchyQuick tests only the two root boxes and returns their corners on overlap.
func (h *Hierarchy) IntersectHierarchyQuick(other *Hierarchy) (BoxPair, bool, error) {
	tfA, tfB, err := h.pairTransforms(other)
	if err != nil {
		return BoxPair{}, false, err
	}
	if h.root == nil || other.root == nil {
		return BoxPair{}, false, nil
	}

	q := newPairQuery(h, other, tfA, tfB)
	if !q.overlap(h.root.box, other.root.box) {
		return BoxPair{}, false, nil
	}
	return BoxPair{A: h.root.box.Bounds(), B: other.root.box.Bounds()}, true, nil
}

func (h *Hierarchy) pairTransforms(other *Hierarchy) (*spatialmath.Transform, *spatialmath.Transform, error) {
	if other == nil {
		return nil, nil, ErrNilHierarchy
	}
	h.reset()
	if other != h {
		other.reset()
	}
	tfA, err := h.transform(SlotSelf)
	if err != nil {
		return nil, nil, err
	}
	tfB, err := other.transform(SlotOther)
	if err != nil {
		return nil, nil, err
	}
	return tfA, tfB, nil
}

// IntersectBoxSphere tests a world-space sphere against the root box placed by slot 0.
func (h *Hierarchy) IntersectBoxSphere(center r3.Vector, radiusSquared float64) (SphereContact, bool, error) {
	h.reset()
	if radiusSquared < 0 || !utils.IsFinite(radiusSquared) || !spatialmath.IsFiniteVector(center) {
		return SphereContact{}, false, ErrInvalidRadius
	}
	tf, err := h.transform(SlotSelf)
	if err != nil {
		return SphereContact{}, false, err
	}
	if h.root == nil {
		return SphereContact{}, false, nil
	}

	box := h.root.box
	h.stats.BoxTests++
	worldCentroid := tf.Point(box.centroid)
	local := tf.InverseRotate(center.Sub(worldCentroid))
	closest, ok := spatialmath.BoxSphere(tf.ScaleExtent(box.halfWidth), local, radiusSquared)
	if !ok {
		return SphereContact{}, false, nil
	}

	contact := tf.Rotate(closest).Add(worldCentroid)
	direction := contact.Sub(center)
	if direction.Norm2() == 0 {
		// The center is inside the box.
		direction = worldCentroid.Sub(center)
	}
	normal := direction.Normalize()
	return SphereContact{Point: contact, Normals: [2]r3.Vector{normal, normal.Mul(-1)}}, true, nil
}

// reset clears both result lists, their face marks and the query counters.
func (h *Hierarchy) reset() {
	for i := range h.results {
		h.results[i].clear()
	}
	for _, idx := range h.flagged {
		h.set.faces[idx].recorded = [2]bool{}
	}
	h.flagged = h.flagged[:0]
	h.stats = QueryStats{}
}

// record adds a mesh-mesh result for face idx to slot's list unless the face already has one.
func (h *Hierarchy) record(slot Slot, idx int, point, normal r3.Vector) {
	face := &h.set.faces[idx]
	if face.recorded[slot] {
		return
	}
	if !face.recorded[SlotSelf] && !face.recorded[SlotOther] {
		h.flagged = append(h.flagged, idx)
	}
	face.recorded[slot] = true

	r := h.pool.allocate()
	r.meshID = face.meshID
	r.faceID = face.faceID
	r.point = point
	r.normal = normal
	h.results[slot].push(r)
}
