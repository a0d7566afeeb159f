package bvh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshbvh/spatialmath"
	"go.viam.com/meshbvh/utils"
)

// boundFace is a face as stored in the hierarchy: where it came from, its vertices in the
// flattened vertex list and its object-space centroid.
type boundFace struct {
	meshID   int
	faceID   int
	indices  [3]int
	centroid r3.Vector
	// recorded marks, per slot, that the face already has a result in the current query.
	recorded [2]bool
}

// faceSet is every face and vertex of a mesh group, flattened.
type faceSet struct {
	vertices     []r3.Vector
	faces        []boundFace
	faceCounts   []int
	vertexCounts []int
}

// extractFaces flattens the group's vertices and faces. Face indices are rebased onto the
// flattened vertex list and checked against their own mesh's vertex count.
func extractFaces(group MeshGroup) (*faceSet, error) {
	numMeshes := group.NumMeshes()
	set := &faceSet{
		faceCounts:   make([]int, numMeshes),
		vertexCounts: make([]int, numMeshes),
	}

	for meshID := 0; meshID < numMeshes; meshID++ {
		mesh := group.Mesh(meshID)
		if mesh == nil {
			return nil, errors.Errorf("mesh %d is nil", meshID)
		}
		base := len(set.vertices)
		numVertices := mesh.NumVertices()
		for i := 0; i < numVertices; i++ {
			v := mesh.Vertex(i)
			if !spatialmath.IsFiniteVector(v) {
				return nil, errors.Errorf("mesh %d vertex %d is not finite: %v", meshID, i, v)
			}
			set.vertices = append(set.vertices, v)
		}

		numFaces := mesh.NumFaces()
		for faceID := 0; faceID < numFaces; faceID++ {
			face := mesh.Face(faceID)
			bf := boundFace{meshID: meshID, faceID: faceID}
			var sum r3.Vector
			for k, idx := range face {
				if idx < 0 || idx >= numVertices {
					return nil, errors.Wrapf(
						utils.NewOutOfRangeError("vertex index", idx, numVertices),
						"mesh %d face %d", meshID, faceID)
				}
				bf.indices[k] = base + idx
				sum = sum.Add(set.vertices[base+idx])
			}
			bf.centroid = sum.Mul(1. / 3.)
			set.faces = append(set.faces, bf)
		}

		set.faceCounts[meshID] = numFaces
		set.vertexCounts[meshID] = numVertices
	}
	return set, nil
}

// triangle returns face f's vertices in object space.
func (s *faceSet) triangle(f *boundFace) [3]r3.Vector {
	return [3]r3.Vector{s.vertices[f.indices[0]], s.vertices[f.indices[1]], s.vertices[f.indices[2]]}
}
