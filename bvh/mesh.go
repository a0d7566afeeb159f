package bvh

import (
	"github.com/golang/geo/r3"
)

// Mesh is a triangle mesh given as vertex positions and faces of three vertex indices.
type Mesh interface {
	NumVertices() int
	Vertex(i int) r3.Vector
	NumFaces() int
	Face(i int) [3]int
}

// MeshGroup is the set of meshes that make up one model. A hierarchy covers every face of every
// mesh in the group; a hit's mesh id is the mesh's index in the group.
type MeshGroup interface {
	NumMeshes() int
	Mesh(i int) Mesh
}

// IndexedMesh is an in-memory Mesh.
type IndexedMesh struct {
	Positions []r3.Vector
	Faces     [][3]int
}

// NewIndexedMesh creates a mesh from positions and faces.
func NewIndexedMesh(positions []r3.Vector, faces [][3]int) *IndexedMesh {
	return &IndexedMesh{Positions: positions, Faces: faces}
}

// NumVertices returns the number of positions.
func (m *IndexedMesh) NumVertices() int { return len(m.Positions) }

// Vertex returns position i.
func (m *IndexedMesh) Vertex(i int) r3.Vector { return m.Positions[i] }

// NumFaces returns the number of faces.
func (m *IndexedMesh) NumFaces() int { return len(m.Faces) }

// Face returns the vertex indices of face i.
func (m *IndexedMesh) Face(i int) [3]int { return m.Faces[i] }

type meshGroup []Mesh

// NewMeshGroup groups meshes in order.
func NewMeshGroup(meshes ...Mesh) MeshGroup {
	return meshGroup(meshes)
}

func (g meshGroup) NumMeshes() int { return len(g) }

func (g meshGroup) Mesh(i int) Mesh { return g[i] }
