// Package mesh holds segmented scene meshes in memory: vertex, color and
// index buffers with per-face semantic ids, per-vertex labels derived from
// those ids, bounding boxes and point clouds, and an optional GPU drawable.
package mesh

import (
	"github.com/Faultbox/semmesh/pkg/formats"
	"github.com/Faultbox/semmesh/pkg/geom"
	"github.com/Faultbox/semmesh/pkg/math"
)

// UndefinedObjectID is written for faces that belong to no segment.
const UndefinedObjectID int32 = -1

// Options configures loading.
type Options struct {
	// Gravity is the target gravity direction applied to semantic loads.
	Gravity math.Vec3
	// SourceGravity is the gravity direction of semantic PLY files.
	SourceGravity math.Vec3
	// MaxVertices and MaxFaces reject headers declaring more elements.
	// Zero means unlimited.
	MaxVertices int
	MaxFaces    int
}

// DefaultOptions returns options for -Z-gravity files loaded into a -Y-gravity frame.
func DefaultOptions() Options {
	return Options{
		Gravity:       math.Vec3{X: 0, Y: -1, Z: 0},
		SourceGravity: math.Vec3{X: 0, Y: 0, Z: -1},
	}
}

// GravityCorrection returns the rotation applied to semantic loads.
func (o Options) GravityCorrection() math.Quat {
	return math.QuatFromTwoVectors(o.SourceGravity, o.Gravity)
}

// meshData is the full buffer set of one load. A load builds a fresh
// meshData and swaps it in only on success.
type meshData struct {
	path   string
	schema formats.PLYSchema

	vertices []math.Vec4 // x, y, z, label
	colors   [][3]uint8
	indices  [][3]int32
	labeled  []bool

	// Per-face ids, index-aligned with indices. Instance loads fill
	// materialIDs, segmentIDs and categoryIDs; semantic loads fill objectIDs.
	materialIDs []int32
	segmentIDs  []int32
	categoryIDs []int32
	objectIDs   []int32

	bounds geom.Bounds
}

// newMeshData presizes buffers from the header. Callers must have checked
// the counts against the file size; labeled is sized after the vertex pass.
func newMeshData(path string, schema formats.PLYSchema, h formats.PLYHeader) *meshData {
	d := &meshData{
		path:     path,
		schema:   schema,
		vertices: make([]math.Vec4, 0, h.VertexCount),
		colors:   make([][3]uint8, 0, h.VertexCount),
		indices:  make([][3]int32, 0, h.FaceCount),
		bounds:   geom.NewBounds(),
	}
	if schema == formats.PLYSchemaInstance {
		d.materialIDs = make([]int32, 0, h.FaceCount)
		d.segmentIDs = make([]int32, 0, h.FaceCount)
		d.categoryIDs = make([]int32, 0, h.FaceCount)
	} else {
		d.objectIDs = make([]int32, 0, h.FaceCount)
	}
	return d
}

// InstanceMesh is a segmented mesh loaded from a PLY file in either the
// instance or the semantic schema. It is not safe for concurrent use; separate
// instances are independent.
type InstanceMesh struct {
	opts     Options
	data     *meshData
	drawable Drawable
}

// NewInstanceMesh returns an empty mesh.
func NewInstanceMesh(opts Options) *InstanceMesh {
	return &InstanceMesh{
		opts: opts,
		data: &meshData{bounds: geom.NewBounds()},
	}
}

// Path returns the file the current buffers were loaded from.
func (m *InstanceMesh) Path() string { return m.data.path }

// Schema returns the schema of the last successful load.
func (m *InstanceMesh) Schema() formats.PLYSchema { return m.data.schema }

// VertexCount returns the number of vertices.
func (m *InstanceMesh) VertexCount() int { return len(m.data.vertices) }

// FaceCount returns the number of triangles.
func (m *InstanceMesh) FaceCount() int { return len(m.data.indices) }

// Vertices returns the vertex buffer. Each element is (x, y, z, label).
// The slice is owned by the mesh and must not be modified.
func (m *InstanceMesh) Vertices() []math.Vec4 { return m.data.vertices }

// Colors returns per-vertex RGB, index-aligned with Vertices.
func (m *InstanceMesh) Colors() [][3]uint8 { return m.data.colors }

// Indices returns the triangles in file order.
func (m *InstanceMesh) Indices() [][3]int32 { return m.data.indices }

// MaterialIDs returns per-face material ids (instance schema only).
func (m *InstanceMesh) MaterialIDs() []int32 { return m.data.materialIDs }

// SegmentIDs returns per-face segment ids (instance schema only).
func (m *InstanceMesh) SegmentIDs() []int32 { return m.data.segmentIDs }

// CategoryIDs returns per-face category ids (instance schema only).
func (m *InstanceMesh) CategoryIDs() []int32 { return m.data.categoryIDs }

// ObjectIDs returns per-face object ids (semantic schema only).
func (m *InstanceMesh) ObjectIDs() []int32 { return m.data.objectIDs }

// Label returns the label of vertex i and whether any face touched it.
func (m *InstanceMesh) Label(i int) (int32, bool) {
	if !m.data.labeled[i] {
		return 0, false
	}
	return int32(m.data.vertices[i][3]), true
}

// Labels returns the per-vertex labels. Vertices no face references are 0;
// use Label to tell them apart from label 0.
func (m *InstanceMesh) Labels() []int32 {
	out := make([]int32, len(m.data.vertices))
	for i, v := range m.data.vertices {
		out[i] = int32(v[3])
	}
	return out
}

// LabeledVertexCount returns how many vertices at least one face references.
func (m *InstanceMesh) LabeledVertexCount() int {
	n := 0
	for _, ok := range m.data.labeled {
		if ok {
			n++
		}
	}
	return n
}

// Bounds returns the bounding box of all vertex positions.
func (m *InstanceMesh) Bounds() geom.Bounds { return m.data.bounds }

// BoundingBoxCoords returns the bounding box as {min corner, max corner}.
func (m *InstanceMesh) BoundingBoxCoords() [2][3]float32 { return m.data.bounds.Coords() }

// PointCloud returns every vertex position as a 3×N matrix.
func (m *InstanceMesh) PointCloud() *geom.PointCloud {
	pc := geom.NewPointCloud(len(m.data.vertices))
	for i, v := range m.data.vertices {
		pc.Set(i, v.XYZ())
	}
	return pc
}
