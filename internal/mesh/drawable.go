package mesh

import (
	"github.com/Faultbox/semmesh/pkg/math"
)

// RenderBuffers is the plain-data form of a mesh handed to a GPU uploader.
// It can be built on any goroutine; the upload itself must run on the
// goroutine that owns the graphics context.
type RenderBuffers struct {
	Positions []math.Vec4 // x, y, z, label
	Colors    []float32   // r, g, b per vertex in [0, 1]
	Indices   []uint32    // 3 per triangle
}

// TriangleCount returns the number of triangles in the index buffer.
func (b *RenderBuffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// Drawable is an uploaded, renderable mesh. Release frees its GPU resources.
type Drawable interface {
	Release()
}

// Uploader turns render buffers into a drawable.
type Uploader interface {
	Upload(b *RenderBuffers) (Drawable, error)
}

// RenderBuffers converts the mesh into GPU-ready buffers: colors become
// normalized floats and triangles a flat uint32 index list.
func (m *InstanceMesh) RenderBuffers() *RenderBuffers {
	d := m.data
	b := &RenderBuffers{
		Positions: make([]math.Vec4, len(d.vertices)),
		Colors:    make([]float32, 3*len(d.colors)),
		Indices:   make([]uint32, 3*len(d.indices)),
	}
	copy(b.Positions, d.vertices)
	for i, c := range d.colors {
		b.Colors[3*i+0] = float32(c[0]) / 255
		b.Colors[3*i+1] = float32(c[1]) / 255
		b.Colors[3*i+2] = float32(c[2]) / 255
	}
	// Indices were range-checked during label propagation.
	for i, tri := range d.indices {
		b.Indices[3*i+0] = uint32(tri[0])
		b.Indices[3*i+1] = uint32(tri[1])
		b.Indices[3*i+2] = uint32(tri[2])
	}
	return b
}

// Upload hands the mesh to u unless a drawable already exists. With force,
// any existing drawable is released and the mesh uploaded again.
func (m *InstanceMesh) Upload(u Uploader, force bool) error {
	if m.drawable != nil && !force {
		return nil
	}
	m.Release()

	dr, err := u.Upload(m.RenderBuffers())
	if err != nil {
		return &Error{Op: "upload", Path: m.data.path, Stage: StageCommit, Err: err}
	}
	m.drawable = dr
	return nil
}

// Drawable returns the uploaded drawable, if any. It is cleared by every
// successful load and by Release.
func (m *InstanceMesh) Drawable() (Drawable, bool) {
	return m.drawable, m.drawable != nil
}

// Release frees the drawable, if any.
func (m *InstanceMesh) Release() {
	if m.drawable != nil {
		m.drawable.Release()
		m.drawable = nil
	}
}
