// Package render uploads mesh buffers to OpenGL.
package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/semmesh/internal/mesh"
	"github.com/Faultbox/semmesh/pkg/geom"
)

// Vertex attribute locations used by the mesh shaders.
const (
	AttribPosition = 0 // vec4: x, y, z, label
	AttribColor    = 1 // vec3: r, g, b
)

var (
	ErrEmptyBuffers    = errors.New("empty render buffers")
	ErrBufferMismatch  = errors.New("render buffer size mismatch")
	ErrIndexOutOfRange = errors.New("render index out of range")
)

// GLUploader creates GPU buffers for meshes. All methods must be called on
// the goroutine that owns the current OpenGL context.
type GLUploader struct{}

// NewGLUploader returns an uploader for the current context.
func NewGLUploader() *GLUploader {
	return &GLUploader{}
}

// Upload implements mesh.Uploader.
func (u *GLUploader) Upload(b *mesh.RenderBuffers) (mesh.Drawable, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}

	d := &GLMesh{indexCount: int32(len(b.Indices))}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.Positions)*4*4, gl.Ptr(b.Positions), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(AttribPosition, 4, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(AttribPosition)

	gl.GenBuffers(1, &d.cbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.cbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.Colors)*4, gl.Ptr(b.Colors), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(AttribColor, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(AttribColor)

	gl.GenBuffers(1, &d.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(b.Indices)*4, gl.Ptr(b.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		d.Release()
		return nil, fmt.Errorf("uploading mesh: gl error 0x%x", code)
	}
	return d, nil
}

// UploadBounds creates a line drawable for the wireframe of b.
func (u *GLUploader) UploadBounds(b geom.Bounds, padding float32) (*GLLines, error) {
	vertices := b.Wireframe(padding)
	if len(vertices) == 0 {
		return nil, ErrEmptyBuffers
	}

	l := &GLLines{vertexCount: int32(len(vertices) / 3)}
	gl.GenVertexArrays(1, &l.vao)
	gl.BindVertexArray(l.vao)

	gl.GenBuffers(1, &l.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(AttribPosition, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(AttribPosition)

	gl.BindVertexArray(0)
	return l, nil
}

// Validate checks that b can be uploaded: non-empty, one color per vertex
// and whole triangles that stay inside the vertex buffer.
func Validate(b *mesh.RenderBuffers) error {
	if b == nil || len(b.Positions) == 0 || len(b.Indices) == 0 {
		return ErrEmptyBuffers
	}
	if len(b.Colors) != 3*len(b.Positions) {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrBufferMismatch, len(b.Colors)/3, len(b.Positions))
	}
	if len(b.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrBufferMismatch, len(b.Indices))
	}
	n := uint32(len(b.Positions))
	for i, idx := range b.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d is %d, have %d vertices", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

// GLMesh is an uploaded indexed triangle mesh.
type GLMesh struct {
	vao, vbo, cbo, ebo uint32
	indexCount         int32
}

// Draw renders the mesh with the currently bound program.
func (d *GLMesh) Draw() {
	if d.vao == 0 {
		return
	}
	gl.BindVertexArray(d.vao)
	gl.DrawElements(gl.TRIANGLES, d.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Release implements mesh.Drawable.
func (d *GLMesh) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	for _, buf := range []*uint32{&d.vbo, &d.cbo, &d.ebo} {
		if *buf != 0 {
			gl.DeleteBuffers(1, buf)
			*buf = 0
		}
	}
}

// GLLines is an uploaded line list, used for bounding box wireframes.
type GLLines struct {
	vao, vbo    uint32
	vertexCount int32
}

// Draw renders the lines with the currently bound program.
func (l *GLLines) Draw() {
	if l.vao == 0 {
		return
	}
	gl.BindVertexArray(l.vao)
	gl.DrawArrays(gl.LINES, 0, l.vertexCount)
	gl.BindVertexArray(0)
}

// Release frees the GPU buffers.
func (l *GLLines) Release() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		l.vao = 0
	}
	if l.vbo != 0 {
		gl.DeleteBuffers(1, &l.vbo)
		l.vbo = 0
	}
}

var _ mesh.Uploader = (*GLUploader)(nil)
var _ mesh.Drawable = (*GLMesh)(nil)
