package render

import (
	"errors"
	"testing"

	"github.com/Faultbox/semmesh/internal/mesh"
	"github.com/Faultbox/semmesh/pkg/math"
)

func TestValidate(t *testing.T) {
	tri := func() *mesh.RenderBuffers {
		return &mesh.RenderBuffers{
			Positions: make([]math.Vec4, 3),
			Colors:    make([]float32, 9),
			Indices:   []uint32{0, 1, 2},
		}
	}

	tests := []struct {
		name   string
		mutate func(b *mesh.RenderBuffers)
		want   error
	}{
		{"valid", func(b *mesh.RenderBuffers) {}, nil},
		{"no vertices", func(b *mesh.RenderBuffers) { b.Positions = nil }, ErrEmptyBuffers},
		{"no indices", func(b *mesh.RenderBuffers) { b.Indices = nil }, ErrEmptyBuffers},
		{"short colors", func(b *mesh.RenderBuffers) { b.Colors = b.Colors[:6] }, ErrBufferMismatch},
		{"partial triangle", func(b *mesh.RenderBuffers) { b.Indices = append(b.Indices, 0) }, ErrBufferMismatch},
		{"index past end", func(b *mesh.RenderBuffers) { b.Indices[2] = 3 }, ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tri()
			tt.mutate(b)
			err := Validate(b)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if !errors.Is(Validate(nil), ErrEmptyBuffers) {
		t.Error("nil buffers should be empty")
	}
}

func TestUploadRejectsInvalidBuffersWithoutContext(t *testing.T) {
	u := NewGLUploader()
	if _, err := u.Upload(&mesh.RenderBuffers{}); !errors.Is(err, ErrEmptyBuffers) {
		t.Errorf("got %v, want ErrEmptyBuffers", err)
	}
}
