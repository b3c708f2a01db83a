package mesh

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/pkg/geom"
	"github.com/Faultbox/semmesh/pkg/math"
)

// GltfMesh is one mesh of a glTF document reduced to its vertex positions:
// a point cloud over every primitive and the matching bounding box.
type GltfMesh struct {
	path      string
	doc       *gltf.Document
	meshIndex int
	positions [][][3]float32 // one array per primitive, in document order
	cloud     *geom.PointCloud
	bounds    geom.Bounds
	drawable  Drawable
}

// NewGltfMesh returns an empty glTF mesh.
func NewGltfMesh() *GltfMesh {
	return &GltfMesh{
		cloud:  geom.NewPointCloud(0),
		bounds: geom.NewBounds(),
	}
}

// LoadGltf opens a .gltf or .glb file and extracts mesh meshIndex.
func LoadGltf(path string, meshIndex int) (*GltfMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &Error{Op: "load gltf", Path: path, Stage: StageOpen, Err: fmt.Errorf("%w: %w", ErrMeshIO, err)}
	}
	g := NewGltfMesh()
	if err := g.SetMeshData(doc, meshIndex); err != nil {
		return nil, &Error{Op: "load gltf", Path: path, Stage: StageVertex, Err: err}
	}
	g.path = path
	return g, nil
}

// SetMeshData extracts positions from mesh meshIndex of doc. Every primitive
// with a POSITION attribute contributes, concatenated in document order;
// topology is ignored. On failure the previous data is kept.
func (g *GltfMesh) SetMeshData(doc *gltf.Document, meshIndex int) error {
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidMeshIndex, meshIndex, len(doc.Meshes))
	}

	var arrays [][][3]float32
	total := 0
	for p, prim := range doc.Meshes[meshIndex].Primitives {
		idx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if int(idx) >= len(doc.Accessors) {
			return fmt.Errorf("%w: primitive %d position accessor %d of %d", ErrInvalidAccessor, p, idx, len(doc.Accessors))
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[idx], nil)
		if err != nil {
			return fmt.Errorf("primitive %d: reading positions: %w", p, err)
		}
		arrays = append(arrays, positions)
		total += len(positions)
	}

	cloud := geom.NewPointCloud(total)
	bounds := geom.NewBounds()
	col := 0
	for _, positions := range arrays {
		for _, p := range positions {
			cloud.Set(col, math.Vec3From(p))
			bounds.ObserveArray(p)
			col++
		}
	}

	g.Release()
	g.path = ""
	g.doc = doc
	g.meshIndex = meshIndex
	g.positions = arrays
	g.cloud = cloud
	g.bounds = bounds

	logger.Debug("extracted glTF positions",
		zap.Int("mesh", meshIndex),
		zap.Int("primitives", len(arrays)),
		zap.Int("points", total),
		zap.String("bounds", bounds.String()))
	return nil
}

// PointCloud returns all positions as a 3×K matrix.
func (g *GltfMesh) PointCloud() *geom.PointCloud { return g.cloud }

// Bounds returns the bounding box of all positions.
func (g *GltfMesh) Bounds() geom.Bounds { return g.bounds }

// BoundingBoxCoords returns the bounding box as {min corner, max corner}.
func (g *GltfMesh) BoundingBoxCoords() [2][3]float32 { return g.bounds.Coords() }

// Path returns the file the mesh was loaded from, or "" for documents set
// directly.
func (g *GltfMesh) Path() string { return g.path }

// Document returns the source document, or nil before SetMeshData.
func (g *GltfMesh) Document() *gltf.Document { return g.doc }

// RenderBuffers builds GPU buffers for the mesh. Indexed primitives keep
// their indices (offset into the shared vertex buffer); non-indexed
// primitives are drawn as sequential triangles. Colors are white.
func (g *GltfMesh) RenderBuffers() (*RenderBuffers, error) {
	b := &RenderBuffers{
		Positions: make([]math.Vec4, 0, g.cloud.Len()),
		Colors:    make([]float32, 0, 3*g.cloud.Len()),
	}
	if g.doc == nil {
		return b, nil
	}

	base := uint32(0)
	p := 0
	for _, prim := range g.doc.Meshes[g.meshIndex].Primitives {
		if _, ok := prim.Attributes[gltf.POSITION]; !ok {
			continue
		}
		positions := g.positions[p]
		p++

		for _, pos := range positions {
			b.Positions = append(b.Positions, math.Vec4{pos[0], pos[1], pos[2], 0})
			b.Colors = append(b.Colors, 1, 1, 1)
		}

		if prim.Indices != nil {
			if int(*prim.Indices) >= len(g.doc.Accessors) {
				return nil, fmt.Errorf("%w: index accessor %d of %d", ErrInvalidAccessor, *prim.Indices, len(g.doc.Accessors))
			}
			indices, err := modeler.ReadIndices(g.doc, g.doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("reading indices: %w", err)
			}
			for _, i := range indices {
				b.Indices = append(b.Indices, base+i)
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				b.Indices = append(b.Indices, base+uint32(i), base+uint32(i+1), base+uint32(i+2))
			}
		}
		base += uint32(len(positions))
	}
	return b, nil
}

// Upload hands the mesh to u unless a drawable already exists or force is set.
func (g *GltfMesh) Upload(u Uploader, force bool) error {
	if g.drawable != nil && !force {
		return nil
	}
	g.Release()

	b, err := g.RenderBuffers()
	if err != nil {
		return &Error{Op: "upload", Path: g.path, Stage: StageVertex, Err: err}
	}
	dr, err := u.Upload(b)
	if err != nil {
		return &Error{Op: "upload", Path: g.path, Stage: StageCommit, Err: err}
	}
	g.drawable = dr
	return nil
}

// Drawable returns the uploaded drawable, if any.
func (g *GltfMesh) Drawable() (Drawable, bool) {
	return g.drawable, g.drawable != nil
}

// Release frees the drawable, if any.
func (g *GltfMesh) Release() {
	if g.drawable != nil {
		g.drawable.Release()
		g.drawable = nil
	}
}
