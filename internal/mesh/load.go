package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/pkg/formats"
	"github.com/Faultbox/semmesh/pkg/math"
)

const readBufferSize = 1 << 16

// LoadInstance loads an instance-schema PLY file (faces carry material,
// segment and category ids). Vertex labels are set to segment ids.
//
// On failure the mesh keeps its previous buffers.
func (m *InstanceMesh) LoadInstance(path string) error {
	d, err := m.read(path, formats.PLYSchemaInstance)
	if err != nil {
		return err
	}
	m.commit(d)
	return nil
}

// LoadSemantic loads a semantic-schema PLY file (faces carry one object id).
// Vertex labels are set to object ids, then every position is rotated from
// the file's gravity convention into the configured one.
//
// On failure the mesh keeps its previous buffers.
func (m *InstanceMesh) LoadSemantic(path string) error {
	d, err := m.read(path, formats.PLYSchemaSemantic)
	if err != nil {
		return err
	}
	// Labels were propagated on raw file coordinates; rotate only now.
	d.rotate(m.opts.GravityCorrection())
	logger.Debug("applied gravity correction",
		zap.String("path", path),
		zap.String("bounds", d.bounds.String()))
	m.commit(d)
	return nil
}

// commit swaps in freshly loaded buffers and drops the stale drawable.
func (m *InstanceMesh) commit(d *meshData) {
	m.Release()
	m.data = d
}

// read parses a whole file into a new meshData.
func (m *InstanceMesh) read(path string, schema formats.PLYSchema) (*meshData, error) {
	op := "load " + schema.String()
	fail := func(stage Stage, err error) error {
		return &Error{Op: op, Path: path, Stage: stage, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fail(StageOpen, fmt.Errorf("%w: %w", ErrMeshIO, err))
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, readBufferSize)

	h, err := formats.ReadPLYHeader(r)
	if err != nil {
		return nil, fail(StageHeader, classify(err))
	}
	if m.opts.MaxVertices > 0 && h.VertexCount > m.opts.MaxVertices {
		return nil, fail(StageHeader, fmt.Errorf("%w: %d vertices (max %d)", ErrMeshTooLarge, h.VertexCount, m.opts.MaxVertices))
	}
	if m.opts.MaxFaces > 0 && h.FaceCount > m.opts.MaxFaces {
		return nil, fail(StageHeader, fmt.Errorf("%w: %d faces (max %d)", ErrMeshTooLarge, h.FaceCount, m.opts.MaxFaces))
	}
	if err := checkBodySize(f, r, schema, h); err != nil {
		stage := StageVertex
		if errors.Is(err, errShortFaces) {
			stage = StageFace
		}
		return nil, fail(stage, err)
	}
	logger.Debug("parsed PLY header",
		zap.String("path", path),
		zap.Stringer("schema", schema),
		zap.Int("vertices", h.VertexCount),
		zap.Int("faces", h.FaceCount))

	d := newMeshData(path, schema, h)

	if err := d.readVertices(r, h.VertexCount); err != nil {
		return nil, fail(StageVertex, err)
	}
	logger.Debug("read vertices",
		zap.String("path", path),
		zap.String("bounds", d.bounds.String()))

	if err := d.readFaces(r, h.FaceCount); err != nil {
		return nil, fail(StageFace, err)
	}

	d.labeled = make([]bool, len(d.vertices))

	// Labels are derived only once every face is known.
	if err := d.propagateLabels(); err != nil {
		return nil, fail(StageLabels, err)
	}

	return d, nil
}

func (d *meshData) readVertices(r *bufio.Reader, n int) error {
	read := formats.ReadInstanceVertex
	if d.schema == formats.PLYSchemaSemantic {
		read = formats.ReadSemanticVertex
	}

	for i := 0; i < n; i++ {
		v, err := read(r)
		if err != nil {
			return fmt.Errorf("vertex %d of %d: %w", i, n, classify(err))
		}
		p := math.Vec3From(v.Position)
		d.vertices = append(d.vertices, math.Vec4{p.X, p.Y, p.Z, 0})
		d.colors = append(d.colors, v.Color)
		d.bounds.Observe(p)
	}
	return nil
}

func (d *meshData) readFaces(r *bufio.Reader, n int) error {
	for i := 0; i < n; i++ {
		if d.schema == formats.PLYSchemaSemantic {
			f, err := formats.ReadSemanticFace(r)
			if err != nil {
				return fmt.Errorf("face %d of %d: %w", i, n, classify(err))
			}
			d.indices = append(d.indices, f.Indices)
			d.objectIDs = append(d.objectIDs, f.ObjectID)
			continue
		}

		f, err := formats.ReadInstanceFace(r)
		if err != nil {
			return fmt.Errorf("face %d of %d: %w", i, n, classify(err))
		}
		d.indices = append(d.indices, f.Indices)
		d.materialIDs = append(d.materialIDs, f.MaterialID)
		d.segmentIDs = append(d.segmentIDs, f.SegmentID)
		d.categoryIDs = append(d.categoryIDs, f.CategoryID)
	}
	return nil
}

var errShortFaces = errors.New("face records")

// checkBodySize fails with formats.ErrTruncatedPLYData when the declared
// counts need more bytes than the file has left after the header, so that
// buffers sized from the header stay bounded by the file. Non-regular files
// are not checked.
func checkBodySize(f *os.File, r *bufio.Reader, schema formats.PLYSchema, h formats.PLYHeader) error {
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return nil
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil
	}
	remaining := fi.Size() - (pos - int64(r.Buffered()))

	vertexBytes := int64(h.VertexCount) * int64(schema.VertexSize())
	if vertexBytes > remaining {
		return fmt.Errorf("%w: %d vertices need %d bytes, %d left", formats.ErrTruncatedPLYData, h.VertexCount, vertexBytes, remaining)
	}
	faceBytes := int64(h.FaceCount) * int64(schema.FaceSize())
	if faceBytes > remaining-vertexBytes {
		return fmt.Errorf("%w: %w: %d faces need %d bytes, %d left", formats.ErrTruncatedPLYData, errShortFaces, h.FaceCount, faceBytes, remaining-vertexBytes)
	}
	return nil
}

// classify tags codec errors that are not format problems as I/O failures.
func classify(err error) error {
	switch {
	case errors.Is(err, formats.ErrInvalidPLYHeader),
		errors.Is(err, formats.ErrTruncatedPLYData),
		errors.Is(err, formats.ErrUnsupportedTopology):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrMeshIO, err)
	}
}
