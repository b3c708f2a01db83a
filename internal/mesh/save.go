package mesh

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/pkg/formats"
)

// SegmentMap maps instance segment ids to semantic object ids.
type SegmentMap map[int32]int32

// ResolveObjectIDs maps every face's segment id to an object id. Negative
// segment ids become UndefinedObjectID without a lookup.
func ResolveObjectIDs(segmentIDs []int32, segmentToObject SegmentMap) ([]int32, error) {
	objectIDs := make([]int32, len(segmentIDs))
	for f, seg := range segmentIDs {
		if seg < 0 {
			objectIDs[f] = UndefinedObjectID
			continue
		}
		obj, ok := segmentToObject[seg]
		if !ok {
			return nil, fmt.Errorf("%w: face %d segment %d", ErrUnresolvedSegment, f, seg)
		}
		objectIDs[f] = obj
	}
	return objectIDs, nil
}

// SaveSemantic writes the mesh as a semantic-schema PLY file, replacing each
// face's segment id with its object id from segmentToObject.
//
// Every id is resolved before anything is written. The file is staged next
// to path and renamed into place on success, so a failed save leaves nothing
// at path. Normals, texture coordinates, and material/category ids are not
// part of the semantic schema and are dropped.
func (m *InstanceMesh) SaveSemantic(path string, segmentToObject SegmentMap) error {
	const op = "save semantic"
	fail := func(stage Stage, err error) error {
		return &Error{Op: op, Path: path, Stage: stage, Err: err}
	}

	d := m.data
	if d.segmentIDs == nil && len(d.indices) > 0 {
		return fail(StageResolve, ErrNoSegments)
	}
	objectIDs, err := ResolveObjectIDs(d.segmentIDs, segmentToObject)
	if err != nil {
		return fail(StageResolve, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(StageWrite, fmt.Errorf("%w: %w", ErrMeshIO, err))
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriterSize(tmp, readBufferSize)
	if err := d.writeSemantic(w, objectIDs); err != nil {
		return fail(StageWrite, fmt.Errorf("%w: %w", ErrMeshIO, err))
	}
	if err := w.Flush(); err != nil {
		return fail(StageWrite, fmt.Errorf("%w: %w", ErrMeshIO, err))
	}
	if err := tmp.Close(); err != nil {
		return fail(StageWrite, fmt.Errorf("%w: %w", ErrMeshIO, err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fail(StageCommit, fmt.Errorf("%w: %w", ErrMeshIO, err))
	}
	committed = true

	logger.Debug("saved semantic mesh",
		zap.String("path", path),
		zap.Int("vertices", len(d.vertices)),
		zap.Int("faces", len(d.indices)))
	return nil
}

func (d *meshData) writeSemantic(w *bufio.Writer, objectIDs []int32) error {
	h := formats.PLYHeader{VertexCount: len(d.vertices), FaceCount: len(d.indices)}
	if err := formats.WritePLYHeader(w, h); err != nil {
		return err
	}
	for i, v := range d.vertices {
		rec := formats.PLYVertex{
			Position: [3]float32{v[0], v[1], v[2]},
			Color:    d.colors[i],
		}
		if err := formats.WriteSemanticVertex(w, rec); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	for i, tri := range d.indices {
		if err := formats.WriteSemanticFace(w, formats.PLYSemanticFace{Indices: tri, ObjectID: objectIDs[i]}); err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
	}
	return nil
}
