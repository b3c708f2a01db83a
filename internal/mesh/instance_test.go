package mesh

import (
	"errors"
	"io/fs"
	stdmath "math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/semmesh/pkg/formats"
	"github.com/Faultbox/semmesh/pkg/math"
)

func loadQuad(t *testing.T) *InstanceMesh {
	t.Helper()
	path := writeTemp(t, "quad.ply", createInstancePLY(len(quadVertices), len(quadFaces), quadVertices, quadFaces))
	m := NewInstanceMesh(DefaultOptions())
	require.NoError(t, m.LoadInstance(path))
	return m
}

func TestLoadInstance(t *testing.T) {
	m := loadQuad(t)

	assert.Equal(t, formats.PLYSchemaInstance, m.Schema())
	require.Equal(t, 5, m.VertexCount())
	require.Equal(t, 2, m.FaceCount())
	require.Len(t, m.Colors(), m.VertexCount())

	for i, v := range quadVertices {
		assert.Equal(t, v.pos, [3]float32{m.Vertices()[i][0], m.Vertices()[i][1], m.Vertices()[i][2]}, "vertex %d", i)
		assert.Equal(t, v.color, m.Colors()[i], "color %d", i)
	}

	assert.Equal(t, [][3]int32{{0, 1, 2}, {0, 2, 3}}, m.Indices())
	assert.Equal(t, []int32{105, 109}, m.MaterialIDs())
	assert.Equal(t, []int32{5, 9}, m.SegmentIDs())
	assert.Equal(t, []int32{205, 209}, m.CategoryIDs())
	assert.Nil(t, m.ObjectIDs())

	// The bounding box covers every vertex, including unreferenced ones.
	assert.Equal(t, [2][3]float32{{-3, 0, -2}, {1, 7, 0.5}}, m.BoundingBoxCoords())
}

func TestLoadInstance_LabelsLastFaceWins(t *testing.T) {
	m := loadQuad(t)

	tests := []struct {
		vertex  int
		label   int32
		labeled bool
	}{
		{0, 9, true}, // shared, second face wins
		{1, 5, true},
		{2, 9, true}, // shared, second face wins
		{3, 9, true},
		{4, 0, false}, // no face touches it
	}
	for _, tc := range tests {
		label, ok := m.Label(tc.vertex)
		assert.Equal(t, tc.labeled, ok, "vertex %d labeled", tc.vertex)
		assert.Equal(t, tc.label, label, "vertex %d label", tc.vertex)
	}
	assert.Equal(t, 4, m.LabeledVertexCount())
	assert.Equal(t, []int32{9, 5, 9, 9, 0}, m.Labels())
	assert.Equal(t, float32(9), m.Vertices()[0][3])
}

func TestLoadInstance_LabelOrderFollowsFile(t *testing.T) {
	faces := []testFace{tri(0, 2, 3, 9), tri(0, 1, 2, 5)}
	path := writeTemp(t, "swapped.ply", createInstancePLY(len(quadVertices), len(faces), quadVertices, faces))

	m := NewInstanceMesh(DefaultOptions())
	require.NoError(t, m.LoadInstance(path))

	label, _ := m.Label(0)
	assert.Equal(t, int32(5), label)
	label, _ = m.Label(3)
	assert.Equal(t, int32(9), label)
}

func TestLoadInstance_NegativeSegmentLabel(t *testing.T) {
	faces := []testFace{tri(0, 1, 2, -1)}
	path := writeTemp(t, "neg.ply", createInstancePLY(3, 1, quadVertices[:3], faces))

	m := NewInstanceMesh(DefaultOptions())
	require.NoError(t, m.LoadInstance(path))
	label, ok := m.Label(1)
	assert.True(t, ok)
	assert.Equal(t, int32(-1), label)
}

func TestLoadInstance_Empty(t *testing.T) {
	path := writeTemp(t, "empty.ply", createInstancePLY(0, 0, nil, nil))

	m := NewInstanceMesh(DefaultOptions())
	require.NoError(t, m.LoadInstance(path))
	assert.Equal(t, 0, m.VertexCount())
	assert.True(t, m.Bounds().IsEmpty())
	assert.Equal(t, 0, m.PointCloud().Len())
}

func TestLoadInstance_Errors(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		stage Stage
		want  error
	}{
		{
			name:  "bad header",
			data:  []byte("ply\nformat ascii 1.0\n"),
			stage: StageHeader,
			want:  formats.ErrInvalidPLYHeader,
		},
		{
			name:  "fewer vertices than declared",
			data:  createInstancePLY(5, 0, quadVertices[:3], nil),
			stage: StageVertex,
			want:  formats.ErrTruncatedPLYData,
		},
		{
			name:  "fewer faces than declared",
			data:  createInstancePLY(5, 3, quadVertices, quadFaces),
			stage: StageFace,
			want:  formats.ErrTruncatedPLYData,
		},
		{
			name:  "quad face",
			data:  createInstancePLY(5, 1, quadVertices, []testFace{{count: 4, indices: [3]int32{0, 1, 2}}}),
			stage: StageFace,
			want:  formats.ErrUnsupportedTopology,
		},
		{
			name:  "index past end",
			data:  createInstancePLY(3, 1, quadVertices[:3], []testFace{tri(0, 1, 3, 1)}),
			stage: StageLabels,
			want:  ErrVertexIndexRange,
		},
		{
			name:  "negative index",
			data:  createInstancePLY(3, 1, quadVertices[:3], []testFace{tri(0, -1, 2, 1)}),
			stage: StageLabels,
			want:  ErrVertexIndexRange,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTemp(t, "bad.ply", tc.data)
			err := NewInstanceMesh(DefaultOptions()).LoadInstance(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var merr *Error
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, tc.stage, merr.Stage)
			assert.Equal(t, path, merr.Path)
			assert.Equal(t, "load instance", merr.Op)
			assert.Contains(t, err.Error(), string(tc.stage))
		})
	}
}

func TestLoadInstance_DeclaredCountsExceedFile(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		stage Stage
		want  error
	}{
		{
			name:  "max int32 vertices",
			data:  createInstancePLY(stdmath.MaxInt32, 0, nil, nil),
			stage: StageVertex,
			want:  formats.ErrTruncatedPLYData,
		},
		{
			name:  "max int32 faces",
			data:  createInstancePLY(len(quadVertices), stdmath.MaxInt32, quadVertices, quadFaces),
			stage: StageFace,
			want:  formats.ErrTruncatedPLYData,
		},
		{
			name:  "count beyond int32",
			data:  []byte("ply\nformat binary_little_endian 1.0\nelement vertex 9000000000000000000\nelement face 0\nend_header\n"),
			stage: StageHeader,
			want:  formats.ErrInvalidPLYHeader,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTemp(t, "huge.ply", tc.data)
			for _, load := range []func(*InstanceMesh, string) error{
				(*InstanceMesh).LoadInstance,
				(*InstanceMesh).LoadSemantic,
			} {
				err := load(NewInstanceMesh(DefaultOptions()), path)
				require.ErrorIs(t, err, tc.want)

				var merr *Error
				require.True(t, errors.As(err, &merr))
				assert.Equal(t, tc.stage, merr.Stage)
			}
		})
	}
}

func TestLoadInstance_MissingFile(t *testing.T) {
	err := NewInstanceMesh(DefaultOptions()).LoadInstance(filepath.Join(t.TempDir(), "nope.ply"))
	assert.ErrorIs(t, err, ErrMeshIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, StageOpen, merr.Stage)
}

func TestLoadInstance_Limits(t *testing.T) {
	path := writeTemp(t, "quad.ply", createInstancePLY(len(quadVertices), len(quadFaces), quadVertices, quadFaces))

	opts := DefaultOptions()
	opts.MaxVertices = 4
	assert.ErrorIs(t, NewInstanceMesh(opts).LoadInstance(path), ErrMeshTooLarge)

	opts = DefaultOptions()
	opts.MaxFaces = 1
	assert.ErrorIs(t, NewInstanceMesh(opts).LoadInstance(path), ErrMeshTooLarge)

	opts.MaxFaces = 2
	assert.NoError(t, NewInstanceMesh(opts).LoadInstance(path))
}

func TestLoadInstance_FailureKeepsPreviousState(t *testing.T) {
	m := loadQuad(t)
	before := append([]math.Vec4(nil), m.Vertices()...)
	path := m.Path()

	bad := writeTemp(t, "bad.ply", createInstancePLY(5, 1, quadVertices, []testFace{{count: 5}}))
	err := m.LoadInstance(bad)
	require.ErrorIs(t, err, formats.ErrUnsupportedTopology)

	assert.Equal(t, path, m.Path())
	assert.Equal(t, before, m.Vertices())
	assert.Equal(t, 2, m.FaceCount())
	assert.Equal(t, []int32{5, 9}, m.SegmentIDs())
}

func TestLoadInstance_ReloadReplacesBuffers(t *testing.T) {
	m := loadQuad(t)
	u := &fakeUploader{}
	require.NoError(t, m.Upload(u, false))

	small := writeTemp(t, "small.ply", createInstancePLY(3, 1, quadVertices[:3], []testFace{tri(2, 1, 0, 42)}))
	require.NoError(t, m.LoadInstance(small))

	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 1, m.FaceCount())
	assert.Equal(t, []int32{42}, m.SegmentIDs())
	assert.Equal(t, [2][3]float32{{0, 0, 0}, {1, 1, 0}}, m.BoundingBoxCoords())

	// The old drawable was released and nothing replaced it.
	_, ok := m.Drawable()
	assert.False(t, ok)
	assert.Equal(t, 1, u.made[0].released)
}

func TestPropagateLabels(t *testing.T) {
	vertices := make([]math.Vec4, 4)
	labeled := make([]bool, 4)
	indices := [][3]int32{{0, 1, 2}, {2, 1, 0}, {1, 2, 3}}
	ids := []int32{1, 2, 3}

	require.NoError(t, PropagateLabels(vertices, labeled, indices, ids))
	assert.Equal(t, float32(2), vertices[0][3])
	assert.Equal(t, float32(3), vertices[1][3])
	assert.Equal(t, float32(3), vertices[2][3])
	assert.Equal(t, float32(3), vertices[3][3])
	assert.Equal(t, []bool{true, true, true, true}, labeled)

	assert.Error(t, PropagateLabels(vertices, labeled, indices, ids[:2]))
}

func TestPointCloudMatchesVertices(t *testing.T) {
	m := loadQuad(t)
	pc := m.PointCloud()
	require.Equal(t, m.VertexCount(), pc.Len())
	for i, v := range m.Vertices() {
		assert.Equal(t, v.XYZ(), pc.At(i))
	}
}

func TestTransformRecomputesBounds(t *testing.T) {
	m := loadQuad(t)
	m.Transform(math.Translate(10, 0, 0))

	assert.Equal(t, [2][3]float32{{7, 0, -2}, {11, 7, 0.5}}, m.BoundingBoxCoords())
	label, _ := m.Label(0)
	assert.Equal(t, int32(9), label, "labels survive transforms")
}
