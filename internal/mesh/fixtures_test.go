package mesh

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// testVertex is one fixture vertex; normal and texcoord are filled with
// recognizable junk for the instance schema.
type testVertex struct {
	pos   [3]float32
	color [3]uint8
}

// testFace is one fixture face. For the semantic schema only segment is
// written, as the object id.
type testFace struct {
	count    uint8
	indices  [3]int32
	material int32
	segment  int32
	category int32
}

func tri(a, b, c int32, segment int32) testFace {
	return testFace{count: 3, indices: [3]int32{a, b, c}, material: 100 + segment, segment: segment, category: 200 + segment}
}

// createInstancePLY builds an instance-schema file in memory.
func createInstancePLY(declaredVertices, declaredFaces int, vertices []testVertex, faces []testFace) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("ply\nformat binary_little_endian 1.0\n")
	buf.WriteString("element vertex " + strconv.Itoa(declaredVertices) + "\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	buf.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	buf.WriteString("property float tx\nproperty float ty\n")
	buf.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	buf.WriteString("element face " + strconv.Itoa(declaredFaces) + "\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("property int material_id\nproperty int segment_id\nproperty int category_id\n")
	buf.WriteString("end_header\n")

	for _, v := range vertices {
		binary.Write(buf, binary.LittleEndian, v.pos)
		binary.Write(buf, binary.LittleEndian, [3]float32{0, 0, 1})
		binary.Write(buf, binary.LittleEndian, [2]float32{0.25, 0.75})
		binary.Write(buf, binary.LittleEndian, v.color)
	}
	for _, f := range faces {
		buf.WriteByte(f.count)
		binary.Write(buf, binary.LittleEndian, f.indices)
		binary.Write(buf, binary.LittleEndian, f.material)
		binary.Write(buf, binary.LittleEndian, f.segment)
		binary.Write(buf, binary.LittleEndian, f.category)
	}
	return buf.Bytes()
}

// createSemanticPLY builds a semantic-schema file in memory.
func createSemanticPLY(vertices []testVertex, faces []testFace) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("ply\nformat binary_little_endian 1.0\n")
	buf.WriteString("element vertex " + strconv.Itoa(len(vertices)) + "\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	buf.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	buf.WriteString("element face " + strconv.Itoa(len(faces)) + "\n")
	buf.WriteString("property list uchar int vertex_indices\nproperty int object_id\n")
	buf.WriteString("end_header\n")

	for _, v := range vertices {
		binary.Write(buf, binary.LittleEndian, v.pos)
		binary.Write(buf, binary.LittleEndian, v.color)
	}
	for _, f := range faces {
		buf.WriteByte(f.count)
		binary.Write(buf, binary.LittleEndian, f.indices)
		binary.Write(buf, binary.LittleEndian, f.segment)
	}
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// quadVertices is a unit square plus one vertex no face touches.
var quadVertices = []testVertex{
	{pos: [3]float32{0, 0, 0}, color: [3]uint8{255, 0, 0}},
	{pos: [3]float32{1, 0, 0}, color: [3]uint8{0, 255, 0}},
	{pos: [3]float32{1, 1, 0}, color: [3]uint8{0, 0, 255}},
	{pos: [3]float32{0, 1, 0.5}, color: [3]uint8{10, 20, 30}},
	{pos: [3]float32{-3, 7, -2}, color: [3]uint8{1, 2, 3}},
}

// quadFaces share vertices 0 and 2 with different segment ids.
var quadFaces = []testFace{
	tri(0, 1, 2, 5),
	tri(0, 2, 3, 9),
}

// fakeDrawable counts releases.
type fakeDrawable struct {
	released int
}

func (d *fakeDrawable) Release() { d.released++ }

// fakeUploader records what it was given.
type fakeUploader struct {
	calls int
	last  *RenderBuffers
	err   error
	made  []*fakeDrawable
}

func (u *fakeUploader) Upload(b *RenderBuffers) (Drawable, error) {
	u.calls++
	u.last = b
	if u.err != nil {
		return nil, u.err
	}
	d := &fakeDrawable{}
	u.made = append(u.made, d)
	return d, nil
}
