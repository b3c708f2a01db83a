package mesh

import (
	"fmt"

	"github.com/Faultbox/semmesh/pkg/geom"
	"github.com/Faultbox/semmesh/pkg/math"
)

// PropagateLabels writes ids[f] into the label slot of every vertex of face f.
// Faces are visited in order, so a vertex shared by faces with different ids
// ends up with the id of the last such face. labeled[v] is set for every
// vertex touched. Fails on the first index outside vertices, leaving earlier
// writes in place.
func PropagateLabels(vertices []math.Vec4, labeled []bool, indices [][3]int32, ids []int32) error {
	if len(ids) != len(indices) {
		return fmt.Errorf("%d ids for %d faces", len(ids), len(indices))
	}
	n := int32(len(vertices))
	for f, tri := range indices {
		label := float32(ids[f])
		for _, v := range tri {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrVertexIndexRange, f, v, n)
			}
			vertices[v][3] = label
			labeled[v] = true
		}
	}
	return nil
}

// propagateLabels runs PropagateLabels with the ids the schema labels by.
func (d *meshData) propagateLabels() error {
	ids := d.segmentIDs
	if d.objectIDs != nil {
		ids = d.objectIDs
	}
	return PropagateLabels(d.vertices, d.labeled, d.indices, ids)
}

// transform applies m to every position in place, keeping labels, and
// recomputes the bounding box in the new frame.
func (d *meshData) transform(m math.Mat4) {
	d.bounds = geom.NewBounds()
	for i, v := range d.vertices {
		p := m.TransformVec3(v.XYZ())
		d.vertices[i] = v.WithXYZ(p)
		d.bounds.Observe(p)
	}
}

// rotate applies q to every position in place, keeping labels, and
// recomputes the bounding box.
func (d *meshData) rotate(q math.Quat) {
	d.bounds = geom.NewBounds()
	for i, v := range d.vertices {
		p := q.Rotate(v.XYZ())
		d.vertices[i] = v.WithXYZ(p)
		d.bounds.Observe(p)
	}
}

// Transform applies m to every vertex position and recomputes the bounding
// box. A GPU drawable created earlier no longer matches and is released.
func (m *InstanceMesh) Transform(t math.Mat4) {
	m.data.transform(t)
	m.Release()
}
