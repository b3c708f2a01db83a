package geom

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/semmesh/pkg/math"
)

// PointCloud is a dense 3×K matrix of positions, one column per point.
// Its size is fixed at construction.
type PointCloud struct {
	m *mat.Dense
	n int
}

// NewPointCloud allocates a cloud for exactly n points, all at the origin.
func NewPointCloud(n int) *PointCloud {
	pc := &PointCloud{n: n}
	if n > 0 {
		pc.m = mat.NewDense(3, n, nil)
	}
	return pc
}

// Len returns the number of points.
func (pc *PointCloud) Len() int {
	return pc.n
}

// Set writes point i. Panics if i is out of range.
func (pc *PointCloud) Set(i int, p math.Vec3) {
	pc.m.Set(0, i, float64(p.X))
	pc.m.Set(1, i, float64(p.Y))
	pc.m.Set(2, i, float64(p.Z))
}

// At returns point i. Panics if i is out of range.
func (pc *PointCloud) At(i int) math.Vec3 {
	return math.Vec3{
		X: float32(pc.m.At(0, i)),
		Y: float32(pc.m.At(1, i)),
		Z: float32(pc.m.At(2, i)),
	}
}

// Matrix returns the backing 3×K matrix, or nil for an empty cloud.
func (pc *PointCloud) Matrix() mat.Matrix {
	if pc.m == nil {
		return nil
	}
	return pc.m
}

// Centroid returns the mean position. Returns the zero vector when empty.
func (pc *PointCloud) Centroid() math.Vec3 {
	if pc.n == 0 {
		return math.Vec3{}
	}
	var c [3]float64
	for row := 0; row < 3; row++ {
		c[row] = mat.Sum(pc.m.RowView(row)) / float64(pc.n)
	}
	return math.Vec3{X: float32(c[0]), Y: float32(c[1]), Z: float32(c[2])}
}

// Bounds computes the bounding box of every point in the cloud.
func (pc *PointCloud) Bounds() Bounds {
	b := NewBounds()
	for i := 0; i < pc.n; i++ {
		b.Observe(pc.At(i))
	}
	return b
}
