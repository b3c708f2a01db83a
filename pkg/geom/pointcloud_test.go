package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/semmesh/pkg/math"
)

func TestPointCloudEmpty(t *testing.T) {
	pc := NewPointCloud(0)
	assert.Equal(t, 0, pc.Len())
	assert.Nil(t, pc.Matrix())
	assert.Equal(t, math.Vec3{}, pc.Centroid())
	assert.True(t, pc.Bounds().IsEmpty())
}

func TestPointCloudSetAt(t *testing.T) {
	points := []math.Vec3{
		{X: 1, Y: 2, Z: 3},
		{X: -4, Y: 5.25, Z: 0.1},
		{X: 7, Y: -8, Z: 9},
	}
	pc := NewPointCloud(len(points))
	for i, p := range points {
		pc.Set(i, p)
	}

	require.Equal(t, len(points), pc.Len())
	for i, p := range points {
		assert.Equal(t, p, pc.At(i), "point %d", i)
	}

	rows, cols := pc.Matrix().Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	// One column per point.
	assert.Equal(t, float64(float32(5.25)), pc.Matrix().At(1, 1))
}

func TestPointCloudCentroidAndBounds(t *testing.T) {
	pc := NewPointCloud(2)
	pc.Set(0, math.Vec3{X: 0, Y: 0, Z: 0})
	pc.Set(1, math.Vec3{X: 2, Y: 4, Z: -6})

	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: -3}, pc.Centroid())

	b := pc.Bounds()
	assert.Equal(t, math.Vec3{X: 0, Y: 0, Z: -6}, b.Min)
	assert.Equal(t, math.Vec3{X: 2, Y: 4, Z: 0}, b.Max)
}

func TestPointCloudSetOutOfRangePanics(t *testing.T) {
	pc := NewPointCloud(1)
	assert.Panics(t, func() { pc.Set(1, math.Vec3{}) })
}
