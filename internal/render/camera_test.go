package render

import (
	"testing"

	"github.com/Faultbox/semmesh/pkg/geom"
	"github.com/Faultbox/semmesh/pkg/math"
)

func TestOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Distance = 4
	c.Pitch = 0
	c.Yaw = 0

	want := math.Vec3{X: 1, Y: 2, Z: 7}
	if got := c.Position(); !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Position() = %v, want %v", got, want)
	}

	// The view matrix maps the center onto the -Z axis.
	v := c.ViewMatrix().TransformVec3(c.Center)
	if !v.ApproxEqual(math.Vec3{X: 0, Y: 0, Z: -4}, 1e-5) {
		t.Errorf("center in view space = %v", v)
	}
}

func TestOrbitCameraClamps(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %f, want %f", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch = %f, want %f", c.Pitch, c.MinPitch)
	}

	c.HandleZoom(100)
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %f, want %f", c.Distance, c.MinDistance)
	}
}

func TestOrbitCameraFitBounds(t *testing.T) {
	c := NewOrbitCamera()
	b := geom.NewBounds()
	b.Observe(math.Vec3{X: -3, Y: 0, Z: 0})
	b.Observe(math.Vec3{X: 3, Y: 8, Z: 0})

	c.FitBounds(b)
	if !c.Center.ApproxEqual(math.Vec3{X: 0, Y: 4, Z: 0}, 1e-6) {
		t.Errorf("center = %v", c.Center)
	}
	if c.Distance != 12.5 {
		t.Errorf("distance = %f, want 12.5", c.Distance)
	}

	before := *c
	c.FitBounds(geom.NewBounds())
	if *c != before {
		t.Error("empty bounds should not move the camera")
	}
}
