package render

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/semmesh/pkg/geom"
	"github.com/Faultbox/semmesh/pkg/math"
)

// OrbitCamera orbits around a center point. Y is up, matching the gravity
// corrected frame of semantic meshes.
type OrbitCamera struct {
	Center math.Vec3

	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around Y

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10,
		Pitch:           0.5,
		MinDistance:     0.1,
		MaxDistance:     10000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	offset := math.Vec3{
		X: math32.Cos(c.Pitch) * math32.Sin(c.Yaw),
		Y: math32.Sin(c.Pitch),
		Z: math32.Cos(c.Pitch) * math32.Cos(c.Yaw),
	}
	return c.Center.Add(offset.Scale(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.UnitY)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom scales the distance by a scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitBounds centers the camera on b at a distance that keeps it in view.
// Empty bounds leave the camera unchanged.
func (c *OrbitCamera) FitBounds(b geom.Bounds) {
	if b.IsEmpty() {
		return
	}
	c.Center = b.Center()
	radius := b.Size().Length() / 2
	c.Distance = clamp(radius*2.5, c.MinDistance, c.MaxDistance)
	c.Pitch = 0.5
	c.Yaw = 0
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
