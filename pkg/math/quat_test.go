package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatFromTwoVectors(t *testing.T) {
	tests := []struct {
		name     string
		from, to Vec3
	}{
		{"down z to down y", Vec3{0, 0, -1}, Vec3{0, -1, 0}},
		{"x to y", UnitX, UnitY},
		{"same direction", UnitZ, UnitZ},
		{"opposite z", UnitZ, UnitZ.Negate()},
		{"opposite x", UnitX, UnitX.Negate()},
		{"unnormalized", Vec3{0, 0, -5}, Vec3{3, 4, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := QuatFromTwoVectors(tc.from, tc.to)
			got := q.Rotate(tc.from.Normalize())
			want := tc.to.Normalize()
			if !got.ApproxEqual(want, 1e-5) {
				t.Errorf("rotate(%v) = %v, want %v", tc.from, got, want)
			}
		})
	}
}

func TestQuatFromTwoVectorsIsMinimal(t *testing.T) {
	// The rotation axis of a minimal rotation is perpendicular to both inputs.
	q := QuatFromTwoVectors(Vec3{0, 0, -1}, Vec3{0, -1, 0})
	if math.Abs(float64(q.Y)) > 1e-6 || math.Abs(float64(q.Z)) > 1e-6 {
		t.Errorf("expected rotation about X only, got %+v", q)
	}

	// Vectors along the axis are left alone.
	if got := q.Rotate(UnitX); !got.ApproxEqual(UnitX, 1e-6) {
		t.Errorf("axis vector moved: %v", got)
	}
}

func TestQuatRotateAxisTurnsAreExact(t *testing.T) {
	quarter := QuatFromTwoVectors(Vec3{0, 0, -1}, Vec3{0, -1, 0})
	half := QuatFromTwoVectors(Vec3{0, 0, -1}, Vec3{0, 0, 1})

	tests := []struct {
		name string
		q    Quat
		in   Vec3
		want Vec3
	}{
		{"down z onto down y", quarter, Vec3{0, 0, -1}, Vec3{0, -1, 0}},
		{"up y onto down z", quarter, Vec3{0, 1, 0}, Vec3{0, 0, -1}},
		{"mixed point", quarter, Vec3{5, -2, 3}, Vec3{5, 3, 2}},
		{"axis untouched", quarter, Vec3{4, 0, 0}, Vec3{4, 0, 0}},
		{"half turn", half, Vec3{0, 0, -1}, Vec3{0, 0, 1}},
		{"origin", quarter, Vec3{}, Vec3{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.Rotate(tc.in); got != tc.want {
				t.Errorf("Rotate(%v) = %v, want exactly %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestQuatRotateKeepsSmallComponents(t *testing.T) {
	got := QuatIdentity().Rotate(Vec3{1000, 0.001, 0})
	if got != (Vec3{1000, 0.001, 0}) {
		t.Errorf("identity rotation changed %v", got)
	}
}
