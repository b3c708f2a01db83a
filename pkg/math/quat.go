package math

import (
	stdmath "math"

	"github.com/chewxy/math32"
)

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// antiparallelEpsilon is the dot product threshold below -1 at which two
// directions are treated as opposite.
const antiparallelEpsilon = 1e-6

// rotateResidue is the fraction of |v| below which a rotated component is
// rounding noise and becomes zero.
const rotateResidue = 1e-12

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromTwoVectors returns the minimal rotation taking direction from onto
// direction to. Neither input needs to be normalized. When the directions are
// opposite, the result is a half turn about an axis perpendicular to from.
func QuatFromTwoVectors(from, to Vec3) Quat {
	v0 := from.Normalize()
	v1 := to.Normalize()
	c := v0.Dot(v1)

	if c < -1+antiparallelEpsilon {
		axis := v0.Cross(UnitX)
		if axis.Length() < 1e-3 {
			axis = v0.Cross(UnitY)
		}
		axis = axis.Normalize()
		return Quat{X: axis.X, Y: axis.Y, Z: axis.Z, W: 0}
	}

	axis := v0.Cross(v1)
	s := math32.Sqrt((1 + c) * 2)
	invS := 1 / s
	return Quat{
		X: axis.X * invS,
		Y: axis.Y * invS,
		Z: axis.Z * invS,
		W: s * 0.5,
	}.Normalize()
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Rotate applies the rotation to v. q is renormalized and the product is
// taken in float64, so quarter and half turns about the axes land exactly.
func (q Quat) Rotate(v Vec3) Vec3 {
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)
	n := stdmath.Sqrt(x*x + y*y + z*z + w*w)
	if n < 0.0001 {
		return v
	}
	x, y, z, w = x/n, y/n, z/n, w/n
	vx, vy, vz := float64(v.X), float64(v.Y), float64(v.Z)

	// t = 2 u×v, v' = v + w t + u×t
	tx := 2 * (y*vz - z*vy)
	ty := 2 * (z*vx - x*vz)
	tz := 2 * (x*vy - y*vx)
	rx := vx + w*tx + (y*tz - z*ty)
	ry := vy + w*ty + (z*tx - x*tz)
	rz := vz + w*tz + (x*ty - y*tx)

	eps := rotateResidue * stdmath.Sqrt(vx*vx+vy*vy+vz*vz)
	return Vec3{X: snapResidue(rx, eps), Y: snapResidue(ry, eps), Z: snapResidue(rz, eps)}
}

func snapResidue(c, eps float64) float32 {
	if stdmath.Abs(c) < eps {
		return 0
	}
	return float32(c)
}
