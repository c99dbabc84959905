package physics

import "math"

// Pose is a rigid transform given by a position and a unit quaternion
// in wxyz order
type Pose struct {
	P [3]float64
	Q [4]float64
}

// IdentityPose returns the identity transform
func IdentityPose() Pose {
	return Pose{Q: [4]float64{1, 0, 0, 0}}
}

// NewPose returns a pose at position p with orientation q. A zero q is
// replaced by the identity orientation.
func NewPose(p [3]float64, q [4]float64) Pose {
	if q == ([4]float64{}) {
		q = [4]float64{1, 0, 0, 0}
	}
	return Pose{P: p, Q: q}
}

// QuatAboutZ returns the quaternion for a rotation of theta radians
// about the +z axis
func QuatAboutZ(theta float64) [4]float64 {
	return [4]float64{math.Cos(theta / 2), 0, 0, math.Sin(theta / 2)}
}

// QuatMul returns the Hamilton product a*b
func QuatMul(a, b [4]float64) [4]float64 {
	return [4]float64{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2],
		a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1],
		a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0],
	}
}

// QuatRotate rotates vector v by quaternion q
func QuatRotate(q [4]float64, v [3]float64) [3]float64 {
	qv := [4]float64{0, v[0], v[1], v[2]}
	conj := [4]float64{q[0], -q[1], -q[2], -q[3]}
	out := QuatMul(QuatMul(q, qv), conj)
	return [3]float64{out[1], out[2], out[3]}
}

// Mul composes two poses, applying o in the frame of p
func (p Pose) Mul(o Pose) Pose {
	rotated := QuatRotate(p.Q, o.P)
	return Pose{
		P: [3]float64{p.P[0] + rotated[0], p.P[1] + rotated[1],
			p.P[2] + rotated[2]},
		Q: QuatMul(p.Q, o.Q),
	}
}

// Transform applies the pose to a point
func (p Pose) Transform(v [3]float64) [3]float64 {
	rotated := QuatRotate(p.Q, v)
	return [3]float64{p.P[0] + rotated[0], p.P[1] + rotated[1],
		p.P[2] + rotated[2]}
}

// RotationMatrix returns the 3x3 row-major rotation matrix of the pose
// orientation
func (p Pose) RotationMatrix() [9]float64 {
	w, x, y, z := p.Q[0], p.Q[1], p.Q[2], p.Q[3]
	return [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// Flat returns the pose as a 7-element slice [p, q]
func (p Pose) Flat() []float64 {
	return []float64{p.P[0], p.P[1], p.P[2], p.Q[0], p.Q[1], p.Q[2], p.Q[3]}
}

// PoseFromFlat reconstructs a pose from a 7-element slice [p, q]
func PoseFromFlat(data []float64) Pose {
	return Pose{
		P: [3]float64{data[0], data[1], data[2]},
		Q: [4]float64{data[3], data[4], data[5], data[6]},
	}
}
