// Package sensor implements camera sensors. A CameraConfig is a pure
// data descriptor; a Camera is the live capture instance bound to a
// configuration and, optionally, to an articulation it is mounted on.
// Instances are rebuilt on every reconfiguration while configurations
// survive and can be overridden by caller-supplied dictionaries.
package sensor

import (
	"math"

	"github.com/manipgym/manipgym/physics"
)

// CameraConfig describes a camera: resolution, pose, vertical field
// of view, clipping planes, and an optional mount. When Mount names
// an articulation, the camera pose is relative to that articulation's
// root and follows it.
type CameraConfig struct {
	Name   string
	Width  int
	Height int
	Pose   physics.Pose
	FovY   float64
	Near   float64
	Far    float64
	Mount  string
}

// Override holds caller-supplied overrides merged onto camera
// configurations before instantiation. Zero fields keep the
// configured value.
type Override struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FovY   float64 `yaml:"fov_y"`
	Near   float64 `yaml:"near"`
	Far    float64 `yaml:"far"`
}

// ApplyOverrides merges overrides onto cfgs in place. A key matching
// a camera name applies to that camera only; the empty key applies to
// every camera but is overridden by camera-specific entries.
func ApplyOverrides(cfgs []CameraConfig, overrides map[string]Override) []CameraConfig {
	if overrides == nil {
		return cfgs
	}
	for i := range cfgs {
		if global, ok := overrides[""]; ok {
			applyOverride(&cfgs[i], global)
		}
		if o, ok := overrides[cfgs[i].Name]; ok {
			applyOverride(&cfgs[i], o)
		}
	}
	return cfgs
}

func applyOverride(cfg *CameraConfig, o Override) {
	if o.Width != 0 {
		cfg.Width = o.Width
	}
	if o.Height != 0 {
		cfg.Height = o.Height
	}
	if o.FovY != 0 {
		cfg.FovY = o.FovY
	}
	if o.Near != 0 {
		cfg.Near = o.Near
	}
	if o.Far != 0 {
		cfg.Far = o.Far
	}
}

// LookAt returns a camera pose at eye oriented so the camera forward
// axis (+x) points at target with +z kept as up as possible
func LookAt(eye, target [3]float64) physics.Pose {
	f := [3]float64{target[0] - eye[0], target[1] - eye[1], target[2] - eye[2]}
	norm := math.Sqrt(f[0]*f[0] + f[1]*f[1] + f[2]*f[2])
	if norm == 0 {
		return physics.NewPose(eye, [4]float64{})
	}
	for i := range f {
		f[i] /= norm
	}
	// left = up x forward, re-orthogonalized up = forward x left
	worldUp := [3]float64{0, 0, 1}
	left := cross(worldUp, f)
	leftNorm := math.Sqrt(left[0]*left[0] + left[1]*left[1] + left[2]*left[2])
	if leftNorm < 1e-9 {
		left = [3]float64{0, 1, 0}
	} else {
		for i := range left {
			left[i] /= leftNorm
		}
	}
	up := cross(f, left)
	q := quatFromAxes(f, left, up)
	return physics.NewPose(eye, q)
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// quatFromAxes builds the quaternion whose rotation maps +x to f, +y
// to l, and +z to u
func quatFromAxes(f, l, u [3]float64) [4]float64 {
	// rotation matrix with columns f, l, u
	m := [9]float64{
		f[0], l[0], u[0],
		f[1], l[1], u[1],
		f[2], l[2], u[2],
	}
	trace := m[0] + m[4] + m[8]
	var q [4]float64
	if trace > 0 {
		s := math.Sqrt(trace+1) * 2
		q[0] = s / 4
		q[1] = (m[7] - m[5]) / s
		q[2] = (m[2] - m[6]) / s
		q[3] = (m[3] - m[1]) / s
	} else if m[0] > m[4] && m[0] > m[8] {
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q[0] = (m[7] - m[5]) / s
		q[1] = s / 4
		q[2] = (m[1] + m[3]) / s
		q[3] = (m[2] + m[6]) / s
	} else if m[4] > m[8] {
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q[0] = (m[2] - m[6]) / s
		q[1] = (m[1] + m[3]) / s
		q[2] = s / 4
		q[3] = (m[5] + m[7]) / s
	} else {
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q[0] = (m[3] - m[1]) / s
		q[1] = (m[2] + m[6]) / s
		q[2] = (m[5] + m[7]) / s
		q[3] = s / 4
	}
	return q
}
