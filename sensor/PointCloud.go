package sensor

import (
	"math"

	"gorgonia.org/tensor"

	"github.com/manipgym/manipgym/physics"
)

// PointCloud is the projected form of a depth frame, batched over
// replicas
type PointCloud struct {
	// XYZW is an (N, H*W, 4) float32 tensor of world-frame points;
	// the w component is 1 for valid points and 0 where the depth hit
	// the far plane
	XYZW *tensor.Dense
	// RGB is an (N, H*W, 3) uint8 tensor of per-point colors
	RGB *tensor.Dense
}

// ToPointCloud unprojects the camera's last frame through its
// intrinsics into world-frame points
func (c *Camera) ToPointCloud() *PointCloud {
	frame := c.frame
	if frame == nil {
		return nil
	}
	shape := frame.Depth.Shape()
	n, h, w := shape[0], shape[1], shape[2]
	depth := frame.Depth.Data().([]float32)
	rgb := frame.RGB.Data().([]uint8)

	focal := float64(h) / (2 * math.Tan(c.cfg.FovY/2))
	cx, cy := float64(w)/2, float64(h)/2

	xyzw := make([]float32, n*h*w*4)
	colors := make([]uint8, n*h*w*3)

	for i := 0; i < n; i++ {
		pose := c.viewPose(i)
		forward := physics.QuatRotate(pose.Q, [3]float64{1, 0, 0})
		left := physics.QuatRotate(pose.Q, [3]float64{0, 1, 0})
		up := physics.QuatRotate(pose.Q, [3]float64{0, 0, 1})
		base := i * h * w
		for p := 0; p < h*w; p++ {
			d := float64(depth[base+p])
			x, y := p%w, p/w
			// camera frame: depth along forward, pixel offsets along
			// -left and -up
			py := -(float64(x) - cx) / focal * d
			pz := -(float64(y) - cy) / focal * d
			world := [3]float64{
				pose.P[0] + forward[0]*d + left[0]*py + up[0]*pz,
				pose.P[1] + forward[1]*d + left[1]*py + up[1]*pz,
				pose.P[2] + forward[2]*d + left[2]*py + up[2]*pz,
			}
			valid := float32(1)
			if d >= c.cfg.Far {
				valid = 0
			}
			out := (base + p) * 4
			xyzw[out+0] = float32(world[0])
			xyzw[out+1] = float32(world[1])
			xyzw[out+2] = float32(world[2])
			xyzw[out+3] = valid
			copy(colors[(base+p)*3:(base+p)*3+3], rgb[(base+p)*3:(base+p)*3+3])
		}
	}

	return &PointCloud{
		XYZW: tensor.New(tensor.WithShape(n, h*w, 4),
			tensor.WithBacking(xyzw)),
		RGB: tensor.New(tensor.WithShape(n, h*w, 3),
			tensor.WithBacking(colors)),
	}
}
