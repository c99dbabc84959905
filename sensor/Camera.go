package sensor

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/render"
)

// Frame is the structured per-step output of one camera capture,
// batched over replicas
type Frame struct {
	// RGB is an (N, H, W, 3) uint8 tensor
	RGB *tensor.Dense
	// Depth is an (N, H, W, 1) float32 tensor of camera depths, with
	// the far plane where no geometry was hit
	Depth *tensor.Dense
}

// Camera is a live capture instance bound to one CameraConfig and
// optionally mounted on an articulation
type Camera struct {
	cfg   CameraConfig
	mount *physics.Articulation

	// last capture, one image per replica
	images []image.Image
	frame  *Frame
}

// NewCamera binds cfg to the scene, resolving the mount name to an
// articulation when given
func NewCamera(cfg CameraConfig, sc *physics.Scene) (*Camera, error) {
	cam := &Camera{cfg: cfg}
	if cfg.Mount != "" {
		art := sc.Articulation(cfg.Mount)
		if art == nil {
			return nil, fmt.Errorf("sensor %q: no articulation named %q "+
				"to mount on", cfg.Name, cfg.Mount)
		}
		cam.mount = art
	}
	return cam, nil
}

// Config returns the camera's descriptor
func (c *Camera) Config() CameraConfig { return c.cfg }

// viewPose resolves the capture pose of the camera for one replica,
// composing the mount pose when the camera is mounted
func (c *Camera) viewPose(replica int) physics.Pose {
	if c.mount == nil {
		return c.cfg.Pose
	}
	return c.mount.RootPoseAt(replica).Mul(c.cfg.Pose)
}

// Capture rasterizes every replica of the scene through the camera
// and stores the structured frame
func (c *Camera) Capture(sc *physics.Scene) {
	n := sc.NumEnvs()
	h, w := c.cfg.Height, c.cfg.Width
	rgb := make([]uint8, n*h*w*3)
	depth := make([]float32, n*h*w)
	c.images = make([]image.Image, n)

	for i := 0; i < n; i++ {
		frame := render.Rasterize(sc, i, render.View{
			Pose:   c.viewPose(i),
			Width:  w,
			Height: h,
			FovY:   c.cfg.FovY,
			Near:   c.cfg.Near,
			Far:    c.cfg.Far,
		}, sc.Ambient)
		c.images[i] = frame.RGB
		base := i * h * w
		for p := 0; p < h*w; p++ {
			x, y := p%w, p/w
			r, g, b, _ := frame.RGB.At(x, y).RGBA()
			rgb[(base+p)*3+0] = uint8(r >> 8)
			rgb[(base+p)*3+1] = uint8(g >> 8)
			rgb[(base+p)*3+2] = uint8(b >> 8)
		}
		copy(depth[base:base+h*w], frame.Depth)
	}

	c.frame = &Frame{
		RGB: tensor.New(tensor.WithShape(n, h, w, 3),
			tensor.WithBacking(rgb)),
		Depth: tensor.New(tensor.WithShape(n, h, w, 1),
			tensor.WithBacking(depth)),
	}
}

// Frame returns the last captured frame, or nil before any capture
func (c *Camera) Frame() *Frame { return c.frame }

// Image returns the last captured image of one replica for
// visualization
func (c *Camera) Image(replica int) image.Image {
	if c.images == nil {
		return nil
	}
	return c.images[replica]
}

// Params returns the camera parameters: the 3x3 intrinsic matrix and
// the 4x4 camera-to-world extrinsic matrix of replica 0
func (c *Camera) Params() map[string]*mat.Dense {
	focal := float64(c.cfg.Height) / (2 * math.Tan(c.cfg.FovY/2))
	intrinsics := mat.NewDense(3, 3, []float64{
		focal, 0, float64(c.cfg.Width) / 2,
		0, focal, float64(c.cfg.Height) / 2,
		0, 0, 1,
	})
	pose := c.viewPose(0)
	r := pose.RotationMatrix()
	extrinsics := mat.NewDense(4, 4, []float64{
		r[0], r[1], r[2], pose.P[0],
		r[3], r[4], r[5], pose.P[1],
		r[6], r[7], r[8], pose.P[2],
		0, 0, 0, 1,
	})
	return map[string]*mat.Dense{
		"intrinsic_cv": intrinsics,
		"cam2world_gl": extrinsics,
	}
}
