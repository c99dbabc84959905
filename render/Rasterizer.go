// Package render implements the reference rasterizer used for sensor
// captures and human-viewable renders. Actors are projected through a
// pinhole camera and drawn back-to-front as shaded silhouettes; a
// parallel depth buffer records per-pixel camera depth for RGB-D and
// pointcloud observations.
package render

import (
	"image"
	"math"
	"sort"

	"github.com/fogleman/gg"

	"github.com/manipgym/manipgym/physics"
)

// View is a resolved camera view of one scene replica
type View struct {
	Pose   physics.Pose
	Width  int
	Height int
	FovY   float64
	Near   float64
	Far    float64
}

// Frame is the raw output of one rasterization pass
type Frame struct {
	RGB   *image.RGBA
	Depth []float32 // row-major Width*Height, camera depth, Far where empty
}

type projected struct {
	u, v   float64
	depth  float64
	radius float64 // pixel radius
	color  [4]float64
}

// Rasterize renders replica of the scene through the view. Hidden
// actors and articulations are skipped.
func Rasterize(sc *physics.Scene, replica int, view View,
	ambient [3]float64) Frame {
	// camera frame: forward +x, left +y, up +z of the pose rotation
	forward := physics.QuatRotate(view.Pose.Q, [3]float64{1, 0, 0})
	left := physics.QuatRotate(view.Pose.Q, [3]float64{0, 1, 0})
	up := physics.QuatRotate(view.Pose.Q, [3]float64{0, 0, 1})

	focal := float64(view.Height) / (2 * math.Tan(view.FovY/2))

	var objs []projected
	project := func(p [3]float64, radius float64, color [4]float64) {
		d := [3]float64{p[0] - view.Pose.P[0], p[1] - view.Pose.P[1],
			p[2] - view.Pose.P[2]}
		depth := d[0]*forward[0] + d[1]*forward[1] + d[2]*forward[2]
		if depth < view.Near || depth > view.Far {
			return
		}
		y := d[0]*left[0] + d[1]*left[1] + d[2]*left[2]
		z := d[0]*up[0] + d[1]*up[1] + d[2]*up[2]
		objs = append(objs, projected{
			u:      float64(view.Width)/2 - focal*y/depth,
			v:      float64(view.Height)/2 - focal*z/depth,
			depth:  depth,
			radius: math.Max(1, focal*radius/depth),
			color:  color,
		})
	}

	for _, actor := range sc.Actors() {
		if actor.Hidden() {
			continue
		}
		cfg := actor.Config()
		project(actor.PoseAt(replica).P, boundingRadius(cfg), cfg.Color)
	}
	for _, art := range sc.Articulations() {
		if art.Hidden() {
			continue
		}
		project(art.RootPoseAt(replica).P, 0.05, art.Config().Color)
	}

	// painter's order, far to near
	sort.Slice(objs, func(i, j int) bool { return objs[i].depth > objs[j].depth })

	dc := gg.NewContext(view.Width, view.Height)
	dc.SetRGB(ambient[0]*0.5, ambient[1]*0.5, ambient[2]*0.6)
	dc.Clear()

	depth := make([]float32, view.Width*view.Height)
	for i := range depth {
		depth[i] = float32(view.Far)
	}

	for _, o := range objs {
		shade := 1.0 - 0.6*(o.depth/view.Far)
		dc.SetRGBA(
			(o.color[0]*shade + ambient[0]*0.2),
			(o.color[1]*shade + ambient[1]*0.2),
			(o.color[2]*shade + ambient[2]*0.2),
			o.color[3],
		)
		dc.DrawCircle(o.u, o.v, o.radius)
		dc.Fill()
		fillDepth(depth, view.Width, view.Height, o)
	}

	return Frame{RGB: imageToRGBA(dc.Image()), Depth: depth}
}

// fillDepth records the object's camera depth over its silhouette
func fillDepth(depth []float32, w, h int, o projected) {
	minX := int(math.Floor(o.u - o.radius))
	maxX := int(math.Ceil(o.u + o.radius))
	minY := int(math.Floor(o.v - o.radius))
	maxY := int(math.Ceil(o.v + o.radius))
	for y := minY; y <= maxY; y++ {
		if y < 0 || y >= h {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < 0 || x >= w {
				continue
			}
			dx := float64(x) - o.u
			dy := float64(y) - o.v
			if dx*dx+dy*dy > o.radius*o.radius {
				continue
			}
			idx := y*w + x
			if float32(o.depth) < depth[idx] {
				depth[idx] = float32(o.depth)
			}
		}
	}
}

func boundingRadius(cfg physics.BodyConfig) float64 {
	switch cfg.Shape {
	case physics.Sphere:
		return cfg.Radius
	case physics.Plane:
		return 2.0
	default:
		return math.Sqrt(cfg.HalfSize[0]*cfg.HalfSize[0] +
			cfg.HalfSize[1]*cfg.HalfSize[1] +
			cfg.HalfSize[2]*cfg.HalfSize[2])
	}
}

func imageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}
