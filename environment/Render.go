package environment

import (
	"fmt"
	"image"
	"os"

	"gorgonia.org/tensor"

	"github.com/manipgym/manipgym/render"
)

// Render produces output for the configured render mode. Human mode
// writes a terminal view and returns nil; rgb_array returns a batched
// image tensor from the human render cameras; sensors returns a tiled
// composite of every observation sensor.
func (e *Env) Render() (*tensor.Dense, error) {
	if e.closed {
		return nil, ErrClosed
	}
	switch e.renderMode {
	case RenderOff:
		return nil, fmt.Errorf("%w: render mode not set", ErrConfiguration)
	case RenderHuman:
		render.WriteHuman(os.Stdout, e.scene)
		return nil, nil
	case RenderRGBArray:
		return e.renderRGBArray()
	case RenderSensors:
		return e.renderSensors()
	}
	return nil, fmt.Errorf("%w: unresolved render mode", ErrConfiguration)
}

// renderRGBArray captures the human render cameras with marker actors
// visible. With one camera the full batch comes back; with several,
// replica 0 of each is tiled into a single composite.
func (e *Env) renderRGBArray() (*tensor.Dense, error) {
	if len(e.humanCams) == 0 {
		return nil, fmt.Errorf("%w: task %q has no human render cameras",
			ErrConfiguration, e.task.Name())
	}
	for _, cam := range e.humanCams {
		cam.Capture(e.scene)
	}
	if len(e.humanCams) == 1 {
		return e.humanCams[0].Frame().RGB, nil
	}
	images := make([]image.Image, 0, len(e.humanCams))
	for _, cam := range e.humanCams {
		images = append(images, cam.Image(0))
	}
	return imageToTensor(render.TileImages(images)), nil
}

// renderSensors tiles replica 0 of every observation sensor
func (e *Env) renderSensors() (*tensor.Dense, error) {
	if len(e.sensors) == 0 {
		return nil, fmt.Errorf("%w: task %q has no sensors",
			ErrConfiguration, e.task.Name())
	}
	e.captureSensors()
	images := make([]image.Image, 0, len(e.sensors))
	for _, cam := range e.sensors {
		images = append(images, cam.Image(0))
	}
	return imageToTensor(render.TileImages(images)), nil
}

func imageToTensor(img image.Image) *tensor.Dense {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	data := make([]uint8, h*w*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * 3
			data[i+0] = uint8(r >> 8)
			data[i+1] = uint8(g >> 8)
			data[i+2] = uint8(b >> 8)
		}
	}
	return tensor.New(tensor.WithShape(1, h, w, 3), tensor.WithBacking(data))
}
