package render

import (
	"image"
	"image/draw"
	"math"
)

// TileImages arranges images into a near-square grid, matching the
// layout used for composite sensor renders. Images may have different
// sizes; each grid cell is as large as the largest image.
func TileImages(images []image.Image) image.Image {
	if len(images) == 0 {
		return nil
	}
	if len(images) == 1 {
		return images[0]
	}

	var cellW, cellH int
	for _, img := range images {
		b := img.Bounds()
		if b.Dx() > cellW {
			cellW = b.Dx()
		}
		if b.Dy() > cellH {
			cellH = b.Dy()
		}
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(images)))))
	rows := (len(images) + cols - 1) / cols

	out := image.NewRGBA(image.Rect(0, 0, cols*cellW, rows*cellH))
	for i, img := range images {
		x := (i % cols) * cellW
		y := (i / cols) * cellH
		r := image.Rect(x, y, x+img.Bounds().Dx(), y+img.Bounds().Dy())
		draw.Draw(out, r, img, img.Bounds().Min, draw.Src)
	}
	return out
}
