package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

const (
	defaultPreviewSize = 1024
	supersample        = 3
)

var (
	previewBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	previewPanel      = color.NRGBA{R: 229, G: 231, B: 235, A: 255}
	previewFill       = color.NRGBA{R: 219, G: 234, B: 254, A: 255}
	previewStroke     = color.NRGBA{R: 59, G: 130, B: 246, A: 255}
)

// PNG rasterises the layout so that the longer panel side is maxSize pixels.
// The image is drawn at a higher resolution and downsampled for smooth edges.
func PNG(w io.Writer, s Sheet, maxSize int) error {
	in := s.Request.Inputs
	if maxSize <= 0 {
		maxSize = defaultPreviewSize
	}

	scale := float64(maxSize*supersample) / math.Max(in.Width, in.Height)
	pw := max(1, int(math.Ceil(in.Width*scale)))
	ph := max(1, int(math.Ceil(in.Height*scale)))

	img := imaging.New(pw, ph, previewBackground)
	outline := max(1.0, float64(supersample))
	strokeRect(img, 0, 0, pw, ph, int(outline), previewPanel)

	r := in.Diameter / 2 * scale
	for _, c := range s.Result.Circles {
		fillDisk(img, c.X*scale, c.Y*scale, r, outline)
	}

	preview := imaging.Fit(img, max(1, pw/supersample), max(1, ph/supersample), imaging.Lanczos)
	if err := imaging.Encode(w, preview, imaging.PNG); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// fillDisk paints a disk with an outline ring of the given width.
func fillDisk(img *image.NRGBA, cx, cy, r, ring float64) {
	b := img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(cx-r)))
	x1 := min(b.Max.X-1, int(math.Ceil(cx+r)))
	y0 := max(b.Min.Y, int(math.Floor(cy-r)))
	y1 := min(b.Max.Y-1, int(math.Ceil(cy+r)))
	inner := math.Max(0, r-ring)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			switch {
			case d <= inner:
				img.SetNRGBA(x, y, previewFill)
			case d <= r:
				img.SetNRGBA(x, y, previewStroke)
			}
		}
	}
}

func strokeRect(img *image.NRGBA, x0, y0, x1, y1, width int, c color.NRGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if x-x0 < width || x1-1-x < width || y-y0 < width || y1-1-y < width {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
