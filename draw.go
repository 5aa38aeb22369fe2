package lkflow

import (
	"image"
	"image/color"
	"math"

	"github.com/esimov/lkflow/utils"
)

// RenderMode selects how a flow field is rasterized.
type RenderMode string

const (
	// Magnitude renders the velocity magnitude as a grayscale image.
	Magnitude RenderMode = "magnitude"
	// Direction renders the flow direction as chroma and the magnitude as luma.
	Direction RenderMode = "direction"
)

// Render rasterizes the flow field into an NRGBA image using the requested mode.
func Render[T Float](f *Field[T], mode RenderMode) *image.NRGBA {
	switch mode {
	case Direction:
		return renderDirection(f)
	default:
		return renderMagnitude(f)
	}
}

// renderMagnitude maps the velocity magnitudes onto the full grayscale range.
func renderMagnitude[T Float](f *Field[T]) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Cols, f.Rows))
	max := f.MaxMagnitude()
	if max == 0 {
		max = 1
	}

	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			vc, vr := f.At(row, col)
			m := math.Hypot(float64(vc), float64(vr))
			g := uint8(utils.Clamp(255*m/max, 0, 255))
			img.SetNRGBA(col, row, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// renderDirection encodes the two velocity components on the Cb/Cr chroma
// axes and the magnitude as luma, so the flow direction shows up as hue
// and the motion strength as brightness.
func renderDirection[T Float](f *Field[T]) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Cols, f.Rows))
	max := f.MaxMagnitude()
	if max == 0 {
		max = 1
	}

	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			vc, vr := f.At(row, col)
			m := math.Hypot(float64(vc), float64(vr))

			y := uint8(utils.Clamp(255*m/max, 0, 255))
			cb := uint8(utils.Clamp(float64(vc)/max*127+128, 0, 255))
			cr := uint8(utils.Clamp(float64(vr)/max*127+128, 0, 255))

			r, g, b := color.YCbCrToRGB(y, cb, cr)
			img.SetNRGBA(col, row, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
