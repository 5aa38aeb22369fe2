package lkflow

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testField() *Field[float32] {
	return &Field[float32]{
		Rows:   2,
		Cols:   2,
		VelCol: []float32{0, 1, 0, -1},
		VelRow: []float32{0, 0, 1, 0},
	}
}

func TestDraw_MagnitudeShouldMapOntoTheGrayscaleRange(t *testing.T) {
	assert := assert.New(t)

	img := Render(testField(), Magnitude)
	assert.Equal(2, img.Bounds().Dx())
	assert.Equal(2, img.Bounds().Dy())

	// A still pixel is black, the fastest pixel is white.
	assert.Equal(color.NRGBA{A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(1, 0))

	c := img.NRGBAAt(1, 0)
	assert.Equal(c.R, c.G)
	assert.Equal(c.G, c.B)
}

func TestDraw_DirectionShouldSeparateOpposingMotions(t *testing.T) {
	assert := assert.New(t)

	img := Render(testField(), Direction)

	// Opposite motion directions land on opposite chroma sides.
	right := img.NRGBAAt(1, 0)
	left := img.NRGBAAt(1, 1)
	assert.NotEqual(right, left)

	// A still pixel renders without luma.
	still := img.NRGBAAt(0, 0)
	assert.Equal(still.R, still.G)
}

func TestDraw_ZeroFieldShouldNotDivideByZero(t *testing.T) {
	assert := assert.New(t)

	field := &Field[float32]{
		Rows:   3,
		Cols:   3,
		VelCol: make([]float32, 9),
		VelRow: make([]float32, 9),
	}

	for _, mode := range []RenderMode{Magnitude, Direction} {
		img := Render(field, mode)
		assert.NotNil(img)
		assert.Equal(uint8(255), img.NRGBAAt(1, 1).A)
	}
}
