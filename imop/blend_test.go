package imop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend_SetShouldRejectUnsupportedModes(t *testing.T) {
	assert := assert.New(t)

	b := NewBlend()
	assert.Equal(Normal, b.Get())

	assert.NoError(b.Set(Screen))
	assert.Equal(Screen, b.Get())

	assert.Error(b.Set("dissolve"))
	assert.Equal(Screen, b.Get())
}

func TestBlend_FormulasShouldMatchTheSeparableDefinitions(t *testing.T) {
	assert := assert.New(t)

	b := NewBlend()
	s, d := 0.25, 0.75

	assert.NoError(b.Set(Normal))
	assert.InDelta(s, b.apply(s, d), 1e-12)

	assert.NoError(b.Set(Darken))
	assert.InDelta(0.25, b.apply(s, d), 1e-12)

	assert.NoError(b.Set(Lighten))
	assert.InDelta(0.75, b.apply(s, d), 1e-12)

	assert.NoError(b.Set(Multiply))
	assert.InDelta(0.1875, b.apply(s, d), 1e-12)

	assert.NoError(b.Set(Screen))
	assert.InDelta(1-(1-s)*(1-d), b.apply(s, d), 1e-12)

	assert.NoError(b.Set(Overlay))
	assert.InDelta(2*s*d, b.apply(s, d), 1e-12)
	assert.InDelta(1-2*(1-0.75)*(1-d), b.apply(0.75, d), 1e-12)
}

func TestBlend_ScreenShouldNeverDarken(t *testing.T) {
	assert := assert.New(t)

	b := NewBlend()
	assert.NoError(b.Set(Screen))

	for _, s := range []float64{0, 0.25, 0.5, 1} {
		for _, d := range []float64{0, 0.5, 1} {
			out := b.apply(s, d)
			assert.GreaterOrEqual(out, s)
			assert.GreaterOrEqual(out, d)
			assert.LessOrEqual(out, 1.0)
		}
	}
}
