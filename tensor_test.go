package lkflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTensor_TemporalOffsetsShouldCenterTheShorterKernel(t *testing.T) {
	assert := assert.New(t)

	k := Kernels[float64]{
		TSmooth: make([]float64, 3),
		TGrad:   make([]float64, 5),
	}
	sOff, gOff := temporalOffsets(k)
	assert.Equal(1, sOff)
	assert.Equal(0, gOff)

	k.TSmooth, k.TGrad = k.TGrad, k.TSmooth
	sOff, gOff = temporalOffsets(k)
	assert.Equal(0, sOff)
	assert.Equal(1, gOff)

	k.TGrad = make([]float64, 5)
	sOff, gOff = temporalOffsets(k)
	assert.Equal(0, sOff)
	assert.Equal(0, gOff)
}

func TestTensor_TemporalOffsetsShouldKeepTheFloorDivisionBias(t *testing.T) {
	assert := assert.New(t)

	// An odd length difference floors towards the newest frame.
	k := Kernels[float64]{
		TSmooth: make([]float64, 2),
		TGrad:   make([]float64, 5),
	}
	sOff, gOff := temporalOffsets(k)
	assert.Equal(1, sOff)
	assert.Equal(0, gOff)
}

func TestTensor_SpatialGradientPlanesShouldStartIdentical(t *testing.T) {
	assert := assert.New(t)

	const rows, cols = 4, 4
	size := rows * cols
	k := DefaultKernels[float64]()

	frames := make([][]float64, k.numFrames())
	for f := range frames {
		frames[f] = make([]float64, size)
		for i := range frames[f] {
			frames[f][i] = float64((f*7 + i*3) % 11)
		}
	}

	dx := make([]float64, size)
	dy := make([]float64, size)
	dt := make([]float64, size)
	computeDerivs(frames, dx, dy, dt, k)

	// Before the spatial passes both gradient planes hold the same
	// temporally smoothed signal.
	assert.Equal(dx, dy)
}

func TestTensor_ConstantWindowShouldProduceAZeroInteriorTensor(t *testing.T) {
	assert := assert.New(t)

	const rows, cols = 15, 15
	size := rows * cols
	k := DefaultKernels[float64]()

	frame := make([]float64, size)
	for i := range frame {
		frame[i] = 0.5
	}
	frames := make([][]float64, k.numFrames())
	for f := range frames {
		frames[f] = frame
	}

	dx := make([]float64, size)
	dy := make([]float64, size)
	dt := make([]float64, size)
	scratch := make([]float64, size)
	computeDerivs(frames, dx, dy, dt, k)

	// The zero border convention of the spatial passes leaves a step at the
	// image edges, so the second derivative pass produces a nonzero band
	// within two kernel halves of an edge. Beyond that band both gradient
	// planes of a constant window vanish.
	dxF := append([]float64(nil), dx...)
	dyF := append([]float64(nil), dy...)
	filterBothAxes(dxF, scratch, k.SGrad, k.SSmooth, rows, cols)
	filterBothAxes(dyF, scratch, k.SSmooth, k.SGrad, rows, cols)

	half := len(k.SGrad) >> 1
	band := 2 * half
	for i := 0; i < size; i++ {
		assert.InDelta(0.0, dxF[i], 1e-12)
	}
	for row := band; row < rows-band; row++ {
		for col := 0; col < cols; col++ {
			assert.InDelta(0.0, dyF[row*cols+col], 1e-12)
		}
	}
	assert.NotZero(dyF[half*cols+cols/2])
	assert.NotZero(dyF[(rows-1-half)*cols+cols/2])

	tens := buildTensor(dx, dy, dt, scratch, k, rows, cols, nil)

	// The window smoothing spreads the border band further inward, pixels
	// beyond its reach hold an exactly vanishing tensor.
	margin := band + k.halfWindow()
	for row := margin; row < rows-margin; row++ {
		for col := margin; col < cols-margin; col++ {
			idx := row*cols + col
			assert.InDelta(0.0, tens.xx[idx], 1e-12)
			assert.InDelta(0.0, tens.yy[idx], 1e-12)
			assert.InDelta(0.0, tens.xy[idx], 1e-12)
			assert.InDelta(0.0, tens.xt[idx], 1e-12)
			assert.InDelta(0.0, tens.yt[idx], 1e-12)
		}
	}
}

func TestTensor_GradientSnapshotShouldPrecedeTheWindowSmoothing(t *testing.T) {
	assert := assert.New(t)

	const rows, cols = 9, 9
	size := rows * cols
	k := DefaultKernels[float64]()

	frames := make([][]float64, k.numFrames())
	for f := range frames {
		frames[f] = make([]float64, size)
		for i := range frames[f] {
			row, col := i/cols, i%cols
			frames[f][i] = float64((row+f)*(col+1)) / float64(size)
		}
	}

	dx := make([]float64, size)
	dy := make([]float64, size)
	dt := make([]float64, size)
	scratch := make([]float64, size)
	computeDerivs(frames, dx, dy, dt, k)

	grads := &Gradients[float64]{}
	tens := buildTensor(dx, dy, dt, scratch, k, rows, cols, grads)

	assert.Len(grads.CC, size)
	assert.Len(grads.RC, size)
	assert.Len(grads.RR, size)
	assert.Len(grads.CT, size)
	assert.Len(grads.RT, size)

	// The raw products differ from the smoothed tensor planes.
	assert.NotEqual(grads.CC, tens.xx)
}
