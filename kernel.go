package lkflow

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Float is the element type constraint of the flow buffers and kernels.
type Float interface {
	constraints.Float
}

// maxFrames is the longest supported temporal window.
const maxFrames = 5

// Kernels groups the five filter kernels driving the flow computation.
// The temporal kernels run across the frame stack, the spatial kernels across
// the rows and columns of a single frame and the window kernel smooths the
// structure tensor planes. The temporal kernel lengths may differ: the shorter
// one is centered inside the window spanned by the longer one.
type Kernels[T Float] struct {
	TSmooth []T // temporal smoothing
	TGrad   []T // temporal derivative
	SSmooth []T // spatial smoothing
	SGrad   []T // spatial derivative
	Window  []T // structure tensor smoothing window
}

// Gaussian returns a sampled Gaussian kernel of length 2*radius+1,
// normalized to unit sum.
func Gaussian[T Float](sigma float64, radius int) []T {
	taps := make([]T, 2*radius+1)
	var sum float64

	for x := -radius; x <= radius; x++ {
		v := math.Exp(-float64(x*x) / (2 * sigma * sigma))
		taps[x+radius] = T(v)
		sum += v
	}
	for i := range taps {
		taps[i] /= T(sum)
	}
	return taps
}

// GaussianDeriv returns the first derivative of a sampled Gaussian,
// normalized to produce a unit response on a unit slope ramp.
func GaussianDeriv[T Float](sigma float64, radius int) []T {
	taps := make([]T, 2*radius+1)
	var ramp float64

	for x := -radius; x <= radius; x++ {
		v := -float64(x) * math.Exp(-float64(x*x)/(2*sigma*sigma))
		taps[x+radius] = T(v)
		ramp += v * float64(x)
	}
	for i := range taps {
		taps[i] /= T(ramp)
	}
	return taps
}

// DefaultKernels returns the kernel set used when no explicit kernels are configured:
// a five frame temporal window, five tap spatial filters and a five tap tensor window.
func DefaultKernels[T Float]() Kernels[T] {
	return Kernels[T]{
		TSmooth: Gaussian[T](0.8, 2),
		TGrad:   GaussianDeriv[T](0.8, 2),
		SSmooth: Gaussian[T](1.2, 2),
		SGrad:   GaussianDeriv[T](1.2, 2),
		Window:  Gaussian[T](2.0, 2),
	}
}

// numFrames reports the temporal window length, the longer of the two temporal kernels.
func (k Kernels[T]) numFrames() int {
	if len(k.TGrad) > len(k.TSmooth) {
		return len(k.TGrad)
	}
	return len(k.TSmooth)
}

// halfWindow reports the half length of the tensor smoothing window.
func (k Kernels[T]) halfWindow() int {
	return len(k.Window) >> 1
}

// validate checks the kernel set invariants.
func (k Kernels[T]) validate() error {
	if len(k.TSmooth) == 0 || len(k.TGrad) == 0 ||
		len(k.SSmooth) == 0 || len(k.SGrad) == 0 || len(k.Window) == 0 {
		return errors.New("all the five kernels must be non empty")
	}
	if n := k.numFrames(); n > maxFrames {
		return fmt.Errorf("the temporal kernels cannot span more than %d frames, got %d", maxFrames, n)
	}
	return nil
}
