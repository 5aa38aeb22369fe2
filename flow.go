package lkflow

import (
	"errors"
	"fmt"
	"math"
)

// Options configures a flow estimator.
type Options[T Float] struct {
	// Kernels is the filter kernel set. The zero value falls back to DefaultKernels.
	Kernels Kernels[T]
	// EigThreshold gates whether a pixel is treated as having a reliable
	// gradient structure. Pixels below the threshold output zero flow.
	EigThreshold T
	// NormalFlow includes a projected flow estimate for edge only pixels
	// (one strong eigenvalue) instead of zeroing them.
	NormalFlow bool
	// KeepGradients retains the raw gradient product planes on the computed
	// fields for diagnostics.
	KeepGradients bool
}

// Field is a dense flow field. VelCol and VelRow hold the horizontal and the
// vertical velocity component of each pixel in row major order. Pixels near
// the image border or without enough gradient structure are exact zeros.
type Field[T Float] struct {
	Rows, Cols     int
	VelCol, VelRow []T
	// Gradients is populated only when the estimator keeps the raw
	// gradient products.
	Gradients *Gradients[T]
}

// At returns the (column, row) velocity components of a pixel.
func (f *Field[T]) At(row, col int) (T, T) {
	idx := row*f.Cols + col
	return f.VelCol[idx], f.VelRow[idx]
}

// MaxMagnitude returns the largest velocity magnitude of the field.
func (f *Field[T]) MaxMagnitude() float64 {
	var max float64
	for i := range f.VelCol {
		m := math.Hypot(float64(f.VelCol[i]), float64(f.VelRow[i]))
		if m > max {
			max = m
		}
	}
	return max
}

// Flow is a streaming Lucas-Kanade flow estimator over float frames.
// It owns the temporal delay line: each Step call pushes the newest frame
// and produces the flow field of the updated window. The estimator is
// otherwise stateless, the returned fields do not alias internal buffers.
type Flow[T Float] struct {
	opts       Options[T]
	rows, cols int
	stack      *frameStack[T]
	dx, dy, dt []T
	scratch    []T
}

// New creates a flow estimator for rows x cols sized frames.
func New[T Float](rows, cols int, opts Options[T]) (*Flow[T], error) {
	f, err := newFlow(rows, cols, opts)
	if err != nil {
		return nil, err
	}
	f.stack = newFrameStack[T](f.opts.Kernels.numFrames(), rows*cols)

	return f, nil
}

// newFlow allocates the shared estimator buffers without a delay line.
// The caller attaches the delay line matching its frame sample type.
func newFlow[T Float](rows, cols int, opts Options[T]) (*Flow[T], error) {
	opts, err := checkOptions(rows, cols, opts)
	if err != nil {
		return nil, err
	}
	size := rows * cols

	return &Flow[T]{
		opts:    opts,
		rows:    rows,
		cols:    cols,
		dx:      make([]T, size),
		dy:      make([]T, size),
		dt:      make([]T, size),
		scratch: make([]T, size),
	}, nil
}

// Step pushes the next frame into the delay line and computes the flow field
// of the updated temporal window. The frame must hold rows*cols samples in
// row major order; it is only read.
func (f *Flow[T]) Step(frame []T) *Field[T] {
	f.stack.push(frame)
	computeDerivs(f.stack.frames, f.dx, f.dy, f.dt, f.opts.Kernels)
	return f.solve()
}

func (f *Flow[T]) solve() *Field[T] {
	field := &Field[T]{
		Rows:   f.rows,
		Cols:   f.cols,
		VelCol: make([]T, f.rows*f.cols),
		VelRow: make([]T, f.rows*f.cols),
	}
	if f.opts.KeepGradients {
		field.Gradients = &Gradients[T]{}
	}
	t := buildTensor(f.dx, f.dy, f.dt, f.scratch, f.opts.Kernels, f.rows, f.cols, field.Gradients)
	solveFlow(t, field.VelCol, field.VelRow, f.rows, f.cols,
		f.opts.Kernels.halfWindow(), f.opts.EigThreshold, f.opts.NormalFlow)

	return field
}

// ByteFlow is the 8-bit input variant of Flow producing float32 fields.
// The input samples are scaled to the unit range before filtering, so the
// eigenvalue threshold operates on the same scale as the float estimators.
type ByteFlow struct {
	flow  *Flow[float32]
	stack *frameStack[uint8]
}

// NewBytes creates a flow estimator for rows x cols sized 8-bit frames.
func NewBytes(rows, cols int, opts Options[float32]) (*ByteFlow, error) {
	f, err := newFlow(rows, cols, opts)
	if err != nil {
		return nil, err
	}
	return &ByteFlow{
		flow:  f,
		stack: newFrameStack[uint8](f.opts.Kernels.numFrames(), rows*cols),
	}, nil
}

// Step pushes the next 8-bit frame and computes the flow field of the
// updated temporal window.
func (b *ByteFlow) Step(frame []uint8) *Field[float32] {
	b.stack.push(frame)
	computeDerivsBytes(b.stack.frames, b.flow.dx, b.flow.dy, b.flow.dt, b.flow.opts.Kernels)
	return b.flow.solve()
}

// ComputeFlow estimates the flow between two frames with the default kernels.
// The delay line is primed by replicating the older frame a, then the newer
// frame b is pushed in, hence longer temporal windows degenerate gracefully
// to a two frame estimate.
func ComputeFlow[T Float](a, b []T, rows, cols int, eigTh T) (velCol, velRow []T, err error) {
	f, err := New(rows, cols, Options[T]{EigThreshold: eigTh})
	if err != nil {
		return nil, nil, err
	}
	f.Step(a)
	field := f.Step(b)

	return field.VelCol, field.VelRow, nil
}

// ComputeFlowBytes is the 8-bit variant of ComputeFlow.
func ComputeFlowBytes(a, b []uint8, rows, cols int, eigTh float32) (velCol, velRow []float32, err error) {
	f, err := NewBytes(rows, cols, Options[float32]{EigThreshold: eigTh})
	if err != nil {
		return nil, nil, err
	}
	f.Step(a)
	field := f.Step(b)

	return field.VelCol, field.VelRow, nil
}

// checkOptions validates the estimator preconditions. Violating them is a
// caller programming error, the runtime flow computation itself has no
// recoverable error paths.
func checkOptions[T Float](rows, cols int, opts Options[T]) (Options[T], error) {
	if rows <= 0 || cols <= 0 {
		return opts, fmt.Errorf("invalid frame size %dx%d", rows, cols)
	}
	if len(opts.Kernels.Window) == 0 && len(opts.Kernels.TSmooth) == 0 {
		opts.Kernels = DefaultKernels[T]()
	}
	if err := opts.Kernels.validate(); err != nil {
		return opts, err
	}
	if opts.EigThreshold < 0 {
		return opts, errors.New("the eigenvalue threshold cannot be negative")
	}
	return opts, nil
}
