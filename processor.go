package lkflow

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/esimov/lkflow/imop"
	"github.com/esimov/lkflow/utils"
)

// Processor options
type Processor struct {
	EigThreshold   float64
	NormalFlow     bool
	KeepGradients  bool
	TemporalSigma  float64
	TemporalRadius int
	SpatialSigma   float64
	SpatialRadius  int
	WindowSigma    float64
	WindowRadius   int
	NewWidth       int
	NewHeight      int
	RenderMode     RenderMode
	Overlay        bool
	BlendMode      string
	Spinner        *utils.Spinner
}

// Kernels builds the kernel set out of the configured sigma and radius
// options, the unset knobs fall back to the defaults.
func (p *Processor) Kernels() Kernels[float32] {
	k := DefaultKernels[float32]()

	if p.TemporalSigma > 0 && p.TemporalRadius > 0 {
		k.TSmooth = Gaussian[float32](p.TemporalSigma, p.TemporalRadius)
		k.TGrad = GaussianDeriv[float32](p.TemporalSigma, p.TemporalRadius)
	}
	if p.SpatialSigma > 0 && p.SpatialRadius > 0 {
		k.SSmooth = Gaussian[float32](p.SpatialSigma, p.SpatialRadius)
		k.SGrad = GaussianDeriv[float32](p.SpatialSigma, p.SpatialRadius)
	}
	if p.WindowSigma > 0 && p.WindowRadius > 0 {
		k.Window = Gaussian[float32](p.WindowSigma, p.WindowRadius)
	}
	return k
}

// NewEstimator returns an 8-bit flow estimator configured with the processor options.
func (p *Processor) NewEstimator(rows, cols int) (*ByteFlow, error) {
	return NewBytes(rows, cols, Options[float32]{
		Kernels:       p.Kernels(),
		EigThreshold:  float32(p.EigThreshold),
		NormalFlow:    p.NormalFlow,
		KeepGradients: p.KeepGradients,
	})
}

// Decode reads and decodes a single frame, converting it to NRGBA and
// rescaling it in case a new width or height is requested.
func (p *Processor) Decode(r io.Reader) (*image.NRGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the source frame: %w", err)
	}
	img := imaging.Clone(src)

	if p.NewWidth > 0 || p.NewHeight > 0 {
		img = imaging.Resize(img, p.NewWidth, p.NewHeight, imaging.Lanczos)
	}
	return img, nil
}

// Process is the main entry point of the two frame flow estimation.
// It decodes the previous and the current frame, estimates the optical flow
// of the current one and encodes the rendered field into the output writer.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
func (p *Processor) Process(prev, curr io.Reader, w io.Writer) error {
	a, err := p.Decode(prev)
	if err != nil {
		return err
	}
	b, err := p.Decode(curr)
	if err != nil {
		return err
	}
	if !a.Bounds().Eq(b.Bounds()) {
		return errors.New("the two frame dimensions need to match")
	}

	rows, cols := b.Bounds().Dy(), b.Bounds().Dx()
	est, err := p.NewEstimator(rows, cols)
	if err != nil {
		return err
	}

	// The older frame primes the temporal delay line.
	est.Step(grayBytes(a))
	field := est.Step(grayBytes(b))

	out, err := p.Rasterize(field, b)
	if err != nil {
		return err
	}
	return encodeImg(w, out)
}

// Rasterize renders the flow field with the configured render mode and
// overlays it on the source frame in case the overlay option is activated.
func (p *Processor) Rasterize(field *Field[float32], frame *image.NRGBA) (*image.NRGBA, error) {
	out := Render(field, p.RenderMode)
	if !p.Overlay {
		return out, nil
	}

	blend := imop.NewBlend()
	if len(p.BlendMode) > 0 {
		if err := blend.Set(p.BlendMode); err != nil {
			return nil, err
		}
	} else {
		blend.Set(imop.Screen)
	}

	bmp := imop.NewBitmap(out.Bounds())
	op := imop.InitOp()
	op.Set(imop.SrcOver)
	op.DrawBitmap(bmp, out, frame, blend)

	return bmp.Img, nil
}
