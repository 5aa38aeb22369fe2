package lkflow

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
)

// encodeFrame renders a synthetic frame with a bright square at the given
// offset and encodes it as PNG.
func encodeFrame(t *testing.T, size, offset int) *bytes.Buffer {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := offset; y < offset+4; y++ {
		for x := offset; x < offset+4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestProcessor_KernelsShouldHonorTheConfiguredRadii(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{
		TemporalSigma: 0.8, TemporalRadius: 1,
		SpatialSigma: 1.5, SpatialRadius: 3,
		WindowSigma: 2.5, WindowRadius: 4,
	}
	k := p.Kernels()

	assert.Len(k.TSmooth, 3)
	assert.Len(k.TGrad, 3)
	assert.Len(k.SSmooth, 7)
	assert.Len(k.SGrad, 7)
	assert.Len(k.Window, 9)
	assert.NoError(k.validate())
}

func TestProcessor_KernelsShouldFallBackToTheDefaults(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{}
	assert.Equal(DefaultKernels[float32](), p.Kernels())
}

func TestProcessor_ProcessShouldEncodeTheFlowImage(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{EigThreshold: 0.0025}
	var out bytes.Buffer

	err := p.Process(encodeFrame(t, 24, 8), encodeFrame(t, 24, 9), &out)
	assert.NoError(err)

	img, format, err := image.Decode(bytes.NewReader(out.Bytes()))
	assert.NoError(err)
	assert.Equal("jpeg", format)
	assert.Equal(24, img.Bounds().Dx())
}

func TestProcessor_ProcessShouldRejectMismatchedFrames(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{}
	var out bytes.Buffer

	err := p.Process(encodeFrame(t, 24, 8), encodeFrame(t, 16, 4), &out)
	assert.Error(err)
}

func TestProcessor_ProcessShouldResizeBothFrames(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{NewWidth: 12, NewHeight: 12}
	var out bytes.Buffer

	err := p.Process(encodeFrame(t, 24, 8), encodeFrame(t, 24, 9), &out)
	assert.NoError(err)

	img, _, err := image.Decode(bytes.NewReader(out.Bytes()))
	assert.NoError(err)
	assert.Equal(12, img.Bounds().Dx())
	assert.Equal(12, img.Bounds().Dy())
}

func TestProcessor_RasterizeShouldRejectUnsupportedBlendModes(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{Overlay: true, BlendMode: "dissolve"}
	field := &Field[float32]{
		Rows:   4,
		Cols:   4,
		VelCol: make([]float32, 16),
		VelRow: make([]float32, 16),
	}
	frame := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	_, err := p.Rasterize(field, frame)
	assert.Error(err)

	p.BlendMode = ""
	img, err := p.Rasterize(field, frame)
	assert.NoError(err)
	assert.Equal(frame.Bounds(), img.Bounds())
}

func TestProcessor_NewEstimatorShouldPropagateTheOptions(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{EigThreshold: 0.01, NormalFlow: true, KeepGradients: true}
	est, err := p.NewEstimator(10, 10)
	assert.NoError(err)
	assert.Equal(float32(0.01), est.flow.opts.EigThreshold)
	assert.True(est.flow.opts.NormalFlow)

	field := est.Step(make([]uint8, 100))
	assert.NotNil(field.Gradients)
}
