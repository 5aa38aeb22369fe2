package imop

import (
	"image"
	"image/color"

	"github.com/esimov/lkflow/utils"
)

// The supported composition operators.
const (
	Copy    = "copy"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	Xor     = "xor"
)

// Bitmap wraps the destination image a composition is drawn into.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composition operator.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap allocates a new composition target of the given size.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp initializes a new Composite with the source-over operator active.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Copy,
			SrcOver,
			DstOver,
			SrcIn,
			Xor,
		},
	}
}

// Set activates one of the supported composition operators.
func (op *Composite) Set(cop string) {
	if utils.Contains(op.ops, cop) {
		op.current = cop
	}
}

// DrawBitmap composes the source image with the backdrop into the bitmap:
// first the active Porter-Duff operator is applied with premultiplied alpha,
// then the blend mode mixes the composed channels with the backdrop ones.
func (op *Composite) DrawBitmap(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) {
	dx, dy := src.Bounds().Dx(), src.Bounds().Dy()
	if bitmap == nil {
		bitmap = NewBitmap(src.Bounds())
	}

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			s := normColor(src.NRGBAAt(x, y))
			d := normColor(dst.NRGBAAt(x, y))

			var out [4]float64
			switch op.current {
			case Copy:
				for i := 0; i < 3; i++ {
					out[i] = s[3] * s[i]
				}
				out[3] = s[3]
			case SrcOver:
				for i := 0; i < 3; i++ {
					out[i] = s[3]*s[i] + d[3]*d[i]*(1-s[3])
				}
				out[3] = s[3] + d[3]*(1-s[3])
			case DstOver:
				for i := 0; i < 3; i++ {
					out[i] = s[3]*s[i]*(1-d[3]) + d[3]*d[i]
				}
				out[3] = s[3]*(1-d[3]) + d[3]
			case SrcIn:
				for i := 0; i < 3; i++ {
					out[i] = s[3] * s[i] * d[3]
				}
				out[3] = s[3] * d[3]
			case Xor:
				for i := 0; i < 3; i++ {
					out[i] = s[3]*s[i]*(1-d[3]) + d[3]*d[i]*(1-s[3])
				}
				out[3] = s[3]*(1-d[3]) + d[3]*(1-s[3])
			}

			if blend != nil {
				for i := 0; i < 3; i++ {
					out[i] = blend.apply(out[i], d[i])
				}
			}
			bitmap.Img.SetNRGBA(x, y, denormColor(out))
		}
	}
}

// normColor scales the color channels to the unit range.
func normColor(c color.NRGBA) [4]float64 {
	return [4]float64{
		float64(c.R) / 255,
		float64(c.G) / 255,
		float64(c.B) / 255,
		float64(c.A) / 255,
	}
}

// denormColor converts the unit range channels back to an NRGBA color.
func denormColor(v [4]float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(utils.Clamp(v[0], 0, 1) * 255),
		G: uint8(utils.Clamp(v[1], 0, 1) * 255),
		B: uint8(utils.Clamp(v[2], 0, 1) * 255),
		A: uint8(utils.Clamp(v[3], 0, 1) * 255),
	}
}
