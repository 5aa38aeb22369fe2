package lkflow

// tensor holds the five smoothed structure tensor planes of a frame window:
// the squared spatial gradients (xx, yy), their cross product (xy) and the
// mixed spatio-temporal products (xt, yt).
type tensor[T Float] struct {
	xx, yy, xy, xt, yt []T
}

// Gradients exposes the raw per pixel tensor products before the window
// smoothing is applied. It is a diagnostics contract only: the flow output
// is always computed from the smoothed planes.
type Gradients[T Float] struct {
	CC []T // column gradient squared
	RC []T // row * column gradient
	RR []T // row gradient squared
	CT []T // column * temporal gradient
	RT []T // row * temporal gradient
}

// temporalOffsets reports where each temporal kernel starts inside the frame
// window. The shorter kernel is centered inside the window spanned by the
// longer one; the floor division introduces a one sample bias for odd length
// differences which is kept as is.
func temporalOffsets[T Float](k Kernels[T]) (smoothOff, gradOff int) {
	if len(k.TGrad) > len(k.TSmooth) {
		return (len(k.TGrad) - len(k.TSmooth)) / 2, 0
	}
	return 0, (len(k.TSmooth) - len(k.TGrad)) / 2
}

// computeDerivs fills the dx, dy and dt planes from the float frame window.
// Both spatial derivative planes start from the same temporally smoothed
// signal, the differentiation axes diverge only in the spatial passes.
func computeDerivs[T Float](frames [][]T, dx, dy, dt []T, k Kernels[T]) {
	sOff, gOff := temporalOffsets(k)
	ConvolveTemporal(frames[sOff:sOff+len(k.TSmooth)], k.TSmooth, dx)
	copy(dy, dx)
	ConvolveTemporal(frames[gOff:gOff+len(k.TGrad)], k.TGrad, dt)
}

// computeDerivsBytes is the 8-bit frame window variant of computeDerivs.
func computeDerivsBytes[T Float](frames [][]uint8, dx, dy, dt []T, k Kernels[T]) {
	sOff, gOff := temporalOffsets(k)
	ConvolveTemporalBytes(frames[sOff:sOff+len(k.TSmooth)], k.TSmooth, dx)
	copy(dy, dx)
	ConvolveTemporalBytes(frames[gOff:gOff+len(k.TGrad)], k.TGrad, dt)
}

// buildTensor runs the fixed spatial filtering pipeline over the derivative
// planes and aggregates them into the smoothed structure tensor. The stage
// order is significant: spatial filtering, per pixel products, then the
// separable window smoothing of each product plane. The derivative planes
// are filtered in place, the scratch buffer backs the intermediate passes.
func buildTensor[T Float](dx, dy, dt, scratch []T, k Kernels[T], rows, cols int, grads *Gradients[T]) tensor[T] {
	size := rows * cols
	t := tensor[T]{
		xx: make([]T, size),
		yy: make([]T, size),
		xy: make([]T, size),
		xt: make([]T, size),
		yt: make([]T, size),
	}

	// The derivative kernel runs along the differentiated axis, the smoothing
	// kernel along the orthogonal one. dt gets pure smoothing on both axes.
	filterBothAxes(dx, scratch, k.SGrad, k.SSmooth, rows, cols)
	filterBothAxes(dy, scratch, k.SSmooth, k.SGrad, rows, cols)
	filterBothAxes(dt, scratch, k.SSmooth, k.SSmooth, rows, cols)

	for i := 0; i < size; i++ {
		t.xx[i] = dx[i] * dx[i]
		t.yy[i] = dy[i] * dy[i]
		t.xy[i] = dx[i] * dy[i]
		t.xt[i] = dx[i] * dt[i]
		t.yt[i] = dy[i] * dt[i]
	}

	if grads != nil {
		grads.CC = append([]T(nil), t.xx...)
		grads.RC = append([]T(nil), t.xy...)
		grads.RR = append([]T(nil), t.yy...)
		grads.CT = append([]T(nil), t.xt...)
		grads.RT = append([]T(nil), t.yt...)
	}

	filterBothAxes(t.xx, scratch, k.Window, k.Window, rows, cols)
	filterBothAxes(t.yy, scratch, k.Window, k.Window, rows, cols)
	filterBothAxes(t.xy, scratch, k.Window, k.Window, rows, cols)
	filterBothAxes(t.xt, scratch, k.Window, k.Window, rows, cols)
	filterBothAxes(t.yt, scratch, k.Window, k.Window, rows, cols)

	return t
}
