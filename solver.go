package lkflow

import (
	"math"
	"runtime"
	"sync"

	"github.com/esimov/lkflow/utils"
)

// noiseFloor is the smallest determinant magnitude accepted by the normal
// flow branch, expressed in the unit scaled intensity range.
const noiseFloor = 1e-8 / 255

// solveFlow converts the smoothed tensor planes into the per pixel velocity
// components. Every pixel depends only on the tensor values at its own index,
// so the work is fanned out across column chunks, one goroutine per chunk.
func solveFlow[T Float](t tensor[T], velCol, velRow []T, rows, cols, half int, eigTh T, normalFlow bool) {
	workers := runtime.NumCPU()
	if workers > cols {
		workers = cols
	}
	chunk := (cols + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(c0 int) {
			defer wg.Done()
			c1 := utils.Min(c0+chunk, cols)
			solveColumns(t, velCol, velRow, rows, cols, c0, c1, half, eigTh, normalFlow)
		}(w * chunk)
	}
	wg.Wait()
}

// solveColumns classifies each pixel of the columns [c0, c1) into one of the
// three mutually exclusive branches: full rank tensor, edge only pixel or no
// confident estimate. Degenerate pixels produce an exact zero flow vector,
// which is a designed output and not an error.
func solveColumns[T Float](t tensor[T], velCol, velRow []T, rows, cols, c0, c1, half int, eigTh T, normalFlow bool) {
	for col := c0; col < c1; col++ {
		for row := 0; row < rows; row++ {
			idx := row*cols + col
			if row < half || col < half {
				velCol[idx], velRow[idx] = 0, 0
				continue
			}
			xx, yy, xy := t.xx[idx], t.yy[idx], t.xy[idx]
			xt, yt := t.xt[idx], t.yt[idx]

			// delta is the negated determinant of the 2x2 tensor.
			delta := xy*xy - xx*yy
			a := (xx + yy) / 2
			b := 4*xy*xy + (xx-yy)*(xx-yy)
			sqrtBby2 := T(math.Sqrt(float64(b))) / 2

			// Closed form eigenvalues of the symmetric tensor [[xx,xy],[xy,yy]].
			eig1, eig2 := a+sqrtBby2, a-sqrtBby2

			switch {
			case eig2 >= eigTh && delta < 0:
				// Full rank tensor: solve the 2x2 system with Cramer's rule.
				invDelta := 1 / delta
				velCol[idx] = -(yt*xy - xt*yy) * invDelta
				velRow[idx] = -(xy*xt - xx*yt) * invDelta
			case normalFlow && eig1 >= eigTh && utils.Abs(delta) > noiseFloor:
				// Edge only pixel: project the Cramer solution onto the unit
				// eigenvector of the dominant eigenvalue. The output component
				// order is swapped, keep it that way.
				mFactor := 1 / T(math.Sqrt(float64((xx-eig1)*(xx-eig1)+xy*xy)))
				eigVecC, eigVecR := xy*mFactor, (eig1-xx)*mFactor

				invDelta := 1 / delta
				velRe := -(yt*xy - xt*yy) * invDelta
				velIm := -(xy*xt - xx*yt) * invDelta

				tmpVel := -(velRe*eigVecC + velIm*eigVecR)
				velCol[idx] = tmpVel * eigVecR
				velRow[idx] = tmpVel * eigVecC
			default:
				velCol[idx], velRow[idx] = 0, 0
			}
		}
	}
}
