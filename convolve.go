package lkflow

// Axis selects the image axis a spatial convolution pass runs along.
type Axis int

const (
	// Columns steps the kernel across the columns of each row.
	Columns Axis = iota
	// Rows steps the kernel across the rows of each column.
	Rows
)

// ConvolveTemporal convolves the frame stack with a 1D kernel at each pixel
// position independently. The frames are ordered newest first and the taps are
// applied in reverse: the last kernel coefficient multiplies the newest frame.
// The tap order is significant, since the derivative kernel is anti-symmetric.
// All frames are assumed present, no boundary handling is applied.
func ConvolveTemporal[T Float](frames [][]T, kernel []T, out []T) {
	last := len(kernel) - 1

	for i := range out {
		var sum T
		for k, tap := range kernel {
			sum += frames[last-k][i] * tap
		}
		out[i] = sum
	}
}

// ConvolveTemporalBytes is the 8-bit input overload of ConvolveTemporal.
// Each sample is scaled to the unit range before multiplication.
func ConvolveTemporalBytes[T Float](frames [][]uint8, kernel []T, out []T) {
	last := len(kernel) - 1

	for i := range out {
		var sum T
		for k, tap := range kernel {
			sum += T(frames[last-k][i]) / 255 * tap
		}
		out[i] = sum
	}
}

// ConvolveSpatial convolves a single row major image plane with a 1D kernel
// along the selected axis. Pixels closer than half the kernel length to any
// image edge are written as exact zeros, no partial convolution is computed
// at the borders. The input and output buffers must not alias.
func ConvolveSpatial[T Float](in, out, kernel []T, rows, cols int, ax Axis) {
	half := len(kernel) >> 1
	stride := 1
	if ax == Rows {
		stride = cols
	}
	offset := half * stride

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			idx := row*cols + col
			if row < half || row >= rows-half || col < half || col >= cols-half {
				out[idx] = 0
				continue
			}
			var sum T
			pos := idx - offset
			for _, tap := range kernel {
				sum += in[pos] * tap
				pos += stride
			}
			out[idx] = sum
		}
	}
}

// filterBothAxes realizes the full 2D separable filtering of a plane:
// one pass across the columns with ck followed by one pass across the rows
// with rk. The scratch buffer holds the intermediate pass result so the
// convolution input is never aliased with its output.
func filterBothAxes[T Float](buf, scratch, ck, rk []T, rows, cols int) {
	ConvolveSpatial(buf, scratch, ck, rows, cols, Columns)
	ConvolveSpatial(scratch, buf, rk, rows, cols, Rows)
}
