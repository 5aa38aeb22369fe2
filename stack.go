package lkflow

// sample is the constraint of the frame sample types accepted by the delay line.
type sample interface {
	~uint8 | ~float32 | ~float64
}

// frameStack is the temporal delay line of the flow estimator. The newest
// frame sits at index 0, older frames follow in order. The stack owns its
// buffers: pushing rotates the oldest buffer to the front and overwrites it
// with a copy of the incoming frame.
type frameStack[E sample] struct {
	frames [][]E
	primed bool
}

func newFrameStack[E sample](n, size int) *frameStack[E] {
	frames := make([][]E, n)
	for i := range frames {
		frames[i] = make([]E, size)
	}
	return &frameStack[E]{frames: frames}
}

// push copies the frame to the front of the delay line. The first pushed
// frame is replicated across the whole window, this way the estimator can
// produce output before the line fills up.
func (s *frameStack[E]) push(frame []E) {
	last := len(s.frames) - 1
	tail := s.frames[last]
	for i := last; i > 0; i-- {
		s.frames[i] = s.frames[i-1]
	}
	s.frames[0] = tail
	copy(s.frames[0], frame)

	if !s.primed {
		for i := 1; i < len(s.frames); i++ {
			copy(s.frames[i], frame)
		}
		s.primed = true
	}
}
