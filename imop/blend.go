// Package imop implements a subset of the Porter-Duff composition operations
// presented in their paper together with a few separable blend modes.
// The image/draw core package implements only the source-over-destination
// and source operators, this package covers the missing ones.

// It is mainly used to overlay the rendered optical flow field on top of the
// source video frame, so the detected motion shows up in a distinct color
// over the original footage.
package imop

import (
	"fmt"

	"github.com/esimov/lkflow/utils"
)

// The supported blend modes.
const (
	Normal   = "normal"
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{OpType: Normal}
}

// Set activates one of the supported blend modes.
func (b *Blend) Set(opType string) error {
	bModes := []string{Normal, Darken, Lighten, Multiply, Screen, Overlay}

	if !utils.Contains(bModes, opType) {
		return fmt.Errorf("unsupported blend mode: %s", opType)
	}
	b.OpType = opType

	return nil
}

// Get returns the currently active blend mode.
func (b *Blend) Get() string {
	return b.OpType
}

// apply evaluates the active separable blend formula on a single
// channel pair, both values expressed in the unit range.
func (b *Blend) apply(s, d float64) float64 {
	switch b.OpType {
	case Darken:
		return utils.Min(s, d)
	case Lighten:
		return utils.Max(s, d)
	case Multiply:
		return s * d
	case Screen:
		return 1 - (1-s)*(1-d)
	case Overlay:
		if s <= 0.5 {
			return 2 * s * d
		}
		return 1 - 2*(1-s)*(1-d)
	}
	return s
}
