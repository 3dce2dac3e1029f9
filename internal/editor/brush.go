// SPDX-License-Identifier: MIT
package editor

import (
	"math"
	"math/cmplx"
)

// Brush writes magnitudes around a cell of a canvas.
type Brush interface {
	Apply(c *Canvas, x, y int)
	// Scroll returns a copy with its magnitude scaled by a scroll delta.
	Scroll(delta float64) Brush
}

// scrollScale turns a scroll delta into a gain: 20 units is a factor of e.
func scrollScale(m, delta float64) float64 {
	return m * math.Exp(delta/20)
}

// SolidBrush sets a single cell to a real magnitude.
type SolidBrush struct {
	Magnitude float64
}

func (b SolidBrush) Apply(c *Canvas, x, y int) {
	if c.inBand(x, y) {
		c.set(x, y, complex(b.Magnitude, 0))
	}
}

func (b SolidBrush) Scroll(delta float64) Brush {
	return SolidBrush{Magnitude: scrollScale(b.Magnitude, delta)}
}

// RadiusBrush paints a disc whose magnitude falls off as m(1 - d²/r²) from
// the centre. A cell already louder than the brush at that point is kept.
type RadiusBrush struct {
	Magnitude float64
	Radius    int
}

func (b RadiusBrush) Apply(c *Canvas, x, y int) {
	if b.Radius <= 0 {
		SolidBrush{Magnitude: b.Magnitude}.Apply(c, x, y)
		return
	}

	r2 := float64(b.Radius * b.Radius)
	for dy := -b.Radius; dy <= b.Radius; dy++ {
		for dx := -b.Radius; dx <= b.Radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 >= r2 || !c.inBand(x+dx, y+dy) {
				continue
			}
			v := b.Magnitude * (1 - d2/r2)
			if v > cmplx.Abs(c.spec.At(x+dx, y+dy)) {
				c.set(x+dx, y+dy, complex(v, 0))
			}
		}
	}
}

func (b RadiusBrush) Scroll(delta float64) Brush {
	return RadiusBrush{Magnitude: scrollScale(b.Magnitude, delta), Radius: b.Radius}
}

var (
	_ Brush = SolidBrush{}
	_ Brush = RadiusBrush{}
)
