// SPDX-License-Identifier: MIT
package stft

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// PhaseFunc returns the phase in radians assigned to cell (x, y).
type PhaseFunc func(x, y int) float64

// PhaseMode selects how ApplyPhase combines the generated angle with a cell.
type PhaseMode int

const (
	// PhaseReplace discards the current angle: z = |z| e^(iφ).
	PhaseReplace PhaseMode = iota
	// PhaseRotate adds φ to the current angle: z = z e^(iφ).
	PhaseRotate
)

// ApplyPhase rewrites the angle of every cell using fn. Magnitudes are left
// as they were, up to rounding.
func (s *Spectrogram) ApplyPhase(fn PhaseFunc, mode PhaseMode) {
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			i := y*s.Width + x
			phi := fn(x, y)
			switch mode {
			case PhaseRotate:
				s.Data[i] *= cmplx.Rect(1, phi)
			default:
				s.Data[i] = cmplx.Rect(cmplx.Abs(s.Data[i]), phi)
			}
		}
	}
}

// ZeroPhase assigns angle 0 everywhere.
func ZeroPhase(int, int) float64 {
	return 0
}

// RandomPhase draws a uniform angle in [0, 2π) for every cell from rng.
func RandomPhase(rng *rand.Rand) PhaseFunc {
	return func(int, int) float64 {
		return rng.Float64() * 2 * math.Pi
	}
}

// PhaseAdvance returns the hop-consistent phase of a stationary sinusoid
// centred on each bin: bin y oscillates at y*sr/M Hz, so over x hops of
// length H its phase grows by 2π*y*H*x/M. The sample rate cancels.
func PhaseAdvance(s Settings) PhaseFunc {
	step := 2 * math.Pi * float64(s.Hop()) / float64(s.TransformSize())
	return func(x, y int) float64 {
		return math.Mod(step*float64(y)*float64(x), 2*math.Pi)
	}
}
