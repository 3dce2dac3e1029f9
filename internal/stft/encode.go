// SPDX-License-Identifier: MIT
package stft

import (
	"fmt"
	"math"
	"math/cmplx"
)

// ImportMode selects how imported magnitudes combine with existing cells.
type ImportMode int

const (
	// Overwrite replaces each cell with a zero-phase real magnitude.
	Overwrite ImportMode = iota
	// Compose keeps each cell's phase and replaces its magnitude.
	Compose
)

// toByte maps frac in [0, 1] onto 0..255 by truncation, saturating outside
// the range. NaN maps to 0.
func toByte(frac float64) byte {
	v := frac * math.MaxUint8
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxUint8 {
		return math.MaxUint8
	}
	return byte(v)
}

func fromByte(b byte) float64 {
	return float64(b) / math.MaxUint8
}

// logMagnitude returns ln|z|, computed as half the log of the squared norm.
func logMagnitude(z complex128) float64 {
	return 0.5 * math.Log(real(z)*real(z)+imag(z)*imag(z))
}

// MagnitudeBytes encodes the log magnitude of the rows selected by r as a
// row-major Width x r.Rows() buffer. Byte row 0 holds the highest bin.
func (s *Spectrogram) MagnitudeBytes(r BinRange, ir IntensityRange) ([]byte, error) {
	r, err := r.Resolve(s.Height)
	if err != nil {
		return nil, err
	}
	if err := ir.validate(); err != nil {
		return nil, err
	}

	span := ir.Max - ir.Min
	buf := make([]byte, s.Width*r.Rows())
	for y := r.Start; y < r.End; y++ {
		row := (r.End - 1 - y) * s.Width
		for x := 0; x < s.Width; x++ {
			buf[row+x] = toByte((logMagnitude(s.At(x, y)) - ir.Min) / span)
		}
	}
	return buf, nil
}

// MagnitudeColumn encodes column x like MagnitudeBytes, highest bin first.
func (s *Spectrogram) MagnitudeColumn(x int, r BinRange, ir IntensityRange) ([]byte, error) {
	r, err := r.Resolve(s.Height)
	if err != nil {
		return nil, err
	}
	if err := ir.validate(); err != nil {
		return nil, err
	}
	if x < 0 || x >= s.Width {
		return nil, fmt.Errorf("stft: column %d outside [0, %d)", x, s.Width)
	}

	span := ir.Max - ir.Min
	col := make([]byte, r.Rows())
	for y := r.Start; y < r.End; y++ {
		col[r.End-1-y] = toByte((logMagnitude(s.At(x, y)) - ir.Min) / span)
	}
	return col, nil
}

// ImportMagnitude decodes a buffer produced by MagnitudeBytes back into the
// rows selected by r. With zeroOutside every row outside r is cleared.
func (s *Spectrogram) ImportMagnitude(buf []byte, r BinRange, ir IntensityRange, mode ImportMode, zeroOutside bool) error {
	r, err := r.Resolve(s.Height)
	if err != nil {
		return err
	}
	if err := ir.validate(); err != nil {
		return err
	}
	if want := s.Width * r.Rows(); len(buf) != want {
		return &ConfigError{Field: "magnitude buffer", Reason: fmt.Sprintf("%d bytes, want %d", len(buf), want)}
	}

	span := ir.Max - ir.Min
	for y := r.Start; y < r.End; y++ {
		row := (r.End - 1 - y) * s.Width
		for x := 0; x < s.Width; x++ {
			var mag float64
			if b := buf[row+x]; b != 0 {
				mag = math.Exp(fromByte(b)*span + ir.Min)
			}

			i := y*s.Width + x
			switch mode {
			case Compose:
				z := s.Data[i]
				if abs := cmplx.Abs(z); abs != 0 {
					s.Data[i] = z * complex(mag/abs, 0)
				} else {
					s.Data[i] = complex(mag, 0)
				}
			default:
				s.Data[i] = complex(mag, 0)
			}
		}
	}

	if zeroOutside {
		for i := range s.Data[:r.Start*s.Width] {
			s.Data[i] = 0
		}
		for i := r.End * s.Width; i < len(s.Data); i++ {
			s.Data[i] = 0
		}
	}
	return nil
}

// wrapPhase maps angle onto [0, 2π) measured from seam.
func wrapPhase(angle, seam float64) float64 {
	a := math.Mod(angle-seam, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// PhaseBytes encodes the phase of the rows selected by r in the same layout
// as MagnitudeBytes.
func (s *Spectrogram) PhaseBytes(r BinRange, v PhaseView) ([]byte, error) {
	r, err := r.Resolve(s.Height)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, s.Width*r.Rows())
	for y := r.Start; y < r.End; y++ {
		row := (r.End - 1 - y) * s.Width
		for x := 0; x < s.Width; x++ {
			z := s.At(x, y)
			if v.Relative && x > 0 {
				z *= cmplx.Conj(s.At(x-1, y))
			}
			buf[row+x] = toByte(wrapPhase(cmplx.Phase(z), v.Seam) / (2 * math.Pi))
		}
	}
	return buf, nil
}

// EliminatePhase replaces every cell with its magnitude as a real value.
func (s *Spectrogram) EliminatePhase() {
	for i, z := range s.Data {
		s.Data[i] = complex(cmplx.Abs(z), 0)
	}
}
