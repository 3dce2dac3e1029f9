// SPDX-License-Identifier: MIT
package stft

import (
	"fmt"
	"math/cmplx"
)

// Spectrogram is a dense time-frequency matrix. Cell (x, y) is stored at
// Data[y*Width+x]; x is the time frame and y the frequency bin, with y = 0
// the DC bin. A Spectrogram is not safe for concurrent mutation.
type Spectrogram struct {
	Width  int
	Height int
	Data   []complex128

	// Lead and Samples are set by Engine.Analyze: the number of zeros
	// prepended to the signal and the original signal length. Analysis
	// always prepends zeros, so Lead is zero only for matrices built from
	// scratch; Samples is zero for an empty signal too.
	Lead    int
	Samples int
}

// NewSpectrogram returns an all-zero width x height matrix.
func NewSpectrogram(width, height int) *Spectrogram {
	return &Spectrogram{
		Width:  width,
		Height: height,
		Data:   make([]complex128, width*height),
	}
}

// At returns cell (x, y).
func (s *Spectrogram) At(x, y int) complex128 {
	return s.Data[y*s.Width+x]
}

// Set overwrites cell (x, y).
func (s *Spectrogram) Set(x, y int, v complex128) {
	s.Data[y*s.Width+x] = v
}

// Column copies column x into dst, which must hold Height values.
func (s *Spectrogram) Column(x int, dst []complex128) {
	for y := 0; y < s.Height; y++ {
		dst[y] = s.Data[y*s.Width+x]
	}
}

// SetColumn overwrites column x with the first Height values of src.
func (s *Spectrogram) SetColumn(x int, src []complex128) {
	for y := 0; y < s.Height; y++ {
		s.Data[y*s.Width+x] = src[y]
	}
}

// Clone returns a deep copy.
func (s *Spectrogram) Clone() *Spectrogram {
	c := *s
	c.Data = make([]complex128, len(s.Data))
	copy(c.Data, s.Data)
	return &c
}

// Magnitudes returns |z| for every cell in storage order.
func (s *Spectrogram) Magnitudes() []float64 {
	mags := make([]float64, len(s.Data))
	for i, z := range s.Data {
		mags[i] = cmplx.Abs(z)
	}
	return mags
}

// RowEnergy returns the summed |z|^2 of every row.
func (s *Spectrogram) RowEnergy() []float64 {
	energy := make([]float64, s.Height)
	for y := 0; y < s.Height; y++ {
		row := s.Data[y*s.Width : (y+1)*s.Width]
		for _, z := range row {
			energy[y] += real(z)*real(z) + imag(z)*imag(z)
		}
	}
	return energy
}

// DominantBin returns the row holding the most energy.
func (s *Spectrogram) DominantBin() int {
	energy := s.RowEnergy()
	best := 0
	for y, e := range energy {
		if e > energy[best] {
			best = y
		}
	}
	return best
}

// Trim strips the analysis padding from a reconstruction of s. Samples is
// returned unchanged when s carries no padding metadata or when it is too
// short to hold the original signal.
func (s *Spectrogram) Trim(samples []float64) []float64 {
	if s.Lead == 0 || s.Lead+s.Samples > len(samples) {
		return samples
	}
	return samples[s.Lead : s.Lead+s.Samples]
}

func (s *Spectrogram) String() string {
	return fmt.Sprintf("Spectrogram(%dx%d)", s.Width, s.Height)
}
