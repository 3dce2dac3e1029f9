// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"spectro/internal/stft"
)

// OnsetDetector finds columns whose energy jumps relative to the column
// before, the way a kick stands out against the decay of the previous one.
type OnsetDetector struct {
	Threshold      float64 // minimum column RMS, relative to the loudest column
	MinEnergyRatio float64 // required increase over the previous column
	Cooldown       int     // columns ignored after a detection
}

// DefaultOnsetDetector suits percussive material at a 50% hop.
var DefaultOnsetDetector = OnsetDetector{Threshold: 0.1, MinEnergyRatio: 2, Cooldown: 2}

// columnRMS returns the root mean square magnitude of every column.
func columnRMS(spec *stft.Spectrogram) []float64 {
	rms := make([]float64, spec.Width)
	for y := 0; y < spec.Height; y++ {
		row := spec.Data[y*spec.Width : (y+1)*spec.Width]
		for x, z := range row {
			rms[x] += real(z)*real(z) + imag(z)*imag(z)
		}
	}
	for x := range rms {
		rms[x] = math.Sqrt(rms[x] / float64(max(spec.Height, 1)))
	}
	return rms
}

// Detect returns the columns where an onset starts, in increasing order.
// The first column counts as an onset when it is loud enough.
func (d OnsetDetector) Detect(spec *stft.Spectrogram) []int {
	rms := columnRMS(spec)
	peak := 0.0
	for _, v := range rms {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return nil
	}

	var (
		onsets []int
		last   float64
		quiet  int
	)
	for x, v := range rms {
		if quiet > 0 {
			quiet--
		} else if v > d.Threshold*peak && (last == 0 || v/last > d.MinEnergyRatio) {
			onsets = append(onsets, x)
			quiet = d.Cooldown
		}
		last = v
	}
	return onsets
}

// ColumnTime returns the time in seconds of column x's window centre in the
// original signal, given the analysis lead.
func ColumnTime(x int, s stft.Settings, lead, sampleRate int) float64 {
	centre := x*s.Hop() + s.WindowSize/2 - lead
	return float64(centre) / float64(sampleRate)
}
