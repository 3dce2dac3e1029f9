// SPDX-License-Identifier: MIT
package stft

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// EdgeRepair selects how the DC and Nyquist bins are treated before an
// inverse transform.
type EdgeRepair int

const (
	// KeepEdges passes every bin through untouched.
	KeepEdges EdgeRepair = iota
	// ZeroEdgeImag clears the imaginary part of the DC and Nyquist bins,
	// which must be real for the column to describe a real segment.
	ZeroEdgeImag
)

// segmentTransform holds the per-worker FFT plan and scratch buffers. It is
// not safe for concurrent use; every worker builds its own.
type segmentTransform struct {
	settings Settings
	fft      *fourier.FFT
	window   []float64

	frame    []float64    // TransformSize() samples
	spectrum []complex128 // Bins() coefficients
}

func newSegmentTransform(s Settings, window []float64) *segmentTransform {
	return &segmentTransform{
		settings: s,
		fft:      fourier.NewFFT(s.TransformSize()),
		window:   window,
		frame:    make([]float64, s.TransformSize()),
		spectrum: make([]complex128, s.Bins()),
	}
}

// forward windows segment and returns a freshly allocated column of Bins()
// coefficients, doubled to account for the discarded negative frequencies.
func (t *segmentTransform) forward(segment []float64) (col []complex128, err error) {
	n := t.settings.WindowSize
	if len(segment) != n {
		return nil, fmt.Errorf("segment has %d samples, want %d", len(segment), n)
	}

	for i := range t.frame {
		t.frame[i] = 0
	}
	if t.settings.PadAmount == 0 {
		for i, v := range segment {
			t.frame[i] = v * t.window[i]
		}
	} else {
		// Zero-phase placement: the window centre lands on index 0.
		m := len(t.frame)
		for i, v := range segment {
			t.frame[(i-n/2+m)%m] = v * t.window[i]
		}
	}

	defer func() {
		if r := recover(); r != nil {
			col, err = nil, fmt.Errorf("fourier: %v", r)
		}
	}()
	t.fft.Coefficients(t.spectrum, t.frame)

	col = make([]complex128, len(t.spectrum))
	for i, c := range t.spectrum {
		col[i] = c * 2
	}
	return col, nil
}

// inverse turns one column back into WindowSize windowed samples. Bins the
// column does not provide are treated as zero.
func (t *segmentTransform) inverse(column []complex128, repair EdgeRepair) (samples []float64, err error) {
	if len(column) > len(t.spectrum) {
		return nil, fmt.Errorf("column has %d bins, want at most %d", len(column), len(t.spectrum))
	}

	copy(t.spectrum, column)
	for i := len(column); i < len(t.spectrum); i++ {
		t.spectrum[i] = 0
	}
	if repair == ZeroEdgeImag {
		last := len(t.spectrum) - 1
		t.spectrum[0] = complex(real(t.spectrum[0]), 0)
		t.spectrum[last] = complex(real(t.spectrum[last]), 0)
	}

	defer func() {
		if r := recover(); r != nil {
			samples, err = nil, fmt.Errorf("fourier: %v", r)
		}
	}()
	t.fft.Sequence(t.frame, t.spectrum)

	n := t.settings.WindowSize
	m := len(t.frame)
	samples = make([]float64, n)
	if t.settings.PadAmount == 0 {
		for i := range samples {
			samples[i] = t.frame[i] * 0.5
		}
	} else {
		for i := range samples {
			samples[i] = t.frame[(i-n/2+m)%m] * 0.5
		}
	}
	return samples, nil
}
