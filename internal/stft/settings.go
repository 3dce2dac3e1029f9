// SPDX-License-Identifier: MIT
package stft

import (
	"fmt"

	"spectro/pkg/bitint"
)

// Settings describes how a signal is segmented and transformed. The hop is
// fixed at half the window size.
type Settings struct {
	WindowSize int        // Samples per analysis window, must be even.
	PadAmount  int        // Zeros added to every segment before the transform, must be even.
	Window     WindowKind // Analysis window shape.
}

// Hop returns the distance in samples between consecutive segments.
func (s Settings) Hop() int {
	return s.WindowSize / 2
}

// TransformSize returns the length of each Fourier transform.
func (s Settings) TransformSize() int {
	return s.WindowSize + s.PadAmount
}

// Bins returns the number of frequency rows of a matrix built with s.
func (s Settings) Bins() int {
	return s.TransformSize()/2 + 1
}

// Validate reports the first invalid field as a *ConfigError.
func (s Settings) Validate() error {
	if s.WindowSize < 2 {
		return &ConfigError{Field: "window size", Reason: fmt.Sprintf("%d is smaller than 2", s.WindowSize)}
	}
	if s.WindowSize%2 != 0 {
		return &ConfigError{Field: "window size", Reason: fmt.Sprintf("%d is odd", s.WindowSize)}
	}
	if s.PadAmount < 0 {
		return &ConfigError{Field: "pad amount", Reason: fmt.Sprintf("%d is negative", s.PadAmount)}
	}
	if s.PadAmount%2 != 0 {
		return &ConfigError{Field: "pad amount", Reason: fmt.Sprintf("%d is odd", s.PadAmount)}
	}
	if s.Window != WindowPeriodicHann && s.Window != WindowHann {
		return &ConfigError{Field: "window", Reason: fmt.Sprintf("unknown kind %d", s.Window)}
	}
	return nil
}

// PowerOfTwoPad returns the pad amount that brings windowSize up to the next
// power of two, which keeps the transform on the radix-2 path.
func PowerOfTwoPad(windowSize int) int {
	return bitint.PadToPowerOfTwo(windowSize)
}

// BinRange selects the rows [Start, End) of a matrix. The zero value selects
// every row.
type BinRange struct {
	Start int
	End   int
}

// Resolve returns r with the zero value expanded to the full height, or a
// *ConfigError when r does not fit inside height.
func (r BinRange) Resolve(height int) (BinRange, error) {
	if r.Start == 0 && r.End == 0 {
		return BinRange{Start: 0, End: height}, nil
	}
	if r.Start < 0 || r.End > height || r.Start >= r.End {
		return r, &ConfigError{Field: "bin range", Reason: fmt.Sprintf("[%d, %d) outside [0, %d)", r.Start, r.End, height)}
	}
	return r, nil
}

// Rows returns the number of rows selected by r.
func (r BinRange) Rows() int {
	return r.End - r.Start
}

// IntensityRange is the log-magnitude window mapped onto bytes 0 to 255.
type IntensityRange struct {
	Min float64
	Max float64
}

func (ir IntensityRange) validate() error {
	if !(ir.Min < ir.Max) {
		return &ConfigError{Field: "intensity range", Reason: fmt.Sprintf("min %g is not below max %g", ir.Min, ir.Max)}
	}
	return nil
}

// PhaseView controls how phase is linearised into bytes.
type PhaseView struct {
	Seam     float64 // Angle in radians where the phase circle is cut.
	Relative bool    // Encode the change from the previous column instead of the absolute angle.
}
