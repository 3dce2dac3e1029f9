// SPDX-License-Identifier: MIT
package stft

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowKind selects the analysis window applied to every segment.
type WindowKind int

const (
	// WindowPeriodicHann is the DFT-even Hann window. Its 50% overlap-add is
	// exactly one, so analysis followed by synthesis is an identity.
	WindowPeriodicHann WindowKind = iota
	// WindowHann is the symmetric Hann window, zero at both ends.
	WindowHann
)

// String returns the configuration name of the window kind.
func (k WindowKind) String() string {
	switch k {
	case WindowPeriodicHann:
		return "hann-periodic"
	case WindowHann:
		return "hann"
	default:
		return "unknown"
	}
}

// ParseWindow converts a configuration name (case-insensitive) to a
// WindowKind. Unknown names return WindowPeriodicHann and an error.
func ParseWindow(name string) (WindowKind, error) {
	switch strings.ToLower(name) {
	case "", "hann-periodic", "periodic", "periodic-hann":
		return WindowPeriodicHann, nil
	case "hann", "hanning", "hann-symmetric":
		return WindowHann, nil
	default:
		return WindowPeriodicHann, &ConfigError{Field: "window", Reason: fmt.Sprintf("unknown window %q", name)}
	}
}

// Hann returns the weight of sample n of a symmetric Hann window of the
// given length.
//
// https://en.wikipedia.org/wiki/Hann_function
func Hann(n, length int) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(n)/float64(length-1)))
}

// windowTable returns the size coefficients for kind. The periodic window is
// the first size samples of a symmetric window of length size+1.
func windowTable(kind WindowKind, size int) []float64 {
	n := size
	if kind == WindowPeriodicHann {
		n = size + 1
	}

	// gonum windows scale the sequence in place, so start from ones.
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hann(coeffs)

	return coeffs[:size]
}
