// SPDX-License-Identifier: MIT

// Package editor paints spectrograms from scratch. A Canvas starts all zero
// and is shaped with brushes, gated, rendered and finally turned back into
// a signal with an stft.Engine.
package editor

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	applog "spectro/internal/log"
	"spectro/internal/stft"
)

var logger = applog.Named("editor")

// Canvas is an editable spectrogram restricted to a band of rows. It is not
// safe for concurrent use.
type Canvas struct {
	spec  *stft.Spectrogram
	band  stft.BinRange
	paint int // cells changed since creation
}

// NewCanvas returns an all-zero canvas of width columns and s.Bins() rows.
// Brush coordinates address the rows selected by band.
func NewCanvas(s stft.Settings, width int, band stft.BinRange) (*Canvas, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if width < 1 {
		return nil, &stft.ConfigError{Field: "canvas width", Reason: fmt.Sprintf("%d is smaller than 1", width)}
	}
	band, err := band.Resolve(s.Bins())
	if err != nil {
		return nil, err
	}

	logger.Debugf("canvas %dx%d, band [%d, %d)", width, s.Bins(), band.Start, band.End)
	return &Canvas{
		spec: stft.NewSpectrogram(width, s.Bins()),
		band: band,
	}, nil
}

// Spectrogram returns the matrix being edited.
func (c *Canvas) Spectrogram() *stft.Spectrogram {
	return c.spec
}

// Band returns the resolved row range brushes paint into.
func (c *Canvas) Band() stft.BinRange {
	return c.band
}

// Changes returns how many cell writes brushes have made.
func (c *Canvas) Changes() int {
	return c.paint
}

// Cell maps normalized coordinates to a matrix cell. nx runs across the
// columns and ny from the lowest row of the band upward; both must lie in
// [0, 1).
func (c *Canvas) Cell(nx, ny float64) (x, y int, ok bool) {
	if !(nx >= 0 && nx < 1 && ny >= 0 && ny < 1) {
		return 0, 0, false
	}
	x = int(nx * float64(c.spec.Width))
	y = c.band.Start + int(ny*float64(c.band.Rows()))
	return x, y, true
}

// inBand reports whether (x, y) is a cell brushes may touch.
func (c *Canvas) inBand(x, y int) bool {
	return x >= 0 && x < c.spec.Width && y >= c.band.Start && y < c.band.End
}

func (c *Canvas) set(x, y int, v complex128) {
	c.spec.Set(x, y, v)
	c.paint++
}

// Paint applies b at the normalized point (nx, ny). It reports false when the
// point lies outside the canvas.
func (c *Canvas) Paint(b Brush, nx, ny float64) bool {
	x, y, ok := c.Cell(nx, ny)
	if !ok {
		return false
	}
	b.Apply(c, x, y)
	return true
}

// Clear zeroes every cell.
func (c *Canvas) Clear() {
	clear(c.spec.Data)
	c.paint = 0
}

// Import loads an 8-bit magnitude image, laid out like Render's output, into
// the band. Existing cells in the band are overwritten with zero phase.
func (c *Canvas) Import(buf []byte, ir stft.IntensityRange) error {
	return c.spec.ImportMagnitude(buf, c.band, ir, stft.Overwrite, false)
}

// Gate zeroes every cell whose magnitude is below threshold times the
// largest magnitude on the canvas and returns how many were cleared.
// The threshold is clamped to [0, 1] where 0 keeps everything and 1 keeps
// only the loudest cells.
func (c *Canvas) Gate(threshold float64) int {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	peak := 0.0
	for _, z := range c.spec.Data {
		peak = math.Max(peak, cmplx.Abs(z))
	}
	if peak == 0 {
		return 0
	}

	floor := threshold * peak
	cleared := 0
	for i, z := range c.spec.Data {
		if z != 0 && cmplx.Abs(z) < floor {
			c.spec.Data[i] = 0
			cleared++
		}
	}
	logger.Debugf("gate %.3f cleared %d cells below %g", threshold, cleared, floor)
	return cleared
}

// Render encodes the band as magnitude bytes, highest bin first.
func (c *Canvas) Render(ir stft.IntensityRange) ([]byte, error) {
	return c.spec.MagnitudeBytes(c.band, ir)
}

// Synthesize reconstructs the canvas with e. Painted cells are real so the
// edge bins are forced real as well.
func (c *Canvas) Synthesize(ctx context.Context, e *stft.Engine) ([]float64, error) {
	if e.Settings().Bins() != c.spec.Height {
		return nil, &stft.ConfigError{
			Field:  "canvas height",
			Reason: fmt.Sprintf("%d rows, engine produces %d bins", c.spec.Height, e.Settings().Bins()),
		}
	}
	return e.Synthesize(ctx, c.spec, stft.ZeroEdgeImag)
}
