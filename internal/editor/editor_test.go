// SPDX-License-Identifier: MIT
package editor

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"spectro/internal/stft"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var small = stft.Settings{WindowSize: 16} // 9 bins

func newCanvas(t *testing.T) *Canvas {
	t.Helper()
	c, err := NewCanvas(small, 8, stft.BinRange{})
	require.NoError(t, err)
	return c
}

func TestNewCanvas(t *testing.T) {
	c := newCanvas(t)
	spec := c.Spectrogram()
	assert.Equal(t, 8, spec.Width)
	assert.Equal(t, 9, spec.Height)
	assert.Equal(t, stft.BinRange{Start: 0, End: 9}, c.Band())
	for _, z := range spec.Data {
		require.Zero(t, z)
	}

	_, err := NewCanvas(small, 0, stft.BinRange{})
	assert.True(t, errors.Is(err, stft.ErrInvalidConfiguration))

	_, err = NewCanvas(small, 8, stft.BinRange{Start: 3, End: 20})
	assert.True(t, errors.Is(err, stft.ErrInvalidConfiguration))

	_, err = NewCanvas(stft.Settings{WindowSize: 7}, 8, stft.BinRange{})
	assert.True(t, errors.Is(err, stft.ErrInvalidConfiguration))
}

func TestCellMapping(t *testing.T) {
	c, err := NewCanvas(small, 8, stft.BinRange{Start: 2, End: 6})
	require.NoError(t, err)

	tests := []struct {
		nx, ny float64
		x, y   int
		ok     bool
	}{
		{0, 0, 0, 2, true},
		{0.5, 0.5, 4, 4, true},
		{0.99, 0.99, 7, 5, true},
		{1, 0.5, 0, 0, false},
		{0.5, -0.1, 0, 0, false},
		{math.NaN(), 0.5, 0, 0, false},
	}
	for _, tt := range tests {
		x, y, ok := c.Cell(tt.nx, tt.ny)
		assert.Equal(t, tt.ok, ok, "(%g, %g)", tt.nx, tt.ny)
		if tt.ok {
			assert.Equal(t, tt.x, x, "x for (%g, %g)", tt.nx, tt.ny)
			assert.Equal(t, tt.y, y, "y for (%g, %g)", tt.nx, tt.ny)
		}
	}
}

func TestSolidBrush(t *testing.T) {
	c := newCanvas(t)
	require.True(t, c.Paint(SolidBrush{Magnitude: 50}, 0.5, 0.5))
	assert.Equal(t, complex(50, 0), c.Spectrogram().At(4, 4))
	assert.Equal(t, 1, c.Changes())

	assert.False(t, c.Paint(SolidBrush{Magnitude: 50}, 1.5, 0.5))
	assert.Equal(t, 1, c.Changes())
}

func TestRadiusBrushFalloff(t *testing.T) {
	c := newCanvas(t)
	spec := c.Spectrogram()
	RadiusBrush{Magnitude: 10, Radius: 2}.Apply(c, 4, 4)

	assert.Equal(t, complex(10, 0), spec.At(4, 4))
	assert.InDelta(t, 7.5, real(spec.At(5, 4)), 1e-12)
	assert.InDelta(t, 7.5, real(spec.At(4, 3)), 1e-12)
	assert.InDelta(t, 5.0, real(spec.At(5, 5)), 1e-12)
	assert.Zero(t, spec.At(6, 4), "cells at the radius are not painted")
	assert.Zero(t, spec.At(4, 1))
}

func TestRadiusBrushKeepsStrongerCells(t *testing.T) {
	c := newCanvas(t)
	spec := c.Spectrogram()
	spec.Set(5, 4, complex(9, 0))
	spec.Set(3, 4, complex(1, 0))

	RadiusBrush{Magnitude: 10, Radius: 2}.Apply(c, 4, 4)
	assert.Equal(t, complex(9, 0), spec.At(5, 4))
	assert.InDelta(t, 7.5, real(spec.At(3, 4)), 1e-12)
}

func TestRadiusBrushClipsToBand(t *testing.T) {
	c, err := NewCanvas(small, 8, stft.BinRange{Start: 2, End: 6})
	require.NoError(t, err)

	RadiusBrush{Magnitude: 10, Radius: 3}.Apply(c, 0, 2)
	spec := c.Spectrogram()
	assert.Zero(t, spec.At(0, 1), "below the band")
	assert.Zero(t, spec.At(0, 0))
	assert.NotZero(t, spec.At(0, 3))
}

func TestScroll(t *testing.T) {
	b := SolidBrush{Magnitude: 10}.Scroll(20).(SolidBrush)
	assert.InDelta(t, 10*math.E, b.Magnitude, 1e-9)

	r := RadiusBrush{Magnitude: 10, Radius: 3}.Scroll(-20).(RadiusBrush)
	assert.InDelta(t, 10/math.E, r.Magnitude, 1e-9)
	assert.Equal(t, 3, r.Radius)
}

func TestGate(t *testing.T) {
	paint := func() *Canvas {
		c := newCanvas(t)
		c.Spectrogram().Set(0, 0, complex(10, 0))
		c.Spectrogram().Set(1, 0, complex(0, 5))
		c.Spectrogram().Set(2, 0, complex(0.5, 0))
		return c
	}

	c := paint()
	assert.Equal(t, 1, c.Gate(0.1))
	assert.Zero(t, c.Spectrogram().At(2, 0))
	assert.Equal(t, complex(0, 5), c.Spectrogram().At(1, 0))

	c = paint()
	assert.Equal(t, 2, c.Gate(2), "threshold clamps to 1")
	assert.Equal(t, complex(10, 0), c.Spectrogram().At(0, 0))

	c = paint()
	assert.Equal(t, 0, c.Gate(-1), "threshold clamps to 0")

	assert.Equal(t, 0, newCanvas(t).Gate(0.5), "empty canvas")
}

func TestRenderAndImport(t *testing.T) {
	ir := stft.IntensityRange{Min: -3, Max: 10}
	c := newCanvas(t)
	c.Paint(RadiusBrush{Magnitude: 500, Radius: 3}, 0.4, 0.4)

	buf, err := c.Render(ir)
	require.NoError(t, err)
	require.Len(t, buf, 8*9)

	c.Clear()
	assert.Zero(t, c.Changes())
	require.NoError(t, c.Import(buf, ir))

	again, err := c.Render(ir)
	require.NoError(t, err)
	for i := range buf {
		assert.InDelta(t, float64(buf[i]), float64(again[i]), 1, "byte %d", i)
	}

	assert.Error(t, c.Import(buf[:10], ir))
}

const testScript = `
columns: 16
magnitude: 40
radius: 2
gate: 0.05
strokes:
  - brush: radius
    points: [[0.25, 0.5], [0.30, 0.5]]
  - brush: solid
    magnitude: 80
    scroll: 20
    points: [[0.75, 0.25], [1.5, 0.5]]
`

func TestRunScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strokes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScript), 0o644))

	s, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, s.Strokes, 2)
	assert.Equal(t, 16, s.Columns)

	c, err := NewCanvas(small, s.Columns, stft.BinRange{})
	require.NoError(t, err)
	require.NoError(t, c.Run(s))

	spec := c.Spectrogram()
	// 0.25*16 = 4, 0.5*9 = 4.5
	assert.Equal(t, complex(40, 0), spec.At(4, 4))
	// 0.75*16 = 12, 0.25*9 = 2.25
	assert.InDelta(t, 80*math.E, real(spec.At(12, 2)), 1e-9)
}

func TestParseScriptErrors(t *testing.T) {
	_, err := ParseScript([]byte("strokes:\n  - brush: spray\n    points: [[0.1, 0.1]]\n"))
	assert.ErrorContains(t, err, "unknown brush")

	_, err = ParseScript([]byte("colour: red\n"))
	assert.Error(t, err)

	s, err := ParseScript(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Strokes)
}

func TestSynthesizePaintedTone(t *testing.T) {
	e, err := stft.NewEngine(stft.Settings{WindowSize: 32}, 2)
	require.NoError(t, err)

	c, err := NewCanvas(e.Settings(), 16, stft.BinRange{})
	require.NoError(t, err)
	for x := 0; x < 16; x++ {
		require.True(t, c.Paint(SolidBrush{Magnitude: 1}, (float64(x)+0.5)/16, 4.5/17))
	}

	out, err := c.Synthesize(context.Background(), e)
	require.NoError(t, err)
	assert.Len(t, out, 16*16+16)

	spec, err := e.Analyze(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 4, spec.DominantBin())
}

func TestSynthesizeHeightMismatch(t *testing.T) {
	c := newCanvas(t)
	e, err := stft.NewEngine(stft.Settings{WindowSize: 64}, 1)
	require.NoError(t, err)

	_, err = c.Synthesize(context.Background(), e)
	assert.True(t, errors.Is(err, stft.ErrInvalidConfiguration))
}
