// SPDX-License-Identifier: MIT
package stft

import (
	"context"
	"errors"
	"math"
	"testing"

	"spectro/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = 48000
	testWindowSize = 3000
)

func newTestEngine(t *testing.T, s Settings, workers int) *Engine {
	t.Helper()
	e, err := NewEngine(s, workers)
	require.NoError(t, err)
	return e
}

func roundTrip(t *testing.T, e *Engine, signal []float64) ([]float64, *Spectrogram) {
	t.Helper()
	ctx := context.Background()

	spec, err := e.Analyze(ctx, signal)
	require.NoError(t, err)

	out, err := e.Synthesize(ctx, spec, ZeroEdgeImag)
	require.NoError(t, err)

	trimmed := spec.Trim(out)
	require.Len(t, trimmed, len(signal))
	return trimmed, spec
}

func TestNewEngineRejectsBadInput(t *testing.T) {
	_, err := NewEngine(Settings{WindowSize: 3}, 1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewEngine(Settings{WindowSize: 300}, 0)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "workers", cfgErr.Field)
}

func TestPartition(t *testing.T) {
	tests := []struct {
		n, workers int
	}{
		{10, 1}, {10, 3}, {3, 8}, {0, 4}, {1499, 7},
	}

	for _, tt := range tests {
		spans := partition(tt.n, tt.workers)
		require.Len(t, spans, tt.workers)

		next := 0
		for i, sp := range spans {
			assert.Equal(t, next, sp.start, "span %d start", i)
			assert.GreaterOrEqual(t, sp.end, sp.start)
			next = sp.end
		}
		assert.Equal(t, tt.n, next)

		per := tt.n / tt.workers
		assert.Equal(t, per+tt.n%tt.workers, spans[0].end-spans[0].start)
		for _, sp := range spans[1:] {
			assert.Equal(t, per, sp.end-sp.start)
		}
	}
}

func TestPadLayout(t *testing.T) {
	e := newTestEngine(t, Settings{WindowSize: 4}, 1)

	tests := []struct {
		length, lead, padded int
	}{
		{10, 3, 16},
		{8, 4, 16},
		{0, 4, 8},
		{1, 3, 8},
	}

	for _, tt := range tests {
		padded, lead := e.pad(make([]float64, tt.length))
		assert.Equal(t, tt.lead, lead, "length %d", tt.length)
		assert.Len(t, padded, tt.padded, "length %d", tt.length)
		assert.Zero(t, len(padded)%4)
		assert.GreaterOrEqual(t, lead, e.settings.Hop())
		assert.GreaterOrEqual(t, len(padded)-lead-tt.length, e.settings.Hop())
	}
}

func TestAnalyzeDimensions(t *testing.T) {
	s := Settings{WindowSize: testWindowSize}
	e := newTestEngine(t, s, 4)

	signal := utils.GenerateSineWave(testSampleRate, testSampleRate, 440)
	spec, err := e.Analyze(context.Background(), signal)
	require.NoError(t, err)

	// 48000 % 3000 == 0, so 6000 samples of padding.
	assert.Equal(t, 3000, spec.Lead)
	assert.Equal(t, len(signal), spec.Samples)
	assert.Equal(t, (len(signal)+6000)/s.Hop()-1, spec.Width)
	assert.Equal(t, s.Bins(), spec.Height)
	assert.Len(t, spec.Data, spec.Width*spec.Height)
}

func TestAnalyzeEmptySignal(t *testing.T) {
	e := newTestEngine(t, Settings{WindowSize: 16}, 2)

	spec, err := e.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, spec.Width)
	for _, z := range spec.Data {
		assert.Zero(t, z)
	}

	out, err := e.Synthesize(context.Background(), spec, KeepEdges)
	require.NoError(t, err)
	assert.Len(t, out, 8*4)
	assert.Equal(t, 8, spec.Lead)
	assert.Empty(t, spec.Trim(out))
}

func TestTrimWithoutPadding(t *testing.T) {
	out := make([]float64, 40)
	assert.Len(t, NewSpectrogram(4, 9).Trim(out), 40, "built from scratch")

	spec := &Spectrogram{Lead: 8, Samples: 20}
	assert.Len(t, spec.Trim(out), 20)
	assert.Len(t, spec.Trim(out[:10]), 10, "too short to hold the signal")
}

func TestRoundTripPeriodicHann(t *testing.T) {
	signal := utils.GenerateNoise(testSampleRate, 7)

	for _, pad := range []int{0, PowerOfTwoPad(testWindowSize)} {
		e := newTestEngine(t, Settings{WindowSize: testWindowSize, PadAmount: pad}, 4)
		out, _ := roundTrip(t, e, signal)

		rms := utils.RMS(signal, out)
		assert.Less(t, rms, 1e-9, "pad %d", pad)
	}
}

func TestRoundTripOddLength(t *testing.T) {
	signal := utils.GenerateComplexWave(12345, testSampleRate)
	e := newTestEngine(t, Settings{WindowSize: 512}, 3)

	out, _ := roundTrip(t, e, signal)
	assert.Less(t, utils.RMS(signal, out), 1e-9)
}

func TestRoundTripSymmetricHann(t *testing.T) {
	// The symmetric window does not overlap-add to exactly one; the ripple
	// peaks at π/(2(N-1)) for a unit-amplitude signal.
	signal := utils.GenerateNoise(8192, 11)
	e := newTestEngine(t, Settings{WindowSize: 256, Window: WindowHann}, 2)

	out, _ := roundTrip(t, e, signal)
	assert.Less(t, utils.RMS(signal, out), math.Pi/(2*255))
}

func TestSineScenario(t *testing.T) {
	e := newTestEngine(t, Settings{WindowSize: testWindowSize}, 4)

	t.Run("between bins", func(t *testing.T) {
		// 440 Hz sits exactly between bins 27 and 28 (16 Hz spacing).
		signal := utils.GenerateSineWave(testSampleRate, testSampleRate, 440)
		out, spec := roundTrip(t, e, signal)

		assert.Contains(t, []int{27, 28}, spec.DominantBin())
		assert.Less(t, utils.RMS(signal, out), 1e-4)

		again, err := e.Analyze(context.Background(), out)
		require.NoError(t, err)
		assert.Contains(t, []int{27, 28}, again.DominantBin())
	})

	t.Run("on bin", func(t *testing.T) {
		signal := utils.GenerateSineWave(testSampleRate, testSampleRate, 480)
		spec, err := e.Analyze(context.Background(), signal)
		require.NoError(t, err)
		assert.Equal(t, 30, spec.DominantBin())

		mags := spec.Magnitudes()
		mid := spec.Width / 2
		column := make([]float64, spec.Height)
		for y := range column {
			column[y] = mags[y*spec.Width+mid]
		}
		assert.Equal(t, 30, utils.FindPeakBin(column, 0, spec.Height-1))
	})
}

func TestWorkerCountDoesNotChangeResults(t *testing.T) {
	s := Settings{WindowSize: 400, PadAmount: 112}
	signal := utils.GenerateNoise(20000, 5)
	ctx := context.Background()

	reference := newTestEngine(t, s, 1)
	want, err := reference.Analyze(ctx, signal)
	require.NoError(t, err)
	wantOut, err := reference.Synthesize(ctx, want, KeepEdges)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 200} {
		e := newTestEngine(t, s, workers)

		got, err := e.Analyze(ctx, signal)
		require.NoError(t, err)
		require.Equal(t, want.Data, got.Data, "analysis with %d workers", workers)

		out, err := e.Synthesize(ctx, got, KeepEdges)
		require.NoError(t, err)
		require.Equal(t, wantOut, out, "synthesis with %d workers", workers)
	}
}

func TestOverlapAddConservesCentres(t *testing.T) {
	s := Settings{WindowSize: 1000, PadAmount: 24}
	e := newTestEngine(t, s, 3)
	signal := utils.GenerateComplexWave(9000, testSampleRate)

	spec, err := e.Analyze(context.Background(), signal)
	require.NoError(t, err)
	raw, err := e.overlapAdd(context.Background(), spec, KeepEdges)
	require.NoError(t, err)

	padded, _ := e.pad(signal)
	require.Len(t, raw, len(padded))

	m := float64(s.TransformSize())
	for x := 0; x < spec.Width; x++ {
		c := x*s.Hop() + s.WindowSize/2
		assert.InDelta(t, m*padded[c], raw[c], 1e-7, "centre of segment %d", x)
	}
}

func TestSynthesizeRejectsTallMatrix(t *testing.T) {
	e := newTestEngine(t, Settings{WindowSize: 64}, 1)

	_, err := e.Synthesize(context.Background(), NewSpectrogram(4, e.Settings().Bins()+1), KeepEdges)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = e.Synthesize(context.Background(), nil, KeepEdges)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	// Shorter matrices are zero-filled above their top row.
	out, err := e.Synthesize(context.Background(), NewSpectrogram(4, 5), KeepEdges)
	require.NoError(t, err)
	assert.Len(t, out, 5*e.Settings().Hop())
}

func TestCancelledContext(t *testing.T) {
	e := newTestEngine(t, Settings{WindowSize: 256}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spec, err := e.Analyze(ctx, utils.GenerateNoise(10000, 1))
	assert.Nil(t, spec)
	assert.True(t, errors.Is(err, context.Canceled))

	out, err := e.Synthesize(ctx, NewSpectrogram(40, e.Settings().Bins()), KeepEdges)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSegmentErrorMatching(t *testing.T) {
	err := error(&SegmentError{Stage: "analysis", Index: 3, Err: errors.New("boom")})
	assert.True(t, errors.Is(err, ErrTransform))
	assert.Contains(t, err.Error(), "segment 3")

	var segErr *SegmentError
	require.True(t, errors.As(err, &segErr))
	assert.Equal(t, "analysis", segErr.Stage)
}

func BenchmarkAnalyze(b *testing.B) {
	e, err := NewEngine(Settings{WindowSize: testWindowSize}, 4)
	if err != nil {
		b.Fatal(err)
	}
	signal := utils.GenerateComplexWave(testSampleRate, testSampleRate)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := e.Analyze(context.Background(), signal); err != nil {
			b.Fatal(err)
		}
	}
}
