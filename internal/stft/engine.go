// SPDX-License-Identifier: MIT
/*
Package stft implements short-time Fourier analysis and overlap-add
synthesis of in-memory signals, and the operations used to edit the
resulting time-frequency matrix.

Concurrency:
  - Every Analyze and Synthesize call starts its own workers and joins them
    before returning; nothing is shared between calls.
  - Segments are split into contiguous ranges, one per worker.
  - Workers never touch the matrix or output buffer. They send immutable
    results over a channel to a single goroutine that owns the destination.
  - The first worker error cancels the others and no partial result is
    returned.
*/
package stft

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "spectro/internal/log"
	"spectro/pkg/bitint"

	"golang.org/x/sync/errgroup"
)

var logger = applog.Named("stft")

// Engine runs forward and inverse transforms for one Settings value.
type Engine struct {
	settings Settings
	workers  int
	window   []float64
}

// NewEngine validates s and workers and precomputes the window table.
func NewEngine(s Settings, workers int) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, &ConfigError{Field: "workers", Reason: fmt.Sprintf("%d is not positive", workers)}
	}

	if m := s.TransformSize(); bitint.IsPowerOfTwo(m) {
		logger.Debugf("%d-point transform, %d radix-2 stages", m, bitint.Log2(m))
	} else {
		logger.Debugf("%d-point transform, not a power of two (pad %d would make it one)", m, bitint.PadToPowerOfTwo(m))
	}

	return &Engine{
		settings: s,
		workers:  workers,
		window:   windowTable(s.Window, s.WindowSize),
	}, nil
}

// Settings returns the engine's analysis settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Workers returns the number of workers used per call.
func (e *Engine) Workers() int {
	return e.workers
}

// span is a half-open range of segment or column indices.
type span struct {
	start, end int
}

// partition splits n items into workers contiguous spans. The remainder goes
// to the first span; trailing spans may be empty.
func partition(n, workers int) []span {
	per := n / workers
	extra := n % workers

	spans := make([]span, workers)
	start := 0
	for i := range spans {
		count := per
		if i == 0 {
			count += extra
		}
		spans[i] = span{start: start, end: start + count}
		start += count
	}
	return spans
}

// pad surrounds signal with zeros so that its length is a multiple of the
// window size and the first and last windows cover only padding at their
// outer halves. It returns the padded copy and the number of leading zeros.
func (e *Engine) pad(signal []float64) ([]float64, int) {
	n := e.settings.WindowSize
	toPad := 2*n - len(signal)%n
	lead := toPad / 2

	padded := make([]float64, len(signal)+toPad)
	copy(padded[lead:], signal)
	return padded, lead
}

type column struct {
	index int
	data  []complex128
}

// Analyze computes the STFT of signal.
func (e *Engine) Analyze(ctx context.Context, signal []float64) (*Spectrogram, error) {
	started := time.Now()

	padded, lead := e.pad(signal)
	hop := e.settings.Hop()
	segments := len(padded)/hop - 1

	spec := NewSpectrogram(segments, e.settings.Bins())
	spec.Lead = lead
	spec.Samples = len(signal)

	logger.Debugf("analysis: %d samples, %d segments, %d bins, %d workers",
		len(signal), segments, spec.Height, e.workers)

	g, gctx := errgroup.WithContext(ctx)
	columns := make(chan column, e.workers)

	var producers sync.WaitGroup
	for _, sp := range partition(segments, e.workers) {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()

			t := newSegmentTransform(e.settings, e.window)
			for x := sp.start; x < sp.end; x++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				start := x * hop
				data, err := t.forward(padded[start : start+e.settings.WindowSize])
				if err != nil {
					return &SegmentError{Stage: "analysis", Index: x, Err: err}
				}

				select {
				case columns <- column{index: x, data: data}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		producers.Wait()
		close(columns)
	}()

	// Aggregator: the only writer of spec. Columns are disjoint, so arrival
	// order does not matter.
	g.Go(func() error {
		for c := range columns {
			spec.SetColumn(c.index, c.data)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	logger.Debugf("analysis: done in %s", time.Since(started))
	return spec, nil
}

type contribution struct {
	offset  int
	samples []float64
}

// Synthesize reconstructs a signal from spec by overlap-add. The result has
// Hop()*(spec.Width+1) samples; use spec.Trim to remove analysis padding.
func (e *Engine) Synthesize(ctx context.Context, spec *Spectrogram, repair EdgeRepair) ([]float64, error) {
	out, err := e.overlapAdd(ctx, spec, repair)
	if err != nil {
		return nil, err
	}

	scale := 1 / float64(e.settings.TransformSize())
	for i := range out {
		out[i] *= scale
	}
	return out, nil
}

// overlapAdd sums the inverse transform of every column into the output
// buffer without the final normalisation.
func (e *Engine) overlapAdd(ctx context.Context, spec *Spectrogram, repair EdgeRepair) ([]float64, error) {
	if spec == nil {
		return nil, &ConfigError{Field: "spectrogram", Reason: "nil"}
	}
	if spec.Height > e.settings.Bins() {
		return nil, &ConfigError{
			Field:  "spectrogram height",
			Reason: fmt.Sprintf("%d exceeds %d bins of window %d + pad %d", spec.Height, e.settings.Bins(), e.settings.WindowSize, e.settings.PadAmount),
		}
	}

	started := time.Now()
	hop := e.settings.Hop()
	out := make([]float64, hop*spec.Width+hop)

	logger.Debugf("synthesis: %d columns, %d bins, %d workers", spec.Width, spec.Height, e.workers)

	g, gctx := errgroup.WithContext(ctx)
	contributions := make(chan contribution, e.workers)

	var producers sync.WaitGroup
	for _, sp := range partition(spec.Width, e.workers) {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()

			t := newSegmentTransform(e.settings, e.window)
			col := make([]complex128, spec.Height)
			for x := sp.start; x < sp.end; x++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				spec.Column(x, col)
				samples, err := t.inverse(col, repair)
				if err != nil {
					return &SegmentError{Stage: "synthesis", Index: x, Err: err}
				}

				select {
				case contributions <- contribution{offset: x * hop, samples: samples}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		producers.Wait()
		close(contributions)
	}()

	// Combiner: the only writer of out. Neighbouring contributions overlap
	// by one hop, so they must be summed here rather than by the workers.
	g.Go(func() error {
		for c := range contributions {
			dst := out[c.offset : c.offset+len(c.samples)]
			for i, v := range c.samples {
				dst[i] += v
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	logger.Debugf("synthesis: done in %s", time.Since(started))
	return out, nil
}
