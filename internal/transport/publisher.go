// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"fmt"
	"time"

	"spectro/internal/stft"
)

// DefaultInterval is used when a publisher is given no usable interval.
const DefaultInterval = 16 * time.Millisecond // ~60Hz

// ColumnSource produces encoded columns by index.
type ColumnSource interface {
	Columns() int
	Column(x int) ([]byte, error)
}

// MagnitudeSource encodes the columns of a spectrogram on demand.
type MagnitudeSource struct {
	Spec      *stft.Spectrogram
	Band      stft.BinRange
	Intensity stft.IntensityRange
}

func (m MagnitudeSource) Columns() int {
	return m.Spec.Width
}

func (m MagnitudeSource) Column(x int) ([]byte, error) {
	return m.Spec.MagnitudeColumn(x, m.Band, m.Intensity)
}

// ColumnInterval returns the real-time duration of one hop.
func ColumnInterval(s stft.Settings, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return DefaultInterval
	}
	return time.Duration(s.Hop()) * time.Second / time.Duration(sampleRate)
}

// Publisher paces the columns of a source into a sink, one per tick.
type Publisher struct {
	sink     Sink
	interval time.Duration
	loop     bool
}

// NewPublisher creates a publisher. With loop set it starts over after the
// last column until cancelled.
func NewPublisher(sink Sink, interval time.Duration, loop bool) (*Publisher, error) {
	if sink == nil {
		return nil, fmt.Errorf("publisher: sink cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
		logger.Warnf("publisher: invalid interval, defaulting to %s", interval)
	}
	return &Publisher{sink: sink, interval: interval, loop: loop}, nil
}

// Interval returns the time between columns.
func (p *Publisher) Interval() time.Duration {
	return p.interval
}

// Run sends every column of src and returns nil once the last one went out,
// or ctx.Err() when cancelled first. Send failures are logged and skipped; a
// source failure stops the run.
func (p *Publisher) Run(ctx context.Context, src ColumnSource) error {
	n := src.Columns()
	if n == 0 {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger.Infof("publishing %d columns every %s", n, p.interval)
	sent, failed := 0, 0
	for x := 0; ; {
		select {
		case <-ctx.Done():
			logger.Infof("publisher stopped after %d columns (%d failed)", sent, failed)
			return ctx.Err()
		case <-ticker.C:
		}

		data, err := src.Column(x)
		if err != nil {
			return fmt.Errorf("publisher: column %d: %w", x, err)
		}
		if err := p.sink.Send(x, data); err != nil {
			failed++
			logger.Warnf("publisher: column %d: %v", x, err)
		} else {
			sent++
		}

		x++
		if x == n {
			if !p.loop {
				logger.Infof("published %d columns (%d failed)", sent, failed)
				return nil
			}
			x = 0
		}
	}
}
