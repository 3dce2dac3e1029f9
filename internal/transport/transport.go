// SPDX-License-Identifier: MIT

// Package transport streams encoded spectrogram columns to listeners. Every
// sink receives a column index with its 8-bit magnitudes, highest bin first.
package transport

import (
	"errors"

	applog "spectro/internal/log"
)

var logger = applog.Named("transport")

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport: sink closed")

// Sink receives encoded columns. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(column int, data []byte) error
	Close() error
}

// MultiSink fans every column out to several sinks.
type MultiSink []Sink

// Send delivers to every sink and joins their errors.
func (m MultiSink) Send(column int, data []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(column, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Sink = MultiSink(nil)
