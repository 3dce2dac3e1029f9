// SPDX-License-Identifier: MIT
package transport

import "sync/atomic"

// LoggingSink logs each column at debug level instead of sending it.
type LoggingSink struct {
	frames atomic.Int64
	bytes  atomic.Int64
}

// NewLoggingSink creates a new LoggingSink.
func NewLoggingSink() *LoggingSink {
	logger.Infof("using logging sink")
	return &LoggingSink{}
}

// Send logs the column size and peak byte.
func (l *LoggingSink) Send(column int, data []byte) error {
	var peak byte
	for _, b := range data {
		peak = max(peak, b)
	}
	l.frames.Add(1)
	l.bytes.Add(int64(len(data)))
	logger.Debugf("column %d: %d bins, peak %d", column, len(data), peak)
	return nil
}

// Frames returns how many columns were logged.
func (l *LoggingSink) Frames() int64 {
	return l.frames.Load()
}

// Close logs a summary.
func (l *LoggingSink) Close() error {
	logger.Infof("logging sink closed after %d columns (%d bytes)", l.frames.Load(), l.bytes.Load())
	return nil
}

var _ Sink = (*LoggingSink)(nil)
