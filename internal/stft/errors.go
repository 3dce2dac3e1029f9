// SPDX-License-Identifier: MIT
package stft

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every configuration error.
	ErrInvalidConfiguration = errors.New("stft: invalid configuration")
	// ErrTransform is matched by every per-segment transform failure.
	ErrTransform = errors.New("stft: transform failed")
)

// ConfigError reports a setting that was rejected before any work started.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("stft: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// SegmentError identifies the segment (analysis) or column (synthesis) whose
// transform failed. The whole operation is aborted when one is returned.
type SegmentError struct {
	Stage string // "analysis" or "synthesis"
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("stft: %s of segment %d failed: %v", e.Stage, e.Index, e.Err)
}

// Unwrap returns both ErrTransform and the underlying cause.
func (e *SegmentError) Unwrap() []error {
	return []error{ErrTransform, e.Err}
}
