// SPDX-License-Identifier: MIT
/*
Package audio moves signals between files and memory. Every decoder mixes
its channels down to mono float64 samples in [-1, 1].

Supported formats:
  - WAV (PCM, any bit depth go-audio/wav decodes), read and written
  - MP3, read only
  - FLAC, read only
*/
package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	applog "spectro/internal/log"
)

var logger = applog.Named("audio")

// Signal is a complete mono signal held in memory.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playing time of s.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)) * time.Second / time.Duration(s.SampleRate)
}

// Peak returns the largest absolute sample value.
func (s Signal) Peak() float64 {
	var peak float64
	for _, v := range s.Samples {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Normalize scales s in place so that its peak is target. Silent signals
// are left alone.
func (s Signal) Normalize(target float64) {
	peak := s.Peak()
	if peak == 0 {
		return
	}
	g := target / peak
	for i := range s.Samples {
		s.Samples[i] *= g
	}
}

func (s Signal) String() string {
	return fmt.Sprintf("%d samples @ %d Hz (%s)", len(s.Samples), s.SampleRate, s.Duration())
}

// Load decodes the file at path, choosing the decoder from its extension.
func Load(path string) (Signal, error) {
	var (
		sig Signal
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		sig, err = loadWAV(path)
	case ".mp3":
		sig, err = loadMP3(path)
	case ".flac":
		sig, err = loadFLAC(path)
	default:
		return Signal{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		return Signal{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	logger.Debugf("loaded %s: %s", path, sig)
	return sig, nil
}

// mixdown averages interleaved frames of channels samples, each scaled by
// 1/fullScale.
func mixdown(interleaved []int, channels int, fullScale float64) []float64 {
	if channels < 1 {
		channels = 1
	}
	out := make([]float64, len(interleaved)/channels)
	scale := 1 / (fullScale * float64(channels))
	for i := range out {
		var sum int
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = float64(sum) * scale
	}
	return out
}
