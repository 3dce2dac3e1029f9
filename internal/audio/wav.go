// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SaveWAV writes s as a mono PCM WAV file. Samples outside [-1, 1] are
// clipped.
func SaveWAV(path string, s Signal, bitDepth int) (err error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", s.SampleRate)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	encoder := wav.NewEncoder(file, s.SampleRate, bitDepth, 1, 1)

	fullScale := float64(int64(1)<<(bitDepth-1)) - 1
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  s.SampleRate,
		},
		Data:           make([]int, len(s.Samples)),
		SourceBitDepth: bitDepth,
	}
	clipped := 0
	for i, v := range s.Samples {
		if v > 1 || v < -1 {
			clipped++
			v = math.Max(-1, math.Min(1, v))
		}
		buf.Data[i] = int(math.Round(v * fullScale))
	}
	if clipped > 0 {
		logger.Warnf("clipped %d of %d samples writing %s", clipped, len(s.Samples), path)
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}
	return nil
}
