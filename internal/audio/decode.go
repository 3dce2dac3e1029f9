// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

func loadWAV(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Signal{}, errors.New("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Signal{}, fmt.Errorf("failed to decode WAV: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth == 0 {
		return Signal{}, errors.New("WAV file has no bit depth")
	}

	return Signal{
		Samples:    mixdown(buf.Data, buf.Format.NumChannels, float64(int64(1)<<(bitDepth-1))),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// mp3 decodes to 16-bit little-endian stereo.
const mp3FrameBytes = 4

func loadMP3(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to decode MP3: %w", err)
	}

	interleaved := make([]int, len(pcm)/mp3FrameBytes*2)
	for i := range interleaved {
		interleaved[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	return Signal{
		Samples:    mixdown(interleaved, 2, 32768),
		SampleRate: decoder.SampleRate(),
	}, nil
}

func loadFLAC(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, err
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	fullScale := float64(int64(1) << (info.BitsPerSample - 1))

	samples := make([]float64, 0, info.NSamples)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Signal{}, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			var sum int64
			for ch := 0; ch < channels; ch++ {
				sum += int64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, float64(sum)/(fullScale*float64(channels)))
		}
	}

	return Signal{Samples: samples, SampleRate: int(info.SampleRate)}, nil
}
