// SPDX-License-Identifier: MIT
/*
Package playback plays reconstructed signals through a PortAudio output
device.

Thread Safety:
  - The stream callback runs on a PortAudio thread and only touches the
    player's read cursor, which no other goroutine writes.
  - Completion is signalled once through a closed channel.
*/
package playback

import (
	"context"
	"fmt"
	"sync"

	"spectro/internal/audio"
	applog "spectro/internal/log"

	"github.com/gordonklaus/portaudio"
)

var logger = applog.Named("playback")

// DefaultFramesPerBuffer is used when Options.FramesPerBuffer is zero.
const DefaultFramesPerBuffer = 512

// Options tunes the output stream.
type Options struct {
	DeviceID        int
	FramesPerBuffer int
	LowLatency      bool
}

// player feeds a fixed signal to the stream callback.
type player struct {
	samples []float64
	pos     int

	done     chan struct{}
	doneOnce sync.Once
}

func newPlayer(samples []float64) *player {
	return &player{
		samples: samples,
		done:    make(chan struct{}),
	}
}

// fill is the stream callback. It copies the next len(out) samples, pads
// with silence after the end and closes done once everything was written.
func (p *player) fill(out []float32) {
	n := copy32(out, p.samples[p.pos:])
	p.pos += n
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if p.pos >= len(p.samples) {
		p.doneOnce.Do(func() { close(p.done) })
	}
}

func copy32(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
	return n
}

// Play blocks until sig has been played on the selected device or ctx is
// cancelled. It initializes and terminates PortAudio itself.
func Play(ctx context.Context, sig audio.Signal, opts Options) (err error) {
	if sig.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sig.SampleRate)
	}
	if opts.FramesPerBuffer <= 0 {
		opts.FramesPerBuffer = DefaultFramesPerBuffer
	}

	if err := Initialize(); err != nil {
		return err
	}
	defer func() {
		if terr := Terminate(); err == nil {
			err = terr
		}
	}()

	device, err := OutputDevice(opts.DeviceID)
	if err != nil {
		return err
	}

	latency := device.DefaultHighOutputLatency
	if opts.LowLatency {
		latency = device.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  latency,
		},
		FramesPerBuffer: opts.FramesPerBuffer,
		SampleRate:      float64(sig.SampleRate),
	}

	p := newPlayer(sig.Samples)
	stream, err := portaudio.OpenStream(params, p.fill)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	logger.Infof("playing %s on %s", sig, device.Name)
	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if serr := stream.Stop(); serr != nil && err == nil {
		err = fmt.Errorf("failed to stop output stream: %w", serr)
	}
	return err
}
