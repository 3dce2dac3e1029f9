// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"spectro/internal/audio"
	"spectro/internal/matfile"
	"spectro/internal/playback"
	"spectro/internal/tui"

	"github.com/spf13/cobra"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		device     int
		pick       bool
		lowLatency bool
		frames     int
	)

	cmd := &cobra.Command{
		Use:   "play <audio or matrix file>",
		Short: "Play a file, resynthesizing it first when it is a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sig, err := a.playable(ctx, args[0])
			if err != nil {
				return err
			}

			opts := playback.Options{
				DeviceID:        a.cfg.Audio.OutputDevice,
				FramesPerBuffer: a.cfg.Audio.FramesPerBuffer,
				LowLatency:      lowLatency,
			}
			if cmd.Flags().Changed("device") {
				opts.DeviceID = device
			}
			if cmd.Flags().Changed("frames") {
				opts.FramesPerBuffer = frames
			}

			if pick {
				if err := playback.Initialize(); err != nil {
					return err
				}
				id, err := tui.PickOutputDevice(sig.SampleRate)
				playback.Terminate()
				if errors.Is(err, tui.ErrCancelled) {
					return nil
				}
				if err != nil {
					return err
				}
				opts.DeviceID = id
			}

			err = playback.Play(ctx, sig, opts)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&device, "device", "d", -1, "Output device ID, -1 for the system default. Use 'devices' to list them.")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose the output device interactively")
	cmd.Flags().BoolVarP(&lowLatency, "low-latency", "l", false, "Use the device's low latency setting")
	cmd.Flags().IntVarP(&frames, "frames-per-buffer", "b", playback.DefaultFramesPerBuffer, "Frames per buffer")
	return cmd
}

// playable loads an audio file, or resynthesizes a matrix file.
func (a *app) playable(ctx context.Context, path string) (audio.Signal, error) {
	if !strings.EqualFold(filepath.Ext(path), ".stft") {
		return audio.Load(path)
	}

	spec, meta, err := matfile.ReadFile(path)
	if err != nil {
		return audio.Signal{}, err
	}
	e, err := a.engineFor(meta.Settings)
	if err != nil {
		return audio.Signal{}, err
	}
	samples, err := e.Synthesize(ctx, spec, a.cfg.EdgeRepair())
	if err != nil {
		return audio.Signal{}, err
	}

	sig := audio.Signal{Samples: spec.Trim(samples), SampleRate: meta.SampleRate}
	if sig.SampleRate == 0 {
		sig.SampleRate = a.cfg.Audio.SampleRate
	}
	if sig.Peak() > 1 {
		sig.Normalize(0.99)
	}
	return sig, nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := playback.Initialize(); err != nil {
				return err
			}
			defer func() {
				if terr := playback.Terminate(); err == nil {
					err = terr
				}
			}()
			return playback.ListDevices(cmd.OutOrStdout())
		},
	}
}
