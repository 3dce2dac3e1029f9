// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"spectro/internal/audio"
	applog "spectro/internal/log"
	"spectro/internal/matfile"
	"spectro/internal/stft"
	"spectro/internal/transport"
	"spectro/internal/transport/udp"

	"github.com/spf13/cobra"
)

// loadMatrix reads a stored matrix or analyzes an audio file.
func (a *app) loadMatrix(ctx context.Context, path string) (*stft.Spectrogram, stft.Settings, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".stft") {
		spec, meta, err := matfile.ReadFile(path)
		if err != nil {
			return nil, stft.Settings{}, 0, err
		}
		return spec, meta.Settings, meta.SampleRate, nil
	}

	sig, err := audio.Load(path)
	if err != nil {
		return nil, stft.Settings{}, 0, err
	}
	e, err := a.engine()
	if err != nil {
		return nil, stft.Settings{}, 0, err
	}
	spec, err := e.Analyze(ctx, sig.Samples)
	if err != nil {
		return nil, stft.Settings{}, 0, err
	}
	return spec, e.Settings(), sig.SampleRate, nil
}

func newServeCmd(a *app) *cobra.Command {
	var (
		wsAddr string
		udpTo  string
		noUDP  bool
		once   bool
	)

	cmd := &cobra.Command{
		Use:   "serve <audio or matrix file>",
		Short: "Stream magnitude columns over WebSocket and UDP in real time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec, settings, rate, err := a.loadMatrix(ctx, args[0])
			if err != nil {
				return err
			}
			if rate == 0 {
				rate = a.cfg.Audio.SampleRate
			}

			if cmd.Flags().Changed("ws") {
				a.cfg.Transport.WSAddress = wsAddr
			}
			if cmd.Flags().Changed("udp") {
				a.cfg.Transport.UDPTarget = udpTo
			}

			sinks := transport.MultiSink{transport.NewWebSocketSink(a.cfg.Transport.WSAddress)}
			if !noUDP && a.cfg.Transport.UDPTarget != "" {
				sender, err := udp.NewSender(a.cfg.Transport.UDPTarget)
				if err != nil {
					sinks.Close()
					return err
				}
				sinks = append(sinks, sender)
			}
			if applog.GetLevel() == applog.LevelDebug {
				sinks = append(sinks, transport.NewLoggingSink())
			}
			defer func() {
				if err := sinks.Close(); err != nil {
					applog.Warnf("closing sinks: %v", err)
				}
			}()

			interval := a.cfg.Transport.ColumnInterval
			if interval == 0 {
				interval = transport.ColumnInterval(settings, rate)
			}
			pub, err := transport.NewPublisher(sinks, interval, !once)
			if err != nil {
				return err
			}

			src := transport.MagnitudeSource{
				Spec:      spec,
				Band:      a.cfg.BinRange(),
				Intensity: a.cfg.IntensityRange(),
			}
			err = pub.Run(ctx, src)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&wsAddr, "ws", "", "WebSocket listen address (default from configuration)")
	cmd.Flags().StringVar(&udpTo, "udp", "", "UDP target host:port (default from configuration)")
	cmd.Flags().BoolVar(&noUDP, "no-udp", false, "Do not send UDP packets")
	cmd.Flags().BoolVar(&once, "once", false, "Stop after the last column instead of looping")
	return cmd
}
