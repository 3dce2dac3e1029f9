// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"spectro/internal/analysis"
	"spectro/internal/audio"
	applog "spectro/internal/log"
	"spectro/internal/matfile"
	"spectro/internal/render"
	"spectro/internal/stft"
	"spectro/pkg/utils"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		output   string
		magPNG   string
		phasePNG string
		half     bool
		summary  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <audio file>",
		Short: "Compute the STFT of a WAV, MP3 or FLAC file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := audio.Load(args[0])
			if err != nil {
				return err
			}
			e, err := a.engine()
			if err != nil {
				return err
			}

			start := time.Now()
			spec, err := e.Analyze(cmd.Context(), sig.Samples)
			if err != nil {
				return err
			}
			applog.Infof("analyzed %s into %s in %s", sig, spec, time.Since(start))

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".stft"
			}
			meta := matfile.Meta{Settings: e.Settings(), SampleRate: sig.SampleRate, Precision: matfile.Float32}
			if half {
				meta.Precision = matfile.Float16
			}
			if err := matfile.WriteFile(output, spec, meta); err != nil {
				return err
			}
			applog.Infof("matrix written to %s", output)

			if magPNG != "" {
				if err := a.writeMagnitude(magPNG, spec); err != nil {
					return err
				}
			}
			if phasePNG != "" {
				if err := a.writePhase(phasePNG, spec); err != nil {
					return err
				}
			}
			if summary {
				printSummary(cmd.OutOrStdout(), spec, e.Settings(), sig.SampleRate)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Matrix file (default: input name with .stft)")
	cmd.Flags().StringVar(&magPNG, "png", "", "Also write the magnitude view as a PNG")
	cmd.Flags().StringVar(&phasePNG, "phase-png", "", "Also write the phase view as a PNG")
	cmd.Flags().BoolVar(&half, "half", false, "Store the matrix in half precision")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print band energies and onset times")
	return cmd
}

func newSynthCmd(a *app) *cobra.Command {
	var (
		output    string
		noTrim    bool
		normalize bool
	)

	cmd := &cobra.Command{
		Use:   "synth <matrix file>",
		Short: "Reconstruct a signal from a stored matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, meta, err := matfile.ReadFile(args[0])
			if err != nil {
				return err
			}
			e, err := a.engineFor(meta.Settings)
			if err != nil {
				return err
			}

			samples, err := e.Synthesize(cmd.Context(), spec, a.cfg.EdgeRepair())
			if err != nil {
				return err
			}
			if !noTrim {
				samples = spec.Trim(samples)
			}

			rate := meta.SampleRate
			if rate == 0 {
				rate = a.cfg.Audio.SampleRate
			}
			return a.save(output, audio.Signal{Samples: samples, SampleRate: rate}, normalize)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output WAV file")
	cmd.Flags().BoolVar(&noTrim, "no-trim", false, "Keep the analysis padding")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Scale the output to a peak of 0.99")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newRoundTripCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "roundtrip <audio file>",
		Short: "Analyze and resynthesize a file and report the reconstruction error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := audio.Load(args[0])
			if err != nil {
				return err
			}
			e, err := a.engine()
			if err != nil {
				return err
			}

			spec, err := e.Analyze(cmd.Context(), sig.Samples)
			if err != nil {
				return err
			}
			samples, err := e.Synthesize(cmd.Context(), spec, a.cfg.EdgeRepair())
			if err != nil {
				return err
			}
			samples = spec.Trim(samples)

			n := min(len(samples), len(sig.Samples))
			var maxErr float64
			for i := range n {
				maxErr = math.Max(maxErr, math.Abs(samples[i]-sig.Samples[i]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d columns x %d bins, rms error %.3g, max error %.3g\n",
				filepath.Base(args[0]), spec.Width, spec.Height, utils.RMS(samples[:n], sig.Samples[:n]), maxErr)

			if output == "" {
				return nil
			}
			return a.save(output, audio.Signal{Samples: samples, SampleRate: sig.SampleRate}, false)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the reconstruction to a WAV file")
	return cmd
}

func newResynthCmd(a *app) *cobra.Command {
	var (
		image       string
		output      string
		compose     bool
		zeroOutside bool
		phase       string
		seed        int64
		normalize   bool
	)

	cmd := &cobra.Command{
		Use:   "resynth <audio file>",
		Short: "Replace the magnitudes of a file with an edited PNG and reconstruct it",
		Long: "resynth analyzes the file, imports the magnitude image (as written by " +
			"'analyze --png' with the same settings and bin range), optionally rewrites " +
			"the phase and reconstructs the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := audio.Load(args[0])
			if err != nil {
				return err
			}
			im, err := render.ReadFile(image)
			if err != nil {
				return err
			}
			e, err := a.engine()
			if err != nil {
				return err
			}

			spec, err := e.Analyze(cmd.Context(), sig.Samples)
			if err != nil {
				return err
			}
			if im.Width != spec.Width {
				return fmt.Errorf("image is %d columns wide, the analysis has %d", im.Width, spec.Width)
			}

			mode := stft.Overwrite
			if compose {
				mode = stft.Compose
			}
			if err := spec.ImportMagnitude(im.Pix, a.cfg.BinRange(), a.cfg.IntensityRange(), mode, zeroOutside); err != nil {
				return err
			}
			if err := applyPhase(spec, phase, e.Settings(), seed); err != nil {
				return err
			}

			samples, err := e.Synthesize(cmd.Context(), spec, a.cfg.EdgeRepair())
			if err != nil {
				return err
			}
			return a.save(output, audio.Signal{Samples: spec.Trim(samples), SampleRate: sig.SampleRate}, normalize)
		},
	}

	cmd.Flags().StringVarP(&image, "image", "i", "", "Edited magnitude PNG")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output WAV file")
	cmd.Flags().BoolVar(&compose, "compose", false, "Keep the original phase of every cell")
	cmd.Flags().BoolVar(&zeroOutside, "zero-outside", false, "Silence bins outside the imported range")
	cmd.Flags().StringVar(&phase, "phase", "keep", "Phase to apply after import: keep, zero, random or advance")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for --phase random")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Scale the output to a peak of 0.99")
	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("output")
	return cmd
}

func printSummary(w io.Writer, spec *stft.Spectrogram, s stft.Settings, sampleRate int) {
	fmt.Fprintf(w, "%-8s %6s %8s %9s\n", "band", "bins", "share", "level")
	for _, l := range analysis.BandEnergy(spec, s, sampleRate, analysis.DefaultBands) {
		fmt.Fprintf(w, "%-8s %6d %7.1f%% %6.1f dB\n", l.Name, l.Bins, 100*l.Share, l.Decibels)
	}

	onsets := analysis.DefaultOnsetDetector.Detect(spec)
	fmt.Fprintf(w, "\n%d onsets\n", len(onsets))
	for _, x := range onsets {
		fmt.Fprintf(w, "  column %4d  %8.3fs\n", x, analysis.ColumnTime(x, s, spec.Lead, sampleRate))
	}
}

// applyPhase rewrites the phase of every cell as named on the command line.
func applyPhase(spec *stft.Spectrogram, name string, s stft.Settings, seed int64) error {
	switch name {
	case "keep", "":
	case "zero":
		spec.EliminatePhase()
	case "random":
		spec.ApplyPhase(stft.RandomPhase(rand.New(rand.NewSource(seed))), stft.PhaseReplace)
	case "advance":
		spec.ApplyPhase(stft.PhaseAdvance(s), stft.PhaseReplace)
	default:
		return fmt.Errorf("unknown phase %q, want keep, zero, random or advance", name)
	}
	return nil
}

func (a *app) save(path string, sig audio.Signal, normalize bool) error {
	if normalize {
		sig.Normalize(0.99)
	}
	if err := audio.SaveWAV(path, sig, a.cfg.Audio.BitDepth); err != nil {
		return err
	}
	applog.Infof("wrote %s to %s", sig, path)
	return nil
}

func (a *app) writeMagnitude(path string, spec *stft.Spectrogram) error {
	band, err := a.cfg.BinRange().Resolve(spec.Height)
	if err != nil {
		return err
	}
	buf, err := spec.MagnitudeBytes(band, a.cfg.IntensityRange())
	if err != nil {
		return err
	}
	return writeImage(path, buf, spec.Width, band.Rows())
}

func (a *app) writePhase(path string, spec *stft.Spectrogram) error {
	band, err := a.cfg.BinRange().Resolve(spec.Height)
	if err != nil {
		return err
	}
	buf, err := spec.PhaseBytes(band, a.cfg.PhaseView())
	if err != nil {
		return err
	}
	return writeImage(path, buf, spec.Width, band.Rows())
}

func writeImage(path string, buf []byte, width, height int) error {
	im, err := render.NewImage(buf, width, height)
	if err != nil {
		return err
	}
	if err := render.WriteFile(path, im); err != nil {
		return err
	}
	applog.Infof("image %dx%d written to %s", width, height, path)
	return nil
}
