// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"spectro/internal/audio"
	"spectro/internal/editor"
	applog "spectro/internal/log"
	"spectro/internal/matfile"
	"spectro/internal/render"

	"github.com/spf13/cobra"
)

func newPaintCmd(a *app) *cobra.Command {
	var (
		output    string
		from      string
		png       string
		save      string
		normalize bool
	)

	cmd := &cobra.Command{
		Use:   "paint <script.yaml>",
		Short: "Paint a spectrogram from scratch and synthesize it",
		Long: "paint starts from an all-zero canvas (or --from a magnitude PNG), runs the " +
			"brush strokes of a YAML script and reconstructs the result. Script values " +
			"left at zero fall back to the editor section of the configuration.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := editor.LoadScript(args[0])
			if err != nil {
				return err
			}
			if script.Columns == 0 {
				script.Columns = a.cfg.Editor.Columns
			}
			if script.Magnitude == 0 {
				script.Magnitude = a.cfg.Editor.Magnitude
			}
			if script.Radius == 0 {
				script.Radius = a.cfg.Editor.Radius
			}
			if script.Gate == 0 {
				script.Gate = a.cfg.Editor.Gate
			}

			e, err := a.engine()
			if err != nil {
				return err
			}
			canvas, err := editor.NewCanvas(e.Settings(), script.Columns, a.cfg.BinRange())
			if err != nil {
				return err
			}

			if from != "" {
				im, err := render.ReadFile(from)
				if err != nil {
					return err
				}
				if im.Width != script.Columns {
					return fmt.Errorf("image is %d columns wide, the canvas has %d", im.Width, script.Columns)
				}
				if err := canvas.Import(im.Pix, a.cfg.IntensityRange()); err != nil {
					return err
				}
			}

			if err := canvas.Run(script); err != nil {
				return err
			}
			applog.Infof("painted %d strokes (%d cell writes)", len(script.Strokes), canvas.Changes())

			if png != "" {
				buf, err := canvas.Render(a.cfg.IntensityRange())
				if err != nil {
					return err
				}
				if err := writeImage(png, buf, script.Columns, canvas.Band().Rows()); err != nil {
					return err
				}
			}
			if save != "" {
				meta := matfile.Meta{Settings: e.Settings(), SampleRate: a.cfg.Audio.SampleRate, Precision: matfile.Float32}
				if err := matfile.WriteFile(save, canvas.Spectrogram(), meta); err != nil {
					return err
				}
			}

			samples, err := canvas.Synthesize(cmd.Context(), e)
			if err != nil {
				return err
			}
			return a.save(output, audio.Signal{Samples: samples, SampleRate: a.cfg.Audio.SampleRate}, normalize)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output WAV file")
	cmd.Flags().StringVar(&from, "from", "", "Start from a magnitude PNG instead of silence")
	cmd.Flags().StringVar(&png, "png", "", "Also write the painted canvas as a PNG")
	cmd.Flags().StringVar(&save, "save", "", "Also store the canvas as a matrix file")
	cmd.Flags().BoolVar(&normalize, "normalize", true, "Scale the output to a peak of 0.99")
	cmd.MarkFlagRequired("output")
	return cmd
}
