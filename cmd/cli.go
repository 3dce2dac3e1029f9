// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"

	"spectro/internal/config"
	applog "spectro/internal/log"
	"spectro/internal/stft"
	"spectro/pkg/build"

	"github.com/spf13/cobra"
)

// app carries the configuration shared by every command. Flags that were set
// on the command line override the YAML file and the environment.
type app struct {
	cfg        *config.Config
	configPath string

	windowSize int
	padAmount  int
	pow2       bool
	window     string
	workers    int
	verbose    bool
}

// Execute builds the command tree and runs it with ctx, which commands use
// for cancellation.
func Execute(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	info := build.Get()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Configuration
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"YAML configuration file (default: spectro.yaml or config.yaml if present)")

	// Analysis Configuration
	rootCmd.PersistentFlags().IntVarP(&a.windowSize, "window-size", "n", config.DefaultWindowSize,
		"Samples per analysis window, must be even")
	rootCmd.PersistentFlags().IntVarP(&a.padAmount, "pad", "p", config.DefaultPadAmount,
		"Zeros added to every segment before the transform, must be even")
	rootCmd.PersistentFlags().BoolVar(&a.pow2, "pad-pow2", false,
		"Pad every segment up to the next power of two (overrides --pad)")
	rootCmd.PersistentFlags().StringVarP(&a.window, "window", "w", config.DefaultWindow,
		"Analysis window: hann-periodic or hann")
	rootCmd.PersistentFlags().IntVarP(&a.workers, "workers", "j", config.DefaultWorkers,
		"Worker goroutines per transform, 0 for one per CPU")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Show debug output")

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newSynthCmd(a),
		newRoundTripCmd(a),
		newResynthCmd(a),
		newPaintCmd(a),
		newServeCmd(a),
		newPlayCmd(a),
		newDevicesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// load reads the configuration, applies changed flags and sets the log level.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("window-size") {
		cfg.Analysis.WindowSize = a.windowSize
	}
	if flags.Changed("pad") {
		cfg.Analysis.PadAmount = a.padAmount
	}
	if flags.Changed("pad-pow2") {
		cfg.Analysis.PadPowerOfTwo = a.pow2
	}
	if flags.Changed("window") {
		cfg.Analysis.Window = a.window
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = a.workers
	}
	if flags.Changed("verbose") {
		cfg.Debug = a.verbose
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applog.SetLevel(cfg.Level())
	a.cfg = cfg
	return nil
}

// engine builds an engine from the configured analysis settings.
func (a *app) engine() (*stft.Engine, error) {
	s, err := a.cfg.Settings()
	if err != nil {
		return nil, err
	}
	return a.engineFor(s)
}

// engineFor builds an engine for settings read from a matrix file.
func (a *app) engineFor(s stft.Settings) (*stft.Engine, error) {
	e, err := stft.NewEngine(s, a.cfg.Workers())
	if err != nil {
		return nil, err
	}
	applog.Debugf("engine: window %d (%s), pad %d, %d bins, %d workers",
		s.WindowSize, s.Window, s.PadAmount, s.Bins(), e.Workers())
	return e, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.Get())
		},
	}
}
