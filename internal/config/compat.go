// SPDX-License-Identifier: MIT
package config

import (
	"runtime"

	applog "spectro/internal/log"
	"spectro/internal/stft"
)

// Settings converts the analysis section into engine settings. The result
// is not validated; Validate does that.
func (c *Config) Settings() (stft.Settings, error) {
	kind, err := stft.ParseWindow(c.Analysis.Window)
	if err != nil {
		return stft.Settings{}, err
	}

	pad := c.Analysis.PadAmount
	if c.Analysis.PadPowerOfTwo {
		pad = stft.PowerOfTwoPad(c.Analysis.WindowSize)
	}

	return stft.Settings{
		WindowSize: c.Analysis.WindowSize,
		PadAmount:  pad,
		Window:     kind,
	}, nil
}

// Workers returns the configured worker count, one per CPU when unset.
func (c *Config) Workers() int {
	if c.Analysis.Workers > 0 {
		return c.Analysis.Workers
	}
	return runtime.NumCPU()
}

// EdgeRepair returns the repair strategy used before synthesis.
func (c *Config) EdgeRepair() stft.EdgeRepair {
	if c.Analysis.EdgeRepair {
		return stft.ZeroEdgeImag
	}
	return stft.KeepEdges
}

// BinRange returns the exported row window.
func (c *Config) BinRange() stft.BinRange {
	return stft.BinRange{Start: c.Display.BinStart, End: c.Display.BinEnd}
}

// IntensityRange returns the log-magnitude clip range.
func (c *Config) IntensityRange() stft.IntensityRange {
	return stft.IntensityRange{Min: c.Display.IntensityMin, Max: c.Display.IntensityMax}
}

// PhaseView returns the phase export settings.
func (c *Config) PhaseView() stft.PhaseView {
	return stft.PhaseView{Seam: c.Display.PhaseSeam, Relative: c.Display.RelativePhase}
}

// Level returns the effective log level. Debug wins over log_level.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}
