// SPDX-License-Identifier: MIT
package config

import (
	"math"
	"time"
)

// Defaults and limits for the analysis engine, views and I/O.
const (
	DefaultLogLevel   = "info"
	DefaultWindowSize = 3000            // 62.5 ms at 48 kHz
	DefaultPadAmount  = 0               // No zero padding
	DefaultWindow     = "hann-periodic" // Exact overlap-add at 50% hop
	DefaultWorkers    = 0               // 0 selects runtime.NumCPU()
	DefaultEdgeRepair = true            // Clear DC/Nyquist imaginary parts before synthesis

	DefaultIntensityMin = -3.0 // ln|z| mapped to byte 0
	DefaultIntensityMax = 10.0 // ln|z| mapped to byte 255
	DefaultPhaseSeam    = -math.Pi

	DefaultOutputDevice    = MinDeviceID // System default output
	DefaultSampleRate      = 48000
	DefaultBitDepth        = 16
	DefaultFramesPerBuffer = 512

	DefaultWSAddress      = "127.0.0.1:8080"
	DefaultUDPTarget      = "127.0.0.1:9090"
	DefaultColumnInterval = 0 * time.Millisecond // 0 paces columns at hop / sample rate

	DefaultEditorColumns  = 256
	DefaultBrushMagnitude = 50.0
	DefaultBrushRadius    = 4
	DefaultGateThreshold  = 0.0

	MinDeviceID   = -1     // -1 represents the system default device
	MinSampleRate = 8000   // Hz
	MaxSampleRate = 192000 // Hz
	MaxWorkers    = 1024
)

// NewConfig returns a Config populated with the defaults above. LoadConfig
// starts from this value before reading YAML and environment overrides.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Analysis: AnalysisConfig{
			WindowSize: DefaultWindowSize,
			PadAmount:  DefaultPadAmount,
			Window:     DefaultWindow,
			Workers:    DefaultWorkers,
			EdgeRepair: DefaultEdgeRepair,
		},
		Display: DisplayConfig{
			IntensityMin: DefaultIntensityMin,
			IntensityMax: DefaultIntensityMax,
			PhaseSeam:    DefaultPhaseSeam,
		},
		Audio: AudioConfig{
			OutputDevice:    DefaultOutputDevice,
			SampleRate:      DefaultSampleRate,
			BitDepth:        DefaultBitDepth,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		Transport: TransportConfig{
			WSAddress:      DefaultWSAddress,
			UDPTarget:      DefaultUDPTarget,
			ColumnInterval: DefaultColumnInterval,
		},
		Editor: EditorConfig{
			Columns:   DefaultEditorColumns,
			Magnitude: DefaultBrushMagnitude,
			Radius:    DefaultBrushRadius,
			Gate:      DefaultGateThreshold,
		},
	}
}
