// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	applog "spectro/internal/log"

	"gopkg.in/yaml.v3"
)

var logger = applog.Named("configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Analysis  AnalysisConfig  `yaml:"analysis"`  // STFT engine settings.
	Display   DisplayConfig   `yaml:"display"`   // Byte-encoding views of the matrix.
	Audio     AudioConfig     `yaml:"audio"`     // File output and playback.
	Transport TransportConfig `yaml:"transport"` // Column streaming.
	Editor    EditorConfig    `yaml:"editor"`    // Paint-from-scratch canvas defaults.
}

// AnalysisConfig holds the settings shared by the forward and inverse engines.
type AnalysisConfig struct {
	WindowSize    int    `yaml:"window_size"`      // Samples per window, even.
	PadAmount     int    `yaml:"pad_amount"`       // Zeros appended to every segment, even.
	PadPowerOfTwo bool   `yaml:"pad_power_of_two"` // Ignore pad_amount and pad up to the next power of two.
	Window        string `yaml:"window"`           // "hann-periodic" or "hann".
	Workers       int    `yaml:"workers"`          // Worker goroutines per call, 0 for one per CPU.
	EdgeRepair    bool   `yaml:"edge_repair"`      // Zero DC/Nyquist imaginary parts before synthesis.
}

// DisplayConfig controls how the matrix is encoded as 8-bit images.
type DisplayConfig struct {
	BinStart      int     `yaml:"bin_start"`      // First exported row.
	BinEnd        int     `yaml:"bin_end"`        // One past the last exported row, 0 for all rows.
	IntensityMin  float64 `yaml:"intensity_min"`  // Log magnitude mapped to 0.
	IntensityMax  float64 `yaml:"intensity_max"`  // Log magnitude mapped to 255.
	PhaseSeam     float64 `yaml:"phase_seam"`     // Radians where the phase circle is cut.
	RelativePhase bool    `yaml:"relative_phase"` // Export column-to-column phase change.
}

// AudioConfig holds settings related to audio output.
type AudioConfig struct {
	OutputDevice    int `yaml:"output_device"`     // PortAudio device index for playback (-1 for default).
	SampleRate      int `yaml:"sample_rate"`       // Sample rate for signals that carry none (editor output).
	BitDepth        int `yaml:"bit_depth"`         // WAV output bit depth: 16, 24 or 32.
	FramesPerBuffer int `yaml:"frames_per_buffer"` // PortAudio buffer size.
}

// TransportConfig holds settings for streaming encoded columns.
type TransportConfig struct {
	WSAddress      string        `yaml:"ws_address"`      // Listen address of the WebSocket sink.
	UDPTarget      string        `yaml:"udp_target"`      // host:port for UDP column packets, empty to disable.
	ColumnInterval time.Duration `yaml:"column_interval"` // Delay between columns, 0 for real time.
}

// EditorConfig holds defaults for the paint command.
type EditorConfig struct {
	Columns   int     `yaml:"columns"`   // Canvas width in columns.
	Magnitude float64 `yaml:"magnitude"` // Default brush magnitude.
	Radius    int     `yaml:"radius"`    // Default radius brush size in cells.
	Gate      float64 `yaml:"gate"`      // Spectral gate applied after painting, 0 to disable.
}

// DefaultPaths are searched in order when LoadConfig is given no path.
var DefaultPaths = []string{"spectro.yaml", "config.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches DefaultPaths. If no file is found, it uses built-in defaults. After
// loading defaults or from file, it applies environment variable overrides and
// validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range DefaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logger.Debugf("loaded %s", path)
	}

	// Environment variables override the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.Analysis.Workers < 0 || c.Analysis.Workers > MaxWorkers {
		return fmt.Errorf("analysis.workers must be between 0 and %d, got %d", MaxWorkers, c.Analysis.Workers)
	}
	s, err := c.Settings()
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	if c.Display.BinStart != 0 || c.Display.BinEnd != 0 {
		if c.Display.BinStart < 0 || c.Display.BinEnd > s.Bins() || c.Display.BinStart >= c.Display.BinEnd {
			return fmt.Errorf("display bin range [%d, %d) outside [0, %d)", c.Display.BinStart, c.Display.BinEnd, s.Bins())
		}
	}
	if c.Display.IntensityMin >= c.Display.IntensityMax {
		return fmt.Errorf("display.intensity_min %g must be below intensity_max %g", c.Display.IntensityMin, c.Display.IntensityMax)
	}

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be between %d and %d, got %d", MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	switch c.Audio.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("audio.bit_depth must be 16, 24 or 32, got %d", c.Audio.BitDepth)
	}
	if c.Audio.OutputDevice < MinDeviceID {
		return fmt.Errorf("audio.output_device must be %d or a device index, got %d", MinDeviceID, c.Audio.OutputDevice)
	}

	if c.Transport.ColumnInterval < 0 {
		return fmt.Errorf("transport.column_interval must not be negative, got %s", c.Transport.ColumnInterval)
	}

	if c.Editor.Columns < 1 {
		return fmt.Errorf("editor.columns must be positive, got %d", c.Editor.Columns)
	}
	if c.Editor.Radius < 0 {
		return fmt.Errorf("editor.radius must not be negative, got %d", c.Editor.Radius)
	}
	if c.Editor.Gate < 0 || c.Editor.Gate > 1 {
		return fmt.Errorf("editor.gate must be between 0 and 1, got %g", c.Editor.Gate)
	}

	return nil
}

// applyEnvOverrides replaces fields with ENV_* variables when they are set
// and parse. Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			logger.Infof("overriding debug from env: %v", bVal)
		} else {
			logger.Warnf("ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		logger.Infof("overriding log_level from env: %s", val)
	}

	envInt("ENV_WINDOW_SIZE", "analysis.window_size", &c.Analysis.WindowSize)
	envInt("ENV_PAD_AMOUNT", "analysis.pad_amount", &c.Analysis.PadAmount)
	envInt("ENV_WORKERS", "analysis.workers", &c.Analysis.Workers)

	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WSAddress = val
		logger.Infof("overriding transport.ws_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET"); ok {
		c.Transport.UDPTarget = val
		logger.Infof("overriding transport.udp_target from env: %s", val)
	}
}

func envInt(name, field string, dst *int) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnf("ignoring %s=%q: %v", name, val, err)
		return
	}
	*dst = n
	logger.Infof("overriding %s from env: %d", field, n)
}
