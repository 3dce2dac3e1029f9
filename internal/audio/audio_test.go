// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spectro/pkg/utils"
)

const testSampleRate = 48000

func TestSaveLoadWAV(t *testing.T) {
	tests := []struct {
		bitDepth  int
		tolerance float64
	}{
		{16, 1e-4},
		{24, 1e-6},
		{32, 1e-8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-bit", tt.bitDepth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sine.wav")
			in := Signal{
				Samples:    utils.GenerateComplexWave(4800, testSampleRate),
				SampleRate: testSampleRate,
			}

			if err := SaveWAV(path, in, tt.bitDepth); err != nil {
				t.Fatalf("SaveWAV() error = %v", err)
			}

			out, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if out.SampleRate != testSampleRate {
				t.Errorf("sample rate = %d, want %d", out.SampleRate, testSampleRate)
			}
			if len(out.Samples) != len(in.Samples) {
				t.Fatalf("got %d samples, want %d", len(out.Samples), len(in.Samples))
			}
			for i := range in.Samples {
				if d := math.Abs(in.Samples[i] - out.Samples[i]); d > tt.tolerance {
					t.Fatalf("sample %d: got %g, want %g (±%g)", i, out.Samples[i], in.Samples[i], tt.tolerance)
				}
			}
		})
	}
}

func TestSaveWAVClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	in := Signal{Samples: []float64{2, -2, 0.5}, SampleRate: 8000}

	if err := SaveWAV(path, in, 16); err != nil {
		t.Fatalf("SaveWAV() error = %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Samples[0] > 1 || out.Samples[1] < -1 {
		t.Errorf("samples not clipped: %v", out.Samples)
	}
}

func TestSaveWAVRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	if err := SaveWAV(filepath.Join(dir, "a.wav"), Signal{SampleRate: 8000}, 12); err == nil {
		t.Error("expected error for 12-bit output")
	}
	if err := SaveWAV(filepath.Join(dir, "b.wav"), Signal{}, 16); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "track.ogg")); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage.flac")
	if err := os.WriteFile(garbage, []byte("definitely not flac"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(garbage); err == nil {
		t.Error("expected error for invalid FLAC")
	}

	notWAV := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(notWAV, []byte("RIFX0000"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(notWAV); err == nil {
		t.Error("expected error for invalid WAV")
	}
}

func TestMixdown(t *testing.T) {
	got := mixdown([]int{100, 300, -200, 0}, 2, 1000)
	want := []float64{0.2, -0.1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("mixdown()[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestSignalHelpers(t *testing.T) {
	s := Signal{Samples: []float64{0.1, -0.4, 0.2}, SampleRate: 2}
	if s.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %s", s.Duration())
	}
	if s.Peak() != 0.4 {
		t.Errorf("Peak() = %g", s.Peak())
	}

	s.Normalize(0.8)
	if math.Abs(s.Peak()-0.8) > 1e-12 || math.Abs(s.Samples[0]-0.2) > 1e-12 {
		t.Errorf("Normalize() = %v", s.Samples)
	}

	silent := Signal{Samples: make([]float64, 4)}
	silent.Normalize(1)
	if silent.Peak() != 0 || silent.Duration() != 0 {
		t.Error("silent signal changed")
	}
}
