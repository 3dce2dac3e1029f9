// SPDX-License-Identifier: MIT

// Package analysis summarises a spectrogram: how its energy splits across
// frequency bands and where new events start.
package analysis

import (
	"math"

	"spectro/internal/stft"

	"gonum.org/v1/gonum/floats"
)

// FrequencyBand names a half-open frequency range [LowHz, HighHz).
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands cover the audible range. The last band is open ended.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: math.Inf(1)},
}

// BandLevel is the energy found in one band.
type BandLevel struct {
	FrequencyBand
	Bins     int     // rows that fall inside the band
	Energy   float64 // summed |z|² over those rows and every column
	Share    float64 // Energy as a fraction of the whole matrix
	Decibels float64 // mean power per cell relative to the loudest band
}

// BinFrequency returns the centre frequency in Hz of row y.
func BinFrequency(y int, s stft.Settings, sampleRate int) float64 {
	return float64(y) * float64(sampleRate) / float64(s.TransformSize())
}

// BandEnergy measures each band of spec. Rows below the first band or
// above the Nyquist frequency are ignored.
func BandEnergy(spec *stft.Spectrogram, s stft.Settings, sampleRate int, bands []FrequencyBand) []BandLevel {
	rows := spec.RowEnergy()
	total := floats.Sum(rows)

	levels := make([]BandLevel, len(bands))
	for i, b := range bands {
		levels[i].FrequencyBand = b
	}
	for y, e := range rows {
		f := BinFrequency(y, s, sampleRate)
		for i, b := range bands {
			if f >= b.LowHz && f < b.HighHz {
				levels[i].Energy += e
				levels[i].Bins++
				break
			}
		}
	}

	mean := make([]float64, len(levels))
	for i, l := range levels {
		if l.Bins > 0 && spec.Width > 0 {
			mean[i] = l.Energy / float64(l.Bins*spec.Width)
		}
	}
	loudest := 0.0
	if len(mean) > 0 {
		loudest = floats.Max(mean)
	}

	for i := range levels {
		if total > 0 {
			levels[i].Share = levels[i].Energy / total
		}
		levels[i].Decibels = math.Inf(-1)
		if loudest > 0 && mean[i] > 0 {
			levels[i].Decibels = 10 * math.Log10(mean[i]/loudest)
		}
	}
	return levels
}
