// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"sync"
)

// MockSink records published spectrogram columns instead of transmitting
// them. It is safe for concurrent use.
type MockSink struct {
	mu      sync.Mutex
	Columns map[int][]byte
	Order   []int
	Closed  bool
	Err     error // returned by Send when set
}

// Send stores a copy of data under column.
func (m *MockSink) Send(column int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if m.Columns == nil {
		m.Columns = make(map[int][]byte)
	}
	m.Columns[column] = append([]byte(nil), data...)
	m.Order = append(m.Order, column)
	return nil
}

// Close marks the sink closed.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Count returns the number of Send calls that succeeded.
func (m *MockSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Order)
}

// GenerateComplexWave returns a 440 Hz fundamental with two harmonics,
// peaking at 0.9.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = signal * 0.9
	}
	return buffer
}

// GenerateSineWave returns size samples of a unit-amplitude sine.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	return buffer
}

// GenerateNoise returns deterministic white noise in [-1, 1) from a linear
// congruential generator seeded with seed.
func GenerateNoise(size int, seed uint64) []float64 {
	buffer := make([]float64, size)
	state := seed
	for i := range buffer {
		state = state*6364136223846793005 + 1442695040888963407
		buffer[i] = float64(state>>11)/float64(1<<53)*2 - 1
	}
	return buffer
}

// FindPeakBin returns the index of the largest value in magnitudes[startBin:endBin+1].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// RMS returns the root mean square difference between a and b over their
// common length.
func RMS(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}
