// SPDX-License-Identifier: MIT
package playback

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"spectro/internal/audio"

	"github.com/gordonklaus/portaudio"
)

func stubDevices(t *testing.T, infos []*portaudio.DeviceInfo, err error) {
	t.Helper()
	orig := paLibDevicesFunc
	t.Cleanup(func() { paLibDevicesFunc = orig })
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return infos, err
	}
}

var testDevices = []*portaudio.DeviceInfo{
	{Name: "Microphone", MaxInputChannels: 2, DefaultSampleRate: 44100},
	{Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
	{Name: "Interface", MaxInputChannels: 8, MaxOutputChannels: 8, DefaultSampleRate: 96000},
}

func TestHostDevices(t *testing.T) {
	stubDevices(t, testDevices, nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
	}

	kinds := []string{"Input", "Output", "Input/Output"}
	for i, want := range kinds {
		if got := devices[i].Kind(); got != want {
			t.Errorf("device %d Kind() = %q, want %q", i, got, want)
		}
	}
	if devices[0].CanPlay() || !devices[1].CanPlay() {
		t.Error("CanPlay() does not follow output channels")
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestOutputDevice(t *testing.T) {
	stubDevices(t, testDevices, nil)

	dev, err := OutputDevice(1)
	if err != nil || dev.Name != "Speakers" {
		t.Errorf("OutputDevice(1) = %v, %v", dev, err)
	}

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", 10, "invalid device ID"},
		{"Input-only device", 0, "does not support output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OutputDevice(tt.id)
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %v, want substring %q", err, tt.substr)
			}
		})
	}
}

func TestOutputDevice_Default(t *testing.T) {
	stubDevices(t, testDevices, nil)

	orig := paLibDefaultOutputDeviceFunc
	defer func() { paLibDefaultOutputDeviceFunc = orig }()

	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return testDevices[2], nil
	}
	dev, err := OutputDevice(-1)
	if err != nil || dev.Name != "Interface" {
		t.Errorf("OutputDevice(-1) = %v, %v", dev, err)
	}

	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default output error")
	}
	if _, err := OutputDevice(-1); err == nil || !strings.Contains(err.Error(), "mock default output error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestErrorInitializeTerminate(t *testing.T) {
	origInit, origTerm := paLibInitialize, paLibTerminate
	defer func() { paLibInitialize, paLibTerminate = origInit, origTerm }()

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	paLibTerminate = func() error { return fmt.Errorf("mock term error") }

	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}

	// Play gives up before touching any device when PortAudio fails.
	err := Play(context.Background(), audio.Signal{Samples: []float64{0}, SampleRate: 8000}, Options{})
	if err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("Play() error = %v", err)
	}
}

func TestPlayRejectsBadSampleRate(t *testing.T) {
	if err := Play(context.Background(), audio.Signal{Samples: []float64{0}}, Options{}); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestNilDevices(t *testing.T) {
	stubDevices(t, nil, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("expected empty slice, got %v", devices)
	}
}

func TestListDevices(t *testing.T) {
	stubDevices(t, testDevices, nil)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[0] Microphone (Input)", "[1] Speakers (Output)", "96000 Hz"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlayerFill(t *testing.T) {
	p := newPlayer([]float64{0.1, 0.2, 0.3, 0.4, 0.5})
	out := make([]float32, 3)

	p.fill(out)
	if out[0] != 0.1 || out[2] != 0.3 {
		t.Errorf("first buffer = %v", out)
	}
	select {
	case <-p.done:
		t.Fatal("done closed before the signal ended")
	default:
	}

	p.fill(out)
	if out[0] != 0.4 || out[1] != 0.5 || out[2] != 0 {
		t.Errorf("second buffer = %v", out)
	}
	<-p.done

	// Further callbacks keep producing silence without panicking.
	p.fill(out)
	for _, v := range out {
		if v != 0 {
			t.Errorf("expected silence, got %v", out)
		}
	}
}
