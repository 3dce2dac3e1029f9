// SPDX-License-Identifier: MIT
package stft

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDerived(t *testing.T) {
	s := Settings{WindowSize: 3000}
	assert.Equal(t, 1500, s.Hop())
	assert.Equal(t, 3000, s.TransformSize())
	assert.Equal(t, 1501, s.Bins())

	s.PadAmount = PowerOfTwoPad(s.WindowSize)
	assert.Equal(t, 1096, s.PadAmount)
	assert.Equal(t, 4096, s.TransformSize())
	assert.Equal(t, 2049, s.Bins())
	assert.Equal(t, 1500, s.Hop())
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		field    string
	}{
		{"valid", Settings{WindowSize: 3000}, ""},
		{"valid padded", Settings{WindowSize: 3000, PadAmount: 1096, Window: WindowHann}, ""},
		{"zero window", Settings{WindowSize: 0}, "window size"},
		{"odd window", Settings{WindowSize: 301}, "window size"},
		{"negative pad", Settings{WindowSize: 300, PadAmount: -2}, "pad amount"},
		{"odd pad", Settings{WindowSize: 300, PadAmount: 3}, "pad amount"},
		{"unknown window", Settings{WindowSize: 300, Window: WindowKind(7)}, "window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestBinRangeResolve(t *testing.T) {
	r, err := BinRange{}.Resolve(10)
	require.NoError(t, err)
	assert.Equal(t, BinRange{Start: 0, End: 10}, r)
	assert.Equal(t, 10, r.Rows())

	r, err = BinRange{Start: 2, End: 5}.Resolve(10)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Rows())

	for _, bad := range []BinRange{{Start: -1, End: 3}, {Start: 0, End: 11}, {Start: 4, End: 4}, {Start: 5, End: 2}} {
		_, err := bad.Resolve(10)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "%+v", bad)
	}
}

func TestIntensityRangeValidate(t *testing.T) {
	assert.NoError(t, IntensityRange{Min: -3, Max: 10}.validate())
	assert.Error(t, IntensityRange{Min: 1, Max: 1}.validate())
	assert.Error(t, IntensityRange{Min: 2, Max: 1}.validate())
}
