package atmosphere

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(DefaultCeilingKm)
	require.NoError(t, err)
	return m
}

func TestSeaLevelMatchesISA(t *testing.T) {
	s, err := newModel(t).Properties(0, nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.225, s.DensityKgM3, 0.001)
	assert.InDelta(t, 101.325, s.PressureKPa, 0.01)
	assert.InDelta(t, 15.0, s.TemperatureC, 0.1)
}

func TestTenKilometres(t *testing.T) {
	s, err := newModel(t).Properties(10, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.4135, s.DensityKgM3, 0.001)
	assert.InDelta(t, 26.5, s.PressureKPa, 0.05)
	assert.InDelta(t, -50.0, s.TemperatureC, 0.01)
}

func TestLayerBoundariesAreContinuous(t *testing.T) {
	m := newModel(t)
	for _, base := range []float64{11, 20} {
		below, err := m.Properties(base-1e-9, nil)
		require.NoError(t, err)
		at, err := m.Properties(base, nil)
		require.NoError(t, err)
		assert.InDelta(t, below.PressureKPa, at.PressureKPa, 1e-3, "pressure jump at %v km", base)
		assert.InDelta(t, below.TemperatureC, at.TemperatureC, 1e-6, "temperature jump at %v km", base)
	}
}

func TestDensityAndPressureStrictlyDecrease(t *testing.T) {
	m := newModel(t)
	prev, err := m.Properties(0, nil)
	require.NoError(t, err)
	for i := 1; i <= 200; i++ {
		alt := float64(i) * 0.1
		s, err := m.Properties(alt, nil)
		require.NoError(t, err)
		require.Less(t, s.DensityKgM3, prev.DensityKgM3, "density at %.1f km", alt)
		require.Less(t, s.PressureKPa, prev.PressureKPa, "pressure at %.1f km", alt)
		require.Greater(t, s.DensityKgM3, 0.0)
		prev = s
	}
}

func TestStrictDecreaseWithTemperatureRange(t *testing.T) {
	m := newModel(t)
	tests := []struct {
		name     string
		override TempOverride
	}{
		{"cold range up to 15 km", TempOverride{MinC: -60, MaxC: -55, FromKm: 0, ToKm: 15}},
		{"hot range up to 1 km", TempOverride{MinC: 30, MaxC: 40, FromKm: 0, ToKm: 1}},
		{"narrow range up to 10 km", TempOverride{MinC: -20, MaxC: 0, FromKm: 0, ToKm: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.override
			prev, err := m.Properties(0, &o)
			require.NoError(t, err)
			for i := 1; i <= 200; i++ {
				alt := float64(i) * 0.1
				s, err := m.Properties(alt, &o)
				require.NoError(t, err)
				require.Less(t, s.DensityKgM3, prev.DensityKgM3, "density at %.1f km", alt)
				require.Less(t, s.PressureKPa, prev.PressureKPa, "pressure at %.1f km", alt)
				prev = s
			}
		})
	}
}

func TestOutOfRangeAltitudes(t *testing.T) {
	m := newModel(t)
	for _, alt := range []float64{-1, 25, 20.0001} {
		_, err := m.Properties(alt, nil)
		var rerr *RangeError
		require.True(t, errors.As(err, &rerr), "altitude %v", alt)
		assert.Equal(t, alt, rerr.AltitudeKm)
		assert.Equal(t, DefaultCeilingKm, rerr.CeilingKm)
	}

	_, err := m.Properties(20, nil)
	assert.NoError(t, err, "the ceiling itself is in range")
}

func TestConfigurableCeiling(t *testing.T) {
	m, err := New(32)
	require.NoError(t, err)
	_, err = m.Properties(25, nil)
	assert.NoError(t, err)

	_, err = New(60)
	assert.Error(t, err, "ceiling above the table top")

	m, err = New(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCeilingKm, m.CeilingKm())
}

func TestLayerTableChecks(t *testing.T) {
	_, err := NewWithLayers(nil, 10, 5)
	assert.Error(t, err)

	unordered := []Layer{
		{BaseAltitudeKm: 0, BaseTemperatureC: 15, LapseRateCPerKm: -6.5, BasePressureKPa: 101.325},
		{BaseAltitudeKm: 0, BaseTemperatureC: 15, LapseRateCPerKm: 0, BasePressureKPa: 101.325},
	}
	_, err = NewWithLayers(unordered, 10, 5)
	assert.Error(t, err)

	elevated := []Layer{{BaseAltitudeKm: 1, BaseTemperatureC: 15, BasePressureKPa: 90}}
	_, err = NewWithLayers(elevated, 10, 5)
	assert.Error(t, err)
}

func TestLayersReturnsCopy(t *testing.T) {
	m := newModel(t)
	layers := m.Layers()
	layers[0].BaseTemperatureC = 99

	s, err := m.Properties(0, nil)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, s.TemperatureC, 1e-9)
}

func TestOverridePullsEndpointsIntoRange(t *testing.T) {
	m := newModel(t)
	o := &TempOverride{MinC: -10, MaxC: 5, FromKm: 0, ToKm: 10}

	bottom, err := m.Properties(0, o)
	require.NoError(t, err)
	top, err := m.Properties(10, o)
	require.NoError(t, err)
	mid, err := m.Properties(5, o)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, bottom.TemperatureC, 1e-9)
	assert.InDelta(t, -10.0, top.TemperatureC, 1e-9)
	// nominal -17.5 shifted by the average of the +(-10) and +40 end corrections
	assert.InDelta(t, -2.5, mid.TemperatureC, 1e-9)
}

func TestOverrideKeepsPressureAndMovesDensity(t *testing.T) {
	m := newModel(t)
	nominal, err := m.Properties(5, nil)
	require.NoError(t, err)
	warm, err := m.Properties(5, &TempOverride{MinC: 20, MaxC: 40, FromKm: 0, ToKm: 5})
	require.NoError(t, err)

	assert.InDelta(t, nominal.PressureKPa, warm.PressureKPa, 1e-12)
	assert.Less(t, warm.DensityKgM3, nominal.DensityKgM3)
	assert.InDelta(t, 20.0, warm.TemperatureC, 1e-9)
}

func TestOverrideWideRangeIsNominal(t *testing.T) {
	m := newModel(t)
	o := &TempOverride{MinC: -100, MaxC: 100, FromKm: 0, ToKm: 15}
	for _, alt := range []float64{0, 3, 11, 15} {
		got, err := m.Properties(alt, o)
		require.NoError(t, err)
		want, err := m.Properties(alt, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPropertiesIsDeterministic(t *testing.T) {
	m := newModel(t)
	o := &TempOverride{MinC: -30, MaxC: 0, FromKm: 0, ToKm: 8}
	a, err := m.Properties(7.3, o)
	require.NoError(t, err)
	b, err := m.Properties(7.3, o)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestProfile(t *testing.T) {
	m := newModel(t)
	samples, err := m.Profile([]float64{0, 5, 10}, nil)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 5.0, samples[1].AltitudeKm)

	_, err = m.Profile([]float64{0, 30}, nil)
	var rerr *RangeError
	assert.True(t, errors.As(err, &rerr))
}
