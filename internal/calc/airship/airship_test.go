package airship

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	configs := []Config{
		{WeightKg: 1000, TargetAltitudeKm: 10},
		{WeightKg: 0.001, TargetAltitudeKm: 0, TempMinC: Float(-56.5), TempMaxC: Float(15)},
		{WeightKg: 123456.789, TargetAltitudeKm: 19.999999, TempMinC: Float(-0.1), TempMaxC: Float(-0.1)},
		{WeightKg: 1.0 / 3.0, TargetAltitudeKm: 2.0 / 3.0},
	}
	for _, c := range configs {
		data, err := Save(c)
		require.NoError(t, err)
		got, err := Load(data)
		require.NoError(t, err)
		if diff := cmp.Diff(c, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestLoadRejectsForeignData(t *testing.T) {
	_, err := Load([]byte(`not json`))
	assert.Error(t, err)

	_, err = Load([]byte(`{"version":2,"config":{"weight_kg":1,"target_altitude_km":1}}`))
	assert.Error(t, err)

	_, err = Load([]byte(`{"version":1,"config":{"weight_kg":1},"extra":true}`))
	assert.Error(t, err)
}

func TestRawKeepsFullPrecision(t *testing.T) {
	c := Config{WeightKg: 1.0 / 3.0, TargetAltitudeKm: 7, TempMinC: Float(-12.25), TempMaxC: Float(4)}
	raw := c.Raw()

	w, err := strconv.ParseFloat(raw.WeightKg, 64)
	require.NoError(t, err)
	assert.Equal(t, c.WeightKg, w)
	assert.Equal(t, "7", raw.TargetAltitudeKm)
	assert.Equal(t, "-12.25", raw.TempMinC)
	assert.Equal(t, "4", raw.TempMaxC)

	assert.Equal(t, RawInput{WeightKg: "5", TargetAltitudeKm: "1"}, Config{WeightKg: 5, TargetAltitudeKm: 1}.Raw())
}

func TestHasTempRange(t *testing.T) {
	assert.False(t, Config{}.HasTempRange())
	assert.False(t, Config{TempMinC: Float(1)}.HasTempRange())
	assert.True(t, Config{TempMinC: Float(1), TempMaxC: Float(2)}.HasTempRange())
}
