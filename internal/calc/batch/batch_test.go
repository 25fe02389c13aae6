package batch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/lift"
	"Aerostat/internal/calc/pipeline"
	"Aerostat/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(pipeline.DefaultSettings())
	require.NoError(t, err)
	return p
}

func TestCalculateMixed(t *testing.T) {
	in := Input{Items: []Item{
		{Label: "small", RawInput: airship.RawInput{WeightKg: "100", TargetAltitudeKm: "5"}},
		{Label: "broken", RawInput: airship.RawInput{WeightKg: "-1", TargetAltitudeKm: "5"}},
		{Label: "too high", RawInput: airship.RawInput{WeightKg: "100", TargetAltitudeKm: "19.5"}},
		{Label: "large", RawInput: airship.RawInput{WeightKg: "5000", TargetAltitudeKm: "10"}},
	}}
	out, err := Calculate(newPipeline(t), lift.Helium, in)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 2, out.Failed)
	require.Len(t, out.Results, 4)

	assert.Equal(t, "small", out.Results[0].Label)
	require.NotNil(t, out.Results[0].Result)
	assert.Nil(t, out.Results[0].Error)

	require.NotNil(t, out.Results[1].Error)
	assert.Equal(t, "validation", out.Results[1].Error.Error)
	require.NotNil(t, out.Results[2].Error)
	assert.Equal(t, "lift_infeasible", out.Results[2].Error.Error)

	require.NotNil(t, out.Results[3].Result)
	assert.Greater(t, out.Results[3].Result.VolumeTargetAltitudeM3, out.Results[0].Result.VolumeTargetAltitudeM3)
}

func TestCalculateLimits(t *testing.T) {
	p := newPipeline(t)
	_, err := Calculate(p, lift.Helium, Input{})
	assert.Error(t, err)

	items := make([]Item, MaxItems+1)
	_, err = Calculate(p, lift.Helium, Input{Items: items})
	assert.Error(t, err)
}

func TestBatchHandler(t *testing.T) {
	h := &Handler{Calc: &pipeline.Handler{Pipeline: newPipeline(t), Log: logger.Nop()}}

	body := `{"gas":"hydrogen","items":[{"label":"a","weight_kg":"10","target_altitude_km":"19.5"}]}`
	rec := httptest.NewRecorder()
	h.Batch(rec, httptest.NewRequest(http.MethodPost, "/api/calc/batch", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, lift.Hydrogen, out.Results[0].Result.Gas)

	rec = httptest.NewRecorder()
	h.Batch(rec, httptest.NewRequest(http.MethodPost, "/api/calc/batch", strings.NewReader(`{"items":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
