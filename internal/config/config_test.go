package config

import (
	"os"
	"path/filepath"
	"testing"

	"Aerostat/internal/calc/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEngineDefaults(t *testing.T) {
	e, err := LoadEngine("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEngine(), e)
	assert.Equal(t, "helium", e.Gas)
	assert.Equal(t, pipeline.DefaultSettings(), e.Settings)
}

func TestLoadEngineOverlay(t *testing.T) {
	path := writeFile(t, `
ceiling_km: 15
gas: hydrogen
trend:
  ceiling_ratio: 1.08
`)
	e, err := LoadEngine(path)
	require.NoError(t, err)

	assert.Equal(t, 15.0, e.CeilingKm)
	assert.Equal(t, "hydrogen", e.Gas)
	assert.Equal(t, 1.08, e.Trend.CeilingRatio)
	assert.Equal(t, pipeline.DefaultSettings().ChartStepKm, e.ChartStepKm)
	assert.Equal(t, pipeline.DefaultSettings().Trend.OptimalRatioHigh, e.Trend.OptimalRatioHigh)
}

func TestLoadEngineRejects(t *testing.T) {
	for name, content := range map[string]string{
		"unknown gas":   "gas: argon\n",
		"bad ceiling":   "ceiling_km: 90\n",
		"not yaml":      "ceiling_km: [\n",
		"bad threshold": "trend:\n  optimal_ratio_low: 2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadEngine(writeFile(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadEngine(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv("TOKEN_KEY", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TOKEN_KEY", "secret")
	t.Setenv("ADDR", ":9000")
	t.Setenv("HISTORY_LIMIT", "20")
	t.Setenv("ENGINE_CONFIG", writeFile(t, "gas: hydrogen\n"))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "secret", cfg.TokenKey)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, "hydrogen", cfg.Engine.Gas)

	t.Setenv("TLS_CERT", "cert.pem")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("TLS_CERT", "")
	t.Setenv("RATE_BURST", "zero")
	_, err = Load()
	assert.Error(t, err)
}
