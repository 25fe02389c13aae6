package airship

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Config is the user's airship description. Temperature bounds are optional.
type Config struct {
	WeightKg         float64  `json:"weight_kg"`
	TargetAltitudeKm float64  `json:"target_altitude_km"`
	TempMinC         *float64 `json:"temp_min_c,omitempty"`
	TempMaxC         *float64 `json:"temp_max_c,omitempty"`
}

func (c Config) HasTempRange() bool {
	return c.TempMinC != nil && c.TempMaxC != nil
}

// Raw renders the config back into form strings.
func (c Config) Raw() RawInput {
	in := RawInput{
		WeightKg:         formatFloat(c.WeightKg),
		TargetAltitudeKm: formatFloat(c.TargetAltitudeKm),
	}
	if c.TempMinC != nil {
		in.TempMinC = formatFloat(*c.TempMinC)
	}
	if c.TempMaxC != nil {
		in.TempMaxC = formatFloat(*c.TempMaxC)
	}
	return in
}

// RawInput is the form payload before validation.
type RawInput struct {
	WeightKg         string `json:"weight_kg"`
	TargetAltitudeKm string `json:"target_altitude_km"`
	TempMinC         string `json:"temp_min_c"`
	TempMaxC         string `json:"temp_max_c"`
}

type HistoricalRecord struct {
	Date              time.Time `json:"date"`
	LiftToWeightRatio float64   `json:"lift_to_weight_ratio"`
}

type savedConfig struct {
	Version int    `json:"version"`
	Config  Config `json:"config"`
}

const saveVersion = 1

// Save serializes a config for persistence.
func Save(c Config) ([]byte, error) {
	return json.Marshal(savedConfig{Version: saveVersion, Config: c})
}

// Load reverses Save.
func Load(data []byte) (Config, error) {
	var s savedConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Config{}, fmt.Errorf("decode saved config: %w", err)
	}
	if s.Version != saveVersion {
		return Config{}, fmt.Errorf("unsupported saved config version %d", s.Version)
	}
	return s.Config, nil
}

func Float(v float64) *float64 { return &v }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
