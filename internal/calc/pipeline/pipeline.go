package pipeline

import (
	"fmt"
	"math"
	"slices"

	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/atmosphere"
	"Aerostat/internal/calc/lift"
	"Aerostat/internal/calc/trend"
	"Aerostat/internal/calc/validate"
)

// Settings are the engine parameters that have no authoritative source and
// are therefore configurable.
type Settings struct {
	CeilingKm       float64          `json:"ceiling_km" yaml:"ceiling_km"`
	ChartStepKm     float64          `json:"chart_step_km" yaml:"chart_step_km"`
	ReserveFraction float64          `json:"reserve_fraction" yaml:"reserve_fraction"`
	Trend           trend.Thresholds `json:"trend" yaml:"trend"`
}

const maxChartPoints = 200

func DefaultSettings() Settings {
	return Settings{
		CeilingKm:       atmosphere.DefaultCeilingKm,
		ChartStepKm:     5,
		ReserveFraction: 0.2,
		Trend:           trend.DefaultThresholds(),
	}
}

func (s Settings) Validate() error {
	if s.CeilingKm <= 0 || s.CeilingKm > atmosphere.StandardTopKm {
		return fmt.Errorf("ceiling must be within (0, %g] km", atmosphere.StandardTopKm)
	}
	if s.ChartStepKm <= 0 || s.CeilingKm/s.ChartStepKm > maxChartPoints {
		return fmt.Errorf("chart step %g km is out of range", s.ChartStepKm)
	}
	if s.ReserveFraction < 0 || math.IsNaN(s.ReserveFraction) || math.IsInf(s.ReserveFraction, 0) {
		return fmt.Errorf("reserve fraction must be a non-negative number")
	}
	return s.Trend.Validate()
}

type ProfilePoint struct {
	AltitudeKm       float64 `json:"altitude_km"`
	Feasible         bool    `json:"feasible"`
	RequiredVolumeM3 float64 `json:"required_volume_m3"`
	LiftCapacityKg   float64 `json:"lift_capacity_kg"`
	LiftReserveKg    float64 `json:"lift_reserve_kg"`
}

// Result is the complete record of one calculation.
type Result struct {
	Config airship.Config `json:"config"`
	Gas    lift.Gas       `json:"gas"`

	VolumeSeaLevelM3           float64 `json:"volume_sea_level_m3"`
	VolumeTargetAltitudeM3     float64 `json:"volume_target_altitude_m3"`
	ExcessLiftSeaLevelKg       float64 `json:"excess_lift_sea_level_kg"`
	ExcessLiftTargetAltitudeKg float64 `json:"excess_lift_target_altitude_kg"`
	LiftToWeightRatio          float64 `json:"lift_to_weight_ratio"`

	EnvelopeVolumeM3 float64 `json:"envelope_volume_m3"`
	ReserveFraction  float64 `json:"reserve_fraction"`
	CeilingKm        float64 `json:"ceiling_km"`

	AtmosphereSamples []atmosphere.Sample `json:"atmosphere_samples"`
	LiftProfile       []ProfilePoint      `json:"lift_profile"`

	Trend trend.Classification `json:"trend"`
}

// Atmosphere is what the pipeline needs from the atmosphere model.
type Atmosphere interface {
	lift.Atmosphere
	Profile(altitudesKm []float64, override *atmosphere.TempOverride) ([]atmosphere.Sample, error)
}

type Pipeline struct {
	settings  Settings
	model     Atmosphere
	validator *validate.Validator
	analyzer  *trend.Analyzer
}

func New(s Settings) (*Pipeline, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("engine settings: %w", err)
	}
	m, err := atmosphere.New(s.CeilingKm)
	if err != nil {
		return nil, fmt.Errorf("atmosphere model: %w", err)
	}
	return &Pipeline{
		settings:  s,
		model:     m,
		validator: validate.New(s.CeilingKm),
		analyzer:  trend.NewAnalyzer(s.Trend),
	}, nil
}

// Calculate validates raw form input and runs the physics on it. Validation
// failures come back as validate.Errors before anything else is computed.
func (p *Pipeline) Calculate(in airship.RawInput, history []airship.HistoricalRecord, gas lift.Gas) (Result, error) {
	cfg, err := p.validator.Validate(in)
	if err != nil {
		return Result{}, err
	}
	return p.run(cfg, history, gas)
}

// Run recalculates an already typed config, e.g. one loaded from storage.
func (p *Pipeline) Run(cfg airship.Config, history []airship.HistoricalRecord, gas lift.Gas) (Result, error) {
	return p.Calculate(cfg.Raw(), history, gas)
}

func (p *Pipeline) run(cfg airship.Config, history []airship.HistoricalRecord, gas lift.Gas) (Result, error) {
	if gas.DensityKgM3 <= 0 || math.IsNaN(gas.DensityKgM3) || math.IsInf(gas.DensityKgM3, 0) {
		return Result{}, fmt.Errorf("lifting gas %q has no usable density", gas.Name)
	}

	var override *atmosphere.TempOverride
	if cfg.HasTempRange() {
		override = &atmosphere.TempOverride{
			MinC:   *cfg.TempMinC,
			MaxC:   *cfg.TempMaxC,
			FromKm: 0,
			ToKm:   cfg.TargetAltitudeKm,
		}
	}

	sea, err := p.model.Properties(0, override)
	if err != nil {
		return Result{}, err
	}
	target, err := p.model.Properties(cfg.TargetAltitudeKm, override)
	if err != nil {
		return Result{}, err
	}

	volSea, err := lift.RequiredVolume(cfg.WeightKg, sea, gas.DensityKgM3)
	if err != nil {
		return Result{}, err
	}
	volTarget, err := lift.RequiredVolume(cfg.WeightKg, target, gas.DensityKgM3)
	if err != nil {
		return Result{}, err
	}

	envelope := volTarget * (1 + p.settings.ReserveFraction)
	excessSea := lift.ExcessLift(envelope, sea, gas.DensityKgM3, cfg.WeightKg)
	excessTarget := lift.ExcessLift(envelope, target, gas.DensityKgM3, cfg.WeightKg)
	ratio := lift.LiftToWeightRatio(excessTarget, cfg.WeightKg)
	if !finite(envelope, excessSea) {
		return Result{}, nonFinite(sea, gas)
	}
	if !finite(excessTarget, ratio) {
		return Result{}, nonFinite(target, gas)
	}

	ceiling, _, err := lift.SolveCeiling(p.model, override, envelope, gas.DensityKgM3, cfg.WeightKg)
	if err != nil {
		return Result{}, err
	}

	samples, err := p.model.Profile(p.chartAltitudes(cfg.TargetAltitudeKm), override)
	if err != nil {
		return Result{}, err
	}

	profile := liftProfile(samples, envelope, gas, cfg.WeightKg)
	for i, pt := range profile {
		if !finite(pt.RequiredVolumeM3, pt.LiftCapacityKg, pt.LiftReserveKg) {
			return Result{}, nonFinite(samples[i], gas)
		}
	}

	return Result{
		Config:                     cfg,
		Gas:                        gas,
		VolumeSeaLevelM3:           volSea,
		VolumeTargetAltitudeM3:     volTarget,
		ExcessLiftSeaLevelKg:       excessSea,
		ExcessLiftTargetAltitudeKg: excessTarget,
		LiftToWeightRatio:          ratio,
		EnvelopeVolumeM3:           envelope,
		ReserveFraction:            p.settings.ReserveFraction,
		CeilingKm:                  ceiling,
		AtmosphereSamples:          samples,
		LiftProfile:                profile,
		Trend:                      p.analyzer.Classify(history, ratio),
	}, nil
}

// chartAltitudes is the step grid from sea level to the ceiling with the
// target merged in.
func (p *Pipeline) chartAltitudes(targetKm float64) []float64 {
	step := p.settings.ChartStepKm
	ceiling := p.model.CeilingKm()
	alts := make([]float64, 0, int(ceiling/step)+3)
	for i := 0; ; i++ {
		a := float64(i) * step
		if a >= ceiling {
			break
		}
		alts = append(alts, a)
	}
	alts = append(alts, ceiling, targetKm)
	slices.Sort(alts)
	return slices.CompactFunc(alts, func(a, b float64) bool {
		return math.Abs(a-b) < 1e-9
	})
}

func liftProfile(samples []atmosphere.Sample, envelopeM3 float64, gas lift.Gas, weightKg float64) []ProfilePoint {
	out := make([]ProfilePoint, 0, len(samples))
	for _, s := range samples {
		capacity := lift.Capacity(envelopeM3, s, gas.DensityKgM3)
		pt := ProfilePoint{
			AltitudeKm:     s.AltitudeKm,
			LiftCapacityKg: capacity,
			LiftReserveKg:  capacity - weightKg,
		}
		if v, err := lift.RequiredVolume(weightKg, s, gas.DensityKgM3); err == nil {
			pt.Feasible = true
			pt.RequiredVolumeM3 = v
		}
		out = append(out, pt)
	}
	return out
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// nonFinite reports a weight too large for the lift figures to be represented.
func nonFinite(s atmosphere.Sample, gas lift.Gas) error {
	return &lift.InfeasibleError{
		AltitudeKm:      s.AltitudeKm,
		AirDensityKgM3:  s.DensityKgM3,
		GasDensityKgM3:  gas.DensityKgM3,
		NonFiniteVolume: true,
	}
}
