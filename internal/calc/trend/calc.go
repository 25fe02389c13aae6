package trend

import (
	"fmt"

	"Aerostat/internal/calc/airship"
)

type Kind string

const (
	ApproachingCeiling Kind = "ApproachingCeiling"
	OptimalReserve     Kind = "OptimalReserve"
	Declining          Kind = "Declining"
	Stable             Kind = "Stable"
)

type Thresholds struct {
	DecliningSlope   float64 `json:"declining_slope" yaml:"declining_slope"`
	StableSlope      float64 `json:"stable_slope" yaml:"stable_slope"`
	CeilingRatio     float64 `json:"ceiling_ratio" yaml:"ceiling_ratio"`
	OptimalRatioLow  float64 `json:"optimal_ratio_low" yaml:"optimal_ratio_low"`
	OptimalRatioHigh float64 `json:"optimal_ratio_high" yaml:"optimal_ratio_high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DecliningSlope:   -0.02,
		StableSlope:      0.02,
		CeilingRatio:     1.05,
		OptimalRatioLow:  1.1,
		OptimalRatioHigh: 1.3,
	}
}

func (t Thresholds) Validate() error {
	if t.DecliningSlope > 0 {
		return fmt.Errorf("declining slope must not be positive")
	}
	if t.StableSlope < 0 {
		return fmt.Errorf("stable slope must not be negative")
	}
	if t.OptimalRatioLow > t.OptimalRatioHigh {
		return fmt.Errorf("optimal ratio band is inverted")
	}
	return nil
}

type Classification struct {
	Kind  Kind    `json:"kind"`
	Slope float64 `json:"slope"`
}

type Analyzer struct {
	th Thresholds
}

func NewAnalyzer(th Thresholds) *Analyzer {
	return &Analyzer{th: th}
}

// Classify checks, in order: declining slope, low current ratio, optimal band.
// An empty history is Stable with a zero slope.
func (a *Analyzer) Classify(history []airship.HistoricalRecord, currentRatio float64) Classification {
	if len(history) == 0 {
		return Classification{Kind: Stable, Slope: 0}
	}
	slope := Slope(history)
	switch {
	case slope < a.th.DecliningSlope:
		return Classification{Kind: Declining, Slope: slope}
	case currentRatio < a.th.CeilingRatio:
		return Classification{Kind: ApproachingCeiling, Slope: slope}
	case currentRatio >= a.th.OptimalRatioLow && currentRatio <= a.th.OptimalRatioHigh &&
		slope >= a.th.DecliningSlope && slope <= a.th.StableSlope:
		return Classification{Kind: OptimalReserve, Slope: slope}
	default:
		return Classification{Kind: Stable, Slope: slope}
	}
}

// Slope is the least-squares slope of ratio against record index.
func Slope(history []airship.HistoricalRecord) float64 {
	n := float64(len(history))
	if n < 2 {
		return 0
	}
	var sx, sy, sxy, sxx float64
	for i, r := range history {
		x := float64(i)
		sx += x
		sy += r.LiftToWeightRatio
		sxy += x * r.LiftToWeightRatio
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
