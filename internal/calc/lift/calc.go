package lift

import (
	"fmt"
	"math"
	"strings"

	"Aerostat/internal/calc/atmosphere"
)

const G = atmosphere.G0

type Gas struct {
	Name        string  `json:"name" yaml:"name"`
	DensityKgM3 float64 `json:"density_kg_m3" yaml:"density_kg_m3"`
}

var (
	Helium   = Gas{Name: "helium", DensityKgM3: 0.1785}
	Hydrogen = Gas{Name: "hydrogen", DensityKgM3: 0.0899}
)

// GasByName resolves a preset. An empty name is helium.
func GasByName(name string) (Gas, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Helium.Name:
		return Helium, nil
	case Hydrogen.Name:
		return Hydrogen, nil
	default:
		return Gas{}, fmt.Errorf("unknown lifting gas %q", name)
	}
}

type InfeasibleError struct {
	AltitudeKm      float64
	AirDensityKgM3  float64
	GasDensityKgM3  float64
	DeficitKgM3     float64 // gas minus air density, >= 0 when buoyancy is impossible
	NonFiniteVolume bool
}

func (e *InfeasibleError) Error() string {
	if e.NonFiniteVolume {
		return fmt.Sprintf("no finite envelope volume lifts the weight at %.3f km", e.AltitudeKm)
	}
	return fmt.Sprintf("no net buoyancy at %.3f km: air density %.4f kg/m3 is %.4f kg/m3 short of gas density %.4f kg/m3",
		e.AltitudeKm, e.AirDensityKgM3, e.DeficitKgM3, e.GasDensityKgM3)
}

// RequiredVolume is the envelope volume at which buoyancy equals weight.
func RequiredVolume(weightKg float64, s atmosphere.Sample, gasDensityKgM3 float64) (float64, error) {
	net := s.DensityKgM3 - gasDensityKgM3
	if net <= 0 {
		return 0, &InfeasibleError{
			AltitudeKm:     s.AltitudeKm,
			AirDensityKgM3: s.DensityKgM3,
			GasDensityKgM3: gasDensityKgM3,
			DeficitKgM3:    -net,
		}
	}
	v := weightKg / (net * G)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InfeasibleError{
			AltitudeKm:      s.AltitudeKm,
			AirDensityKgM3:  s.DensityKgM3,
			GasDensityKgM3:  gasDensityKgM3,
			NonFiniteVolume: true,
		}
	}
	return v, nil
}

// Capacity is the gross buoyant lift of the envelope, kg.
func Capacity(volumeM3 float64, s atmosphere.Sample, gasDensityKgM3 float64) float64 {
	return (s.DensityKgM3 - gasDensityKgM3) * G * volumeM3
}

// ExcessLift is positive when the envelope lifts more than weightKg.
func ExcessLift(volumeM3 float64, s atmosphere.Sample, gasDensityKgM3, weightKg float64) float64 {
	return Capacity(volumeM3, s, gasDensityKgM3) - weightKg
}

func LiftToWeightRatio(excessLiftKg, weightKg float64) float64 {
	return (excessLiftKg + weightKg) / weightKg
}

// Atmosphere is the part of the atmosphere model the ceiling solver samples.
type Atmosphere interface {
	Properties(altKm float64, override *atmosphere.TempOverride) (atmosphere.Sample, error)
	CeilingKm() float64
}

// SolveCeiling finds the highest altitude up to the model ceiling where the
// envelope still lifts weightKg. ok is false when it cannot lift at sea level.
func SolveCeiling(m Atmosphere, override *atmosphere.TempOverride, volumeM3, gasDensityKgM3, weightKg float64) (ceilingKm float64, ok bool, err error) {
	lifts := func(alt float64) (bool, error) {
		s, err := m.Properties(alt, override)
		if err != nil {
			return false, err
		}
		return ExcessLift(volumeM3, s, gasDensityKgM3, weightKg) >= 0, nil
	}

	top := m.CeilingKm()
	atTop, err := lifts(top)
	if err != nil {
		return 0, false, err
	}
	if atTop {
		return top, true, nil
	}
	atBottom, err := lifts(0)
	if err != nil {
		return 0, false, err
	}
	if !atBottom {
		return 0, false, nil
	}

	lo, hi := 0.0, top
	for i := 0; i < 60 && hi-lo > 1e-9; i++ {
		mid := (lo + hi) / 2
		up, err := lifts(mid)
		if err != nil {
			return 0, false, err
		}
		if up {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, true, nil
}
