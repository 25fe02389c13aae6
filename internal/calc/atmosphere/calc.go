package atmosphere

import (
	"fmt"
	"math"
)

const (
	G0          = 9.80665   // standard gravity, m/s^2
	RAir        = 287.05287 // specific gas constant for dry air, J/(kg·K)
	ZeroCelsius = 273.15

	DefaultCeilingKm = 20.0
)

// Layer is one segment of the standard atmosphere with a constant lapse rate.
type Layer struct {
	BaseAltitudeKm   float64 `json:"base_altitude_km" yaml:"base_altitude_km"`
	BaseTemperatureC float64 `json:"base_temperature_c" yaml:"base_temperature_c"`
	LapseRateCPerKm  float64 `json:"lapse_rate_c_per_km" yaml:"lapse_rate_c_per_km"`
	BasePressureKPa  float64 `json:"base_pressure_kpa" yaml:"base_pressure_kpa"`
}

// StandardLayers is the ISA table up to the stratopause.
var StandardLayers = []Layer{
	{BaseAltitudeKm: 0, BaseTemperatureC: 15, LapseRateCPerKm: -6.5, BasePressureKPa: 101.325},
	{BaseAltitudeKm: 11, BaseTemperatureC: -56.5, LapseRateCPerKm: 0, BasePressureKPa: 22.632},
	{BaseAltitudeKm: 20, BaseTemperatureC: -56.5, LapseRateCPerKm: 1.0, BasePressureKPa: 5.4748},
	{BaseAltitudeKm: 32, BaseTemperatureC: -44.5, LapseRateCPerKm: 2.8, BasePressureKPa: 0.86802},
	{BaseAltitudeKm: 47, BaseTemperatureC: -2.5, LapseRateCPerKm: 0, BasePressureKPa: 0.11091},
}

// StandardTopKm closes the last standard layer.
const StandardTopKm = 51.0

type Sample struct {
	AltitudeKm   float64 `json:"altitude_km"`
	DensityKgM3  float64 `json:"density_kg_m3"`
	TemperatureC float64 `json:"temperature_c"`
	PressureKPa  float64 `json:"pressure_kpa"`
}

// TempOverride pulls the nominal temperature profile into [MinC, MaxC] at the
// ends of the altitude span [FromKm, ToKm].
type TempOverride struct {
	MinC   float64
	MaxC   float64
	FromKm float64
	ToKm   float64
}

type RangeError struct {
	AltitudeKm float64
	CeilingKm  float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("altitude %.3f km is outside the supported range 0-%.3g km", e.AltitudeKm, e.CeilingKm)
}

type Model struct {
	layers    []Layer
	topKm     float64
	ceilingKm float64
}

// New builds a model over the standard layer table.
func New(ceilingKm float64) (*Model, error) {
	return NewWithLayers(StandardLayers, StandardTopKm, ceilingKm)
}

func NewWithLayers(layers []Layer, topKm, ceilingKm float64) (*Model, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("empty layer table")
	}
	if layers[0].BaseAltitudeKm != 0 {
		return nil, fmt.Errorf("layer table must start at sea level")
	}
	for i := 1; i < len(layers); i++ {
		if layers[i].BaseAltitudeKm <= layers[i-1].BaseAltitudeKm {
			return nil, fmt.Errorf("layer %d is not above layer %d", i, i-1)
		}
	}
	for i, l := range layers {
		if l.BasePressureKPa <= 0 || l.BaseTemperatureC+ZeroCelsius <= 0 {
			return nil, fmt.Errorf("layer %d has non-physical base values", i)
		}
	}
	if topKm <= layers[len(layers)-1].BaseAltitudeKm {
		return nil, fmt.Errorf("table top %.3g km is below the last layer", topKm)
	}
	if ceilingKm <= 0 {
		ceilingKm = DefaultCeilingKm
	}
	if ceilingKm > topKm {
		return nil, fmt.Errorf("ceiling %.3g km is above the table top %.3g km", ceilingKm, topKm)
	}
	cp := make([]Layer, len(layers))
	copy(cp, layers)
	return &Model{layers: cp, topKm: topKm, ceilingKm: ceilingKm}, nil
}

func (m *Model) CeilingKm() float64 { return m.ceilingKm }

func (m *Model) Layers() []Layer {
	out := make([]Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

func (m *Model) layerAt(altKm float64) Layer {
	idx := 0
	for i, l := range m.layers {
		if altKm >= l.BaseAltitudeKm {
			idx = i
		}
	}
	return m.layers[idx]
}

func (m *Model) nominalTemperatureC(altKm float64) float64 {
	l := m.layerAt(altKm)
	return l.BaseTemperatureC + l.LapseRateCPerKm*(altKm-l.BaseAltitudeKm)
}

// Properties returns the sample at altKm. override may be nil.
func (m *Model) Properties(altKm float64, override *TempOverride) (Sample, error) {
	if math.IsNaN(altKm) || altKm < 0 || altKm > m.ceilingKm {
		return Sample{}, &RangeError{AltitudeKm: altKm, CeilingKm: m.ceilingKm}
	}

	l := m.layerAt(altKm)
	nominal := l.BaseTemperatureC + l.LapseRateCPerKm*(altKm-l.BaseAltitudeKm)

	// pressure follows the standard profile; the override only moves temperature
	baseK := l.BaseTemperatureC + ZeroCelsius
	nominalK := nominal + ZeroCelsius
	var p float64
	if l.LapseRateCPerKm != 0 {
		lapseKPerM := l.LapseRateCPerKm / 1000.0
		p = l.BasePressureKPa * math.Pow(nominalK/baseK, -G0/(lapseKPerM*RAir))
	} else {
		dh := (altKm - l.BaseAltitudeKm) * 1000.0
		p = l.BasePressureKPa * math.Exp(-G0*dh/(RAir*baseK))
	}

	t := nominal
	if override != nil {
		t = m.blend(altKm, nominal, *override)
	}
	tK := t + ZeroCelsius
	if tK <= 0 {
		return Sample{}, fmt.Errorf("temperature %.2f C at %.3f km is below absolute zero", t, altKm)
	}

	return Sample{
		AltitudeKm:   altKm,
		DensityKgM3:  p * 1000.0 / (RAir * tK),
		TemperatureC: t,
		PressureKPa:  p,
	}, nil
}

// blend shifts the nominal curve by an offset that moves linearly from the
// lower-end correction to the upper-end correction across the span.
func (m *Model) blend(altKm, nominal float64, o TempOverride) float64 {
	lo, hi := o.MinC, o.MaxC
	if lo > hi {
		lo, hi = hi, lo
	}
	from, to := o.FromKm, o.ToKm
	if from > to {
		from, to = to, from
	}
	frac := 0.0
	if to > from {
		frac = (altKm - from) / (to - from)
	}
	frac = math.Max(0, math.Min(1, frac))

	nFrom := m.nominalTemperatureC(math.Min(math.Max(from, 0), m.topKm))
	nTo := m.nominalTemperatureC(math.Min(math.Max(to, 0), m.topKm))
	offFrom := clamp(nFrom, lo, hi) - nFrom
	offTo := clamp(nTo, lo, hi) - nTo

	return nominal + (1-frac)*offFrom + frac*offTo
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Profile samples every altitude in order. The first failure aborts.
func (m *Model) Profile(altitudesKm []float64, override *TempOverride) ([]Sample, error) {
	out := make([]Sample, 0, len(altitudesKm))
	for _, a := range altitudesKm {
		s, err := m.Properties(a, override)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
