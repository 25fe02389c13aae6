package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/atmosphere"
)

type Kind string

const (
	Required     Kind = "Required"
	OutOfRange   Kind = "OutOfRange"
	InvalidRange Kind = "InvalidRange"
)

const (
	FieldWeight   = "weight_kg"
	FieldAltitude = "target_altitude_km"
	FieldTempMin  = "temp_min_c"
	FieldTempMax  = "temp_max_c"
)

type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Errors holds every problem found in one input, in field order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e Errors) Has(field string, kind Kind) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Kind == kind {
			return true
		}
	}
	return false
}

type Validator struct {
	CeilingKm float64
}

func New(ceilingKm float64) *Validator {
	if ceilingKm <= 0 {
		ceilingKm = atmosphere.DefaultCeilingKm
	}
	return &Validator{CeilingKm: ceilingKm}
}

func (v *Validator) Validate(in airship.RawInput) (airship.Config, error) {
	var errs Errors
	var cfg airship.Config

	if w, ok := parse(&errs, FieldWeight, in.WeightKg, true); ok {
		if w <= 0 {
			errs = append(errs, FieldError{FieldWeight, OutOfRange, "weight must be greater than 0 kg"})
		}
		cfg.WeightKg = w
	}

	if a, ok := parse(&errs, FieldAltitude, in.TargetAltitudeKm, true); ok {
		if a < 0 || a > v.CeilingKm {
			errs = append(errs, FieldError{FieldAltitude, OutOfRange,
				fmt.Sprintf("altitude must be between 0 and %g km", v.CeilingKm)})
		}
		cfg.TargetAltitudeKm = a
	}

	minSet := strings.TrimSpace(in.TempMinC) != ""
	maxSet := strings.TrimSpace(in.TempMaxC) != ""
	switch {
	case minSet && !maxSet:
		errs = append(errs, FieldError{FieldTempMax, Required, "maximum temperature is required when a minimum is given"})
	case maxSet && !minSet:
		errs = append(errs, FieldError{FieldTempMin, Required, "minimum temperature is required when a maximum is given"})
	}

	tMin, minOK := parseTemp(&errs, FieldTempMin, in.TempMinC, minSet)
	tMax, maxOK := parseTemp(&errs, FieldTempMax, in.TempMaxC, maxSet)
	if minOK && maxOK {
		if tMin > tMax {
			errs = append(errs, FieldError{FieldTempMax, InvalidRange, "minimum temperature is above the maximum"})
		}
		cfg.TempMinC = airship.Float(tMin)
		cfg.TempMaxC = airship.Float(tMax)
	}

	if len(errs) > 0 {
		return airship.Config{}, errs
	}
	return cfg, nil
}

func parse(errs *Errors, field, raw string, required bool) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			*errs = append(*errs, FieldError{field, Required, "value is required"})
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*errs = append(*errs, FieldError{field, OutOfRange, fmt.Sprintf("%q is not a finite number", raw)})
		return 0, false
	}
	return f, true
}

func parseTemp(errs *Errors, field, raw string, set bool) (float64, bool) {
	if !set {
		return 0, false
	}
	t, ok := parse(errs, field, raw, false)
	if !ok {
		return 0, false
	}
	if t <= -atmosphere.ZeroCelsius {
		*errs = append(*errs, FieldError{field, OutOfRange, "temperature must be above absolute zero"})
		return 0, false
	}
	return t, true
}
