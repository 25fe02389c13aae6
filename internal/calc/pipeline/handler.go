package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/atmosphere"
	"Aerostat/internal/calc/lift"
	"Aerostat/internal/calc/validate"
	"Aerostat/internal/logger"
)

type Request struct {
	airship.RawInput
	Gas     string                     `json:"gas"`
	History []airship.HistoricalRecord `json:"history"`
}

type Handler struct {
	Pipeline   *Pipeline
	DefaultGas lift.Gas
	Log        *logger.Logger
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	gas, err := h.ResolveGas(req.Gas)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.Pipeline.Calculate(req.RawInput, req.History, gas)
	if err != nil {
		h.Log.Debug("calculation rejected", "error", err)
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// ResolveGas maps a request gas name to a preset, falling back to DefaultGas.
func (h *Handler) ResolveGas(name string) (lift.Gas, error) {
	if name == "" && h.DefaultGas.Name != "" {
		return h.DefaultGas, nil
	}
	return lift.GasByName(name)
}

type ErrorBody struct {
	Error       string                `json:"error"`
	Message     string                `json:"message"`
	Fields      []validate.FieldError `json:"fields,omitempty"`
	AltitudeKm  *float64              `json:"altitude_km,omitempty"`
	DeficitKgM3 *float64              `json:"deficit_kg_m3,omitempty"`
}

// ErrorFor classifies a calculation failure for the client.
func ErrorFor(err error) (int, ErrorBody) {
	var verrs validate.Errors
	var rerr *atmosphere.RangeError
	var lerr *lift.InfeasibleError
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, ErrorBody{Error: "validation", Message: verrs.Error(), Fields: verrs}
	case errors.As(err, &rerr):
		alt := rerr.AltitudeKm
		return http.StatusUnprocessableEntity, ErrorBody{Error: "model_range", Message: rerr.Error(), AltitudeKm: &alt}
	case errors.As(err, &lerr):
		alt, def := lerr.AltitudeKm, lerr.DeficitKgM3
		return http.StatusUnprocessableEntity, ErrorBody{Error: "lift_infeasible", Message: lerr.Error(), AltitudeKm: &alt, DeficitKgM3: &def}
	default:
		return http.StatusBadRequest, ErrorBody{Error: "calculation", Message: err.Error()}
	}
}

func WriteError(w http.ResponseWriter, err error) {
	status, body := ErrorFor(err)
	WriteJSON(w, status, body)
}

// WriteJSON encodes v before touching the response, so an unencodable value
// turns into a 500 instead of a truncated body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
