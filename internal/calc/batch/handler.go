package batch

import (
	"encoding/json"
	"net/http"

	"Aerostat/internal/calc/pipeline"
)

type Handler struct {
	Calc *pipeline.Handler
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	gas, err := h.Calc.ResolveGas(input.Gas)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := Calculate(h.Calc.Pipeline, gas, input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Calc.Log.Debug("batch calculated", "succeeded", res.Succeeded, "failed", res.Failed)
	pipeline.WriteJSON(w, http.StatusOK, res)
}
