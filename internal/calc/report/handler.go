package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"Aerostat/internal/calc/pipeline"

	"github.com/gorilla/mux"
)

type Input struct {
	pipeline.Request
	Meta
}

type Handler struct {
	Calc *pipeline.Handler
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
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
	res, err := h.Calc.Pipeline.Calculate(input.RawInput, input.History, gas)
	if err != nil {
		pipeline.WriteError(w, err)
		return
	}
	input.Meta.Date = time.Now()

	var buf bytes.Buffer
	if err := Write(&buf, format, res, input.Meta); err != nil {
		h.Calc.Log.Error("report generation failed", "format", format, "error", err)
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"lift-report.%s\"", format))
	w.Write(buf.Bytes())
}
