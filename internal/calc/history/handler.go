package history

import (
	"encoding/json"
	"net/http"
	"time"

	"Aerostat/internal/auth"
	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/pipeline"
	"Aerostat/internal/repo"
)

const (
	DefaultLimit  = 50
	MaxUploadSize = 5 << 20
)

// Handler serves the calculations of signed-in users. Their stored ratio
// history feeds the trend and grows with every successful calculation.
type Handler struct {
	Calc  *pipeline.Handler
	Repo  repo.HistoryRepository
	Limit int
	Now   func() time.Time
}

func (h *Handler) limit() int {
	if h.Limit <= 0 {
		return DefaultLimit
	}
	return h.Limit
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now()
}

func (h *Handler) load(r *http.Request, userID int) ([]airship.HistoricalRecord, error) {
	entries, err := h.Repo.ListHistory(r.Context(), userID, h.limit())
	if err != nil {
		return nil, err
	}
	out := make([]airship.HistoricalRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, airship.HistoricalRecord{Date: e.RecordedAt, LiftToWeightRatio: e.Ratio})
	}
	return out, nil
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	log := h.Calc.Log.With("user_id", userID)
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	gas, err := h.Calc.ResolveGas(req.Gas)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hist, err := h.load(r, userID)
	if err != nil {
		log.Error("load history failed", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	res, err := h.Calc.Pipeline.Calculate(req.RawInput, hist, gas)
	if err != nil {
		pipeline.WriteError(w, err)
		return
	}
	entry := repo.HistoryEntry{RecordedAt: h.now(), Ratio: res.LiftToWeightRatio}
	if err := h.Repo.AppendHistory(r.Context(), userID, entry); err != nil {
		// the result is still valid, only the history misses a point
		log.Warn("append history failed", "error", err)
	}
	pipeline.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	log := h.Calc.Log.With("user_id", userID)
	hist, err := h.load(r, userID)
	if err != nil {
		log.Error("load history failed", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	pipeline.WriteJSON(w, http.StatusOK, hist)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	log := h.Calc.Log.With("user_id", userID)
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := Import(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	entries := make([]repo.HistoryEntry, 0, len(res.Records))
	for _, rec := range res.Records {
		entries = append(entries, repo.HistoryEntry{RecordedAt: rec.Date, Ratio: rec.LiftToWeightRatio})
	}
	if err := h.Repo.AppendHistory(r.Context(), userID, entries...); err != nil {
		log.Error("import history failed", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	log.Info("history imported", "count", res.Count, "skipped", res.Skipped)
	pipeline.WriteJSON(w, http.StatusOK, res)
}
