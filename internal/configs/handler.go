package configs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"Aerostat/internal/auth"
	"Aerostat/internal/calc/airship"
	"Aerostat/internal/calc/pipeline"
	"Aerostat/internal/calc/validate"
	"Aerostat/internal/logger"
	"Aerostat/internal/repo"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxNameLen = 120

type SaveRequest struct {
	Name   string           `json:"name"`
	Config airship.RawInput `json:"config"`
}

type Saved struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	Config    airship.Config `json:"config"`
}

type Handler struct {
	Repo      repo.ConfigRepository
	Validator *validate.Validator
	Log       *logger.Logger
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxNameLen {
		http.Error(w, "Name is required and must be short", http.StatusBadRequest)
		return
	}
	cfg, err := h.Validator.Validate(req.Config)
	if err != nil {
		pipeline.WriteError(w, err)
		return
	}
	payload, err := airship.Save(cfg)
	if err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
		return
	}
	sc, err := h.Repo.SaveConfig(r.Context(), userID, req.Name, payload)
	if err != nil {
		h.Log.Error("save config failed", "user_id", userID, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	pipeline.WriteJSON(w, http.StatusCreated, Saved{ID: sc.ID, Name: sc.Name, CreatedAt: sc.CreatedAt, Config: cfg})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.Repo.ListConfigs(r.Context(), userID)
	if err != nil {
		h.Log.Error("list configs failed", "user_id", userID, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	out := make([]Saved, 0, len(list))
	for _, sc := range list {
		cfg, err := airship.Load(sc.Payload)
		if err != nil {
			h.Log.Warn("skipping unreadable saved config", "id", sc.ID, "error", err)
			continue
		}
		out = append(out, Saved{ID: sc.ID, Name: sc.Name, CreatedAt: sc.CreatedAt, Config: cfg})
	}
	pipeline.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	sc, err := h.Repo.GetConfig(r.Context(), userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "Config not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("get config failed", "user_id", userID, "id", id, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	cfg, err := airship.Load(sc.Payload)
	if err != nil {
		h.Log.Error("saved config is unreadable", "id", id, "error", err)
		http.Error(w, "Stored config is corrupt", http.StatusInternalServerError)
		return
	}
	pipeline.WriteJSON(w, http.StatusOK, Saved{ID: sc.ID, Name: sc.Name, CreatedAt: sc.CreatedAt, Config: cfg})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.target(w, r)
	if !ok {
		return
	}
	err := h.Repo.DeleteConfig(r.Context(), userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "Config not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("delete config failed", "user_id", userID, "id", id, "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (int, uuid.UUID, bool) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, uuid.Nil, false
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, uuid.Nil, false
	}
	return userID, id, true
}
