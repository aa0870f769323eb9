package api

import (
	"encoding/json"
	"errors"
	"klyra/internal/models"
	"log/slog"
	"net/http"
	"time"
)

type sessionCounter interface {
	Sessions() int
}

type presenceReader interface {
	Get(id string) (models.User, error)
	List() []models.User
	Len() int
}

// StatusHandler serves read-only relay state. It never exposes message content.
type StatusHandler struct {
	hub      sessionCounter
	presence presenceReader
	log      *slog.Logger
	now      func() time.Time
}

func NewStatusHandler(hub sessionCounter, presence presenceReader, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StatusHandler{hub: hub, presence: presence, log: logger, now: time.Now}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Sessions  int    `json:"sessions"`
	Users     int    `json:"users"`
}

func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Sessions:  h.hub.Sessions(),
		Users:     h.presence.Len(),
	})
}

func (h *StatusHandler) UsersHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.presence.List())
}

func (h *StatusHandler) UserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.presence.Get(r.PathValue("id"))
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, user)
}

func (h *StatusHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("failed to encode status response", "err", err)
	}
}
