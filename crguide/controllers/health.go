package controllers

import (
	"encoding/json"
	"net/http"
)

// SessionCounter is satisfied by the session manager.
type SessionCounter interface {
	Len() int
}

type HealthController struct {
	sessions SessionCounter
}

func NewHealthController(sessions SessionCounter) *HealthController {
	return &HealthController{sessions: sessions}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}
