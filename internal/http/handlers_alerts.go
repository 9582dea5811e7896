package http

import (
	"errors"
	"net/http"
	"time"

	"movimenti/internal/core"
)

const (
	defaultAlertHistory = 20
	maxAlertHistory     = 100
)

type alertJSON struct {
	ID        string         `json:"id"`
	Kind      core.AlertKind `json:"kind"`
	Message   string         `json:"message"`
	Delivered bool           `json:"delivered"`
	Timestamp time.Time      `json:"timestamp"`
}

func toAlertJSON(a core.Alert) alertJSON {
	return alertJSON{
		ID:        a.ID,
		Kind:      a.Kind,
		Message:   a.Message,
		Delivered: a.Delivered,
		Timestamp: a.CreatedAt,
	}
}

// handleLatestAlert returns the most recent alert, or null before the first
// one was recorded.
func (s *Server) handleLatestAlert(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Alerts.LatestAlert(r.Context())
	if errors.Is(err, core.ErrNotFound) {
		NewResponse().JSON(nil).Write(w)
		return
	}
	if err != nil {
		writeError(w, r, "latest_alert", err)
		return
	}
	NewResponse().JSON(toAlertJSON(a)).Write(w)
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query(), "limit", defaultAlertHistory, maxAlertHistory)
	if err != nil {
		writeError(w, r, "alert_history", err)
		return
	}
	alerts, err := s.svc.Alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		writeError(w, r, "alert_history", err)
		return
	}
	out := make([]alertJSON, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertJSON(a))
	}
	NewResponse().JSON(out).Write(w)
}
