package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"appforge/internal/foundation/errors"
	"appforge/internal/server/responses"
	"appforge/internal/state"
	"appforge/internal/version"
)

const recentPublicationLimit = 20

// JournalReader exposes the publication journal rows the status endpoint shows.
type JournalReader interface {
	Recent(ctx context.Context, n int) ([]state.PublicationRecord, error)
}

// MonitoringHandlers serves the admin health and status endpoints.
type MonitoringHandlers struct {
	journal      JournalReader
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates the monitoring handlers. journal may be nil,
// in which case the status endpoint reports no publications.
func NewMonitoringHandlers(journal JournalReader, startTime time.Time) *MonitoringHandlers {
	return &MonitoringHandlers{
		journal:      journal,
		startTime:    startTime,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	_ = writeJSONPretty(w, r, http.StatusOK, health)
}

// HandleStatus reports uptime plus the most recent publication journal rows.
func (h *MonitoringHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	status := &responses.StatusResponse{
		Status:    "ok",
		StartTime: h.startTime,
		Uptime:    time.Since(h.startTime).Seconds(),
		Timestamp: time.Now().UTC(),
	}
	if h.journal != nil {
		records, err := h.journal.Recent(r.Context(), recentPublicationLimit)
		if err != nil {
			slog.Warn("failed to read publication journal", "error", err)
		} else {
			status.RecentPublications = records
		}
	}
	_ = writeJSONPretty(w, r, http.StatusOK, status)
}
