// Package responses defines API response types used by the HTTP handlers.
package responses

import (
	"time"

	"appforge/internal/state"
)

// InfoResponse is the liveness/info payload served at the root path.
type InfoResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// SubmitResponse is the success payload for a completed round.
type SubmitResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	RepoURL  string `json:"repo_url"`
	PagesURL string `json:"pages_url"`
}

// HealthResponse is the admin health check payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// StatusResponse is the admin status payload: uptime plus the most recent
// publication journal rows.
type StatusResponse struct {
	Status             string                    `json:"status"`
	StartTime          time.Time                 `json:"start_time"`
	Uptime             float64                   `json:"uptime"`
	RecentPublications []state.PublicationRecord `json:"recent_publications"`
	Timestamp          time.Time                 `json:"timestamp"`
}
