package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter handles error presentation and status code determination for HTTP handlers.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter with an optional slog logger.
// If logger is nil, the default package logger is used.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// StatusCodeFor determines the HTTP status code for a given error based on
// its classification. Unknown errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if c, ok := AsClassified(err); ok {
		switch c.Category() {
		case CategoryValidation:
			return http.StatusBadRequest
		case CategoryAuth:
			return http.StatusForbidden
		case CategoryNotFound:
			return http.StatusNotFound
		default:
			// Config, precondition, generation, forge, git, workspace and internal
			// failures are all surfaced uniformly as internal errors.
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// FormatErrorResponse builds the JSON payload for an error.
// Client-facing rejections (4xx) use an {"error": ...} shape; everything the
// orchestrator failed on internally uses {"status": "error", "message": ...}.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) map[string]any {
	c, ok := AsClassified(err)
	if !ok {
		return map[string]any{"status": "error", "message": err.Error()}
	}

	switch c.Category() {
	case CategoryValidation:
		payload := map[string]any{"error": c.Message()}
		if missing, exists := c.Context().Get("missing"); exists {
			payload["missing"] = missing
		}
		return payload
	case CategoryAuth, CategoryNotFound:
		return map[string]any{"error": c.Message()}
	default:
		return map[string]any{"status": "error", "message": c.Message()}
	}
}

// WriteErrorResponse writes a JSON error response and logs with a level
// matching the error severity.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	payload := a.FormatErrorResponse(err)

	a.logError(r, status, err)

	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"error","message":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (a *HTTPErrorAdapter) logError(r *http.Request, status int, err error) {
	attrs := []any{"status", status, "error", err.Error()}
	if r != nil {
		attrs = append(attrs, "path", r.URL.Path, "method", r.Method)
	}
	if c, ok := AsClassified(err); ok && (c.Severity() == SeverityWarning || c.Severity() == SeverityInfo) {
		a.logger.Warn("request failed", attrs...)
		return
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", attrs...)
		return
	}
	a.logger.Warn("request rejected", attrs...)
}
