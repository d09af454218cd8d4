package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"appforge/internal/foundation/errors"
	"appforge/internal/server/responses"
	"appforge/internal/version"
	"appforge/internal/workflow"
)

// Orchestrator runs one submission end to end.
type Orchestrator interface {
	Handle(ctx context.Context, req *workflow.SubmissionRequest) (*workflow.Result, error)
}

// SubmissionHandlers serves the public API: the info endpoint and the
// submission endpoint.
type SubmissionHandlers struct {
	orchestrator Orchestrator
	errorAdapter *errors.HTTPErrorAdapter
}

// NewSubmissionHandlers creates the submission handlers.
func NewSubmissionHandlers(o Orchestrator) *SubmissionHandlers {
	return &SubmissionHandlers{
		orchestrator: o,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleInfo serves the liveness/info payload at the root path.
func (h *SubmissionHandlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	info := &responses.InfoResponse{
		Status:    "ok",
		Service:   "appforge",
		Version:   version.Version,
		Timestamp: time.Now().UTC(),
	}
	_ = writeJSONPretty(w, r, http.StatusOK, info)
}

// HandleSubmit decodes a submission, dispatches it to the orchestrator and
// writes the outcome. A body that fails to decode is a 400 before any
// workflow step runs.
func (h *SubmissionHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var req workflow.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid JSON payload").Build())
		return
	}

	result, err := h.orchestrator.Handle(r.Context(), &req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := &responses.SubmitResponse{
		Status:   "ok",
		Message:  fmt.Sprintf("round %d completed successfully", result.Round),
		RepoURL:  result.RepoURL,
		PagesURL: result.PagesURL,
	}
	_ = writeJSON(w, http.StatusOK, resp)
}
