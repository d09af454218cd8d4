package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "appforge/internal/foundation/errors"
	"appforge/internal/state"
	"appforge/internal/workflow"
)

type fakeOrchestrator struct {
	result *workflow.Result
	err    error
	got    *workflow.SubmissionRequest
}

func (f *fakeOrchestrator) Handle(ctx context.Context, req *workflow.SubmissionRequest) (*workflow.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleInfo(t *testing.T) {
	h := NewSubmissionHandlers(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	h.HandleInfo(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "appforge", body["service"])
}

func TestHandleSubmitInvalidJSON(t *testing.T) {
	h := NewSubmissionHandlers(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api-endpoint", strings.NewReader("{not json"))
	h.HandleSubmit(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON payload", decodeBody(t, rec)["error"])
}

func TestHandleSubmitSuccess(t *testing.T) {
	orch := &fakeOrchestrator{result: &workflow.Result{
		Round:    1,
		RepoURL:  "https://github.com/alice/demo-123",
		PagesURL: "https://alice.github.io/demo-123/",
	}}
	h := NewSubmissionHandlers(orch)

	payload := `{"secret":"s","email":"e@x.com","task":"demo","round":1,"nonce":"123","brief":"b","evaluation_url":"https://ev.example.com"}`
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/api-endpoint", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "round 1 completed successfully", body["message"])
	assert.Equal(t, "https://alice.github.io/demo-123/", body["pages_url"])

	require.NotNil(t, orch.got)
	assert.Equal(t, "demo", orch.got.Task)
}

func TestHandleSubmitStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", derrors.ValidationError("missing fields").WithContext("missing", []string{"email"}).Build(), http.StatusBadRequest},
		{"auth", derrors.AuthError("invalid secret").Build(), http.StatusForbidden},
		{"not found", derrors.NotFoundError("existing repository not found").Build(), http.StatusNotFound},
		{"config", derrors.ConfigError("missing forge token").Build(), http.StatusInternalServerError},
		{"git", derrors.GitError("git push failed").Fatal().Build(), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSubmissionHandlers(&fakeOrchestrator{err: tc.err})
			rec := httptest.NewRecorder()
			h.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/api-endpoint", strings.NewReader("{}")))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestHandleSubmitValidationNamesMissingFields(t *testing.T) {
	err := derrors.ValidationError("missing fields").
		WithContext("missing", []string{"email", "nonce"}).
		Build()
	h := NewSubmissionHandlers(&fakeOrchestrator{err: err})
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/api-endpoint", strings.NewReader("{}")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "missing fields", body["error"])
	assert.Equal(t, []any{"email", "nonce"}, body["missing"])
}

func TestHandleSubmitInternalErrorShape(t *testing.T) {
	h := NewSubmissionHandlers(&fakeOrchestrator{err: derrors.GitError("git push failed").Build()})
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodPost, "/api-endpoint", strings.NewReader("{}")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "git push failed", body["message"])
}

func TestHandleSubmitRejectsGet(t *testing.T) {
	h := NewSubmissionHandlers(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodGet, "/api-endpoint", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeJournal struct {
	records []state.PublicationRecord
}

func (f *fakeJournal) Recent(ctx context.Context, n int) ([]state.PublicationRecord, error) {
	if n < len(f.records) {
		return f.records[:n], nil
	}
	return f.records, nil
}

func TestHandleStatusIncludesJournal(t *testing.T) {
	journal := &fakeJournal{records: []state.PublicationRecord{
		{Task: "demo", Round: 1, Repository: "demo-123", Outcome: state.OutcomeOK},
	}}
	h := NewMonitoringHandlers(journal, time.Now().Add(-time.Minute))
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	pubs, ok := body["recent_publications"].([]any)
	require.True(t, ok)
	require.Len(t, pubs, 1)
	assert.Positive(t, body["uptime"])
}

func TestHandleHealthCheck(t *testing.T) {
	h := NewMonitoringHandlers(nil, time.Now())
	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}
