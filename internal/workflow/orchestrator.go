// Package workflow validates submissions and drives them through a round:
// generate-create-publish for round 1, resolve-revise-push for round 2, then
// URL derivation and the evaluator notification.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"appforge/internal/forge"
	derrors "appforge/internal/foundation/errors"
	"appforge/internal/logfields"
	"appforge/internal/metrics"
	"appforge/internal/state"
)

// Forge covers the hosting-platform operations a round needs.
type Forge interface {
	CurrentUser(ctx context.Context) (*forge.User, error)
	ListRepositories(ctx context.Context) ([]*forge.Repository, error)
	CreateRepository(ctx context.Context, name string) (*forge.Repository, error)
	EnablePages(ctx context.Context, owner, repo string) error
}

// Generator produces the round-1 artifact set into a directory.
type Generator interface {
	Generate(ctx context.Context, brief, dir string) error
}

// Publisher pushes a prepared directory as the repository's main branch.
type Publisher interface {
	Publish(ctx context.Context, dir, owner, name string) error
}

// Reviser runs the round-2 revision against an existing repository.
type Reviser interface {
	Revise(ctx context.Context, owner, name, brief string) error
}

// Workspaces hands out scratch directories.
type Workspaces interface {
	Scratch(prefix string) (string, error)
}

// Notifier delivers the completion callback.
type Notifier interface {
	Notify(ctx context.Context, url string, payload any) error
}

// Journal records attempted publications. Append failures are logged only.
type Journal interface {
	Append(ctx context.Context, rec state.PublicationRecord) error
}

// Orchestrator is the per-request state machine. All collaborators are
// injected; any may be exercised with fakes in tests.
type Orchestrator struct {
	secret     string
	forgeToken string
	baseURL    string
	pagesHost  string

	forge      Forge
	generator  Generator
	publisher  Publisher
	reviser    Reviser
	workspaces Workspaces
	notifier   Notifier
	journal    Journal
	recorder   metrics.Recorder
}

// Options collects orchestrator construction parameters.
type Options struct {
	Secret     string
	ForgeToken string
	BaseURL    string
	PagesHost  string

	Forge      Forge
	Generator  Generator
	Publisher  Publisher
	Reviser    Reviser
	Workspaces Workspaces
	Notifier   Notifier
	Journal    Journal
	Recorder   metrics.Recorder
}

// New creates an orchestrator. A nil Recorder or Journal degrades to no-ops.
func New(opts Options) *Orchestrator {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{
		secret:     opts.Secret,
		forgeToken: opts.ForgeToken,
		baseURL:    opts.BaseURL,
		pagesHost:  opts.PagesHost,
		forge:      opts.Forge,
		generator:  opts.Generator,
		publisher:  opts.Publisher,
		reviser:    opts.Reviser,
		workspaces: opts.Workspaces,
		notifier:   opts.Notifier,
		journal:    opts.Journal,
		recorder:   rec,
	}
}

// Validate rejects the request before any side effect: secret mismatch, then
// missing fields (named exactly), then an out-of-range round.
func (o *Orchestrator) Validate(req *SubmissionRequest) error {
	if req.Secret != o.secret {
		return derrors.AuthError("invalid secret").Build()
	}

	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Task == "" {
		missing = append(missing, "task")
	}
	if req.Round == 0 {
		missing = append(missing, "round")
	}
	if req.Nonce == "" {
		missing = append(missing, "nonce")
	}
	if req.Brief == "" {
		missing = append(missing, "brief")
	}
	if req.EvaluationURL == "" {
		missing = append(missing, "evaluation_url")
	}
	if len(missing) > 0 {
		return derrors.ValidationError("missing fields").
			WithContext("missing", missing).
			Build()
	}

	if req.Round != 1 && req.Round != 2 {
		return derrors.ValidationError(fmt.Sprintf("round must be 1 or 2, got %d", req.Round)).Build()
	}
	return nil
}

// Handle runs one request end to end. Validation failures return before any
// side effect; anything after validation that fails surfaces as an error with
// no rollback of partial effects.
func (o *Orchestrator) Handle(ctx context.Context, req *SubmissionRequest) (*Result, error) {
	requestID := uuid.NewString()
	log := slog.With(
		logfields.RequestID(requestID),
		logfields.Task(req.Task),
		logfields.Round(req.Round),
		logfields.Nonce(req.Nonce),
	)

	if err := o.Validate(req); err != nil {
		o.recorder.IncRoundOutcome(req.Round, metrics.OutcomeDenied)
		return nil, err
	}
	o.recorder.IncRequestReceived(req.Round)
	started := time.Now()

	if o.forgeToken == "" {
		return nil, derrors.ConfigError("missing forge token").Build()
	}

	user, err := o.forge.CurrentUser(ctx)
	if err != nil {
		return nil, o.finishError(ctx, log, req, requestID, "", started, err)
	}

	var repoName string
	switch req.Round {
	case 1:
		repoName = req.Task + "-" + req.Nonce
		err = o.runInitialRound(ctx, log, req, user, repoName)
	case 2:
		repoName, err = o.resolveRepository(ctx, req.Task)
		if err == nil {
			err = o.reviser.Revise(ctx, user.Login, repoName, req.Brief)
		}
	}
	if err != nil {
		return nil, o.finishError(ctx, log, req, requestID, repoName, started, err)
	}

	result := &Result{
		Round:    req.Round,
		RepoURL:  fmt.Sprintf("%s/%s/%s", o.baseURL, user.Login, repoName),
		PagesURL: fmt.Sprintf("https://%s.%s/%s/", user.Login, o.pagesHost, repoName),
	}

	o.appendJournal(ctx, log, req, requestID, repoName, result, "")
	o.sendNotification(ctx, log, req, result)

	o.recorder.IncRoundOutcome(req.Round, metrics.OutcomeSuccess)
	o.recorder.ObserveRoundDuration(req.Round, time.Since(started))
	log.Info("round completed",
		logfields.Repository(repoName),
		logfields.URL(result.PagesURL),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return result, nil
}

// runInitialRound builds the artifact set in a scratch directory, creates the
// repository and publishes it. Pages enablement is best effort.
func (o *Orchestrator) runInitialRound(ctx context.Context, log *slog.Logger, req *SubmissionRequest, user *forge.User, repoName string) error {
	dir, err := o.workspaces.Scratch("generate")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryWorkspace, "failed to allocate scratch directory").Build()
	}

	if err := o.generator.Generate(ctx, req.Brief, dir); err != nil {
		return err
	}
	readme := fmt.Sprintf("# %s\n\n%s\n", req.Task, req.Brief)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryWorkspace, "failed to write README").Build()
	}

	if _, err := o.forge.CreateRepository(ctx, repoName); err != nil {
		return err
	}

	pubStart := time.Now()
	if err := o.publisher.Publish(ctx, dir, user.Login, repoName); err != nil {
		return err
	}
	o.recorder.ObservePublishDuration(time.Since(pubStart))

	// Best effort: a site that fails to enable hosting still counts as a
	// successful publish.
	if err := o.forge.EnablePages(ctx, user.Login, repoName); err != nil {
		log.Warn("pages enablement failed", logfields.Repository(repoName), logfields.Error(err))
	}
	return nil
}

// resolveRepository finds the round-2 target by name prefix over the
// authenticated user's repositories. First match in listing order wins.
func (o *Orchestrator) resolveRepository(ctx context.Context, task string) (string, error) {
	repos, err := o.forge.ListRepositories(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range repos {
		if strings.HasPrefix(r.Name, task) {
			return r.Name, nil
		}
	}
	return "", derrors.NotFoundError("existing repository not found").
		WithContext("task", task).
		Build()
}

func (o *Orchestrator) finishError(ctx context.Context, log *slog.Logger, req *SubmissionRequest, requestID, repoName string, started time.Time, err error) error {
	o.appendJournal(ctx, log, req, requestID, repoName, nil, err.Error())
	o.recorder.IncRoundOutcome(req.Round, metrics.OutcomeFailed)
	o.recorder.ObserveRoundDuration(req.Round, time.Since(started))
	return err
}

func (o *Orchestrator) appendJournal(ctx context.Context, log *slog.Logger, req *SubmissionRequest, requestID, repoName string, result *Result, errText string) {
	if o.journal == nil {
		return
	}
	rec := state.PublicationRecord{
		RequestID:   requestID,
		Task:        req.Task,
		Round:       req.Round,
		Nonce:       req.Nonce,
		Repository:  repoName,
		CommitLabel: commitLabel(req.Round),
		Outcome:     state.OutcomeOK,
		Error:       errText,
	}
	if errText != "" {
		rec.Outcome = state.OutcomeError
	}
	if result != nil {
		rec.RepoURL = result.RepoURL
		rec.PagesURL = result.PagesURL
	}
	if err := o.journal.Append(ctx, rec); err != nil {
		log.Warn("journal append failed", logfields.Error(err))
	}
}

// sendNotification POSTs the outcome to the evaluation URL. Failures are
// logged and recorded but never alter the response already determined for the
// caller.
func (o *Orchestrator) sendNotification(ctx context.Context, log *slog.Logger, req *SubmissionRequest, result *Result) {
	payload := NotificationPayload{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   result.RepoURL,
		CommitSHA: commitLabel(req.Round),
		PagesURL:  result.PagesURL,
	}
	if err := o.notifier.Notify(ctx, req.EvaluationURL, payload); err != nil {
		o.recorder.IncNotifyResult(false)
		log.Warn("evaluator notification failed", logfields.URL(req.EvaluationURL), logfields.Error(err))
		return
	}
	o.recorder.IncNotifyResult(true)
}

func commitLabel(round int) string {
	if round == 2 {
		return CommitLabelRevision
	}
	return CommitLabelInitial
}
