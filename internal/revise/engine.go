// Package revise implements the round-2 flow: clone the existing repository,
// feed its current markup to the model, overwrite it with the result and push.
package revise

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	derrors "appforge/internal/foundation/errors"
	"appforge/internal/generate"
	"appforge/internal/logfields"
	"appforge/internal/retry"
)

// revisionContextLimit caps how much of the existing markup is handed to the
// model. Longer documents are truncated, not rejected.
const revisionContextLimit = 3000

// Workspaces hands out scratch directories for clones.
type Workspaces interface {
	Scratch(prefix string) (string, error)
}

// Repo performs the git operations a revision needs.
type Repo interface {
	RemoteURL(owner, name string) string
	Clone(ctx context.Context, url, dir, owner string) error
	Push(ctx context.Context, dir, owner string) error
}

// Reviser produces the replacement markup for a brief.
type Reviser interface {
	Revision(ctx context.Context, oldCode, brief string) (string, error)
}

// Engine drives a single revision end to end.
type Engine struct {
	workspaces  Workspaces
	repo        Repo
	reviser     Reviser
	clonePolicy retry.Policy
}

// NewEngine wires a revision engine. Clone retries follow the default policy.
func NewEngine(ws Workspaces, repo Repo, rev Reviser) *Engine {
	return &Engine{
		workspaces:  ws,
		repo:        repo,
		reviser:     rev,
		clonePolicy: retry.DefaultPolicy(),
	}
}

// Revise clones the repository, rewrites its markup from the brief and pushes
// the result. Only the clone is retried; create and push failures surface
// immediately.
func (e *Engine) Revise(ctx context.Context, owner, name, brief string) error {
	dir, err := e.workspaces.Scratch("revise")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryWorkspace, "failed to allocate scratch directory").Build()
	}

	url := e.repo.RemoteURL(owner, name)
	err = retry.Do(ctx, e.clonePolicy, func() error {
		// A partial clone leaves the directory unusable for the next try.
		if err := os.RemoveAll(dir); err != nil {
			return derrors.WrapError(err, derrors.CategoryWorkspace, "failed to reset scratch directory").Build()
		}
		return e.repo.Clone(ctx, url, dir, owner)
	}, derrors.IsRetryable)
	if err != nil {
		return err
	}

	markupPath := filepath.Join(dir, generate.MarkupFile)
	oldCode, err := os.ReadFile(markupPath)
	if err != nil {
		return derrors.PreconditionError("index.html not found in existing repository").
			WithContext("repository", name).
			Build()
	}

	existing := string(oldCode)
	if len(existing) > revisionContextLimit {
		slog.Debug("truncating revision context",
			slog.Int("original_length", len(existing)),
			slog.Int("limit", revisionContextLimit))
		existing = existing[:revisionContextLimit]
	}

	updated, err := e.reviser.Revision(ctx, existing, brief)
	if err != nil {
		return err
	}
	if err := os.WriteFile(markupPath, []byte(updated), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryWorkspace, "failed to write revised markup").Build()
	}

	if err := e.repo.Push(ctx, dir, owner); err != nil {
		return err
	}

	slog.Info("revision completed", logfields.Repository(name), logfields.Owner(owner))
	return nil
}
