// Package publish writes a prepared directory to a remote repository.
//
// Two entry points reflect the two rounds' deliberately different push
// semantics: Publish (round 1) forbids empty commits and force-pushes main;
// Push (round 2) allows an empty commit so a no-op revision still produces a
// publishable state, and pushes without force.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"appforge/internal/config"
	derrors "appforge/internal/foundation/errors"
	"appforge/internal/logfields"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	remoteName        = "origin"
	initialCommitMsg  = "Initial commit"
	revisionCommitMsg = "Auto revision by LLM"
)

// Publisher performs version-control operations with a fixed committer
// identity. The credential travels via transport auth, never inside the
// remote URL, so command logging cannot leak it.
type Publisher struct {
	committerName  string
	committerEmail string
	token          string
	baseURL        string
	cloneDepth     int
}

// New creates a Publisher from forge configuration.
func New(fg config.ForgeConfig) *Publisher {
	return &Publisher{
		committerName:  fg.CommitterName,
		committerEmail: fg.CommitterEmail,
		token:          fg.Token,
		baseURL:        fg.BaseURL,
		cloneDepth:     1,
	}
}

// WithCloneDepth overrides the shallow-clone depth (0 disables shallowing,
// needed for transports that do not negotiate shallow fetches).
func (p *Publisher) WithCloneDepth(depth int) *Publisher {
	p.cloneDepth = depth
	return p
}

func (p *Publisher) signature() *object.Signature {
	return &object.Signature{
		Name:  p.committerName,
		Email: p.committerEmail,
		When:  time.Now(),
	}
}

func (p *Publisher) auth(owner string) transport.AuthMethod {
	if p.token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: owner, Password: p.token}
}

// RemoteURL derives the remote for a repository under the given owner.
func (p *Publisher) RemoteURL(owner, name string) string {
	return fmt.Sprintf("%s/%s/%s.git", p.baseURL, owner, name)
}

// Publish turns dir into a repository and force-pushes it as the single
// commit on main. An empty directory (nothing to commit) is an error on this
// path. A rejected push is fatal and carries the remote's diagnostic text.
func (p *Publisher) Publish(ctx context.Context, dir, owner, name string) error {
	repo, err := initOrOpen(dir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to initialize repository").Build()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to open worktree").Build()
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to stage files").Build()
	}
	if _, err := wt.Commit(initialCommitMsg, &git.CommitOptions{Author: p.signature()}); err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to commit").Build()
	}
	if err := ensureMainBranch(repo); err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to set main branch").Build()
	}

	remoteURL := p.RemoteURL(owner, name)
	if err := resetOrigin(repo, remoteURL); err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to configure remote").Build()
	}

	// Reconcile with the remote in case the platform pre-populated it. A
	// fresh repository has nothing to pull, so any failure here is tolerated.
	pullErr := wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: plumbing.Main,
		Auth:          p.auth(owner),
	})
	if pullErr != nil && !errors.Is(pullErr, git.NoErrAlreadyUpToDate) {
		slog.Debug("no remote state to reconcile, proceeding to push", logfields.Error(pullErr))
	}

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitcfg.RefSpec{gitcfg.RefSpec("+refs/heads/main:refs/heads/main")},
		Auth:       p.auth(owner),
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return derrors.WrapError(err, derrors.CategoryGit, "git push failed").
			WithContext("repository", name).
			Fatal().
			Build()
	}

	slog.Info("repository published", logfields.Repository(name), logfields.Owner(owner))
	return nil
}

// Push commits whatever is in the already-cloned dir (empty commits allowed)
// and pushes the current branch to its existing origin, without force.
func (p *Publisher) Push(ctx context.Context, dir, owner string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to open repository").Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to open worktree").Build()
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to stage files").Build()
	}
	_, err = wt.Commit(revisionCommitMsg, &git.CommitOptions{
		Author:            p.signature(),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to commit revision").Build()
	}

	// Fetch without merging; advisory only.
	fetchErr := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: remoteName, Auth: p.auth(owner)})
	if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
		slog.Warn("fetch before push failed", logfields.Error(fetchErr))
	}

	head, err := repo.Head()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to resolve HEAD").Build()
	}
	refSpec := gitcfg.RefSpec(fmt.Sprintf("%s:%s", head.Name(), head.Name()))

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitcfg.RefSpec{refSpec},
		Auth:       p.auth(owner),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return derrors.WrapError(err, derrors.CategoryGit, "git push failed").Fatal().Build()
	}

	slog.Info("revision pushed", logfields.Path(dir))
	return nil
}

// Clone shallow-clones url into dir.
func (p *Publisher) Clone(ctx context.Context, url, dir, owner string) error {
	opts := &git.CloneOptions{
		URL:          url,
		SingleBranch: true,
		Auth:         p.auth(owner),
	}
	if p.cloneDepth > 0 {
		opts.Depth = p.cloneDepth
	}
	_, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryGit, "failed to clone repository").
			WithContext("url", url).
			Retryable().
			Build()
	}
	return nil
}

func initOrOpen(dir string) (*git.Repository, error) {
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
		Bare:        false,
	})
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return git.PlainOpen(dir)
	}
	return repo, err
}

// ensureMainBranch renames the current branch to main when a reopened
// repository committed on something else.
func ensureMainBranch(repo *git.Repository) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	if head.Name() == plumbing.Main {
		return nil
	}
	main := plumbing.NewHashReference(plumbing.Main, head.Hash())
	if err := repo.Storer.SetReference(main); err != nil {
		return err
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.Main)); err != nil {
		return err
	}
	return repo.Storer.RemoveReference(head.Name())
}

// resetOrigin removes any pre-existing origin (ignoring absence) and adds a
// fresh one pointing at remoteURL.
func resetOrigin(repo *git.Repository, remoteURL string) error {
	_ = repo.DeleteRemote(remoteName)
	_, err := repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: remoteName,
		URLs: []string{remoteURL},
	})
	return err
}
