package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"appforge/internal/config"
	derrors "appforge/internal/foundation/errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPublisher points the publisher at a local directory acting as the
// hosting platform: remotes resolve to {base}/{owner}/{name}.git bare repos.
func newTestPublisher(t *testing.T) (*Publisher, string) {
	t.Helper()
	base := t.TempDir()
	pub := New(config.ForgeConfig{
		BaseURL:        base,
		CommitterName:  "AppForge Bot",
		CommitterEmail: "bot@appforge.invalid",
	}).WithCloneDepth(0) // local test remotes do not negotiate shallow fetches
	return pub, base
}

func newBareRemote(t *testing.T, base, owner, name string) string {
	t.Helper()
	path := filepath.Join(base, owner, name+".git")
	require.NoError(t, os.MkdirAll(path, 0o755))
	_, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
		Bare:        true,
	})
	require.NoError(t, err)
	return path
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func remoteHeadCommit(t *testing.T, barePath string) *plumbing.Reference {
	t.Helper()
	repo, err := git.PlainOpen(barePath)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.Main, true)
	require.NoError(t, err)
	return ref
}

func TestPublishCreatesSingleCommitOnMain(t *testing.T) {
	pub, base := newTestPublisher(t)
	bare := newBareRemote(t, base, "octo", "demo-123")

	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<h1>Hi</h1>")
	writeFile(t, dir, "style.css", "body{}")

	require.NoError(t, pub.Publish(context.Background(), dir, "octo", "demo-123"))

	ref := remoteHeadCommit(t, bare)
	repo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Initial commit", commit.Message)
	assert.Equal(t, "AppForge Bot", commit.Author.Name)

	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("index.html")
	assert.NoError(t, err)
}

func TestPublishEmptyDirectoryFails(t *testing.T) {
	pub, base := newTestPublisher(t)
	newBareRemote(t, base, "octo", "empty-1")

	err := pub.Publish(context.Background(), t.TempDir(), "octo", "empty-1")
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryGit))
}

func TestPublishForceOverwritesDivergedRemote(t *testing.T) {
	pub, base := newTestPublisher(t)
	bare := newBareRemote(t, base, "octo", "demo-456")

	first := t.TempDir()
	writeFile(t, first, "index.html", "v1")
	require.NoError(t, pub.Publish(context.Background(), first, "octo", "demo-456"))

	second := t.TempDir()
	writeFile(t, second, "index.html", "v2")
	require.NoError(t, pub.Publish(context.Background(), second, "octo", "demo-456"))

	ref := remoteHeadCommit(t, bare)
	repo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)
	f, err := tree.File("index.html")
	require.NoError(t, err)
	content, err := f.Contents()
	require.NoError(t, err)
	assert.Equal(t, "v2", content)
}

func TestPushAllowsEmptyCommit(t *testing.T) {
	pub, base := newTestPublisher(t)
	bare := newBareRemote(t, base, "octo", "demo-789")

	seed := t.TempDir()
	writeFile(t, seed, "index.html", "seeded")
	require.NoError(t, pub.Publish(context.Background(), seed, "octo", "demo-789"))
	before := remoteHeadCommit(t, bare).Hash()

	clone := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, pub.Clone(context.Background(), bare, clone, "octo"))

	// No changes: the revision path must still commit and push.
	require.NoError(t, pub.Push(context.Background(), clone, "octo"))
	after := remoteHeadCommit(t, bare).Hash()
	assert.NotEqual(t, before, after)

	// And again, proving a repeated no-op revision cannot fail.
	require.NoError(t, pub.Push(context.Background(), clone, "octo"))
}

func TestPushPublishesModifiedContent(t *testing.T) {
	pub, base := newTestPublisher(t)
	bare := newBareRemote(t, base, "octo", "demo-mod")

	seed := t.TempDir()
	writeFile(t, seed, "index.html", "old")
	require.NoError(t, pub.Publish(context.Background(), seed, "octo", "demo-mod"))

	clone := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, pub.Clone(context.Background(), bare, clone, "octo"))
	writeFile(t, clone, "index.html", "revised")
	require.NoError(t, pub.Push(context.Background(), clone, "octo"))

	ref := remoteHeadCommit(t, bare)
	repo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Auto revision by LLM", commit.Message)
	tree, err := commit.Tree()
	require.NoError(t, err)
	f, err := tree.File("index.html")
	require.NoError(t, err)
	content, err := f.Contents()
	require.NoError(t, err)
	assert.Equal(t, "revised", content)
}

func TestCloneMissingRemoteIsRetryable(t *testing.T) {
	pub, _ := newTestPublisher(t)

	err := pub.Clone(context.Background(), filepath.Join(t.TempDir(), "absent.git"), filepath.Join(t.TempDir(), "dst"), "octo")
	require.Error(t, err)
	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, derrors.RetryBackoff, ce.Retry())
}

func TestRemoteURLShape(t *testing.T) {
	pub := New(config.ForgeConfig{BaseURL: "https://github.com"})
	assert.Equal(t, "https://github.com/octo/demo-123.git", pub.RemoteURL("octo", "demo-123"))
}
