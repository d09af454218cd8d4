package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/forge"
	derrors "appforge/internal/foundation/errors"
	"appforge/internal/state"
	"appforge/internal/workspace"
)

type fakeForge struct {
	user       *forge.User
	repos      []*forge.Repository
	created    []string
	createErr  error
	pagesCalls int
	pagesErr   error
	listCalls  int
	currentErr error
}

func (f *fakeForge) CurrentUser(ctx context.Context) (*forge.User, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.user, nil
}

func (f *fakeForge) ListRepositories(ctx context.Context) ([]*forge.Repository, error) {
	f.listCalls++
	return f.repos, nil
}

func (f *fakeForge) CreateRepository(ctx context.Context, name string) (*forge.Repository, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	return &forge.Repository{Name: name, Owner: f.user.Login}, nil
}

func (f *fakeForge) EnablePages(ctx context.Context, owner, repo string) error {
	f.pagesCalls++
	return f.pagesErr
}

type fakeGenerator struct {
	calls int
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, brief, dir string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>ok</h1>"), 0o644)
}

type fakePublisher struct {
	calls int
	dirs  []string
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, dir, owner, name string) error {
	f.calls++
	f.dirs = append(f.dirs, dir)
	return f.err
}

type fakeReviser struct {
	calls int
	repo  string
	err   error
}

func (f *fakeReviser) Revise(ctx context.Context, owner, name, brief string) error {
	f.calls++
	f.repo = name
	return f.err
}

type fakeNotifier struct {
	calls    int
	url      string
	payloads []NotificationPayload
	err      error
}

func (f *fakeNotifier) Notify(ctx context.Context, url string, payload any) error {
	f.calls++
	f.url = url
	if p, ok := payload.(NotificationPayload); ok {
		f.payloads = append(f.payloads, p)
	}
	return f.err
}

type harness struct {
	orch      *Orchestrator
	forge     *fakeForge
	generator *fakeGenerator
	publisher *fakePublisher
	reviser   *fakeReviser
	notifier  *fakeNotifier
	journal   *state.Journal
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ws, err := workspace.NewManager(t.TempDir())
	require.NoError(t, err)
	journal, err := state.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	h := &harness{
		forge:     &fakeForge{user: &forge.User{Login: "alice"}},
		generator: &fakeGenerator{},
		publisher: &fakePublisher{},
		reviser:   &fakeReviser{},
		notifier:  &fakeNotifier{},
		journal:   journal,
	}
	h.orch = New(Options{
		Secret:     "s3cret",
		ForgeToken: "ghp_test",
		BaseURL:    "https://github.com",
		PagesHost:  "github.io",
		Forge:      h.forge,
		Generator:  h.generator,
		Publisher:  h.publisher,
		Reviser:    h.reviser,
		Workspaces: ws,
		Notifier:   h.notifier,
		Journal:    journal,
	})
	return h
}

func validRequest(round int) *SubmissionRequest {
	return &SubmissionRequest{
		Secret:        "s3cret",
		Email:         "dev@example.com",
		Task:          "demo",
		Round:         round,
		Nonce:         "123",
		Brief:         "a red button that says Hi",
		EvaluationURL: "https://evaluator.example.com/hook",
	}
}

func TestValidateNamesExactlyMissingFields(t *testing.T) {
	h := newHarness(t)
	req := validRequest(1)
	req.Email = ""
	req.Nonce = ""

	_, err := h.orch.Handle(context.Background(), req)
	require.Error(t, err)

	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, derrors.CategoryValidation, ce.Category())
	missing, exists := ce.Context().Get("missing")
	require.True(t, exists)
	assert.Equal(t, []string{"email", "nonce"}, missing)

	// No side effects before validation passes.
	assert.Zero(t, h.generator.calls)
	assert.Zero(t, h.publisher.calls)
	assert.Zero(t, h.notifier.calls)
}

func TestBadSecretRejectedRegardlessOfFields(t *testing.T) {
	h := newHarness(t)
	req := validRequest(1)
	req.Secret = "wrong"

	_, err := h.orch.Handle(context.Background(), req)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryAuth))
	assert.Zero(t, h.generator.calls)
	assert.Zero(t, h.notifier.calls)
}

func TestInvalidRoundRejected(t *testing.T) {
	h := newHarness(t)
	req := validRequest(3)

	_, err := h.orch.Handle(context.Background(), req)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
}

func TestMissingTokenIsConfigError(t *testing.T) {
	h := newHarness(t)
	h.orch.forgeToken = ""

	_, err := h.orch.Handle(context.Background(), validRequest(1))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
	assert.Zero(t, h.generator.calls)
}

func TestRoundOneDerivesNameAndURLs(t *testing.T) {
	h := newHarness(t)

	result, err := h.orch.Handle(context.Background(), validRequest(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"demo-123"}, h.forge.created)
	assert.Equal(t, "https://github.com/alice/demo-123", result.RepoURL)
	assert.Equal(t, "https://alice.github.io/demo-123/", result.PagesURL)
	assert.Equal(t, 1, h.publisher.calls)
	assert.Equal(t, 1, h.forge.pagesCalls)

	require.Equal(t, 1, h.notifier.calls)
	payload := h.notifier.payloads[0]
	assert.Equal(t, "initial-commit", payload.CommitSHA)
	assert.Equal(t, "demo-123", filepath.Base(payload.RepoURL))
	assert.Equal(t, "dev@example.com", payload.Email)
}

func TestRoundOneReadmeWritten(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Handle(context.Background(), validRequest(1))
	require.NoError(t, err)

	require.Len(t, h.publisher.dirs, 1)
	data, err := os.ReadFile(filepath.Join(h.publisher.dirs[0], "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# demo\n\na red button that says Hi\n", string(data))
}

func TestRoundOnePagesFailureIsBestEffort(t *testing.T) {
	h := newHarness(t)
	h.forge.pagesErr = derrors.ForgeError("failed to enable pages").Warning().Build()

	result, err := h.orch.Handle(context.Background(), validRequest(1))
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, h.notifier.calls)
}

func TestRoundTwoResolvesByPrefixFirstMatch(t *testing.T) {
	h := newHarness(t)
	h.forge.repos = []*forge.Repository{
		{Name: "other-app"},
		{Name: "demo-999"},
		{Name: "demo-123"},
	}

	result, err := h.orch.Handle(context.Background(), validRequest(2))
	require.NoError(t, err)

	assert.Equal(t, "demo-999", h.reviser.repo)
	assert.Equal(t, "https://alice.github.io/demo-999/", result.PagesURL)

	require.Equal(t, 1, h.notifier.calls)
	assert.Equal(t, "auto-revision", h.notifier.payloads[0].CommitSHA)
}

func TestRoundTwoNoMatchIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.forge.repos = []*forge.Repository{{Name: "unrelated"}}

	_, err := h.orch.Handle(context.Background(), validRequest(2))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryNotFound))
	assert.Zero(t, h.reviser.calls)
	assert.Zero(t, h.publisher.calls)
	assert.Zero(t, h.notifier.calls)
}

func TestNotificationFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = derrors.NotifyError("notification rejected with status 500").Build()

	result, err := h.orch.Handle(context.Background(), validRequest(1))
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, h.notifier.calls)
}

func TestPublishFailureSurfacesAndSkipsNotify(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = derrors.GitError("git push failed").Fatal().Build()

	_, err := h.orch.Handle(context.Background(), validRequest(1))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryGit))
	assert.Zero(t, h.notifier.calls)

	// The created repository is not rolled back.
	assert.Equal(t, []string{"demo-123"}, h.forge.created)
}

func TestJournalRecordsOutcomes(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Handle(context.Background(), validRequest(1))
	require.NoError(t, err)

	h.publisher.err = derrors.GitError("git push failed").Build()
	req := validRequest(1)
	req.Nonce = "456"
	_, err = h.orch.Handle(context.Background(), req)
	require.Error(t, err)

	records, err := h.journal.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, state.OutcomeError, records[0].Outcome)
	assert.Equal(t, "demo-456", records[0].Repository)
	assert.Equal(t, state.OutcomeOK, records[1].Outcome)
	assert.Equal(t, "https://alice.github.io/demo-123/", records[1].PagesURL)
}
