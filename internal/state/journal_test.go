package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, PublicationRecord{
		RequestID:   "req-1",
		Task:        "markdown-to-html",
		Round:       1,
		Nonce:       "ab12",
		Repository:  "markdown-to-html-ab12",
		CommitLabel: "initial-commit",
		RepoURL:     "https://github.com/alice/markdown-to-html-ab12",
		PagesURL:    "https://alice.github.io/markdown-to-html-ab12/",
		Outcome:     OutcomeOK,
	}))
	require.NoError(t, j.Append(ctx, PublicationRecord{
		RequestID: "req-2",
		Task:      "markdown-to-html",
		Round:     2,
		Nonce:     "cd34",
		Outcome:   OutcomeError,
		Error:     "existing repository not found",
	}))

	records, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "req-2", records[0].RequestID)
	assert.Equal(t, OutcomeError, records[0].Outcome)
	assert.Equal(t, "existing repository not found", records[0].Error)
	assert.Equal(t, "req-1", records[1].RequestID)
	assert.Equal(t, "initial-commit", records[1].CommitLabel)
	assert.False(t, records[1].CreatedAt.IsZero())
}

func TestRecentHonorsLimit(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(ctx, PublicationRecord{
			RequestID: "req",
			Task:      "todo-list",
			Round:     1,
			Outcome:   OutcomeOK,
		}))
	}

	records, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestOpenInvalidPath(t *testing.T) {
	_, err := Open("/nonexistent-root/journal.db")
	assert.Error(t, err)
}
