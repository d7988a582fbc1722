package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolverank/resolverank/internal/miner"
)

func samplePairs() []miner.Row {
	return []miner.Row{
		{
			RepoName:      "acme/api",
			ContributorID: "alice",
			IssueID:       7,
			IssueTitle:    "Flaky reconnect",
			IssueBody:     "reconnect loops forever",
			IssueLabels:   "bug, network",
			LinkedPRCount: 2,
		},
		{
			RepoName:      "acme/api",
			ContributorID: "bob",
			IssueID:       7,
			IssueTitle:    "Flaky reconnect",
			LinkedPRCount: 2,
		},
		{
			RepoName:      "acme/web",
			ContributorID: miner.UnknownContributor,
			IssueID:       3,
			IssueTitle:    "Typo in docs",
			LinkedPRCount: 1,
		},
	}
}

func TestPairRepoUpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPairRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, samplePairs()))

	rows, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordered by repo, issue, contributor.
	assert.Equal(t, "alice", rows[0].ContributorID)
	assert.Equal(t, "bob", rows[1].ContributorID)
	assert.Equal(t, "acme/web", rows[2].RepoName)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPairRepoUpsertReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPairRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, samplePairs()))

	// Re-mining the same pair updates in place instead of duplicating.
	updated := samplePairs()[:1]
	updated[0].IssueTitle = "Flaky reconnect under load"
	updated[0].LinkedPRCount = 3
	require.NoError(t, repo.Upsert(ctx, updated))

	rows, err := repo.ListByContributor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Flaky reconnect under load", rows[0].IssueTitle)
	assert.Equal(t, 3, rows[0].LinkedPRCount)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPairRepoContributorsExcludesUnknown(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPairRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, samplePairs()))

	contributors, err := repo.Contributors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, contributors)
}

func TestPairRepoDeleteByRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPairRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, samplePairs()))
	require.NoError(t, repo.DeleteByRepo(ctx, "acme/api"))

	rows, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "acme/web", rows[0].RepoName)
}

func TestPairRepoUpsertEmptyIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPairRepo(db)

	require.NoError(t, repo.Upsert(context.Background(), nil))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
