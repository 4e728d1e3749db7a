package memory

import (
	"context"
	"testing"
	"time"

	"ai-bookrec-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	session := &store.Session{
		ID:           "s-1",
		InitialQuery: "space opera",
	}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "space opera", got.InitialQuery)

	got.CsvUploaded = true
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, got.CsvUploaded)

	require.NoError(t, repo.Delete(ctx, "s-1"))
	got, err = repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMissingSessionIsNilNotError(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	got, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIngestStatusDefaultsToNone(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	status, err := repo.GetIngestStatus(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, store.IngestStatusNone, status)

	require.NoError(t, repo.SetIngestStatus(ctx, "s-1", store.IngestStatusProcessing))
	status, err = repo.GetIngestStatus(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, store.IngestStatusProcessing, status)
}

func TestIngestProgressRoundTrip(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	got, err := repo.GetIngestProgress(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.SetIngestProgress(ctx, "s-1", &store.IngestProgress{
		Total: 10, Processed: 4, Added: 3, Existing: 1,
	}))

	got, err = repo.GetIngestProgress(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 4, got.Processed)
}

func TestDeleteRemovesStatusAndProgress(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &store.Session{ID: "s-1"}))
	require.NoError(t, repo.SetIngestStatus(ctx, "s-1", store.IngestStatusCompleted))
	require.NoError(t, repo.SetIngestProgress(ctx, "s-1", &store.IngestProgress{Total: 1}))

	require.NoError(t, repo.Delete(ctx, "s-1"))

	status, err := repo.GetIngestStatus(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, store.IngestStatusNone, status)

	progress, err := repo.GetIngestProgress(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, progress)
}
