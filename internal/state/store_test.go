package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msc-search/harvester/internal/core/domain"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("a begun run surfaces as the latest, unfinished", func(t *testing.T) {
		store := newMemoryStore(t)
		started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, store.Begin(ctx, "run-1", started))

		run, err := store.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-1", run.ID)
		assert.Nil(t, run.FinishedAt)
		assert.Empty(t, run.Dropped)
		assert.Empty(t, run.FailedUIDs)
	})

	t.Run("finishing a run persists its accounting", func(t *testing.T) {
		store := newMemoryStore(t)
		require.NoError(t, store.Begin(ctx, "run-1", time.Now().UTC()))

		err := store.Finish(ctx, Run{
			ID:           "run-1",
			PullRequests: 120,
			Documents:    118,
			Dropped:      []int{7, 42},
			FailedUIDs:   []int{99},
			LastCursor:   "cursor-token",
		})
		require.NoError(t, err)

		run, err := store.Latest(ctx)
		require.NoError(t, err)
		require.NotNil(t, run.FinishedAt)
		assert.Equal(t, 120, run.PullRequests)
		assert.Equal(t, 118, run.Documents)
		assert.Equal(t, []int{7, 42}, run.Dropped)
		assert.Equal(t, []int{99}, run.FailedUIDs)
		assert.Equal(t, "cursor-token", run.LastCursor)
	})

	t.Run("finishing an unknown run is an error", func(t *testing.T) {
		store := newMemoryStore(t)

		err := store.Finish(ctx, Run{ID: "never-begun"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no latest run on an empty store", func(t *testing.T) {
		store := newMemoryStore(t)

		_, err := store.Latest(ctx)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("latest cursor ignores unfinished and cursorless runs", func(t *testing.T) {
		store := newMemoryStore(t)
		base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		// Finished with a cursor.
		require.NoError(t, store.Begin(ctx, "run-1", base))
		require.NoError(t, store.Finish(ctx, Run{ID: "run-1", LastCursor: "old-cursor"}))

		// Finished without one.
		require.NoError(t, store.Begin(ctx, "run-2", base.Add(time.Hour)))
		require.NoError(t, store.Finish(ctx, Run{ID: "run-2"}))

		// Begun but never finished.
		require.NoError(t, store.Begin(ctx, "run-3", base.Add(2*time.Hour)))

		cursor, err := store.LatestCursor(ctx)

		require.NoError(t, err)
		assert.Equal(t, "old-cursor", cursor)
	})

	t.Run("latest cursor picks the most recent finished run", func(t *testing.T) {
		store := newMemoryStore(t)
		base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, store.Begin(ctx, "run-1", base))
		require.NoError(t, store.Finish(ctx, Run{ID: "run-1", LastCursor: "first"}))
		require.NoError(t, store.Begin(ctx, "run-2", base.Add(time.Hour)))
		require.NoError(t, store.Finish(ctx, Run{ID: "run-2", LastCursor: "second"}))

		cursor, err := store.LatestCursor(ctx)

		require.NoError(t, err)
		assert.Equal(t, "second", cursor)
	})

	t.Run("empty store has no cursor", func(t *testing.T) {
		store := newMemoryStore(t)

		cursor, err := store.LatestCursor(ctx)

		require.NoError(t, err)
		assert.Empty(t, cursor)
	})

	t.Run("reopening applies migrations idempotently", func(t *testing.T) {
		dir := t.TempDir()

		first, err := NewStore(dir)
		require.NoError(t, err)
		require.NoError(t, first.Begin(ctx, "run-1", time.Now().UTC()))
		require.NoError(t, first.Close())

		second, err := NewStore(dir)
		require.NoError(t, err)
		defer second.Close()

		run, err := second.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-1", run.ID)
	})
}
