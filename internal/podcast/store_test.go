package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSQLStore(db, slog.New(slog.DiscardHandler))
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

// Both implementations must behave identically, so every case runs against
// each of them.
func forEachStore(t *testing.T, run func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		run(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		run(t, newSQLiteStore(t))
	})
}

func TestStore_PutGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		job := NewJob("job-1", []string{"doc-1", "doc-2"}, LengthMedium)

		require.NoError(t, store.Put(ctx, job))

		got, err := store.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "job-1", got.ID)
		assert.Equal(t, []string{"doc-1", "doc-2"}, got.DocumentIDs)
		assert.Equal(t, LengthMedium, got.TargetLength)
		assert.Equal(t, StatusProcessing, got.Status)
		assert.Equal(t, StageInitializing, got.Stage)
		assert.Equal(t, 0, got.Progress)
		assert.True(t, job.CreatedAt.Equal(got.CreatedAt))
		assert.Nil(t, got.ScriptPath)
		assert.Nil(t, got.CompletedAt)
	})
}

func TestStore_PutDuplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		job := NewJob("job-1", []string{"doc-1"}, LengthShort)

		require.NoError(t, store.Put(ctx, job))
		assert.Error(t, store.Put(ctx, job))
	})
}

func TestStore_GetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		_, err := store.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestStore_Update(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, NewJob("job-1", []string{"doc-1"}, LengthLong)))

		now := time.Now().UTC().Truncate(time.Millisecond)
		err := store.Update(ctx, "job-1", Update{
			Status:          String(StatusComplete),
			Stage:           String(StageComplete),
			Progress:        Int(100),
			ScriptPath:      String("/out/job-1_script.json"),
			AudioPath:       String("/out/job-1.wav"),
			DurationSeconds: Float(312.5),
			CompletedAt:     Time(now),
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, StatusComplete, got.Status)
		assert.Equal(t, StageComplete, got.Stage)
		assert.Equal(t, 100, got.Progress)
		require.NotNil(t, got.ScriptPath)
		assert.Equal(t, "/out/job-1_script.json", *got.ScriptPath)
		require.NotNil(t, got.DurationSeconds)
		assert.Equal(t, 312.5, *got.DurationSeconds)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, now.Equal(*got.CompletedAt))
	})
}

func TestStore_UpdatePartial(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, NewJob("job-1", []string{"doc-1"}, LengthShort)))

		require.NoError(t, store.Update(ctx, "job-1", Update{Progress: Int(50)}))

		got, err := store.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, 50, got.Progress)
		// Untouched fields keep their values.
		assert.Equal(t, StatusProcessing, got.Status)
		assert.Equal(t, StageInitializing, got.Stage)
	})
}

func TestStore_UpdateMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		err := store.Update(context.Background(), "nope", Update{Progress: Int(10)})
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, NewJob("job-1", []string{"doc-1"}, LengthShort)))

		require.NoError(t, store.Delete(ctx, "job-1"))

		_, err := store.Get(ctx, "job-1")
		assert.ErrorIs(t, err, ErrJobNotFound)

		// Deleting an unknown id is not an error.
		assert.NoError(t, store.Delete(ctx, "job-1"))
	})
}

func TestStore_List(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

		for i := 0; i < 5; i++ {
			job := NewJob(fmt.Sprintf("job-%d", i), []string{"doc"}, LengthShort)
			job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if i%2 == 0 {
				job.Status = StatusComplete
			}
			require.NoError(t, store.Put(ctx, job))
		}

		t.Run("newest first", func(t *testing.T) {
			jobs, err := store.List(ctx, Filter{PageSize: 10})
			require.NoError(t, err)
			require.Len(t, jobs, 5)
			assert.Equal(t, "job-4", jobs[0].ID)
			assert.Equal(t, "job-0", jobs[4].ID)
		})

		t.Run("status filter", func(t *testing.T) {
			jobs, err := store.List(ctx, Filter{Status: StatusComplete, PageSize: 10})
			require.NoError(t, err)
			require.Len(t, jobs, 3)
			for _, j := range jobs {
				assert.Equal(t, StatusComplete, j.Status)
			}
		})

		t.Run("cursor pagination", func(t *testing.T) {
			page, err := store.List(ctx, Filter{PageSize: 2})
			require.NoError(t, err)
			// One extra row signals another page exists.
			require.Len(t, page, 3)

			next, err := store.List(ctx, Filter{
				PageSize: 2,
				Cursor: &Cursor{
					CreatedAt: page[1].CreatedAt,
					JobID:     page[1].ID,
				},
			})
			require.NoError(t, err)
			require.Len(t, next, 3)
			assert.Equal(t, "job-2", next[0].ID)
			assert.Equal(t, "job-1", next[1].ID)
		})
	})
}
