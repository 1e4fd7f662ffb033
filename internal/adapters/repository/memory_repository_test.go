package repository

import (
	"context"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAnalyticsRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("Success: Create, read and update with version check", func(t *testing.T) {
		repo := NewInMemoryAnalyticsRepository()

		_, err := repo.Get(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrAnalyticsNotFound)

		record := domain.NewAnalyticsRecord("u1", now)
		require.NoError(t, repo.Save(ctx, record))
		assert.Equal(t, 1, record.Version)

		loaded, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Version)

		loaded.Completions.Daily.Habits = 3
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Equal(t, 2, loaded.Version)

		// record still carries version 1.
		assert.ErrorIs(t, repo.Save(ctx, record), domain.ErrAnalyticsConflict)

		again, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, again.Completions.Daily.Habits)
	})

	t.Run("Error: Second creation of the same record conflicts", func(t *testing.T) {
		repo := NewInMemoryAnalyticsRepository()
		require.NoError(t, repo.Save(ctx, domain.NewAnalyticsRecord("u1", now)))

		assert.ErrorIs(t, repo.Save(ctx, domain.NewAnalyticsRecord("u1", now)), domain.ErrAnalyticsConflict)
	})

	t.Run("Error: Malformed documents are reported with their version", func(t *testing.T) {
		repo := NewInMemoryAnalyticsRepository()
		repo.PutRaw("u1", []byte(`{"user_id": "u1", "completions": `))
		repo.PutRaw("u2", []byte(`{"user_id": "u2", "schema_version": 1, "completions": {"daily": {"habits": -4}}}`))

		_, err := repo.Get(ctx, "u1")
		var corrupt *domain.CorruptRecordError
		require.ErrorAs(t, err, &corrupt)
		assert.Equal(t, 1, corrupt.Version)

		_, err = repo.Get(ctx, "u2")
		assert.ErrorIs(t, err, domain.ErrAnalyticsCorrupted)
	})

	t.Run("Success: Stored documents are isolated from callers", func(t *testing.T) {
		repo := NewInMemoryAnalyticsRepository()
		record := domain.NewAnalyticsRecord("u1", now)
		require.NoError(t, repo.Save(ctx, record))

		record.Completions.Yearly.Total = 99

		loaded, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, loaded.Completions.Yearly.Total)
	})

	t.Run("Success: Owners are listed in order", func(t *testing.T) {
		repo := NewInMemoryAnalyticsRepository()
		for _, id := range []string{"u3", "u1", "u2"} {
			require.NoError(t, repo.Save(ctx, domain.NewAnalyticsRecord(id, now)))
		}

		ids, err := repo.ListUserIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, ids)
	})
}

func TestInMemoryEntityRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -8)

	seed := func() *InMemoryEntityRepository {
		repo := NewInMemoryEntityRepository()
		repo.Add(&domain.Entity{ID: "h1", UserID: "u1", Kind: domain.KindHabit, Cadence: domain.CadenceDaily,
			CompletedCount: 2, IsCompletedToday: true, CurrentStreak: 5, LastCompletedAt: &yesterday})
		repo.Add(&domain.Entity{ID: "h2", UserID: "u1", Kind: domain.KindHabit, Cadence: domain.CadenceDaily,
			CurrentStreak: 3, LastCompletedAt: &lastWeek})
		repo.Add(&domain.Entity{ID: "r1", UserID: "u1", Kind: domain.KindRoutine, Cadence: domain.CadenceWeekly,
			CurrentStreak: 2, LastCompletedAt: &lastWeek})
		return repo
	}

	t.Run("Success: Lookup is scoped by kind", func(t *testing.T) {
		repo := seed()

		e, err := repo.GetByID(ctx, domain.KindHabit, "h1")
		require.NoError(t, err)
		assert.Equal(t, 1, e.Version)

		_, err = repo.GetByID(ctx, domain.KindTask, "h1")
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})

	t.Run("Success: SaveCompletion checks the version", func(t *testing.T) {
		repo := seed()

		e, err := repo.GetByID(ctx, domain.KindHabit, "h2")
		require.NoError(t, err)
		stale := *e

		e.Complete(now)
		require.NoError(t, repo.SaveCompletion(ctx, e))
		assert.Equal(t, 2, e.Version)

		stale.Complete(now)
		assert.ErrorIs(t, repo.SaveCompletion(ctx, &stale), domain.ErrEntityConflict)

		ghost := &domain.Entity{ID: "nope", Kind: domain.KindTask}
		assert.ErrorIs(t, repo.SaveCompletion(ctx, ghost), domain.ErrEntityNotFound)
	})

	t.Run("Success: Daily reset clears completion state only", func(t *testing.T) {
		repo := seed()

		n, err := repo.ResetDaily(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		e, _ := repo.GetByID(ctx, domain.KindHabit, "h1")
		assert.False(t, e.IsCompletedToday)
		assert.Zero(t, e.CompletedCount)
		assert.Equal(t, 5, e.CurrentStreak)
	})

	t.Run("Success: Decay only touches stale entities of the cadence", func(t *testing.T) {
		repo := seed()
		cutoff := domain.PreviousPeriodStart(now, domain.CadenceDaily, time.Monday)

		n, err := repo.DecayStreaks(ctx, domain.CadenceDaily, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		h1, _ := repo.GetByID(ctx, domain.KindHabit, "h1")
		h2, _ := repo.GetByID(ctx, domain.KindHabit, "h2")
		r1, _ := repo.GetByID(ctx, domain.KindRoutine, "r1")
		assert.Equal(t, 5, h1.CurrentStreak)
		assert.Zero(t, h2.CurrentStreak)
		assert.Equal(t, 2, r1.CurrentStreak)
	})
}

func TestInMemoryLookups(t *testing.T) {
	ctx := context.Background()

	categories := NewInMemoryCategoryRepository()
	categories.Add(&domain.Category{ID: "c1", UserID: "u1", Name: "Health"})

	c, err := categories.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Health", c.Name)

	_, err = categories.GetByID(ctx, "c2")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	users := NewInMemoryUserRepository()
	users.Add(&domain.User{ID: "u1", Email: "a@kanso.app"})

	u, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@kanso.app", u.Email)

	_, err = users.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
