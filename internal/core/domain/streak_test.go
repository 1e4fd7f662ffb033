package domain_test

import (
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStreak(t *testing.T) {
	now := at(2026, time.March, 10, 9)
	yesterday := at(2026, time.March, 9, 9)
	longAgo := at(2026, time.March, 1, 9)

	t.Run("Success: Starts at 1 without a previous entry", func(t *testing.T) {
		assert.Equal(t, 1, domain.NextStreak(0, &yesterday, now, domain.CadenceDaily))
	})

	t.Run("Success: Extends a continuous streak", func(t *testing.T) {
		assert.Equal(t, 8, domain.NextStreak(7, &yesterday, now, domain.CadenceDaily))
	})

	t.Run("Gap: Any previous value collapses to 1", func(t *testing.T) {
		for _, prev := range []int{1, 2, 50, 365} {
			assert.Equal(t, 1, domain.NextStreak(prev, &longAgo, now, domain.CadenceDaily))
		}
	})

	t.Run("Gap: Missing last completion", func(t *testing.T) {
		assert.Equal(t, 1, domain.NextStreak(4, nil, now, domain.CadenceWeekly))
	})
}

func dailyEvent(id, name string, last *time.Time, now time.Time) domain.CompletionEvent {
	return domain.CompletionEvent{
		UserID:          "u1",
		Kind:            domain.KindHabit,
		EntityID:        id,
		DisplayName:     name,
		Cadence:         domain.CadenceDaily,
		LastCompletedAt: last,
		CompletesPeriod: true,
		At:              now,
	}
}

func TestStreaks_RecordStreak(t *testing.T) {
	t.Run("Success: Monotonic growth over consecutive days", func(t *testing.T) {
		var s domain.Streaks
		var last *time.Time

		for day := 1; day <= 10; day++ {
			now := at(2026, time.March, day, 8)
			got := s.RecordStreak(dailyEvent("h1", "Read", last, now))
			assert.Equal(t, day, got)
			last = ptr(now)
		}

		entry := s.Current.Find(domain.KindHabit, "h1")
		require.NotNil(t, entry)
		assert.Equal(t, 10, entry.CurrentStreak)
		assert.Equal(t, 10, s.Longest.Daily.Streak)
		assert.Len(t, s.Current.Habits, 1)
	})

	t.Run("Success: Longest record keeps the maximum across entities", func(t *testing.T) {
		var s domain.Streaks
		d1, d2, d3 := at(2026, time.March, 1, 8), at(2026, time.March, 2, 8), at(2026, time.March, 3, 8)

		s.RecordStreak(dailyEvent("a", "A", nil, d1))
		s.RecordStreak(dailyEvent("a", "A", &d1, d2))
		s.RecordStreak(dailyEvent("a", "A", &d2, d3))
		s.RecordStreak(dailyEvent("b", "B", nil, d3))

		assert.Equal(t, domain.LongestStreakRecord{EntityID: "a", DisplayName: "A", Streak: 3, Kind: domain.KindHabit}, s.Longest.Daily)

		// Equal streak does not steal the record.
		s.RecordStreak(dailyEvent("b", "B", &d1, d2))
		s.RecordStreak(dailyEvent("b", "B", &d2, d3))
		assert.Equal(t, "a", s.Longest.Daily.EntityID)
	})

	t.Run("Success: Cadences have separate longest slots", func(t *testing.T) {
		var s domain.Streaks
		ev := dailyEvent("r1", "Morning", nil, at(2026, time.March, 1, 8))
		ev.Kind = domain.KindRoutine
		ev.Cadence = domain.CadenceWeekly

		s.RecordStreak(ev)

		assert.Equal(t, 1, s.Longest.For(domain.CadenceWeekly).Streak)
		assert.Equal(t, domain.KindRoutine, s.Longest.Weekly.Kind)
		assert.Zero(t, s.Longest.Daily.Streak)
		assert.Len(t, s.Current.Routines, 1)
		assert.Empty(t, s.Current.Habits)
	})

	t.Run("Success: Repeats in the same period keep the streak", func(t *testing.T) {
		var s domain.Streaks
		yesterday := at(2026, time.March, 9, 8)
		today := at(2026, time.March, 10, 9)

		s.RecordStreak(dailyEvent("h1", "Read", nil, yesterday))
		for i := 0; i < 4; i++ {
			// The entity still reports yesterday as its last completion.
			got := s.RecordStreak(dailyEvent("h1", "Read", &yesterday, today.Add(time.Duration(i)*time.Minute)))
			assert.Equal(t, 2, got)
		}

		entry := s.Current.Find(domain.KindHabit, "h1")
		require.NotNil(t, entry)
		require.NotNil(t, entry.LastCompletedAt)
		assert.Equal(t, today, *entry.LastCompletedAt)
		assert.Equal(t, 2, s.Longest.Daily.Streak)
	})

	t.Run("Success: Weekly and monthly repeats are credited once per period", func(t *testing.T) {
		var s domain.Streaks
		ev := dailyEvent("r1", "Review", nil, at(2026, time.March, 9, 8))
		ev.Kind = domain.KindRoutine
		ev.Cadence = domain.CadenceWeekly
		s.RecordStreak(ev)

		ev.At = at(2026, time.March, 12, 8)
		assert.Equal(t, 1, s.RecordStreak(ev))

		ev.EntityID = "m1"
		ev.Cadence = domain.CadenceMonthly
		ev.At = at(2026, time.March, 2, 8)
		s.RecordStreak(ev)
		ev.At = at(2026, time.March, 30, 8)
		assert.Equal(t, 1, s.RecordStreak(ev))
		ev.At = at(2026, time.April, 1, 8)
		assert.Equal(t, 2, s.RecordStreak(ev))
	})

	t.Run("Gap: Longest survives a reset of the current streak", func(t *testing.T) {
		var s domain.Streaks
		d1, d2, d5 := at(2026, time.March, 1, 8), at(2026, time.March, 2, 8), at(2026, time.March, 5, 8)

		s.RecordStreak(dailyEvent("h1", "Run", nil, d1))
		s.RecordStreak(dailyEvent("h1", "Run", &d1, d2))
		got := s.RecordStreak(dailyEvent("h1", "Run", &d2, d5))

		assert.Equal(t, 1, got)
		assert.Equal(t, 2, s.Longest.Daily.Streak)
	})
}
