package domain

import "time"

type StreakEntry struct {
	EntityID        string     `json:"entity_id"`
	DisplayName     string     `json:"display_name"`
	CurrentStreak   int        `json:"current_streak"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}

type LongestStreakRecord struct {
	EntityID    string     `json:"entity_id"`
	DisplayName string     `json:"display_name"`
	Streak      int        `json:"streak"`
	Kind        EntityKind `json:"kind"`
}

type CurrentStreaks struct {
	Habits   []StreakEntry `json:"habits"`
	Tasks    []StreakEntry `json:"tasks"`
	Routines []StreakEntry `json:"routines"`
}

type LongestStreaks struct {
	Daily   LongestStreakRecord `json:"daily"`
	Weekly  LongestStreakRecord `json:"weekly"`
	Monthly LongestStreakRecord `json:"monthly"`
}

type Streaks struct {
	Current CurrentStreaks `json:"current"`
	Longest LongestStreaks `json:"longest"`
	History History        `json:"history"`
}

// NextStreak returns the streak value after a qualifying completion at now.
// A zero current value means the entity has no running streak.
func NextStreak(current int, last *time.Time, now time.Time, cadence Cadence) int {
	if current <= 0 || !IsContinuous(last, now, cadence) {
		return 1
	}
	return current + 1
}

func (c *CurrentStreaks) list(kind EntityKind) *[]StreakEntry {
	switch kind {
	case KindTask:
		return &c.Tasks
	case KindRoutine:
		return &c.Routines
	default:
		return &c.Habits
	}
}

// Find returns the entry of the entity, or nil when it was never completed.
func (c *CurrentStreaks) Find(kind EntityKind, entityID string) *StreakEntry {
	entries := *c.list(kind)
	for i := range entries {
		if entries[i].EntityID == entityID {
			return &entries[i]
		}
	}
	return nil
}

func (c *CurrentStreaks) upsert(kind EntityKind, entityID, name string, streak int, at time.Time) {
	if entry := c.Find(kind, entityID); entry != nil {
		entry.CurrentStreak = streak
		entry.DisplayName = name
		entry.LastCompletedAt = &at
		return
	}
	list := c.list(kind)
	*list = append(*list, StreakEntry{EntityID: entityID, DisplayName: name, CurrentStreak: streak, LastCompletedAt: &at})
}

func (l *LongestStreaks) slot(cadence Cadence) *LongestStreakRecord {
	switch cadence {
	case CadenceWeekly:
		return &l.Weekly
	case CadenceMonthly:
		return &l.Monthly
	default:
		return &l.Daily
	}
}

func (l *LongestStreaks) For(cadence Cadence) LongestStreakRecord {
	return *l.slot(cadence)
}

// RecordStreak advances the ledger entry of the event's entity and promotes it
// to the cadence's longest record when it is strictly greater. An entity
// already credited for the period of ev.At keeps its streak.
func (s *Streaks) RecordStreak(ev CompletionEvent) int {
	current := 0
	last := ev.LastCompletedAt
	if entry := s.Current.Find(ev.Kind, ev.EntityID); entry != nil {
		current = entry.CurrentStreak
		if entry.LastCompletedAt != nil {
			if SamePeriod(*entry.LastCompletedAt, ev.At, ev.Cadence) {
				return current
			}
			last = entry.LastCompletedAt
		}
	}

	next := NextStreak(current, last, ev.At, ev.Cadence)
	s.Current.upsert(ev.Kind, ev.EntityID, ev.DisplayName, next, ev.At)

	longest := s.Longest.slot(ev.Cadence)
	if next > longest.Streak {
		*longest = LongestStreakRecord{
			EntityID:    ev.EntityID,
			DisplayName: ev.DisplayName,
			Streak:      next,
			Kind:        ev.Kind,
		}
	}
	return next
}
