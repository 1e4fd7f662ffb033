package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidEntityKind = errors.New("invalid entity kind (must be habit, task, or routine)")
	ErrInvalidCadence    = errors.New("invalid cadence (must be daily, weekly, or monthly)")
	ErrUnauthorized      = errors.New("unauthorized access to resource")
)

type EntityKind string

const (
	KindHabit   EntityKind = "habit"
	KindTask    EntityKind = "task"
	KindRoutine EntityKind = "routine"
)

func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(s); k {
	case KindHabit, KindTask, KindRoutine:
		return k, nil
	default:
		return "", ErrInvalidEntityKind
	}
}

type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

func ParseCadence(s string) (Cadence, error) {
	switch c := Cadence(s); c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return c, nil
	case "":
		return CadenceDaily, nil
	default:
		return "", ErrInvalidCadence
	}
}

// Entity is the completion-relevant view of a habit, task, or routine.
// The rest of the entity (descriptions, reminders, ...) lives outside this service.
type Entity struct {
	ID                string     `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id"`
	Kind              EntityKind `json:"kind" db:"-"`
	Name              string     `json:"name" db:"name"`
	CategoryID        *string    `json:"category_id,omitempty" db:"category_id"`
	Cadence           Cadence    `json:"cadence" db:"cadence"`
	TargetCompletions int        `json:"target_completions" db:"target_completions"`
	CompletedCount    int        `json:"completed_count" db:"completed_count"`
	IsCompletedToday  bool       `json:"is_completed_today" db:"is_completed_today"`
	CurrentStreak     int        `json:"current_streak" db:"current_streak"`
	LongestStreak     int        `json:"longest_streak" db:"longest_streak"`
	LastCompletedAt   *time.Time `json:"last_completed_at,omitempty" db:"last_completed_at"`
	LastActivityAt    *time.Time `json:"last_activity_at,omitempty" db:"last_activity_at"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CompletionEvent is the snapshot the analytics engine consumes. Streak inputs
// (CurrentStreak, LastCompletedAt) are the values before the completion was applied.
type CompletionEvent struct {
	UserID          string
	Kind            EntityKind
	EntityID        string
	DisplayName     string
	CategoryID      string
	CategoryName    string
	Cadence         Cadence
	CurrentStreak   int
	LastCompletedAt *time.Time
	CompletesPeriod bool
	At              time.Time
}

func (e *Entity) target() int {
	if e.Kind == KindTask || e.TargetCompletions < 1 {
		return 1
	}
	return e.TargetCompletions
}

// completedTodayAt reports the "completed today" state as seen at now: counters
// left over from a previous day count as zero even if the nightly reset has not run yet.
func (e *Entity) completedTodayAt(now time.Time) (int, bool) {
	if e.LastActivityAt == nil || !SameDay(now, *e.LastActivityAt) {
		return 0, false
	}
	return e.CompletedCount, e.IsCompletedToday
}

// NewCompletionEvent describes what completing the entity at now would do,
// without modifying it.
func (e *Entity) NewCompletionEvent(now time.Time) CompletionEvent {
	count, done := e.completedTodayAt(now)

	cadence := e.Cadence
	if cadence == "" {
		cadence = CadenceDaily
	}

	ev := CompletionEvent{
		UserID:          e.UserID,
		Kind:            e.Kind,
		EntityID:        e.ID,
		DisplayName:     e.Name,
		Cadence:         cadence,
		CurrentStreak:   e.CurrentStreak,
		LastCompletedAt: e.LastCompletedAt,
		CompletesPeriod: !done && count+1 >= e.target(),
		At:              now,
	}
	if e.CategoryID != nil {
		ev.CategoryID = *e.CategoryID
	}
	return ev
}

// Complete applies a completion at now and returns the event for analytics.
func (e *Entity) Complete(now time.Time) CompletionEvent {
	ev := e.NewCompletionEvent(now)

	count, done := e.completedTodayAt(now)
	e.CompletedCount = count + 1
	e.IsCompletedToday = done || ev.CompletesPeriod

	if ev.CompletesPeriod {
		e.CurrentStreak = NextStreak(e.CurrentStreak, e.LastCompletedAt, now, ev.Cadence)
		if e.CurrentStreak > e.LongestStreak {
			e.LongestStreak = e.CurrentStreak
		}
		completedAt := now
		e.LastCompletedAt = &completedAt
	}

	activity := now
	e.LastActivityAt = &activity
	e.UpdatedAt = now.UTC()

	return ev
}
