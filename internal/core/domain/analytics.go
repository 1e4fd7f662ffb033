package domain

import (
	"fmt"
	"time"
)

// SchemaVersion is the layout version written into every analytics document.
const SchemaVersion = 1

type Tally struct {
	Habits   int `json:"habits"`
	Tasks    int `json:"tasks"`
	Routines int `json:"routines"`
	Total    int `json:"total"`
}

func (t *Tally) add(kind EntityKind) {
	switch kind {
	case KindTask:
		t.Tasks++
	case KindRoutine:
		t.Routines++
	default:
		t.Habits++
	}
	t.Total++
}

func (t Tally) valid() bool {
	return t.Habits >= 0 && t.Tasks >= 0 && t.Routines >= 0 && t.Total >= 0
}

// RankedTally is a period tally that also keeps the last known ranking.
type RankedTally struct {
	Tally
	MostCompleted  *RankingEntry `json:"most_completed"`
	LeastCompleted *RankingEntry `json:"least_completed"`
}

type Completions struct {
	Daily   Tally       `json:"daily"`
	Weekly  RankedTally `json:"weekly"`
	Monthly RankedTally `json:"monthly"`
	Yearly  Tally       `json:"yearly"`
}

// AnalyticsRecord is the aggregate of all derived completion data of one user.
// It is persisted as a single document.
type AnalyticsRecord struct {
	UserID        string        `json:"user_id"`
	Streaks       Streaks       `json:"streaks"`
	Completions   Completions   `json:"completions"`
	Categories    CategoryStats `json:"categories"`
	LastUpdated   time.Time     `json:"last_updated"`
	SchemaVersion int           `json:"schema_version"`

	// Version is the storage revision used for compare-and-swap saves.
	Version int `json:"-"`
}

func NewAnalyticsRecord(userID string, now time.Time) *AnalyticsRecord {
	r := &AnalyticsRecord{
		UserID:        userID,
		LastUpdated:   now.UTC(),
		SchemaVersion: SchemaVersion,
	}
	r.Normalize()
	return r
}

// Normalize replaces nil collections with empty ones so the served document
// always has the same shape.
func (r *AnalyticsRecord) Normalize() {
	if r.Streaks.Current.Habits == nil {
		r.Streaks.Current.Habits = []StreakEntry{}
	}
	if r.Streaks.Current.Tasks == nil {
		r.Streaks.Current.Tasks = []StreakEntry{}
	}
	if r.Streaks.Current.Routines == nil {
		r.Streaks.Current.Routines = []StreakEntry{}
	}
	if r.Streaks.History == nil {
		r.Streaks.History = History{}
	}
	if r.Categories.Usage == nil {
		r.Categories.Usage = map[string]int{}
	}
}

// Validate reports whether a record loaded from storage can be used as is.
func (r *AnalyticsRecord) Validate(userID string) error {
	if r.UserID == "" || r.UserID != userID {
		return fmt.Errorf("record belongs to %q, expected %q", r.UserID, userID)
	}
	if r.SchemaVersion < 1 || r.SchemaVersion > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", r.SchemaVersion)
	}

	c := r.Completions
	for name, t := range map[string]Tally{
		"daily": c.Daily, "weekly": c.Weekly.Tally, "monthly": c.Monthly.Tally, "yearly": c.Yearly,
	} {
		if !t.valid() {
			return fmt.Errorf("negative %s tally", name)
		}
	}

	for _, list := range [][]StreakEntry{r.Streaks.Current.Habits, r.Streaks.Current.Tasks, r.Streaks.Current.Routines} {
		for _, e := range list {
			if e.EntityID == "" || e.CurrentStreak < 0 {
				return fmt.Errorf("invalid streak entry %q", e.EntityID)
			}
		}
	}
	for _, l := range []LongestStreakRecord{r.Streaks.Longest.Daily, r.Streaks.Longest.Weekly, r.Streaks.Longest.Monthly} {
		if l.Streak < 0 {
			return fmt.Errorf("negative longest streak for %q", l.EntityID)
		}
		if l.Kind != "" {
			if _, err := ParseEntityKind(string(l.Kind)); err != nil {
				return fmt.Errorf("longest streak for %q: %w", l.EntityID, err)
			}
		}
	}
	return nil
}

// ApplyResult summarizes what a completion changed.
type ApplyResult struct {
	Streak        int
	StreakUpdated bool
	Favorite      *FavoriteCategory
	Pruned        int
}

// Apply folds one completion event into the record. Streaks only move when the
// event completes the entity's period; tallies, history, rankings and category
// usage count every completion. retentionDays > 0 prunes older history.
func (r *AnalyticsRecord) Apply(ev CompletionEvent, retentionDays int) ApplyResult {
	r.Normalize()
	now := ev.At
	var res ApplyResult

	if ev.CompletesPeriod {
		res.Streak = r.Streaks.RecordStreak(ev)
		res.StreakUpdated = true
	} else if entry := r.Streaks.Current.Find(ev.Kind, ev.EntityID); entry != nil {
		res.Streak = entry.CurrentStreak
	}

	r.Streaks.History.Append(ev.Kind, ev.EntityID, ev.DisplayName, now)
	if retentionDays > 0 {
		res.Pruned = r.Streaks.History.Prune(StartOfDay(now).AddDate(0, 0, -retentionDays))
	}

	r.Completions.Daily.add(ev.Kind)
	r.Completions.Weekly.add(ev.Kind)
	r.Completions.Monthly.add(ev.Kind)
	r.Completions.Yearly.add(ev.Kind)

	from, to := WeeklyWindow(now)
	r.Completions.Weekly.Rerank(r.Streaks.History, from, to)
	from, to = MonthlyWindow(now)
	r.Completions.Monthly.Rerank(r.Streaks.History, from, to)

	if ev.CategoryID != "" {
		fav := r.Categories.RecordUsage(ev.CategoryID, ev.CategoryName)
		res.Favorite = &fav
	}

	r.LastUpdated = now.UTC()
	return res
}

// Rerank recomputes the ranking over [from, to]. An empty window keeps the
// previous entries and reports false.
func (t *RankedTally) Rerank(h History, from, to time.Time) bool {
	most, least, ok := RankWindow(h, from, to)
	if !ok {
		return false
	}
	t.MostCompleted = most
	t.LeastCompleted = least
	return true
}

func (r *AnalyticsRecord) ResetDaily(now time.Time) {
	r.Completions.Daily = Tally{}
	r.LastUpdated = now.UTC()
}

// ResetWeekly zeroes the weekly tally and carries the ranking forward.
func (r *AnalyticsRecord) ResetWeekly(now time.Time) {
	r.Completions.Weekly.Tally = Tally{}
	r.LastUpdated = now.UTC()
}

// ResetMonthly zeroes the monthly tally and carries the ranking forward.
func (r *AnalyticsRecord) ResetMonthly(now time.Time) {
	r.Completions.Monthly.Tally = Tally{}
	r.LastUpdated = now.UTC()
}

// ResetPeriod dispatches to the reset transition of cadence.
func (r *AnalyticsRecord) ResetPeriod(cadence Cadence, now time.Time) error {
	switch cadence {
	case CadenceDaily:
		r.ResetDaily(now)
	case CadenceWeekly:
		r.ResetWeekly(now)
	case CadenceMonthly:
		r.ResetMonthly(now)
	default:
		return ErrInvalidCadence
	}
	return nil
}

// ResetResult is the outcome of a periodic reset batch. Success is false only
// when the batch itself could not run; per-user failures are listed in Failed.
type ResetResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Period    Cadence  `json:"period"`
	Processed int      `json:"processed"`
	Failed    []string `json:"failed"`
}
