package domain

import "time"

type CountedCompletion struct {
	EntityID       string `json:"entity_id"`
	DisplayName    string `json:"display_name"`
	CompletedCount int    `json:"completed_count"`
}

type TaskCompletion struct {
	EntityID    string `json:"entity_id"`
	DisplayName string `json:"display_name"`
	Completed   bool   `json:"completed"`
}

type DayBucket struct {
	Habits   []CountedCompletion `json:"habits"`
	Tasks    []TaskCompletion    `json:"tasks"`
	Routines []CountedCompletion `json:"routines"`
}

// History is the per-day completion log, keyed year -> month -> day.
type History map[int]map[int]map[int]*DayBucket

// Bucket returns the bucket of the calendar day of date, or nil.
func (h History) Bucket(date time.Time) *DayBucket {
	y, m, d := date.Date()
	months, ok := h[y]
	if !ok {
		return nil
	}
	days, ok := months[int(m)]
	if !ok {
		return nil
	}
	return days[d]
}

func (h *History) bucketFor(date time.Time) *DayBucket {
	if *h == nil {
		*h = make(History)
	}
	y, m, d := date.Date()

	months, ok := (*h)[y]
	if !ok {
		months = make(map[int]map[int]*DayBucket)
		(*h)[y] = months
	}
	days, ok := months[int(m)]
	if !ok {
		days = make(map[int]*DayBucket)
		months[int(m)] = days
	}
	bucket, ok := days[d]
	if !ok || bucket == nil {
		bucket = &DayBucket{}
		days[d] = bucket
	}
	return bucket
}

// Append logs one completion on date's calendar day. Habits and routines
// accumulate a per-day count; every task completion is its own record.
func (h *History) Append(kind EntityKind, entityID, name string, date time.Time) {
	bucket := h.bucketFor(date)

	switch kind {
	case KindTask:
		bucket.Tasks = append(bucket.Tasks, TaskCompletion{EntityID: entityID, DisplayName: name, Completed: true})
	case KindRoutine:
		bucket.Routines = incrementCounted(bucket.Routines, entityID, name)
	default:
		bucket.Habits = incrementCounted(bucket.Habits, entityID, name)
	}
}

func incrementCounted(list []CountedCompletion, entityID, name string) []CountedCompletion {
	for i := range list {
		if list[i].EntityID == entityID {
			list[i].CompletedCount++
			return list
		}
	}
	return append(list, CountedCompletion{EntityID: entityID, DisplayName: name, CompletedCount: 1})
}

// Prune drops every bucket whose day is before the calendar day of before.
// It returns the number of removed buckets.
func (h History) Prune(before time.Time) int {
	cutoff := StartOfDay(before)
	loc := before.Location()
	removed := 0

	for y, months := range h {
		for m, days := range months {
			for d := range days {
				if time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc).Before(cutoff) {
					delete(days, d)
					removed++
				}
			}
			if len(days) == 0 {
				delete(months, m)
			}
		}
		if len(months) == 0 {
			delete(h, y)
		}
	}
	return removed
}
