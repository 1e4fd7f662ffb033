package domain

import "time"

const (
	dailyContinuityLimit  = 48 * time.Hour
	weeklyContinuityLimit = 14 * 24 * time.Hour
)

// IsContinuous reports whether a completion at now continues a streak whose
// previous qualifying completion happened at last. Calendar fields of last are
// read in now's location.
//
// The weekly and monthly rules are coarse: weekly compares weekday
// ordinals inside a two week span, monthly only checks that the month changed.
func IsContinuous(last *time.Time, now time.Time, cadence Cadence) bool {
	if last == nil {
		return false
	}

	prev := last.In(now.Location())
	elapsed := now.Sub(prev)

	switch cadence {
	case CadenceDaily:
		return SameDay(prev, now.AddDate(0, 0, -1)) && elapsed < dailyContinuityLimit
	case CadenceWeekly:
		return elapsed < weeklyContinuityLimit && prev.Weekday() < now.Weekday()
	case CadenceMonthly:
		return prev.Year() != now.Year() || prev.Month() != now.Month()
	default:
		return false
	}
}

// SameDay reports whether b falls on a's calendar day, read in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the most recent weekStart day on or before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// SamePeriod reports whether a and b fall in the same period of cadence,
// read in b's location. Weeks start on Monday.
func SamePeriod(a, b time.Time, cadence Cadence) bool {
	a = a.In(b.Location())
	switch cadence {
	case CadenceWeekly:
		return StartOfWeek(a, time.Monday).Equal(StartOfWeek(b, time.Monday))
	case CadenceMonthly:
		return a.Year() == b.Year() && a.Month() == b.Month()
	default:
		return SameDay(a, b)
	}
}

// WeeklyWindow is the trailing seven calendar days, today included.
func WeeklyWindow(now time.Time) (time.Time, time.Time) {
	today := StartOfDay(now)
	return today.AddDate(0, 0, -6), today
}

// MonthlyWindow covers the current calendar month up to today.
func MonthlyWindow(now time.Time) (time.Time, time.Time) {
	return StartOfMonth(now), StartOfDay(now)
}

// PreviousPeriodStart is the start of the period before the one containing now.
// Entities of that cadence not completed since then have broken their streak.
func PreviousPeriodStart(now time.Time, cadence Cadence, weekStart time.Weekday) time.Time {
	switch cadence {
	case CadenceWeekly:
		return StartOfWeek(now, weekStart).AddDate(0, 0, -7)
	case CadenceMonthly:
		return StartOfMonth(now).AddDate(0, -1, 0)
	default:
		return StartOfDay(now).AddDate(0, 0, -1)
	}
}
