package domain

import "time"

type RankingEntry struct {
	EntityID    string     `json:"entity_id"`
	DisplayName string     `json:"display_name"`
	Count       int        `json:"count"`
	Kind        EntityKind `json:"kind"`
}

type rankKey struct {
	kind EntityKind
	id   string
}

// RankWindow replays the history of every calendar day in [from, to] and
// returns the most and least completed entities. Days are visited in
// chronological order, each day's habits, then tasks, then routines; on equal
// counts the entity met first wins. ok is false when nothing was completed in
// the window, in which case callers keep their previous ranking.
func RankWindow(h History, from, to time.Time) (most, least *RankingEntry, ok bool) {
	var order []rankKey
	totals := make(map[rankKey]*RankingEntry)

	add := func(kind EntityKind, id, name string, n int) {
		key := rankKey{kind: kind, id: id}
		entry, seen := totals[key]
		if !seen {
			entry = &RankingEntry{EntityID: id, DisplayName: name, Kind: kind}
			totals[key] = entry
			order = append(order, key)
		}
		entry.Count += n
	}

	last := StartOfDay(to)
	for day := StartOfDay(from); !day.After(last); day = day.AddDate(0, 0, 1) {
		bucket := h.Bucket(day)
		if bucket == nil {
			continue
		}
		for _, c := range bucket.Habits {
			add(KindHabit, c.EntityID, c.DisplayName, c.CompletedCount)
		}
		for _, c := range bucket.Tasks {
			n := 0
			if c.Completed {
				n = 1
			}
			add(KindTask, c.EntityID, c.DisplayName, n)
		}
		for _, c := range bucket.Routines {
			add(KindRoutine, c.EntityID, c.DisplayName, c.CompletedCount)
		}
	}

	if len(order) == 0 {
		return nil, nil, false
	}

	for _, key := range order {
		entry := totals[key]
		if most == nil || entry.Count > most.Count {
			most = entry
		}
		if least == nil || entry.Count < least.Count {
			least = entry
		}
	}

	mostCopy, leastCopy := *most, *least
	return &mostCopy, &leastCopy, true
}
