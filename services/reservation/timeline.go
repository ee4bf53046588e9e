package reservation

import (
	"sort"

	"bookify/models"
)

// ConcurrencyAt returns the concurrency level in effect at the given
// instant: the Concurrent value of the latest timeline point with
// Timestamp <= at, or 0 when no point precedes it. The timeline must be
// chronological.
func ConcurrencyAt(timeline []models.TimelinePoint, at int64) int {
	idx := sort.Search(len(timeline), func(i int) bool {
		return timeline[i].Timestamp > at
	})
	if idx == 0 {
		return 0
	}
	return timeline[idx-1].Concurrent
}

// IsBlocked reports whether the half-open range [from, to) collides with
// the provider's concurrency cap: either the level already in effect at
// from is at the limit, or some change point inside the range reaches it.
// A booking ending exactly at from never blocks.
func IsBlocked(from, to int64, timeline []models.TimelinePoint, limit int) bool {
	if ConcurrencyAt(timeline, from) >= limit {
		return true
	}
	start := sort.Search(len(timeline), func(i int) bool {
		return timeline[i].Timestamp >= from
	})
	for i := start; i < len(timeline) && timeline[i].Timestamp < to; i++ {
		if timeline[i].Concurrent >= limit {
			return true
		}
	}
	return false
}
