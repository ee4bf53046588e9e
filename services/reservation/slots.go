package reservation

import (
	"fmt"
	"sort"
	"time"

	"bookify/models"
)

// TotalDurationMinutes sums all duration segments, pauses included.
func TotalDurationMinutes(segments []models.DurationSegment) int {
	total := 0
	for _, seg := range segments {
		total += seg.Minutes
	}
	return total
}

// ComputeSlotsForDate enumerates the bookable slots a set of providers can
// serve on one calendar date. intervalMinutes overrides the stepping between
// candidate start times; zero means back-to-back slots of the full service
// duration. now filters out candidates that already started; a date strictly
// before today yields nothing regardless of working hours.
//
// The result is ordered by start time ascending, ties broken by provider
// iteration order.
func ComputeSlotsForDate(
	providers []models.Provider,
	serviceID string,
	date time.Time,
	segments []models.DurationSegment,
	loc *time.Location,
	intervalMinutes int,
	now time.Time,
) []models.Slot {
	total := TotalDurationMinutes(segments)
	if total <= 0 {
		return nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return nil
	}

	interval := intervalMinutes
	if interval <= 0 {
		interval = total
	}

	dayStr := day.Format("2006-01-02")
	nowUnix := now.Unix()

	var slots []models.Slot
	for _, p := range providers {
		for _, w := range WorkingHoursForDate(p.WorkingTime, day, loc) {
			for m := w.From; m+total <= w.To; m += interval {
				from := ToUTCTimestamp(day.Year(), day.Month(), day.Day(), m, loc)
				to := from + int64(total)*60
				if from < nowUnix {
					continue
				}
				if IsBlocked(from, to, p.Timeline, p.ConcurrencyLimit) {
					continue
				}
				slots = append(slots, models.Slot{
					ID:         fmt.Sprintf("slot-%d-%s", from, p.ID),
					ServiceID:  serviceID,
					ProviderID: p.ID,
					From:       from,
					To:         to,
					Day:        dayStr,
					TimeText:   FormatSlotTime(from, to, loc),
				})
			}
		}
	}

	// Stable keeps provider iteration order for equal start times.
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].From < slots[j].From
	})
	return slots
}

// HasAvailableSlots reports whether any slot exists for the date.
func HasAvailableSlots(
	providers []models.Provider,
	serviceID string,
	date time.Time,
	segments []models.DurationSegment,
	loc *time.Location,
	now time.Time,
) bool {
	return len(ComputeSlotsForDate(providers, serviceID, date, segments, loc, 0, now)) > 0
}
