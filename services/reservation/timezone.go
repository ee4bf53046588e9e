package reservation

import (
	"fmt"
	"time"
)

// ToUTCTimestamp converts a calendar date plus a minute-of-day in the given
// zone to epoch seconds. The zone offset is sampled once at the date's UTC
// midnight, so every slot of a day shares one offset; on a DST-transition
// day, slots after the switch land an hour off. Inherited behavior, kept.
func ToUTCTimestamp(year int, month time.Month, day, minuteOfDay int, loc *time.Location) int64 {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	_, offsetSec := midnight.In(loc).Zone()
	// UTC minus local, in minutes.
	offsetMin := -offsetSec / 60
	return midnight.Unix() + int64(minuteOfDay+offsetMin)*60
}

// FormatSlotTime renders a slot range as "HH:MM – HH:MM" in the given zone.
func FormatSlotTime(from, to int64, loc *time.Location) string {
	return fmt.Sprintf("%s – %s",
		time.Unix(from, 0).In(loc).Format("15:04"),
		time.Unix(to, 0).In(loc).Format("15:04"))
}

// FormatDayRange renders a multi-day span as "Jan 2 – Jan 5, 2006" in the
// given zone.
func FormatDayRange(from, to int64, loc *time.Location) string {
	start := time.Unix(from, 0).In(loc)
	// To is exclusive, so the last covered day ends one second earlier.
	end := time.Unix(to-1, 0).In(loc)
	return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
}
