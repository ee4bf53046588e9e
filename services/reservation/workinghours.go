package reservation

import (
	"strings"
	"time"

	"bookify/models"
)

// WorkingHoursForDate resolves a provider's working windows for a calendar
// date. Priority: exact specific-date override, then outcast override
// (month+day, year ignored), then the recurring weekly window for the
// date's weekday. No match means the provider does not work that day.
func WorkingHoursForDate(wt models.WorkingTime, date time.Time, loc *time.Location) []models.WorkingWindow {
	if windows, ok := wt.SpecificDates[date.Format("2006-01-02")]; ok {
		return windows
	}
	if windows, ok := wt.Outcast[date.Format("01-02")]; ok {
		return windows
	}
	localDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return wt.Weekly[strings.ToLower(localDay.Weekday().String())]
}
