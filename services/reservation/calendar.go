package reservation

import (
	"fmt"
	"time"

	"bookify/models"
)

// CalendarSelection carries the selection flags the grid cells reflect.
// Dates are "2006-01-02" strings; empty means unselected.
type CalendarSelection struct {
	SelectedDate string
	StartDate    string
	EndDate      string
}

// BuildCalendar constructs the month-view grid for the month containing
// month: leading blank padding so the first row starts on Monday, one cell
// per calendar day with its availability flag, trailing blanks completing
// the last week row. The grid is rebuilt from scratch on every change;
// at ~42 cells the O(providers x days) cost is fine.
func BuildCalendar(
	month time.Time,
	providers []models.Provider,
	serviceID string,
	segments []models.DurationSegment,
	loc *time.Location,
	sel CalendarSelection,
	now time.Time,
) []models.CalendarDay {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	todayISO := now.In(loc).Format("2006-01-02")

	var cells []models.CalendarDay

	pad := (int(first.Weekday()) + 6) % 7
	for i := 0; i < pad; i++ {
		cells = append(cells, models.CalendarDay{Key: fmt.Sprintf("b-%d", i), Blank: true})
	}

	for d := 1; d <= last.Day(); d++ {
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc)
		iso := date.Format("2006-01-02")
		cells = append(cells, models.CalendarDay{
			Key:        fmt.Sprintf("d-%d", d),
			Date:       date,
			ISO:        iso,
			Available:  HasAvailableSlots(providers, serviceID, date, segments, loc, now),
			IsSelected: iso == sel.SelectedDate || iso == sel.StartDate || iso == sel.EndDate,
			IsInRange:  sel.StartDate != "" && sel.EndDate != "" && iso >= sel.StartDate && iso <= sel.EndDate,
			IsToday:    iso == todayISO,
		})
	}

	suffix := (7 - len(cells)%7) % 7
	for i := 0; i < suffix; i++ {
		cells = append(cells, models.CalendarDay{Key: fmt.Sprintf("b2-%d", i), Blank: true})
	}

	return cells
}
