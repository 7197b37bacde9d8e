package clinic

import (
	"fmt"
	"time"
)

// DateLayout and TimeLayout are the wire formats used for slot dates and
// times everywhere in the platform ("2025-09-01", "14:30").
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Hours describes when the clinic accepts appointments and how the slot
// grid is cut.
type Hours struct {
	Location     *time.Location
	OpenHour     int  // first bookable hour, e.g. 9
	CloseHour    int  // slots start strictly before this hour, e.g. 18
	SlotMinutes  int  // grid granularity, e.g. 30
	SaturdayOpen bool // saturday mornings only (open until 12h)
	HorizonDays  int  // rolling business-day horizon, e.g. 14
}

// DefaultHours returns the OdontoSorriso schedule: weekdays 9h-18h,
// saturday mornings, 30-minute slots, 14 business days ahead.
func DefaultHours(tz string) (Hours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Hours{}, fmt.Errorf("clinic: load timezone %q: %w", tz, err)
	}
	return Hours{
		Location:     loc,
		OpenHour:     9,
		CloseHour:    18,
		SlotMinutes:  30,
		SaturdayOpen: true,
		HorizonDays:  14,
	}, nil
}

// IsOpenDay reports whether the clinic takes appointments on the given day.
func (h Hours) IsOpenDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return h.SaturdayOpen
	default:
		return true
	}
}

// closeHourFor returns the last bookable hour boundary for a day.
func (h Hours) closeHourFor(day time.Time) int {
	if day.Weekday() == time.Saturday {
		return 12
	}
	return h.CloseHour
}

// Ticks returns every slot start time ("15:04") for the given day, in
// ascending order. Closed days yield nil.
func (h Hours) Ticks(day time.Time) []string {
	if !h.IsOpenDay(day) {
		return nil
	}
	closeHour := h.closeHourFor(day)
	var ticks []string
	for minutes := h.OpenHour * 60; minutes < closeHour*60; minutes += h.SlotMinutes {
		ticks = append(ticks, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
	}
	return ticks
}

// SlotTime composes a concrete timestamp from a date and tick in the
// clinic's timezone.
func (h Hours) SlotTime(date, tick string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+tick, h.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("clinic: parse slot %s %s: %w", date, tick, err)
	}
	return t, nil
}

// Today returns the current calendar day in the clinic's timezone.
func (h Hours) Today(now time.Time) time.Time {
	local := now.In(h.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.Location)
}

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "segunda-feira",
	time.Tuesday:   "terça-feira",
	time.Wednesday: "quarta-feira",
	time.Thursday:  "quinta-feira",
	time.Friday:    "sexta-feira",
	time.Saturday:  "sábado",
}

// FormatDate renders a slot date for patient-facing replies, e.g.
// "terça-feira, 02/09".
func (h Hours) FormatDate(date string) string {
	day, err := time.ParseInLocation(DateLayout, date, h.Location)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %02d/%02d", weekdayNames[day.Weekday()], day.Day(), int(day.Month()))
}
