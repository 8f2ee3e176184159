package schedule

import (
	"fmt"
	"time"
)

// CooldownHours is the minimum gap between automated sends for one quote.
// Deliberately conservative to avoid contact fatigue.
const CooldownHours = 48

// Window is an organization's allowed sending interval in local wall-clock
// time, treated as half-open [Start, End).
type Window struct {
	Timezone string
	Start    string // "HH:MM"
	End      string // "HH:MM"
}

func parseMinuteOfDay(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid window bound %q: %w", hhmm, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid window bound %q", hhmm)
	}
	return h*60 + m, nil
}

// IsWithin reports whether now falls inside the window in the organization's
// local time. A malformed timezone or bound fails closed.
func (w Window) IsWithin(now time.Time) (bool, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return false, fmt.Errorf("invalid timezone %q: %w", w.Timezone, err)
	}
	start, err := parseMinuteOfDay(w.Start)
	if err != nil {
		return false, err
	}
	end, err := parseMinuteOfDay(w.End)
	if err != nil {
		return false, err
	}

	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	return minute >= start && minute < end, nil
}

// NextEligible computes the next instant at which sending is allowed: the
// window start on the next business day, or later today if the window has not
// opened yet. Weekends and public holidays are skipped.
func (w Window) NextEligible(now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", w.Timezone, err)
	}
	start, err := parseMinuteOfDay(w.Start)
	if err != nil {
		return time.Time{}, err
	}
	end, err := parseMinuteOfDay(w.End)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()

	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if minute >= start && minute < end && IsBusinessDay(day) {
		return local, nil
	}
	if minute >= start {
		day = day.AddDate(0, 0, 1)
	}
	for !IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day.Add(time.Duration(start) * time.Minute), nil
}

// IsBusinessDay reports whether the given day (midnight, org-local) is a
// weekday that is not a public holiday.
func IsBusinessDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(day)
}

// HasCooldownElapsed reports whether at least minHours have passed since the
// last successful send. A nil lastSentAt means no prior send.
func HasCooldownElapsed(lastSentAt *time.Time, minHours int, now time.Time) bool {
	if lastSentAt == nil {
		return true
	}
	return now.Sub(*lastSentAt) >= time.Duration(minHours)*time.Hour
}

// CooldownRemaining returns the whole hours left before the quote may be
// emailed again, or 0 when eligible.
func CooldownRemaining(lastSentAt *time.Time, now time.Time) int {
	if lastSentAt == nil {
		return 0
	}
	elapsed := now.Sub(*lastSentAt)
	remaining := time.Duration(CooldownHours)*time.Hour - elapsed
	if remaining <= 0 {
		return 0
	}
	hours := int(remaining / time.Hour)
	if remaining%time.Hour != 0 {
		hours++
	}
	return hours
}
