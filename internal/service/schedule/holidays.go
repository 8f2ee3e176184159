package schedule

import "time"

// Fixed-date public holidays observed regardless of year.
var fixedHolidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},   // New Year's Day
	{time.May, 1},       // Labour Day
	{time.December, 25}, // Christmas Day
	{time.December, 26}, // Boxing Day
}

func isHoliday(day time.Time) bool {
	for _, h := range fixedHolidays {
		if day.Month() == h.month && day.Day() == h.day {
			return true
		}
	}

	easter := easterSunday(day.Year(), day.Location())
	goodFriday := easter.AddDate(0, 0, -2)
	easterMonday := easter.AddDate(0, 0, 1)
	return sameDay(day, goodFriday) || sameDay(day, easterMonday)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// easterSunday computes Gregorian Easter with the anonymous
// Meeus/Jones/Butcher algorithm. Deterministic, no table needed.
func easterSunday(year int, loc *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}
