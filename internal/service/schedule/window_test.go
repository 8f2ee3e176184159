package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestWindowIsWithin(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	w := Window{Timezone: "Europe/Berlin", Start: "09:00", End: "17:00"}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", time.Date(2026, 3, 3, 8, 59, 0, 0, berlin), false},
		{"at open", time.Date(2026, 3, 3, 9, 0, 0, 0, berlin), true},
		{"midday", time.Date(2026, 3, 3, 12, 30, 0, 0, berlin), true},
		{"last eligible minute", time.Date(2026, 3, 3, 16, 59, 0, 0, berlin), true},
		{"at close, half-open", time.Date(2026, 3, 3, 17, 0, 0, 0, berlin), false},
		{"after close", time.Date(2026, 3, 3, 21, 0, 0, 0, berlin), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.IsWithin(tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowIsWithinConvertsTimezone(t *testing.T) {
	w := Window{Timezone: "America/New_York", Start: "09:00", End: "17:00"}

	// 15:00 UTC in March is 10:00 in New York.
	got, err := w.IsWithin(time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, got)

	// 03:00 UTC is 22:00 the previous evening in New York.
	got, err = w.IsWithin(time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestWindowFailsClosed(t *testing.T) {
	_, err := Window{Timezone: "Mars/Olympus", Start: "09:00", End: "17:00"}.IsWithin(time.Now())
	assert.Error(t, err)

	_, err = Window{Timezone: "UTC", Start: "9am", End: "17:00"}.IsWithin(time.Now())
	assert.Error(t, err)

	_, err = Window{Timezone: "UTC", Start: "25:00", End: "17:00"}.IsWithin(time.Now())
	assert.Error(t, err)
}

func TestNextEligible(t *testing.T) {
	utc := time.UTC
	w := Window{Timezone: "UTC", Start: "09:00", End: "17:00"}

	t.Run("already eligible returns now", func(t *testing.T) {
		now := time.Date(2026, 3, 3, 10, 0, 0, 0, utc) // Tuesday
		next, err := w.NextEligible(now)
		require.NoError(t, err)
		assert.Equal(t, now, next)
	})

	t.Run("before open rolls to today's open", func(t *testing.T) {
		now := time.Date(2026, 3, 3, 7, 30, 0, 0, utc)
		next, err := w.NextEligible(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, utc), next)
	})

	t.Run("after close rolls to next day", func(t *testing.T) {
		now := time.Date(2026, 3, 3, 18, 0, 0, 0, utc)
		next, err := w.NextEligible(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, utc), next)
	})

	t.Run("friday evening rolls over the weekend", func(t *testing.T) {
		now := time.Date(2026, 3, 6, 18, 0, 0, 0, utc) // Friday
		next, err := w.NextEligible(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, utc), next) // Monday
	})

	t.Run("saturday rolls to monday", func(t *testing.T) {
		now := time.Date(2026, 3, 7, 10, 0, 0, 0, utc)
		next, err := w.NextEligible(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, utc), next)
	})

	t.Run("christmas rolls past boxing day", func(t *testing.T) {
		// 25 Dec 2026 is a Friday, 26 Dec a Saturday.
		now := time.Date(2026, 12, 25, 10, 0, 0, 0, utc)
		next, err := w.NextEligible(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 12, 28, 9, 0, 0, 0, utc), next) // Monday
	})
}

func TestIsBusinessDay(t *testing.T) {
	utc := time.UTC
	assert.True(t, IsBusinessDay(time.Date(2026, 3, 3, 0, 0, 0, 0, utc)))   // Tuesday
	assert.False(t, IsBusinessDay(time.Date(2026, 3, 7, 0, 0, 0, 0, utc)))  // Saturday
	assert.False(t, IsBusinessDay(time.Date(2026, 3, 8, 0, 0, 0, 0, utc)))  // Sunday
	assert.False(t, IsBusinessDay(time.Date(2026, 1, 1, 0, 0, 0, 0, utc)))  // New Year's Day
	assert.False(t, IsBusinessDay(time.Date(2026, 5, 1, 0, 0, 0, 0, utc)))  // Labour Day
	assert.False(t, IsBusinessDay(time.Date(2026, 12, 25, 0, 0, 0, 0, utc)))
}

func TestEasterHolidays(t *testing.T) {
	utc := time.UTC
	// Easter Sunday 2026 is April 5th.
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, utc), easterSunday(2026, utc))
	assert.False(t, IsBusinessDay(time.Date(2026, 4, 3, 0, 0, 0, 0, utc))) // Good Friday
	assert.False(t, IsBusinessDay(time.Date(2026, 4, 6, 0, 0, 0, 0, utc))) // Easter Monday
	assert.True(t, IsBusinessDay(time.Date(2026, 4, 7, 0, 0, 0, 0, utc)))  // Tuesday after

	// Easter Sunday 2025 was April 20th.
	assert.Equal(t, time.Date(2025, 4, 20, 0, 0, 0, 0, utc), easterSunday(2025, utc))
}

func TestHasCooldownElapsed(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	assert.True(t, HasCooldownElapsed(nil, CooldownHours, now))

	recent := now.Add(-47 * time.Hour)
	assert.False(t, HasCooldownElapsed(&recent, CooldownHours, now))

	exact := now.Add(-48 * time.Hour)
	assert.True(t, HasCooldownElapsed(&exact, CooldownHours, now))

	old := now.Add(-72 * time.Hour)
	assert.True(t, HasCooldownElapsed(&old, CooldownHours, now))
}

func TestCooldownRemaining(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, CooldownRemaining(nil, now))

	halfway := now.Add(-24 * time.Hour)
	assert.Equal(t, 24, CooldownRemaining(&halfway, now))

	almost := now.Add(-47*time.Hour - 30*time.Minute)
	assert.Equal(t, 1, CooldownRemaining(&almost, now)) // partial hours round up

	done := now.Add(-49 * time.Hour)
	assert.Equal(t, 0, CooldownRemaining(&done, now))
}
