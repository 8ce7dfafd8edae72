package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/model"
)

func TestDayAndKey(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	cal := New(ams)

	// 23:30 UTC on June 30 is already July 1 in Amsterdam.
	instant := time.Date(2025, 6, 30, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-07-01", cal.Key(instant))
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, ams), cal.Day(instant))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	cal := New(ams)

	a := time.Date(2025, 3, 29, 12, 0, 0, 0, ams)
	b := time.Date(2025, 3, 31, 1, 0, 0, 0, ams)

	assert.Equal(t, 2, cal.DaysBetween(a, b))
	assert.Equal(t, -2, cal.DaysBetween(b, a))
	assert.Equal(t, 0, cal.DaysBetween(a, a.Add(3*time.Hour)))
}

func TestPeriod(t *testing.T) {
	cal := New(time.UTC)
	at := time.Date(2025, 7, 16, 15, 4, 5, 0, time.UTC) // a Wednesday

	tests := []struct {
		pt    model.PeriodType
		start time.Time
		end   time.Time
	}{
		{model.PeriodWeekly, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 21, 0, 0, 0, 0, time.UTC)},
		{model.PeriodMonthly, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
		{model.PeriodYearly, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.pt), func(t *testing.T) {
			start, end := cal.Period(tt.pt, at)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestPrevious(t *testing.T) {
	cal := New(time.UTC)

	start, end := cal.Previous(model.PeriodMonthly, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)

	start, _ = cal.Previous(model.PeriodWeekly, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), start)
}

func TestParse(t *testing.T) {
	cal := New(time.UTC)

	d, err := cal.Parse("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), d)

	_, err = cal.Parse("28-02-2025")
	assert.Error(t, err)
}
