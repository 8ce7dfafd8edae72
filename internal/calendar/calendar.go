// Package calendar turns instants into calendar days and period windows.
// All engagement math (streaks, task dates, report periods) goes through a
// single Calendar so that "a day" means the same thing everywhere.
package calendar

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"

	"github.com/templui/heartline/internal/model"
)

// Layout is the wire and storage format of a calendar day.
const Layout = "2006-01-02"

type Calendar struct {
	loc *time.Location
	cfg *now.Config
}

func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{
		loc: loc,
		cfg: &now.Config{WeekStartDay: time.Monday, TimeLocation: loc},
	}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Day returns midnight of the calendar day containing t.
func (c *Calendar) Day(t time.Time) time.Time {
	return c.cfg.With(t.In(c.loc)).BeginningOfDay()
}

// Key formats the calendar day containing t.
func (c *Calendar) Key(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

// Parse reads a YYYY-MM-DD day in the calendar's location.
func (c *Calendar) Parse(s string) (time.Time, error) {
	d, err := time.ParseInLocation(Layout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// DaysBetween counts calendar days from a to b (b - a). DST shifts do not
// change the result.
func (c *Calendar) DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(c.loc).Date()
	by, bm, bd := b.In(c.loc).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// Period returns the half-open window [start, end) of the given period type
// containing t.
func (c *Calendar) Period(pt model.PeriodType, t time.Time) (start, end time.Time) {
	n := c.cfg.With(t.In(c.loc))
	switch pt {
	case model.PeriodWeekly:
		start = n.BeginningOfWeek()
		end = start.AddDate(0, 0, 7)
	case model.PeriodYearly:
		start = n.BeginningOfYear()
		end = start.AddDate(1, 0, 0)
	default:
		start = n.BeginningOfMonth()
		end = start.AddDate(0, 1, 0)
	}
	return start, end
}

// Previous returns the window immediately before the period starting at start.
func (c *Calendar) Previous(pt model.PeriodType, start time.Time) (time.Time, time.Time) {
	return c.Period(pt, start.Add(-time.Nanosecond))
}

// Month returns the window of a calendar month.
func (c *Calendar) Month(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 1, 0)
}
