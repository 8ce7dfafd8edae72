package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/templui/heartline/internal/cache"
	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
)

// StreakService derives EngagementState from the activity log.
type StreakService struct {
	activity *ActivityService
	cal      *calendar.Calendar
	cache    cache.Cache
	ttl      time.Duration
	now      func() time.Time
}

func NewStreakService(activity *ActivityService, cal *calendar.Calendar, c cache.Cache, ttl time.Duration) *StreakService {
	if c == nil {
		c = cache.Nop()
	}
	return &StreakService{
		activity: activity,
		cal:      cal,
		cache:    c,
		ttl:      ttl,
		now:      time.Now,
	}
}

type cachedEngagement struct {
	Day   string                `json:"day"`
	State model.EngagementState `json:"state"`
}

func engagementKey(userID string) string {
	return "engagement:" + userID
}

func (s *StreakService) EngagementState(ctx context.Context, userID string) (*model.EngagementState, error) {
	today := s.cal.Key(s.now())

	var cached cachedEngagement
	ok, err := s.cache.Get(ctx, engagementKey(userID), &cached)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.Warn("engagement cache read failed", "error", err, "user_id", userID)
	case ok && cached.Day == today:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return &cached.State, nil
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	times, err := s.activity.OccurredTimes(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	counts, err := s.activity.Counts(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	state := ComputeEngagement(s.cal, activeDays(s.cal, times), counts.Logins, s.now())

	err = s.cache.Set(ctx, engagementKey(userID), cachedEngagement{Day: today, State: state}, s.ttl)
	if err != nil {
		slog.Warn("engagement cache write failed", "error", err, "user_id", userID)
	}

	return &state, nil
}

// ActiveDates lists the distinct calendar days with activity, oldest first.
func (s *StreakService) ActiveDates(ctx context.Context, userID string) ([]string, error) {
	times, err := s.activity.OccurredTimes(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	days := activeDays(s.cal, times)
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, s.cal.Key(d))
	}
	return keys, nil
}

// ActivityRecorded drops the cached state of userID.
func (s *StreakService) ActivityRecorded(ctx context.Context, userID string, _ model.ActivityType) {
	if err := s.cache.Delete(ctx, engagementKey(userID)); err != nil {
		slog.Warn("engagement cache invalidation failed", "error", err, "user_id", userID)
	}
}

// ComputeEngagement builds the state from distinct active days in ascending
// order. The current streak ends at the most recent active day.
func ComputeEngagement(cal *calendar.Calendar, days []time.Time, logins int, now time.Time) model.EngagementState {
	state := model.EngagementState{
		JourneyDay:  len(days),
		TotalLogins: logins,
	}
	if len(days) == 0 {
		return state
	}

	state.CurrentStreak = currentStreak(cal, days)
	state.LongestStreak = longestStreak(cal, days)

	last := days[len(days)-1]
	state.LastActiveDate = cal.Key(last)
	state.WeeklyActive = cal.DaysBetween(last, now) < 7

	return state
}

// activeDays maps instants to their distinct calendar days, oldest first.
func activeDays(cal *calendar.Calendar, times []time.Time) []time.Time {
	seen := make(map[string]bool, len(times))
	var days []time.Time
	for _, t := range times {
		key := cal.Key(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, cal.Day(t))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func currentStreak(cal *calendar.Calendar, days []time.Time) int {
	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if cal.DaysBetween(days[i-1], days[i]) != 1 {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(cal *calendar.Calendar, days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if cal.DaysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
