package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/cache"
	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/db/dbtest"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

// testEngine wires every service against a fresh SQLite database with a
// frozen clock.
type testEngine struct {
	db       *sqlx.DB
	cal      *calendar.Calendar
	activity *ActivityService
	streaks  *StreakService
	goals    *GoalService
	tasks    *DailyTaskService
	points   *PointsService
	checkins *CheckinService
	profiles *ProfileService
	scorer   *ScorerService
	badges   *BadgeService
	reports  *ReportService
	jobs     *ReportJobService
}

var testWeights = model.Weights{Profile: 0.3, Conversation: 0.3, Consistency: 0.4}

func newTestEngine(t *testing.T, now time.Time) *testEngine {
	t.Helper()

	conn := dbtest.New(t)
	cal := calendar.New(time.UTC)

	activity := NewActivityService(repository.NewActivityRepository(conn))
	streaks := NewStreakService(activity, cal, cache.NewMemory(), time.Hour)
	goals := NewGoalService(repository.NewGoalRepository(conn), activity)
	points := NewPointsService(repository.NewPointsRepository(conn))
	tasks := NewDailyTaskService(repository.NewDailyTaskRepository(conn), activity, goals, points, nil, cal, DefaultDailyTaskCount)
	checkins := NewCheckinService(repository.NewCheckinRepository(conn), tasks, points)
	profiles := NewProfileService(repository.NewProfileRepository(conn))
	scorer := NewScorerService(activity, profiles, cal, testWeights, DefaultScoreWindowDays)
	badges := NewBadgeService(repository.NewBadgeRepository(conn), activity, streaks, goals, scorer)
	reports := NewReportService(repository.NewReportRepository(conn), activity, goals, tasks, badges, points, scorer, nil, cal, time.Hour)
	jobs := NewReportJobService(repository.NewReportJobRepository(conn), reports, 1)

	activity.AddListener(streaks)
	activity.AddListener(badges)

	e := &testEngine{
		db:       conn,
		cal:      cal,
		activity: activity,
		streaks:  streaks,
		goals:    goals,
		tasks:    tasks,
		points:   points,
		checkins: checkins,
		profiles: profiles,
		scorer:   scorer,
		badges:   badges,
		reports:  reports,
		jobs:     jobs,
	}
	e.setNow(now)
	return e
}

func (e *testEngine) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.activity.now = clock
	e.streaks.now = clock
	e.goals.now = clock
	e.tasks.now = clock
	e.points.now = clock
	e.checkins.now = clock
	e.profiles.now = clock
	e.scorer.now = clock
	e.badges.now = clock
	e.reports.now = clock
	e.jobs.now = clock
}

func (e *testEngine) record(t *testing.T, userID string, typ model.ActivityType, payload any, at time.Time) *model.ActivityEvent {
	t.Helper()

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}

	event, err := e.activity.Record(context.Background(), userID, typ, raw, at)
	require.NoError(t, err)
	return event
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}
