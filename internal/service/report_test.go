package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

type failingInsights struct{}

func (failingInsights) Generate(context.Context, model.ReportMetrics) (model.Insights, error) {
	return model.Insights{}, errors.New("insight backend timeout")
}

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *memoryArchive) Save(_ context.Context, path, _ string, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[path] = raw
	return nil
}

func (a *memoryArchive) PresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://archive.test/" + path, nil
}

var june = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// seedJune records a small month of activity for u1.
func seedJune(t *testing.T, e *testEngine) {
	t.Helper()
	e.record(t, "u1", model.ActivityMatch, map[string]int{"quality": 5}, day(2025, 6, 2))
	e.record(t, "u1", model.ActivityMatch, map[string]int{"quality": 1}, day(2025, 6, 3))
	e.record(t, "u1", model.ActivityConversation, map[string]bool{"meaningful": true}, day(2025, 6, 3))
	e.record(t, "u1", model.ActivityDate, map[string]any{"rating": 9, "secondDate": true}, day(2025, 6, 20))
}

func reportMetrics(t *testing.T, r *model.PeriodReport) model.ReportMetrics {
	t.Helper()
	var m model.ReportMetrics
	require.NoError(t, r.Metrics.Unmarshal(&m))
	return m
}

func TestGeneratePeriodReport_ClosedMonth(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()
	seedJune(t, e)

	report, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, day(2025, 6, 17), false)
	require.NoError(t, err)

	assert.Equal(t, june, report.PeriodStart)
	assert.Equal(t, june.AddDate(0, 1, 0), report.PeriodEnd)
	assert.False(t, report.Provisional)
	assert.Equal(t, "null", report.Comparison.String())

	m := reportMetrics(t, report)
	assert.Equal(t, 2, m.TotalMatches)
	assert.Equal(t, 1, m.QualityMatches)
	assert.Equal(t, 1, m.TotalConversations)
	assert.Equal(t, 1, m.MeaningfulConversations)
	assert.Equal(t, 1, m.TotalDates)
	assert.Equal(t, 1, m.SecondDates)
	assert.Equal(t, 3, m.DaysActive)
	assert.Equal(t, 2, m.LongestStreak)
	assert.Equal(t, 10, m.ConsistencyScore)
	assert.Equal(t, 0, m.BadgesEarned)

	var insights model.Insights
	require.NoError(t, report.Insights.Unmarshal(&insights))
	assert.Equal(t, model.InsightsAvailable, insights.Status)
	assert.NotEmpty(t, insights.Headline)
}

func TestGeneratePeriodReport_SnapshotsAreImmutable(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()
	seedJune(t, e)

	first, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, june, false)
	require.NoError(t, err)

	// A late event for June changes the next snapshot only.
	e.record(t, "u1", model.ActivityMatch, nil, day(2025, 6, 28))

	second, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, june, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 3, reportMetrics(t, second).TotalMatches)

	stored, err := e.reports.ByID(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.JSONEq(t, first.Metrics.String(), stored.Metrics.String())
	assert.Equal(t, 2, reportMetrics(t, stored).TotalMatches)

	history, err := e.reports.History(ctx, "u1", model.PeriodMonthly, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	latest, err := e.reports.Latest(ctx, "u1", model.PeriodMonthly, day(2025, 6, 5))
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestGeneratePeriodReport_ComparesWithPreviousFinal(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()
	seedJune(t, e)

	prev, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, june, false)
	require.NoError(t, err)

	for _, d := range []int{1, 2, 3} {
		e.record(t, "u1", model.ActivityMatch, nil, day(2025, 7, d))
	}

	report, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, day(2025, 7, 1), true)
	require.NoError(t, err)
	assert.True(t, report.Provisional)

	var c model.Comparison
	require.NoError(t, report.Comparison.Unmarshal(&c))
	assert.Equal(t, prev.ID, c.PreviousReportID)
	require.NotNil(t, c.Deltas["totalMatches"])
	assert.InDelta(t, 50.0, *c.Deltas["totalMatches"], 0.001)
	require.NotNil(t, c.Deltas["totalDates"])
	assert.InDelta(t, -100.0, *c.Deltas["totalDates"], 0.001)
	assert.Nil(t, c.Deltas["tasksCompleted"])
	assert.Contains(t, c.Deltas, "tasksCompleted")

	// A provisional July is not a baseline for August.
	e.setNow(day(2025, 8, 10))
	august, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, day(2025, 8, 1), true)
	require.NoError(t, err)
	assert.Equal(t, "null", august.Comparison.String())

	_, err = e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, day(2025, 9, 1), false)
	assert.ErrorIs(t, err, ErrPeriodInFuture)
}

func TestGeneratePeriodReport_PeriodChecks(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()

	_, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, day(2025, 7, 1), false)
	assert.ErrorIs(t, err, ErrPeriodInProgress)

	_, err = e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodYearly, day(2025, 1, 1), false)
	assert.ErrorIs(t, err, ErrPeriodInProgress)

	_, err = e.reports.GeneratePeriodReport(ctx, "u1", "daily", day(2025, 7, 1), false)
	require.Error(t, err)

	weekly, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodWeekly, day(2025, 7, 9), false)
	require.NoError(t, err)
	assert.True(t, weekly.Provisional)
	assert.Equal(t, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), weekly.PeriodStart)

	closed, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodWeekly, day(2025, 6, 30), true)
	require.NoError(t, err)
	assert.False(t, closed.Provisional)
}

func TestGeneratePeriodReport_InsightsFallback(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	e.reports.insights = failingInsights{}
	seedJune(t, e)

	report, err := e.reports.GeneratePeriodReport(context.Background(), "u1", model.PeriodMonthly, june, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"unavailable"}`, report.Insights.String())
}

func TestGeneratePeriodReport_Archive(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()
	archive := &memoryArchive{}
	seedJune(t, e)

	_, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, june, false)
	require.NoError(t, err)

	e.reports.SetArchive(archive)
	report, err := e.reports.GeneratePeriodReport(ctx, "u1", model.PeriodMonthly, june, false)
	require.NoError(t, err)

	key := "reports/u1/monthly/2025-06-01/" + report.ID + ".json"
	assert.Contains(t, archive.objects, key)
	assert.Len(t, archive.objects, 1)

	url, err := e.reports.ArchiveURL(ctx, "u1", report.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.test/"+key, url)

	_, err = e.reports.ArchiveURL(ctx, "u2", report.ID)
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestFetchOrGenerateMonthly(t *testing.T) {
	now := day(2025, 7, 10)
	e := newTestEngine(t, now)
	ctx := context.Background()
	seedJune(t, e)

	closed, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.June)
	require.NoError(t, err)
	assert.False(t, closed.Provisional)

	again, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, closed.ID, again.ID)

	current, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.July)
	require.NoError(t, err)
	assert.True(t, current.Provisional)

	cached, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.July)
	require.NoError(t, err)
	assert.Equal(t, current.ID, cached.ID)

	e.setNow(now.Add(2 * time.Hour))
	refreshed, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.July)
	require.NoError(t, err)
	assert.NotEqual(t, current.ID, refreshed.ID)

	_, err = e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.Month(13))
	require.Error(t, err)
	_, err = e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.September)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	prev := model.ReportMetrics{TotalMatches: 4, TotalDates: 2, Logins: 0}
	cur := model.ReportMetrics{TotalMatches: 5, TotalDates: 1, Logins: 3}

	c := Compare("r1", cur, prev)
	assert.Equal(t, "r1", c.PreviousReportID)
	require.NotNil(t, c.Deltas["totalMatches"])
	assert.InDelta(t, 25.0, *c.Deltas["totalMatches"], 0.001)
	assert.InDelta(t, -50.0, *c.Deltas["totalDates"], 0.001)
	assert.Nil(t, c.Deltas["logins"])
	assert.Len(t, c.Deltas, len(cur.Numeric()))

	third := Compare("r1", model.ReportMetrics{TotalMatches: 1}, model.ReportMetrics{TotalMatches: 3})
	assert.InDelta(t, -66.67, *third.Deltas["totalMatches"], 0.001)
}

func TestRunBatch(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()
	seedJune(t, e)
	e.record(t, "u2", model.ActivityLogin, nil, day(2025, 6, 5))

	result, err := e.reports.RunBatch(ctx, model.PeriodMonthly, june, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Users)
	assert.Equal(t, 2, result.Generated)
	assert.Empty(t, result.Failed)

	for _, user := range []string{"u1", "u2"} {
		_, err := e.reports.Latest(ctx, user, model.PeriodMonthly, june)
		assert.NoError(t, err, user)
	}

	_, err = e.reports.RunBatch(ctx, model.PeriodMonthly, day(2025, 7, 1), nil, 2)
	assert.ErrorIs(t, err, ErrPeriodInProgress)
}

func TestReportJobs(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	seedJune(t, e)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.jobs.Run(ctx) }()

	job, err := e.jobs.Enqueue(context.Background(), "u1", model.PeriodMonthly, day(2025, 6, 15), false)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)
	assert.Equal(t, june, job.PeriodStart)

	require.Eventually(t, func() bool {
		j, err := e.jobs.Job(context.Background(), "u1", job.ID)
		return err == nil && j.Status == model.JobDone
	}, 5*time.Second, 20*time.Millisecond)

	finished, err := e.jobs.Job(context.Background(), "u1", job.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.ReportID)

	report, err := e.reports.ByID(context.Background(), "u1", *finished.ReportID)
	require.NoError(t, err)
	assert.Equal(t, 2, reportMetrics(t, report).TotalMatches)

	_, err = e.jobs.Job(context.Background(), "u2", job.ID)
	assert.ErrorIs(t, err, repository.ErrReportJobNotFound)

	_, err = e.jobs.Enqueue(context.Background(), "u1", model.PeriodMonthly, day(2025, 7, 1), false)
	assert.ErrorIs(t, err, ErrPeriodInProgress)

	cancel()
	require.NoError(t, <-done)
}

func TestReportJobs_ResumesPending(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	seedJune(t, e)

	repo := repository.NewReportJobRepository(e.db)
	now := day(2025, 7, 10)
	require.NoError(t, repo.Create(context.Background(), &model.ReportJob{
		ID:          "job-left-over",
		UserID:      "u1",
		PeriodType:  model.PeriodMonthly,
		PeriodStart: june,
		Status:      model.JobRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.jobs.Run(ctx) }()

	require.Eventually(t, func() bool {
		j, err := e.jobs.Job(context.Background(), "u1", "job-left-over")
		return err == nil && j.Status == model.JobDone
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestReportJobs_SweepPicksUpDroppedJob(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	seedJune(t, e)
	e.jobs.sweepInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.jobs.Run(ctx) }()

	// Stored while the pool is running but never queued, as when the queue
	// is full at enqueue time.
	now := day(2025, 7, 10)
	require.NoError(t, repository.NewReportJobRepository(e.db).Create(context.Background(), &model.ReportJob{
		ID:          "job-dropped",
		UserID:      "u1",
		PeriodType:  model.PeriodMonthly,
		PeriodStart: june,
		Status:      model.JobPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	require.Eventually(t, func() bool {
		j, err := e.jobs.Job(context.Background(), "u1", "job-dropped")
		return err == nil && j.Status == model.JobDone
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestReportJobs_EnqueuedBeforeRunIsGeneratedOnce(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	seedJune(t, e)
	e.jobs.sweepInterval = 10 * time.Millisecond

	job, err := e.jobs.Enqueue(context.Background(), "u1", model.PeriodMonthly, day(2025, 6, 15), false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.jobs.Run(ctx) }()

	require.Eventually(t, func() bool {
		j, err := e.jobs.Job(context.Background(), "u1", job.ID)
		return err == nil && j.Status == model.JobDone
	}, 5*time.Second, 20*time.Millisecond)

	// Let a few more sweeps pass.
	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	history, err := e.reports.History(context.Background(), "u1", model.PeriodMonthly, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReportJobs_ClaimOnce(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	repo := repository.NewReportJobRepository(e.db)
	ctx := context.Background()
	now := day(2025, 7, 10)

	require.NoError(t, repo.Create(ctx, &model.ReportJob{
		ID: "job-1", UserID: "u1", PeriodType: model.PeriodMonthly, PeriodStart: june,
		Status: model.JobPending, CreatedAt: now, UpdatedAt: now,
	}))

	ok, err := repo.Claim(ctx, "job-1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, "job-1", now)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err := repo.Requeue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err = repo.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "job-1", pending[0].ID)
}
