package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/storage"
)

var (
	ErrPeriodInProgress = apperr.Validation("periodStart", "period_in_progress", "the period has not ended; request a provisional report")
	ErrPeriodInFuture   = apperr.Validation("periodStart", "period_in_future", "the period has not started")
	ErrArchiveDisabled  = apperr.NotFound("archive_unavailable", "report archive is not configured")
)

// DefaultProvisionalTTL bounds how long a provisional monthly report is
// served before a fresh one is generated.
const DefaultProvisionalTTL = time.Hour

var nullJSON = types.JSONText("null")

// ReportService aggregates period snapshots. Snapshots are immutable; every
// generation inserts a new one.
type ReportService struct {
	reports        repository.ReportRepository
	activity       *ActivityService
	goals          *GoalService
	tasks          *DailyTaskService
	badges         *BadgeService
	points         *PointsService
	scorer         *ScorerService
	insights       InsightGenerator
	archive        storage.Storage
	cal            *calendar.Calendar
	provisionalTTL time.Duration
	now            func() time.Time
}

func NewReportService(
	reports repository.ReportRepository,
	activity *ActivityService,
	goals *GoalService,
	tasks *DailyTaskService,
	badges *BadgeService,
	points *PointsService,
	scorer *ScorerService,
	insights InsightGenerator,
	cal *calendar.Calendar,
	provisionalTTL time.Duration,
) *ReportService {
	if insights == nil {
		insights = RuleInsights{}
	}
	if provisionalTTL <= 0 {
		provisionalTTL = DefaultProvisionalTTL
	}
	return &ReportService{
		reports:        reports,
		activity:       activity,
		goals:          goals,
		tasks:          tasks,
		badges:         badges,
		points:         points,
		scorer:         scorer,
		insights:       insights,
		cal:            cal,
		provisionalTTL: provisionalTTL,
		now:            time.Now,
	}
}

// SetArchive enables copying every snapshot to object storage.
func (s *ReportService) SetArchive(st storage.Storage) {
	s.archive = st
}

// normalize resolves the period containing periodStart and decides whether
// the report is provisional. Weekly reports of the running week become
// provisional; monthly and yearly ones must be requested as such.
func (s *ReportService) normalize(pt model.PeriodType, periodStart time.Time, provisional bool) (time.Time, time.Time, bool, error) {
	if !pt.Valid() {
		return time.Time{}, time.Time{}, false, apperr.Validation("periodType", "invalid_period_type", "must be weekly, monthly or yearly")
	}
	if periodStart.IsZero() {
		return time.Time{}, time.Time{}, false, apperr.Validation("periodStart", "required", "periodStart is required")
	}

	start, end := s.cal.Period(pt, periodStart)
	now := s.now()

	if start.After(now) {
		return start, end, false, ErrPeriodInFuture
	}
	if !now.Before(end) {
		return start, end, false, nil
	}
	if !provisional && pt != model.PeriodWeekly {
		return start, end, false, ErrPeriodInProgress
	}
	return start, end, true, nil
}

// GeneratePeriodReport computes and stores a new snapshot for the period
// containing periodStart.
func (s *ReportService) GeneratePeriodReport(ctx context.Context, userID string, pt model.PeriodType, periodStart time.Time, provisional bool) (*model.PeriodReport, error) {
	start, end, provisional, err := s.normalize(pt, periodStart, provisional)
	if err != nil {
		return nil, err
	}

	began := time.Now()

	m, err := s.collect(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("collect %s metrics: %w", pt, err)
	}

	comparison, err := s.comparison(ctx, userID, pt, start, m)
	if err != nil {
		return nil, err
	}

	metricsJSON, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate report id: %w", err)
	}

	report := &model.PeriodReport{
		ID:          id.String(),
		UserID:      userID,
		PeriodType:  pt,
		PeriodStart: start.UTC(),
		PeriodEnd:   end.UTC(),
		Provisional: provisional,
		Metrics:     types.JSONText(metricsJSON),
		Insights:    s.generateInsights(ctx, userID, m),
		Comparison:  comparison,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.reports.Create(ctx, report); err != nil {
		slog.Error("failed to store report", "error", err, "user_id", userID, "period_type", pt)
		return nil, err
	}

	metrics.ReportsGenerated.WithLabelValues(string(pt), strconv.FormatBool(provisional)).Inc()
	metrics.ReportDuration.WithLabelValues(string(pt)).Observe(time.Since(began).Seconds())
	slog.Info("report generated", "user_id", userID, "report_id", report.ID, "period_type", pt,
		"period_start", s.cal.Key(start), "provisional", provisional)

	s.archiveReport(ctx, report)

	return report, nil
}

// collect aggregates [start, end). Activity math stops at the end of today
// for running periods.
func (s *ReportService) collect(ctx context.Context, userID string, start, end time.Time) (model.ReportMetrics, error) {
	var m model.ReportMetrics

	scoreEnd := end
	if tomorrow := s.cal.Day(s.now()).AddDate(0, 0, 1); tomorrow.Before(end) {
		scoreEnd = tomorrow
	}

	counts, err := s.activity.Counts(ctx, userID, start, end)
	if err != nil {
		return m, err
	}
	m.TotalMatches = counts.Matches
	m.QualityMatches = counts.QualityMatches
	m.TotalConversations = counts.Conversations
	m.MeaningfulConversations = counts.MeaningfulConversations
	m.TotalDates = counts.Dates
	m.SecondDates = counts.SecondDates
	m.Logins = counts.Logins

	times, err := s.activity.OccurredTimes(ctx, userID, start, end)
	if err != nil {
		return m, err
	}
	days := activeDays(s.cal, times)
	m.DaysActive = len(days)
	m.LongestStreak = longestStreak(s.cal, days)
	m.ConsistencyScore = model.Percent(m.DaysActive, s.cal.DaysBetween(start, scoreEnd))

	if m.TasksCompleted, m.TotalTasks, err = s.tasks.PeriodStats(ctx, userID, start, end); err != nil {
		return m, err
	}
	if m.GoalsAchieved, m.TotalGoals, err = s.goals.PeriodStats(ctx, userID, start, end); err != nil {
		return m, err
	}
	if m.BadgesEarned, m.PointsEarned, err = s.badges.EarnedBetween(ctx, userID, start, end); err != nil {
		return m, err
	}
	if s.points != nil {
		actionPoints, err := s.points.EarnedBetween(ctx, userID, start, end)
		if err != nil {
			return m, err
		}
		m.PointsEarned += actionPoints
	}

	m.Progress = s.scorer.MetricsForWindow(ctx, userID, start, scoreEnd)
	return m, nil
}

// comparison diffs m against the newest final report of the preceding
// period. No such report yields JSON null.
func (s *ReportService) comparison(ctx context.Context, userID string, pt model.PeriodType, start time.Time, m model.ReportMetrics) (types.JSONText, error) {
	prevStart, _ := s.cal.Previous(pt, start)

	prev, err := s.reports.Latest(ctx, userID, pt, prevStart, false)
	if errors.Is(err, repository.ErrReportNotFound) {
		return nullJSON, nil
	}
	if err != nil {
		return nil, err
	}

	var prevMetrics model.ReportMetrics
	if err := prev.Metrics.Unmarshal(&prevMetrics); err != nil {
		slog.Warn("previous report metrics unreadable", "error", err, "user_id", userID, "report_id", prev.ID)
		return nullJSON, nil
	}

	raw, err := json.Marshal(Compare(prev.ID, m, prevMetrics))
	if err != nil {
		return nil, fmt.Errorf("encode comparison: %w", err)
	}
	return types.JSONText(raw), nil
}

// Compare computes signed percentage deltas, rounded to two decimals. A
// metric that was zero before has a nil delta.
func Compare(prevID string, cur, prev model.ReportMetrics) *model.Comparison {
	c := &model.Comparison{
		PreviousReportID: prevID,
		Deltas:           make(map[string]*float64),
	}
	before := prev.Numeric()
	for name, v := range cur.Numeric() {
		p := before[name]
		if p == 0 {
			c.Deltas[name] = nil
			continue
		}
		d := math.Round(float64(v-p)/float64(p)*100*100) / 100
		c.Deltas[name] = &d
	}
	return c
}

func (s *ReportService) generateInsights(ctx context.Context, userID string, m model.ReportMetrics) types.JSONText {
	unavailable := types.JSONText(`{"status":"unavailable"}`)

	in, err := s.insights.Generate(ctx, m)
	if err != nil {
		slog.Warn("insight generation failed", "error", err, "user_id", userID)
		return unavailable
	}
	if in.Status == "" {
		in.Status = model.InsightsAvailable
	}

	raw, err := json.Marshal(in)
	if err != nil {
		slog.Warn("insight encoding failed", "error", err, "user_id", userID)
		return unavailable
	}
	return types.JSONText(raw)
}

func (s *ReportService) archiveReport(ctx context.Context, report *model.PeriodReport) {
	if s.archive == nil {
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		slog.Error("failed to encode report for archive", "error", err, "report_id", report.ID)
		return
	}

	key := storage.ReportKey(report.UserID, string(report.PeriodType), report.PeriodStart, report.ID)
	if err := s.archive.Save(ctx, key, "application/json", bytes.NewReader(raw)); err != nil {
		slog.Error("failed to archive report", "error", err, "user_id", report.UserID, "report_id", report.ID)
	}
}

// ArchiveURL returns a temporary download link for an archived snapshot.
func (s *ReportService) ArchiveURL(ctx context.Context, userID, reportID string) (string, error) {
	report, err := s.reports.ByID(ctx, userID, reportID)
	if err != nil {
		return "", err
	}
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}

	key := storage.ReportKey(report.UserID, string(report.PeriodType), report.PeriodStart, report.ID)
	return s.archive.PresignedURL(ctx, key, 15*time.Minute)
}

func (s *ReportService) ByID(ctx context.Context, userID, reportID string) (*model.PeriodReport, error) {
	return s.reports.ByID(ctx, userID, reportID)
}

// Latest returns the newest snapshot, provisional or not, of the period
// containing periodStart.
func (s *ReportService) Latest(ctx context.Context, userID string, pt model.PeriodType, periodStart time.Time) (*model.PeriodReport, error) {
	if !pt.Valid() {
		return nil, apperr.Validation("periodType", "invalid_period_type", "must be weekly, monthly or yearly")
	}
	start, _ := s.cal.Period(pt, periodStart)
	return s.reports.Latest(ctx, userID, pt, start, true)
}

func (s *ReportService) History(ctx context.Context, userID string, pt model.PeriodType, limit int) ([]*model.PeriodReport, error) {
	if pt != "" && !pt.Valid() {
		return nil, apperr.Validation("periodType", "invalid_period_type", "must be weekly, monthly or yearly")
	}
	reports, err := s.reports.History(ctx, userID, pt, limit)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []*model.PeriodReport{}
	}
	return reports, nil
}

// FetchOrGenerateMonthly serves the monthly report endpoint. Closed months
// return the newest final snapshot, generating one when none exists. The
// running month returns a provisional snapshot younger than the TTL,
// generating a fresh one otherwise.
func (s *ReportService) FetchOrGenerateMonthly(ctx context.Context, userID string, year int, month time.Month) (*model.PeriodReport, error) {
	if month < time.January || month > time.December {
		return nil, apperr.Validation("month", "invalid_month", "month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, apperr.Validation("year", "invalid_year", "year is out of range")
	}

	start, end := s.cal.Month(year, month)
	now := s.now()

	if start.After(now) {
		return nil, apperr.Validation("month", "period_in_future", "the month has not started")
	}

	if now.Before(end) {
		latest, err := s.reports.Latest(ctx, userID, model.PeriodMonthly, start, true)
		if err != nil && !errors.Is(err, repository.ErrReportNotFound) {
			return nil, err
		}
		if latest != nil && latest.Provisional && now.Sub(latest.CreatedAt) <= s.provisionalTTL {
			return latest, nil
		}
		return s.GeneratePeriodReport(ctx, userID, model.PeriodMonthly, start, true)
	}

	latest, err := s.reports.Latest(ctx, userID, model.PeriodMonthly, start, false)
	if err == nil {
		return latest, nil
	}
	if !errors.Is(err, repository.ErrReportNotFound) {
		return nil, err
	}
	return s.GeneratePeriodReport(ctx, userID, model.PeriodMonthly, start, false)
}
