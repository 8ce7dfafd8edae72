package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

const topMonthCount = 3

// monthSnapshot is the metrics of one month and the number of days they
// cover.
type monthSnapshot struct {
	start   time.Time
	days    int
	metrics model.ReportMetrics
}

// YearInReview summarizes a year from its stored monthly snapshots. Each
// month uses its newest final snapshot, or the newest provisional one when
// the month has no final snapshot. Months without snapshots are left out;
// nothing is generated.
func (s *ReportService) YearInReview(ctx context.Context, userID string, year int) (*model.YearReview, error) {
	if year < 2000 || year > 9999 {
		return nil, apperr.Validation("year", "invalid_year", "year is out of range")
	}
	now := s.now()
	if year > now.In(s.cal.Location()).Year() {
		return nil, apperr.Validation("year", "period_in_future", "the year has not started")
	}
	tomorrow := s.cal.Day(now).AddDate(0, 0, 1)

	var months []monthSnapshot
	for m := time.January; m <= time.December; m++ {
		start, end := s.cal.Month(year, m)
		if start.After(now) {
			break
		}

		report, err := s.reports.Latest(ctx, userID, model.PeriodMonthly, start, false)
		if errors.Is(err, repository.ErrReportNotFound) {
			report, err = s.reports.Latest(ctx, userID, model.PeriodMonthly, start, true)
		}
		if errors.Is(err, repository.ErrReportNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var metrics model.ReportMetrics
		if err := report.Metrics.Unmarshal(&metrics); err != nil {
			slog.Warn("monthly report metrics unreadable", "error", err, "user_id", userID, "report_id", report.ID)
			continue
		}

		if tomorrow.Before(end) {
			end = tomorrow
		}
		months = append(months, monthSnapshot{start: start, days: s.cal.DaysBetween(start, end), metrics: metrics})
	}

	return summarizeYear(year, months), nil
}

// summarizeYear folds chronologically ordered month snapshots.
func summarizeYear(year int, months []monthSnapshot) *model.YearReview {
	r := &model.YearReview{
		Year:          year,
		MonthsCovered: len(months),
		TopMonths:     []model.MonthHighlight{},
		GrowthAreas:   []model.GrowthArea{},
	}
	if len(months) == 0 {
		return r
	}

	t := &r.Totals
	days, scoreSum := 0, 0
	for _, mo := range months {
		m := mo.metrics
		t.TotalMatches += m.TotalMatches
		t.QualityMatches += m.QualityMatches
		t.TotalConversations += m.TotalConversations
		t.MeaningfulConversations += m.MeaningfulConversations
		t.TotalDates += m.TotalDates
		t.SecondDates += m.SecondDates
		t.DaysActive += m.DaysActive
		t.TasksCompleted += m.TasksCompleted
		t.GoalsAchieved += m.GoalsAchieved
		t.BadgesEarned += m.BadgesEarned
		t.PointsEarned += m.PointsEarned
		t.LongestStreak = max(t.LongestStreak, m.LongestStreak)
		days += mo.days
		scoreSum += m.Progress.OverallScore

		r.TopMonths = append(r.TopMonths, model.MonthHighlight{
			Month:     mo.start.Format("2006-01"),
			Score:     m.Progress.OverallScore,
			Highlight: monthHighlight(m),
		})
	}
	t.ConsistencyScore = model.Percent(t.DaysActive, days)
	t.AverageScore = int(math.Round(float64(scoreSum) / float64(len(months))))

	r.StartProfileScore = months[0].metrics.Progress.ProfileScore
	r.EndProfileScore = months[len(months)-1].metrics.Progress.ProfileScore
	r.ProfileImprovement = r.EndProfileScore - r.StartProfileScore

	// Stable, so equal scores keep the earlier month first.
	sort.SliceStable(r.TopMonths, func(i, j int) bool {
		return r.TopMonths[i].Score > r.TopMonths[j].Score
	})
	if len(r.TopMonths) > topMonthCount {
		r.TopMonths = r.TopMonths[:topMonthCount]
	}

	r.GrowthAreas = []model.GrowthArea{
		{
			Area:  "dateConversion",
			Value: model.Percent(t.SecondDates, t.TotalDates),
			Trend: fmt.Sprintf("%d of %d dates led to a second date", t.SecondDates, t.TotalDates),
		},
		{
			Area:  "consistency",
			Value: t.ConsistencyScore,
			Trend: fmt.Sprintf("%d active days in %d", t.DaysActive, year),
		},
		{
			Area:  "profileScore",
			Value: r.ProfileImprovement,
			Trend: fmt.Sprintf("from %d to %d", r.StartProfileScore, r.EndProfileScore),
		},
	}
	return r
}

func monthHighlight(m model.ReportMetrics) string {
	switch {
	case m.TotalMatches > 20:
		return fmt.Sprintf("most matches (%d)", m.TotalMatches)
	case m.ConsistencyScore > 80:
		return fmt.Sprintf("high consistency (%d%%)", m.ConsistencyScore)
	case m.LongestStreak > 20:
		return fmt.Sprintf("long streak (%d days)", m.LongestStreak)
	}
	return fmt.Sprintf("%d dates", m.TotalDates)
}
