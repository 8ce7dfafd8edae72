package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

func snapshot(month time.Month, days int, m model.ReportMetrics) monthSnapshot {
	return monthSnapshot{start: time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC), days: days, metrics: m}
}

func TestSummarizeYear(t *testing.T) {
	months := []monthSnapshot{
		snapshot(time.January, 31, model.ReportMetrics{
			TotalMatches: 25, TotalDates: 2, SecondDates: 1, DaysActive: 10, LongestStreak: 5, PointsEarned: 30,
			Progress: model.ProgressMetrics{ProfileScore: 20, OverallScore: 40},
		}),
		snapshot(time.February, 28, model.ReportMetrics{
			TotalMatches: 3, DaysActive: 26, ConsistencyScore: 93, TasksCompleted: 4,
			Progress: model.ProgressMetrics{ProfileScore: 30, OverallScore: 70},
		}),
		snapshot(time.March, 31, model.ReportMetrics{
			DaysActive: 15, ConsistencyScore: 48, LongestStreak: 25,
			Progress: model.ProgressMetrics{ProfileScore: 35, OverallScore: 70},
		}),
		snapshot(time.April, 30, model.ReportMetrics{
			TotalDates: 3, SecondDates: 1, DaysActive: 5, BadgesEarned: 2,
			Progress: model.ProgressMetrics{ProfileScore: 50, OverallScore: 10},
		}),
	}

	r := summarizeYear(2025, months)

	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, 4, r.MonthsCovered)
	assert.Equal(t, 28, r.Totals.TotalMatches)
	assert.Equal(t, 5, r.Totals.TotalDates)
	assert.Equal(t, 56, r.Totals.DaysActive)
	assert.Equal(t, 47, r.Totals.ConsistencyScore)
	assert.Equal(t, 25, r.Totals.LongestStreak)
	assert.Equal(t, 4, r.Totals.TasksCompleted)
	assert.Equal(t, 2, r.Totals.BadgesEarned)
	assert.Equal(t, 30, r.Totals.PointsEarned)
	assert.Equal(t, 48, r.Totals.AverageScore)

	assert.Equal(t, 20, r.StartProfileScore)
	assert.Equal(t, 50, r.EndProfileScore)
	assert.Equal(t, 30, r.ProfileImprovement)

	assert.Equal(t, []model.MonthHighlight{
		{Month: "2025-02", Score: 70, Highlight: "high consistency (93%)"},
		{Month: "2025-03", Score: 70, Highlight: "long streak (25 days)"},
		{Month: "2025-01", Score: 40, Highlight: "most matches (25)"},
	}, r.TopMonths)

	require.Len(t, r.GrowthAreas, 3)
	assert.Equal(t, "dateConversion", r.GrowthAreas[0].Area)
	assert.Equal(t, 40, r.GrowthAreas[0].Value)
	assert.Equal(t, "consistency", r.GrowthAreas[1].Area)
	assert.Equal(t, 47, r.GrowthAreas[1].Value)
	assert.Equal(t, "profileScore", r.GrowthAreas[2].Area)
	assert.Equal(t, 30, r.GrowthAreas[2].Value)
}

func TestSummarizeYear_Empty(t *testing.T) {
	r := summarizeYear(2024, nil)
	assert.Zero(t, r.MonthsCovered)
	assert.Zero(t, r.Totals)
	assert.NotNil(t, r.TopMonths)
	assert.Empty(t, r.TopMonths)
	assert.NotNil(t, r.GrowthAreas)
	assert.Empty(t, r.GrowthAreas)
}

func TestYearInReview(t *testing.T) {
	e := newTestEngine(t, day(2025, 7, 10))
	ctx := context.Background()
	seedJune(t, e)

	_, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.June)
	require.NoError(t, err)

	review, err := e.reports.YearInReview(ctx, "u1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, review.MonthsCovered)
	assert.Equal(t, 2, review.Totals.TotalMatches)
	assert.Equal(t, 1, review.Totals.TotalDates)
	assert.Equal(t, 1, review.Totals.SecondDates)
	assert.Equal(t, 3, review.Totals.DaysActive)
	assert.Equal(t, 10, review.Totals.ConsistencyScore)
	require.Len(t, review.TopMonths, 1)
	assert.Equal(t, "2025-06", review.TopMonths[0].Month)
	assert.Equal(t, "1 dates", review.TopMonths[0].Highlight)

	// The running month counts through its provisional snapshot, up to today.
	july, err := e.reports.FetchOrGenerateMonthly(ctx, "u1", 2025, time.July)
	require.NoError(t, err)
	require.True(t, july.Provisional)

	review, err = e.reports.YearInReview(ctx, "u1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, review.MonthsCovered)
	assert.Equal(t, 3, review.Totals.DaysActive)
	assert.Equal(t, 8, review.Totals.ConsistencyScore)

	empty, err := e.reports.YearInReview(ctx, "u1", 2024)
	require.NoError(t, err)
	assert.Zero(t, empty.MonthsCovered)
	assert.Empty(t, empty.TopMonths)

	for year, code := range map[int]string{1999: "invalid_year", 2026: "period_in_future"} {
		_, err := e.reports.YearInReview(ctx, "u1", year)
		var ae *apperr.Error
		require.ErrorAs(t, err, &ae, year)
		assert.Equal(t, code, ae.Code)
		assert.Equal(t, "year", ae.Field)
	}
}
