package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

func TestSubmitCheckin_ReplacesAndAwardsOnce(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 10))
	ctx := context.Background()

	e.record(t, "u1", model.ActivityLogin, nil, day(2025, 6, 8))

	first, created, err := e.checkins.Submit(ctx, "u1", CheckinInput{MoodRating: 2, ProgressRating: 3, Wins: "  Opened with a joke  "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2025-06-10", first.CheckinDate)
	assert.Equal(t, 2, first.JourneyDay)
	require.NotNil(t, first.Wins)
	assert.Equal(t, "Opened with a joke", *first.Wins)
	assert.Nil(t, first.Notes)

	e.setNow(day(2025, 6, 10).Add(3 * time.Hour))
	second, created, err := e.checkins.Submit(ctx, "u1", CheckinInput{MoodRating: 5, ProgressRating: 4, Notes: "better"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.MoodRating)
	assert.Nil(t, second.Wins)
	require.NotNil(t, second.Notes)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	total, err := e.points.Total(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckinPoints, total)

	// A new day pays again.
	e.setNow(day(2025, 6, 11))
	_, created, err = e.checkins.Submit(ctx, "u1", CheckinInput{MoodRating: 3, ProgressRating: 3})
	require.NoError(t, err)
	assert.True(t, created)

	total, err = e.points.Total(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2*model.CheckinPoints, total)

	recent, err := e.checkins.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-06-11", recent[0].CheckinDate)
	assert.Equal(t, "2025-06-10", recent[1].CheckinDate)
}

func TestSubmitCheckin_CompletesCheckinTask(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 10))
	ctx := context.Background()

	e.tasks.content = fixedContent{pool: []TaskTemplate{
		{TaskType: "quick_checkin", Title: "Check in", Category: model.CategorySocial, TargetValue: 1},
	}}
	e.tasks.count = 1

	tasks, err := e.tasks.GenerateForDay(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	_, _, err = e.checkins.Submit(ctx, "u1", CheckinInput{MoodRating: 4, ProgressRating: 4})
	require.NoError(t, err)

	tasks, err = e.tasks.TasksForDay(ctx, "u1", "2025-06-10")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskStatusCompleted, tasks[0].Status)

	total, err := e.points.Total(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckinPoints+model.TaskCompletionPoints, total)
}

func TestSubmitCheckin_Validation(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 10))
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CheckinInput
		field string
	}{
		{"mood too low", CheckinInput{MoodRating: 0, ProgressRating: 3}, "moodRating"},
		{"mood too high", CheckinInput{MoodRating: 6, ProgressRating: 3}, "moodRating"},
		{"progress too high", CheckinInput{MoodRating: 3, ProgressRating: 9}, "progressRating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.checkins.Submit(ctx, "u1", tt.in)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			assert.Equal(t, tt.field, ae.Field)
			assert.Equal(t, "invalid_rating", ae.Code)
		})
	}

	total, err := e.points.Total(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCheckinForDay(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 10))
	ctx := context.Background()

	_, err := e.checkins.ForDay(ctx, "u1", "")
	assert.ErrorIs(t, err, repository.ErrCheckinNotFound)

	_, err = e.checkins.ForDay(ctx, "u1", "June 10")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "invalid_date", ae.Code)

	_, _, err = e.checkins.Submit(ctx, "u1", CheckinInput{MoodRating: 3, ProgressRating: 3})
	require.NoError(t, err)

	checkin, err := e.checkins.ForDay(ctx, "u1", "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, 3, checkin.MoodRating)

	_, err = e.checkins.ForDay(ctx, "u2", "2025-06-10")
	assert.ErrorIs(t, err, repository.ErrCheckinNotFound)
}
