package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/model"
)

// ProfileSignal supplies the externally computed profile completeness.
type ProfileSignal interface {
	Completeness(ctx context.Context, userID string) (int, error)
}

// DefaultScoreWindowDays is the rolling window of ComputeMetrics.
const DefaultScoreWindowDays = 30

// ScorerService turns activity aggregates into 0-100 progress scores.
type ScorerService struct {
	activity *ActivityService
	profile  ProfileSignal
	cal      *calendar.Calendar
	weights  model.Weights
	window   int
	now      func() time.Time
}

func NewScorerService(activity *ActivityService, profile ProfileSignal, cal *calendar.Calendar, weights model.Weights, windowDays int) *ScorerService {
	if windowDays <= 0 {
		windowDays = DefaultScoreWindowDays
	}
	return &ScorerService{
		activity: activity,
		profile:  profile,
		cal:      cal,
		weights:  weights,
		window:   windowDays,
		now:      time.Now,
	}
}

// ComputeMetrics scores the rolling window ending today.
func (s *ScorerService) ComputeMetrics(ctx context.Context, userID string) model.ProgressMetrics {
	end := s.cal.Day(s.now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -s.window)
	return s.MetricsForWindow(ctx, userID, start, end)
}

// MetricsForWindow scores [from, to). It never fails: a sub-score whose
// source cannot be read is 0 and listed in Unavailable.
func (s *ScorerService) MetricsForWindow(ctx context.Context, userID string, from, to time.Time) model.ProgressMetrics {
	m := model.ProgressMetrics{Status: model.MetricsComplete}
	unavailable := func(name string, err error) {
		slog.Warn("progress sub-score unavailable", "error", err, "user_id", userID, "score", name)
		m.Unavailable = append(m.Unavailable, name)
		m.Status = model.MetricsPartial
	}

	if s.profile != nil {
		profile, err := s.profile.Completeness(ctx, userID)
		if err != nil {
			unavailable(model.SubScoreProfile, err)
		} else {
			m.ProfileScore = model.ClampScore(profile)
		}
	}

	counts, err := s.activity.Counts(ctx, userID, from, to)
	if err != nil {
		unavailable(model.SubScoreConversation, err)
	} else {
		m.ConversationQuality = model.Percent(counts.MeaningfulConversations, counts.Conversations)
	}

	times, err := s.activity.OccurredTimes(ctx, userID, from, to)
	if err != nil {
		unavailable(model.SubScoreConsistency, err)
	} else {
		windowDays := s.cal.DaysBetween(from, to)
		m.Consistency = model.Percent(len(activeDays(s.cal, times)), windowDays)
	}

	m.OverallScore = s.weights.Overall(m.ProfileScore, m.ConversationQuality, m.Consistency)
	return m
}
