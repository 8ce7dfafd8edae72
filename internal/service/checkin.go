package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/validation"
)

// Task types a check-in fulfils when they are in today's set.
var checkinTaskTypes = map[string]bool{
	"quick_checkin":    true,
	"emoji_reflection": true,
}

type CheckinInput struct {
	MoodRating     int
	ProgressRating int
	Wins           string
	Challenges     string
	Notes          string
}

type CheckinService struct {
	repo   repository.CheckinRepository
	tasks  *DailyTaskService
	points *PointsService
	now    func() time.Time
}

func NewCheckinService(repo repository.CheckinRepository, tasks *DailyTaskService, points *PointsService) *CheckinService {
	return &CheckinService{
		repo:   repo,
		tasks:  tasks,
		points: points,
		now:    time.Now,
	}
}

// Submit stores today's check-in, replacing an earlier one of the same day.
// The first check-in of a day earns CheckinPoints and completes today's
// check-in task, if the set has one. It reports whether the check-in is new.
func (s *CheckinService) Submit(ctx context.Context, userID string, in CheckinInput) (*model.DailyCheckin, bool, error) {
	if err := validation.Between("moodRating", "invalid_rating", in.MoodRating, model.MinCheckinRating, model.MaxCheckinRating); err != nil {
		return nil, false, err
	}
	if err := validation.Between("progressRating", "invalid_rating", in.ProgressRating, model.MinCheckinRating, model.MaxCheckinRating); err != nil {
		return nil, false, err
	}

	wins, err := optional("wins", in.Wins)
	if err != nil {
		return nil, false, err
	}
	challenges, err := optional("challenges", in.Challenges)
	if err != nil {
		return nil, false, err
	}
	notes, err := optional("notes", in.Notes)
	if err != nil {
		return nil, false, err
	}

	date := s.tasks.Today()
	journeyDay, err := s.tasks.JourneyDay(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	created, err := s.repo.Upsert(ctx, &model.DailyCheckin{
		ID:             uuid.New().String(),
		UserID:         userID,
		CheckinDate:    date,
		JourneyDay:     journeyDay,
		MoodRating:     in.MoodRating,
		ProgressRating: in.ProgressRating,
		Wins:           wins,
		Challenges:     challenges,
		Notes:          notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		slog.Error("failed to store check-in", "error", err, "user_id", userID, "date", date)
		return nil, false, err
	}

	if _, err := s.points.Award(ctx, userID, model.PointsFromCheckin, date, model.CheckinPoints); err != nil {
		slog.Error("failed to award check-in points", "error", err, "user_id", userID, "date", date)
	}
	if created {
		s.completeCheckinTask(ctx, userID, date)
	}

	checkin, err := s.repo.ByDate(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}
	return checkin, created, nil
}

func (s *CheckinService) completeCheckinTask(ctx context.Context, userID, date string) {
	tasks, err := s.tasks.TasksForDay(ctx, userID, date)
	if err != nil {
		slog.Warn("failed to load tasks for check-in", "error", err, "user_id", userID)
		return
	}
	for _, t := range tasks {
		if !checkinTaskTypes[t.TaskType] || t.Status == model.TaskStatusCompleted {
			continue
		}
		if _, err := s.tasks.UpdateTaskProgress(ctx, userID, t.ID, t.TargetValue); err != nil {
			slog.Warn("failed to complete check-in task", "error", err, "user_id", userID, "task_id", t.ID)
		}
	}
}

// ForDay returns the check-in of date, today when empty.
func (s *CheckinService) ForDay(ctx context.Context, userID, date string) (*model.DailyCheckin, error) {
	if date == "" {
		date = s.tasks.Today()
	}
	if _, err := s.tasks.cal.Parse(date); err != nil {
		return nil, apperr.Validation("date", "invalid_date", "date must be YYYY-MM-DD")
	}
	return s.repo.ByDate(ctx, userID, date)
}

// Recent returns up to limit check-ins, newest day first.
func (s *CheckinService) Recent(ctx context.Context, userID string, limit int) ([]*model.DailyCheckin, error) {
	if limit <= 0 || limit > 90 {
		limit = 30
	}
	checkins, err := s.repo.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if checkins == nil {
		checkins = []*model.DailyCheckin{}
	}
	return checkins, nil
}

func optional(field, value string) (*string, error) {
	v, err := validation.OptionalText(field, value, validation.MaxDescriptionLength)
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}
