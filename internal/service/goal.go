package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/validation"
)

var (
	ErrGoalArchived     = apperr.Validation("status", "goal_archived", "archived goals cannot change progress")
	ErrGoalNotCompleted = apperr.Validation("status", "goal_not_completed", "only completed goals can be reopened")
	ErrGoalAtTarget     = apperr.Validation("currentValue", "goal_at_target", "lower the progress below the target before reopening")
)

type GoalInput struct {
	GoalType    model.GoalType `json:"goalType"`
	Category    string         `json:"category"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TargetValue int            `json:"targetValue"`
	Priority    int            `json:"priority"`
	DueDate     *time.Time     `json:"dueDate"`
	ToolLink    *string        `json:"toolLink"`
}

// GoalChanges holds the editable fields of a goal. Nil fields are kept.
type GoalChanges struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Category     *string    `json:"category"`
	Priority     *int       `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
	ToolLink     *string    `json:"toolLink"`
}

type GoalService struct {
	repo     repository.GoalRepository
	activity *ActivityService
	now      func() time.Time
}

func NewGoalService(repo repository.GoalRepository, activity *ActivityService) *GoalService {
	return &GoalService{
		repo:     repo,
		activity: activity,
		now:      time.Now,
	}
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*model.Goal, error) {
	if in.TargetValue < 1 {
		return nil, apperr.Validation("targetValue", "invalid_goal_target", "must be at least 1")
	}
	if in.GoalType == "" {
		in.GoalType = model.GoalTypeMonthly
	}
	if !in.GoalType.Valid() {
		return nil, apperr.Validation("goalType", "invalid_goal_type", "must be weekly, monthly or yearly")
	}

	title, err := validation.Text("title", in.Title, validation.MaxTitleLength)
	if err != nil {
		return nil, err
	}
	category, err := validation.Text("category", in.Category, validation.MaxNameLength)
	if err != nil {
		return nil, err
	}
	description, err := validation.OptionalText("description", in.Description, validation.MaxDescriptionLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := &model.Goal{
		ID:           uuid.New().String(),
		UserID:       userID,
		GoalType:     in.GoalType,
		Category:     category,
		Title:        title,
		Description:  description,
		TargetValue:  in.TargetValue,
		CurrentValue: 0,
		Status:       model.GoalStatusActive,
		Priority:     in.Priority,
		DueDate:      in.DueDate,
		ToolLink:     in.ToolLink,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	// Read back so the response carries stored precision and zone.
	return s.repo.ByID(ctx, userID, goal.ID)
}

func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(ctx, userID, goalID)
}

func (s *GoalService) Goals(ctx context.Context, userID string, f repository.GoalFilter) ([]*model.Goal, error) {
	if f.GoalType != "" && !f.GoalType.Valid() {
		return nil, apperr.Validation("goalType", "invalid_goal_type", "must be weekly, monthly or yearly")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("status", "invalid_goal_status", "must be active, completed or archived")
	}
	return s.repo.Goals(ctx, userID, f)
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, c GoalChanges) (*model.Goal, error) {
	goal, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if c.Title != nil {
		if goal.Title, err = validation.Text("title", *c.Title, validation.MaxTitleLength); err != nil {
			return nil, err
		}
	}
	if c.Description != nil {
		if goal.Description, err = validation.OptionalText("description", *c.Description, validation.MaxDescriptionLength); err != nil {
			return nil, err
		}
	}
	if c.Category != nil {
		if goal.Category, err = validation.Text("category", *c.Category, validation.MaxNameLength); err != nil {
			return nil, err
		}
	}
	if c.Priority != nil {
		goal.Priority = *c.Priority
	}
	if c.ClearDueDate {
		goal.DueDate = nil
	} else if c.DueDate != nil {
		goal.DueDate = c.DueDate
	}
	if c.ToolLink != nil {
		goal.ToolLink = c.ToolLink
	}
	goal.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, err
	}
	return s.repo.ByID(ctx, userID, goalID)
}

// UpdateProgress sets the goal's current value, clamped to [0, target].
// Reaching the target completes the goal; a completed goal is never reopened
// by a lower value.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, goalID string, value int) (*model.Goal, error) {
	return s.applyProgress(ctx, userID, goalID, value, s.repo.SetProgress)
}

// raiseProgress is the idempotent form used for goal-linked task
// completions: the value only moves up.
func (s *GoalService) raiseProgress(ctx context.Context, userID, goalID string, value int) (*model.Goal, error) {
	return s.applyProgress(ctx, userID, goalID, value, s.repo.RaiseProgress)
}

type progressFunc func(ctx context.Context, userID, goalID string, value int, at time.Time) (bool, error)

func (s *GoalService) applyProgress(ctx context.Context, userID, goalID string, value int, apply progressFunc) (*model.Goal, error) {
	before, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if before.Status == model.GoalStatusArchived {
		return nil, ErrGoalArchived
	}

	ok, err := apply(ctx, userID, goalID, value, s.now())
	if err != nil {
		return nil, err
	}

	after, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Archived between the read and the write.
		return nil, ErrGoalArchived
	}

	if before.Status != model.GoalStatusCompleted && after.Status == model.GoalStatusCompleted {
		metrics.GoalsCompleted.Inc()
		slog.Info("goal completed", "user_id", userID, "goal_id", goalID)
	}

	_, err = s.activity.record(ctx, userID, model.ActivityGoalProgress, model.GoalProgressPayload{
		GoalID: goalID,
		Value:  after.CurrentValue,
		Target: after.TargetValue,
	})
	if err != nil {
		slog.Error("failed to record goal progress", "error", err, "user_id", userID, "goal_id", goalID)
	}

	return after, nil
}

// Reopen returns a completed goal below its target to active.
func (s *GoalService) Reopen(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status != model.GoalStatusCompleted {
		return nil, ErrGoalNotCompleted
	}
	if goal.CurrentValue >= goal.TargetValue {
		return nil, ErrGoalAtTarget
	}

	ok, err := s.repo.Reopen(ctx, userID, goalID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalNotCompleted
	}
	return s.repo.ByID(ctx, userID, goalID)
}

// Archive hides the goal from default listings. Archiving twice is a no-op.
func (s *GoalService) Archive(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	if _, err := s.repo.ByID(ctx, userID, goalID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Archive(ctx, userID, goalID, s.now()); err != nil {
		return nil, err
	}
	return s.repo.ByID(ctx, userID, goalID)
}

// HardDelete removes the goal and detaches linked tasks. Destructive; not
// exposed over HTTP.
func (s *GoalService) HardDelete(ctx context.Context, userID, goalID string) error {
	err := s.repo.Delete(ctx, userID, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	slog.Warn("goal hard-deleted", "user_id", userID, "goal_id", goalID)
	return nil
}

// linkTargets returns, per category, the active goal with the highest
// listing precedence.
func (s *GoalService) linkTargets(ctx context.Context, userID string) (map[string]*model.Goal, error) {
	goals, err := s.repo.Goals(ctx, userID, repository.GoalFilter{Status: model.GoalStatusActive})
	if err != nil {
		return nil, err
	}

	targets := make(map[string]*model.Goal)
	for _, g := range goals {
		if _, ok := targets[g.Category]; !ok {
			targets[g.Category] = g
		}
	}
	return targets, nil
}

func (s *GoalService) CountCompleted(ctx context.Context, userID string) (int, error) {
	return s.repo.CountCompleted(ctx, userID)
}

func (s *GoalService) PeriodStats(ctx context.Context, userID string, from, to time.Time) (int, int, error) {
	return s.repo.PeriodStats(ctx, userID, from, to)
}
