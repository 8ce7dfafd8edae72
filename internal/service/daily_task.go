package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

var (
	ErrDateNotGeneratable = apperr.Validation("date", "date_not_generatable", "tasks can only be generated for the current day")
	ErrTaskCompleted      = apperr.Validation("status", "task_completed", "completed tasks cannot be skipped")
)

// DefaultDailyTaskCount is the size of a generated task set.
const DefaultDailyTaskCount = 3

type DailyTaskService struct {
	repo     repository.DailyTaskRepository
	activity *ActivityService
	goals    *GoalService
	points   *PointsService
	content  TaskContentSource
	cal      *calendar.Calendar
	count    int
	now      func() time.Time
}

func NewDailyTaskService(
	repo repository.DailyTaskRepository,
	activity *ActivityService,
	goals *GoalService,
	points *PointsService,
	content TaskContentSource,
	cal *calendar.Calendar,
	count int,
) *DailyTaskService {
	if content == nil {
		content = CuratedContent()
	}
	if count <= 0 {
		count = DefaultDailyTaskCount
	}
	return &DailyTaskService{
		repo:     repo,
		activity: activity,
		goals:    goals,
		points:   points,
		content:  content,
		cal:      cal,
		count:    count,
		now:      time.Now,
	}
}

func (s *DailyTaskService) Today() string {
	return s.cal.Key(s.now())
}

// GenerateForDay returns the task set of (userID, date), generating it when
// the date is today and no set exists yet. Repeated calls return the same
// tasks.
func (s *DailyTaskService) GenerateForDay(ctx context.Context, userID, date string) ([]*model.DailyTask, error) {
	if date == "" {
		date = s.Today()
	}
	day, err := s.cal.Parse(date)
	if err != nil {
		return nil, apperr.Validation("date", "invalid_date", "date must be YYYY-MM-DD")
	}

	existing, err := s.repo.ByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	if date != s.Today() {
		return nil, ErrDateNotGeneratable
	}

	tasks, journeyDay, err := s.plan(ctx, userID, date, day)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateSet(ctx, userID, date, journeyDay, tasks, s.now())
	if err != nil {
		slog.Error("failed to store daily tasks", "error", err, "user_id", userID, "date", date)
		return nil, err
	}
	if !created {
		// Another request generated the day first.
		return s.repo.ByDate(ctx, userID, date)
	}

	metrics.TaskSetsGenerated.Inc()
	slog.Info("daily tasks generated", "user_id", userID, "date", date, "journey_day", journeyDay, "tasks", len(tasks))

	return s.repo.ByDate(ctx, userID, date)
}

// plan builds the tasks of a new set from the journey day, the last seven
// days of activity, yesterday's tasks and the user's active goals.
func (s *DailyTaskService) plan(ctx context.Context, userID, date string, day time.Time) ([]*model.DailyTask, int, error) {
	journeyDay, err := s.journeyDay(ctx, userID, day)
	if err != nil {
		return nil, 0, err
	}

	recent, err := s.activity.Counts(ctx, userID, day.AddDate(0, 0, -6), day.AddDate(0, 0, 1))
	if err != nil {
		return nil, 0, err
	}
	socialBias := recent.Matches+recent.Conversations == 0

	yesterday, err := s.repo.ByDate(ctx, userID, s.cal.Key(day.AddDate(0, 0, -1)))
	if err != nil {
		return nil, 0, err
	}
	exclude := make(map[string]bool, len(yesterday))
	for _, t := range yesterday {
		exclude[t.TaskType] = true
	}

	links, err := s.goals.linkTargets(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	templates := selectTasks(s.content, journeyDay, socialBias, exclude, s.count)
	tasks := make([]*model.DailyTask, 0, len(templates))
	for i, tmpl := range templates {
		target := tmpl.TargetValue
		if target < 1 {
			target = 1
		}
		task := &model.DailyTask{
			ID:          uuid.New().String(),
			UserID:      userID,
			TaskDate:    date,
			JourneyDay:  journeyDay,
			TaskType:    tmpl.TaskType,
			Title:       tmpl.Title,
			Description: tmpl.Description,
			Category:    tmpl.Category,
			TargetValue: target,
			Status:      model.TaskStatusPending,
			Position:    i,
			CreatedAt:   now,
		}
		if tmpl.ToolLink != "" {
			link := tmpl.ToolLink
			task.ToolLink = &link
		}
		if g, ok := links[string(tmpl.Category)]; ok {
			id := g.ID
			task.GoalID = &id
		}
		tasks = append(tasks, task)
	}

	return tasks, journeyDay, nil
}

// JourneyDay is one more than the number of active days before date.
func (s *DailyTaskService) JourneyDay(ctx context.Context, userID, date string) (int, error) {
	day, err := s.cal.Parse(date)
	if err != nil {
		return 0, apperr.Validation("date", "invalid_date", "date must be YYYY-MM-DD")
	}
	return s.journeyDay(ctx, userID, day)
}

func (s *DailyTaskService) journeyDay(ctx context.Context, userID string, day time.Time) (int, error) {
	before, err := s.activity.OccurredTimes(ctx, userID, time.Time{}, day)
	if err != nil {
		return 0, err
	}
	return len(activeDays(s.cal, before)) + 1, nil
}

// TasksForDay returns the stored set of a day, empty when none exists.
func (s *DailyTaskService) TasksForDay(ctx context.Context, userID, date string) ([]*model.DailyTask, error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := s.cal.Parse(date); err != nil {
		return nil, apperr.Validation("date", "invalid_date", "date must be YYYY-MM-DD")
	}

	tasks, err := s.repo.ByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*model.DailyTask{}
	}
	return tasks, nil
}

// UpdateTaskProgress sets a task's value, clamped to [0, target]. The first
// transition to completed records a task_completed event and moves the
// linked goal to the number of completed linked tasks.
func (s *DailyTaskService) UpdateTaskProgress(ctx context.Context, userID, taskID string, value int) (*model.DailyTask, error) {
	if _, err := s.repo.ByID(ctx, userID, taskID); err != nil {
		return nil, err
	}

	if err := s.repo.SetProgress(ctx, userID, taskID, value, s.now()); err != nil {
		return nil, err
	}

	claimed, err := s.repo.ClaimCompletion(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if claimed {
		s.completed(ctx, task)
	}

	return task, nil
}

func (s *DailyTaskService) completed(ctx context.Context, task *model.DailyTask) {
	metrics.TasksCompleted.WithLabelValues(string(task.Category)).Inc()

	payload := model.TaskCompletedPayload{TaskID: task.ID}
	if task.GoalID != nil {
		payload.GoalID = *task.GoalID
	}
	if _, err := s.activity.record(ctx, task.UserID, model.ActivityTaskCompleted, payload); err != nil {
		slog.Error("failed to record task completion", "error", err, "user_id", task.UserID, "task_id", task.ID)
	}
	if s.points != nil {
		if _, err := s.points.Award(ctx, task.UserID, model.PointsFromTask, task.ID, model.TaskCompletionPoints); err != nil {
			slog.Error("failed to award task points", "error", err, "user_id", task.UserID, "task_id", task.ID)
		}
	}

	if task.GoalID == nil {
		return
	}

	if err := s.syncGoal(ctx, task.UserID, *task.GoalID); err != nil {
		slog.Error("failed to update linked goal", "error", err, "user_id", task.UserID, "task_id", task.ID, "goal_id", *task.GoalID)
	}
}

func (s *DailyTaskService) syncGoal(ctx context.Context, userID, goalID string) error {
	n, err := s.repo.CountCompletedForGoal(ctx, userID, goalID)
	if err != nil {
		return err
	}

	_, err = s.goals.raiseProgress(ctx, userID, goalID, n)
	if apperr.Is(err, apperr.KindValidation) {
		// Archived goals keep their value.
		return nil
	}
	if err != nil {
		return fmt.Errorf("raise goal progress: %w", err)
	}
	return nil
}

// Skip marks a task as skipped. Progress on a skipped task makes it active
// again.
func (s *DailyTaskService) Skip(ctx context.Context, userID, taskID string) (*model.DailyTask, error) {
	if _, err := s.repo.ByID(ctx, userID, taskID); err != nil {
		return nil, err
	}

	ok, err := s.repo.Skip(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskCompleted
	}
	return s.repo.ByID(ctx, userID, taskID)
}

// PeriodStats counts completed and total tasks dated in [from, to).
func (s *DailyTaskService) PeriodStats(ctx context.Context, userID string, from, to time.Time) (int, int, error) {
	return s.repo.PeriodStats(ctx, userID, s.cal.Key(from), s.cal.Key(to))
}
