package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

var (
	ErrTaskNotFound = apperr.NotFound("task_not_found", "daily task not found")
)

type DailyTaskRepository interface {
	CreateSet(ctx context.Context, userID, date string, journeyDay int, tasks []*model.DailyTask, at time.Time) (bool, error)
	ByDate(ctx context.Context, userID, date string) ([]*model.DailyTask, error)
	ByID(ctx context.Context, userID, taskID string) (*model.DailyTask, error)
	SetProgress(ctx context.Context, userID, taskID string, value int, at time.Time) error
	ClaimCompletion(ctx context.Context, userID, taskID string) (bool, error)
	Skip(ctx context.Context, userID, taskID string) (bool, error)
	CountCompletedForGoal(ctx context.Context, userID, goalID string) (int, error)
	PeriodStats(ctx context.Context, userID, fromDate, toDate string) (completed, total int, err error)
}

type dailyTaskRepository struct {
	db *sqlx.DB
}

func NewDailyTaskRepository(db *sqlx.DB) DailyTaskRepository {
	return &dailyTaskRepository{db: db}
}

// CreateSet stores the task set for (userID, date) unless one exists. The
// set marker and its tasks are written in one transaction; false means
// another request generated the day first and nothing was written.
func (r *dailyTaskRepository) CreateSet(ctx context.Context, userID, date string, journeyDay int, tasks []*model.DailyTask, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperr.Storage(err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO daily_task_sets (user_id, task_date, journey_day, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, task_date) DO NOTHING
	`, userID, date, journeyDay, utc(at))
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	query := `INSERT INTO daily_tasks (id, user_id, task_date, journey_day, task_type, title, description,
	              category, target_value, current_value, status, goal_id, position, tool_link, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	for _, t := range tasks {
		_, err := tx.ExecContext(ctx, query,
			t.ID,
			t.UserID,
			t.TaskDate,
			t.JourneyDay,
			t.TaskType,
			t.Title,
			t.Description,
			t.Category,
			t.TargetValue,
			t.CurrentValue,
			t.Status,
			t.GoalID,
			t.Position,
			t.ToolLink,
			utc(t.CreatedAt),
		)
		if err != nil {
			return false, apperr.Storage(fmt.Errorf("insert task %s: %w", t.TaskType, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return false, apperr.Storage(err)
	}
	return true, nil
}

// ByDate returns the task set of a day in generation order. A nil slice
// means the day has not been generated.
func (r *dailyTaskRepository) ByDate(ctx context.Context, userID, date string) ([]*model.DailyTask, error) {
	var tasks []*model.DailyTask
	query := `SELECT * FROM daily_tasks WHERE user_id = $1 AND task_date = $2 ORDER BY position ASC, id ASC`

	err := read(ctx, func(ctx context.Context) error {
		tasks = nil
		return r.db.SelectContext(ctx, &tasks, query, userID, date)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return tasks, nil
}

func (r *dailyTaskRepository) ByID(ctx context.Context, userID, taskID string) (*model.DailyTask, error) {
	task := &model.DailyTask{}
	query := `SELECT * FROM daily_tasks WHERE id = $1 AND user_id = $2`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, task, query, taskID, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return task, nil
}

// SetProgress clamps value to [0, target] and derives the status from it in
// a single statement.
func (r *dailyTaskRepository) SetProgress(ctx context.Context, userID, taskID string, value int, at time.Time) error {
	query := `UPDATE daily_tasks SET
	              current_value = CASE WHEN $1 < 0 THEN 0 WHEN $1 > target_value THEN target_value ELSE $1 END,
	              status = CASE WHEN $1 >= target_value THEN 'completed' WHEN $1 > 0 THEN 'in_progress' ELSE 'pending' END,
	              completed_at = CASE WHEN $1 >= target_value THEN COALESCE(completed_at, $2) ELSE NULL END
	          WHERE id = $3 AND user_id = $4`

	result, err := r.db.ExecContext(ctx, query, value, utc(at), taskID, userID)
	if err != nil {
		return apperr.Storage(err)
	}
	rows, err := affected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ClaimCompletion flips the completion flag of a completed task. Only the
// first caller gets true.
func (r *dailyTaskRepository) ClaimCompletion(ctx context.Context, userID, taskID string) (bool, error) {
	query := `UPDATE daily_tasks SET completion_logged = TRUE
	          WHERE id = $1 AND user_id = $2 AND status = 'completed' AND completion_logged = FALSE`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows == 1, err
}

// Skip marks a task that is not completed as skipped.
func (r *dailyTaskRepository) Skip(ctx context.Context, userID, taskID string) (bool, error) {
	query := `UPDATE daily_tasks SET status = 'skipped'
	          WHERE id = $1 AND user_id = $2 AND status <> 'completed'`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows == 1, err
}

func (r *dailyTaskRepository) CountCompletedForGoal(ctx context.Context, userID, goalID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM daily_tasks WHERE user_id = $1 AND goal_id = $2 AND completion_logged = TRUE`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &count, query, userID, goalID)
	})
	return count, apperr.Storage(err)
}

// PeriodStats counts tasks dated in [fromDate, toDate).
func (r *dailyTaskRepository) PeriodStats(ctx context.Context, userID, fromDate, toDate string) (int, int, error) {
	var stats struct {
		Completed int `db:"completed"`
		Total     int `db:"total"`
	}
	query := `SELECT
	              COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
	              COUNT(*) AS total
	          FROM daily_tasks
	          WHERE user_id = $1 AND task_date >= $2 AND task_date < $3`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &stats, query, userID, fromDate, toDate)
	})
	if err != nil {
		return 0, 0, apperr.Storage(err)
	}
	return stats.Completed, stats.Total, nil
}
