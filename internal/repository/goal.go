package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

var (
	ErrGoalNotFound = apperr.NotFound("goal_not_found", "goal not found")
)

type GoalFilter struct {
	GoalType        model.GoalType
	Status          model.GoalStatus
	IncludeArchived bool
}

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, userID, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID string, f GoalFilter) ([]*model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	SetProgress(ctx context.Context, userID, goalID string, value int, at time.Time) (bool, error)
	RaiseProgress(ctx context.Context, userID, goalID string, value int, at time.Time) (bool, error)
	Reopen(ctx context.Context, userID, goalID string, at time.Time) (bool, error)
	Archive(ctx context.Context, userID, goalID string, at time.Time) (bool, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
	PeriodStats(ctx context.Context, userID string, from, to time.Time) (achieved, total int, err error)
	Delete(ctx context.Context, userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, goal_type, category, title, description, target_value,
	              current_value, status, priority, due_date, tool_link, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.GoalType,
		goal.Category,
		goal.Title,
		goal.Description,
		goal.TargetValue,
		goal.CurrentValue,
		goal.Status,
		goal.Priority,
		utcPtr(goal.DueDate),
		goal.ToolLink,
		utcPtr(goal.CompletedAt),
		utc(goal.CreatedAt),
		utc(goal.UpdatedAt),
	)
	return apperr.Storage(err)
}

func (r *goalRepository) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, goal, query, goalID, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return goal, nil
}

// Goals lists a user's goals by priority, then earliest due date (undated
// last), then creation order.
func (r *goalRepository) Goals(ctx context.Context, userID string, f GoalFilter) ([]*model.Goal, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)

	if f.GoalType != "" {
		args = append(args, f.GoalType)
		where = append(where, fmt.Sprintf("goal_type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	} else if !f.IncludeArchived {
		args = append(args, model.GoalStatusArchived)
		where = append(where, fmt.Sprintf("status <> $%d", len(args)))
	}

	query := `SELECT * FROM goals WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY priority DESC,
	                   CASE WHEN due_date IS NULL THEN 1 ELSE 0 END,
	                   due_date ASC, created_at ASC, id ASC`

	var goals []*model.Goal
	err := read(ctx, func(ctx context.Context) error {
		goals = nil
		return r.db.SelectContext(ctx, &goals, query, args...)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return goals, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, description = $2, category = $3, priority = $4, due_date = $5, tool_link = $6, updated_at = $7
	          WHERE id = $8 AND user_id = $9`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Priority,
		utcPtr(goal.DueDate),
		goal.ToolLink,
		utc(goal.UpdatedAt),
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return apperr.Storage(err)
	}

	rows, err := affected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// SetProgress stores value clamped to [0, target] in one statement. Reaching
// the target completes the goal; a completed goal stays completed. Archived
// goals are left untouched and report false.
func (r *goalRepository) SetProgress(ctx context.Context, userID, goalID string, value int, at time.Time) (bool, error) {
	query := `UPDATE goals SET
	              current_value = CASE WHEN $1 < 0 THEN 0 WHEN $1 > target_value THEN target_value ELSE $1 END,
	              completed_at = CASE WHEN status <> 'completed' AND $1 >= target_value THEN $2 ELSE completed_at END,
	              status = CASE WHEN $1 >= target_value THEN 'completed' ELSE status END,
	              updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND status <> 'archived'`

	return r.progress(ctx, query, value, at, goalID, userID)
}

// RaiseProgress is SetProgress that never lowers the stored value, so
// replaying the same completion twice cannot move a goal backwards.
func (r *goalRepository) RaiseProgress(ctx context.Context, userID, goalID string, value int, at time.Time) (bool, error) {
	query := `UPDATE goals SET
	              current_value = CASE WHEN $1 <= current_value THEN current_value WHEN $1 > target_value THEN target_value ELSE $1 END,
	              completed_at = CASE WHEN status <> 'completed' AND $1 >= target_value THEN $2 ELSE completed_at END,
	              status = CASE WHEN $1 >= target_value THEN 'completed' ELSE status END,
	              updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND status <> 'archived'`

	return r.progress(ctx, query, value, at, goalID, userID)
}

func (r *goalRepository) progress(ctx context.Context, query string, value int, at time.Time, goalID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, value, utc(at), goalID, userID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows > 0, err
}

// Reopen moves a completed goal that is below its target back to active.
func (r *goalRepository) Reopen(ctx context.Context, userID, goalID string, at time.Time) (bool, error) {
	query := `UPDATE goals SET status = 'active', completed_at = NULL, updated_at = $1
	          WHERE id = $2 AND user_id = $3 AND status = 'completed' AND current_value < target_value`

	result, err := r.db.ExecContext(ctx, query, utc(at), goalID, userID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows > 0, err
}

func (r *goalRepository) Archive(ctx context.Context, userID, goalID string, at time.Time) (bool, error) {
	query := `UPDATE goals SET status = 'archived', updated_at = $1
	          WHERE id = $2 AND user_id = $3 AND status <> 'archived'`

	result, err := r.db.ExecContext(ctx, query, utc(at), goalID, userID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows > 0, err
}

func (r *goalRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goals WHERE user_id = $1 AND completed_at IS NOT NULL`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &count, query, userID)
	})
	return count, apperr.Storage(err)
}

// PeriodStats counts goals due or completed in [from, to) and how many of
// those were completed in the window.
func (r *goalRepository) PeriodStats(ctx context.Context, userID string, from, to time.Time) (int, int, error) {
	var stats struct {
		Achieved int `db:"achieved"`
		Total    int `db:"total"`
	}
	query := `SELECT
	              COALESCE(SUM(CASE WHEN completed_at >= $2 AND completed_at < $3 THEN 1 ELSE 0 END), 0) AS achieved,
	              COUNT(*) AS total
	          FROM goals
	          WHERE user_id = $1
	            AND ((due_date >= $2 AND due_date < $3) OR (completed_at >= $2 AND completed_at < $3))`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &stats, query, userID, utc(from), utc(to))
	})
	if err != nil {
		return 0, 0, apperr.Storage(err)
	}
	return stats.Achieved, stats.Total, nil
}

// Delete removes a goal for good. Only the operations CLI calls it.
func (r *goalRepository) Delete(ctx context.Context, userID, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	if err != nil {
		return apperr.Storage(err)
	}

	rows, err := affected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}
