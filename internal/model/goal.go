package model

import (
	"math"
	"time"
)

type GoalType string

const (
	GoalTypeWeekly  GoalType = "weekly"
	GoalTypeMonthly GoalType = "monthly"
	GoalTypeYearly  GoalType = "yearly"
)

func (t GoalType) Valid() bool {
	return t == GoalTypeWeekly || t == GoalTypeMonthly || t == GoalTypeYearly
}

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusArchived  GoalStatus = "archived"
)

func (s GoalStatus) Valid() bool {
	return s == GoalStatusActive || s == GoalStatusCompleted || s == GoalStatusArchived
}

type Goal struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	GoalType     GoalType   `db:"goal_type" json:"goalType"`
	Category     string     `db:"category" json:"category"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	TargetValue  int        `db:"target_value" json:"targetValue"`
	CurrentValue int        `db:"current_value" json:"currentValue"`
	Status       GoalStatus `db:"status" json:"status"`
	Priority     int        `db:"priority" json:"priority"`
	DueDate      *time.Time `db:"due_date" json:"dueDate,omitempty"`
	ToolLink     *string    `db:"tool_link" json:"toolLink,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ProgressPercentage is round(100*current/target), always within [0,100].
func (g *Goal) ProgressPercentage() int {
	return Percent(g.CurrentValue, g.TargetValue)
}

// Percent returns round(100*n/d) clamped to [0,100]; 0 when d <= 0.
func Percent(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return ClampScore(int(math.Round(100 * float64(n) / float64(d))))
}

// ClampScore bounds a score to [0,100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
