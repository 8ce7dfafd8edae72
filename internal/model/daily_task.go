package model

import "time"

type TaskCategory string

const (
	CategorySocial    TaskCategory = "social"
	CategoryPractical TaskCategory = "practical"
	CategoryMindset   TaskCategory = "mindset"
)

var TaskCategories = []TaskCategory{CategorySocial, CategoryPractical, CategoryMindset}

func (c TaskCategory) Valid() bool {
	return c == CategorySocial || c == CategoryPractical || c == CategoryMindset
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusSkipped    TaskStatus = "skipped"
)

type DailyTask struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"userId"`
	TaskDate     string       `db:"task_date" json:"taskDate"`
	JourneyDay   int          `db:"journey_day" json:"journeyDay"`
	TaskType     string       `db:"task_type" json:"taskType"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Category     TaskCategory `db:"category" json:"category"`
	TargetValue  int          `db:"target_value" json:"targetValue"`
	CurrentValue int          `db:"current_value" json:"currentValue"`
	Status       TaskStatus   `db:"status" json:"status"`
	GoalID       *string      `db:"goal_id" json:"goalId,omitempty"`
	Position     int          `db:"position" json:"position"`
	ToolLink     *string      `db:"tool_link" json:"toolLink,omitempty"`
	CompletedAt  *time.Time   `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`

	CompletionLogged bool `db:"completion_logged" json:"-"`
}
