package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx/types"
)

type ActivityType string

const (
	ActivityMatch         ActivityType = "match"
	ActivityConversation  ActivityType = "conversation"
	ActivityDate          ActivityType = "date"
	ActivityTaskCompleted ActivityType = "task_completed"
	ActivityGoalProgress  ActivityType = "goal_progress"
	ActivityLogin         ActivityType = "login"
)

// ActivityTypes lists every recordable type in a stable order.
var ActivityTypes = []ActivityType{
	ActivityMatch,
	ActivityConversation,
	ActivityDate,
	ActivityTaskCompleted,
	ActivityGoalProgress,
	ActivityLogin,
}

func (t ActivityType) Valid() bool {
	return slices.Contains(ActivityTypes, t)
}

type ActivityEvent struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"userId"`
	Type       ActivityType   `db:"type" json:"type"`
	OccurredAt time.Time      `db:"occurred_at" json:"timestamp"`
	Payload    types.JSONText `db:"payload" json:"payload"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// Payload variants, one per ActivityType.

type MatchPayload struct {
	Platform string `json:"platform,omitempty"`
	Quality  int    `json:"quality,omitempty"` // 1..5, 0 unset
}

// QualityMatch reports whether the match counts as a quality match.
func (p MatchPayload) QualityMatch() bool {
	return p.Quality >= 4
}

type ConversationPayload struct {
	Platform   string `json:"platform,omitempty"`
	Meaningful bool   `json:"meaningful,omitempty"`
	Messages   int    `json:"messages,omitempty"`
}

type DatePayload struct {
	Rating     int    `json:"rating,omitempty"` // 1..10, 0 unset
	Location   string `json:"location,omitempty"`
	SecondDate bool   `json:"secondDate,omitempty"`
}

type TaskCompletedPayload struct {
	TaskID string `json:"taskId"`
	GoalID string `json:"goalId,omitempty"`
}

type GoalProgressPayload struct {
	GoalID string `json:"goalId"`
	Value  int    `json:"value"`
	Target int    `json:"target"`
}

type LoginPayload struct {
	Source string `json:"source,omitempty"`
}

// DecodePayload parses raw into the variant for t. Unknown fields and range
// violations are rejected; an empty payload decodes to the zero variant.
func DecodePayload(t ActivityType, raw []byte) (any, error) {
	var v any
	switch t {
	case ActivityMatch:
		v = &MatchPayload{}
	case ActivityConversation:
		v = &ConversationPayload{}
	case ActivityDate:
		v = &DatePayload{}
	case ActivityTaskCompleted:
		v = &TaskCompletedPayload{}
	case ActivityGoalProgress:
		v = &GoalProgressPayload{}
	case ActivityLogin:
		v = &LoginPayload{}
	default:
		return nil, fmt.Errorf("unknown activity type %q", t)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return v, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", t, err)
	}

	switch p := v.(type) {
	case *MatchPayload:
		if p.Quality < 0 || p.Quality > 5 {
			return nil, fmt.Errorf("match quality must be 0 to 5, 0 leaves it unset")
		}
	case *DatePayload:
		if p.Rating < 0 || p.Rating > 10 {
			return nil, fmt.Errorf("date rating must be 0 to 10, 0 leaves it unset")
		}
	case *ConversationPayload:
		if p.Messages < 0 {
			return nil, fmt.Errorf("conversation messages must not be negative")
		}
	}

	return v, nil
}

// ActivityCounts aggregates events in a window.
type ActivityCounts struct {
	Matches                 int `json:"matches"`
	QualityMatches          int `json:"qualityMatches"`
	Conversations           int `json:"conversations"`
	MeaningfulConversations int `json:"meaningfulConversations"`
	Dates                   int `json:"dates"`
	SecondDates             int `json:"secondDates"`
	TasksCompleted          int `json:"tasksCompleted"`
	GoalUpdates             int `json:"goalUpdates"`
	Logins                  int `json:"logins"`
}

// Add folds one event into the counts. Malformed payloads still count toward
// the type total.
func (c *ActivityCounts) Add(e *ActivityEvent) {
	switch e.Type {
	case ActivityMatch:
		c.Matches++
		var p MatchPayload
		if e.Payload.Unmarshal(&p) == nil && p.QualityMatch() {
			c.QualityMatches++
		}
	case ActivityConversation:
		c.Conversations++
		var p ConversationPayload
		if e.Payload.Unmarshal(&p) == nil && p.Meaningful {
			c.MeaningfulConversations++
		}
	case ActivityDate:
		c.Dates++
		var p DatePayload
		if e.Payload.Unmarshal(&p) == nil && p.SecondDate {
			c.SecondDates++
		}
	case ActivityTaskCompleted:
		c.TasksCompleted++
	case ActivityGoalProgress:
		c.GoalUpdates++
	case ActivityLogin:
		c.Logins++
	}
}
