package model

import "time"

type PointSource string

const (
	PointsFromTask    PointSource = "task"
	PointsFromCheckin PointSource = "checkin"
)

// Points credited per action.
const (
	TaskCompletionPoints = 10
	CheckinPoints        = 5
)

// PointAward credits one action. (UserID, Source, SourceID) is unique, so an
// action pays out once.
type PointAward struct {
	UserID    string      `db:"user_id" json:"userId"`
	Source    PointSource `db:"source" json:"source"`
	SourceID  string      `db:"source_id" json:"sourceId"`
	Points    int         `db:"points" json:"points"`
	AwardedAt time.Time   `db:"awarded_at" json:"awardedAt"`
}
