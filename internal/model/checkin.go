package model

import "time"

// DailyCheckin is a user's self-assessment of one calendar day. There is at
// most one per (user, date); resubmitting replaces the ratings and notes.
type DailyCheckin struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	CheckinDate    string    `db:"checkin_date" json:"checkinDate"`
	JourneyDay     int       `db:"journey_day" json:"journeyDay"`
	MoodRating     int       `db:"mood_rating" json:"moodRating"`
	ProgressRating int       `db:"progress_rating" json:"progressRating"`
	Wins           *string   `db:"wins" json:"wins,omitempty"`
	Challenges     *string   `db:"challenges" json:"challenges,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

const (
	MinCheckinRating = 1
	MaxCheckinRating = 5
)
