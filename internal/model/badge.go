package model

import "time"

type BadgeTier string

const (
	TierBronze   BadgeTier = "bronze"
	TierSilver   BadgeTier = "silver"
	TierGold     BadgeTier = "gold"
	TierPlatinum BadgeTier = "platinum"
)

type BadgeType string

const (
	BadgeFirstLogin       BadgeType = "first_login"
	BadgeStreak3          BadgeType = "streak_3"
	BadgeStreak7          BadgeType = "streak_7"
	BadgeStreak30         BadgeType = "streak_30"
	BadgeStreak100        BadgeType = "streak_100"
	BadgeJourneyWeek      BadgeType = "journey_week"
	BadgeTasks10          BadgeType = "tasks_10"
	BadgeTasks50          BadgeType = "tasks_50"
	BadgeTasks100         BadgeType = "tasks_100"
	BadgeTasks500         BadgeType = "tasks_500"
	BadgeMatches10        BadgeType = "matches_10"
	BadgeMatches50        BadgeType = "matches_50"
	BadgeMatches100       BadgeType = "matches_100"
	BadgeQualityMatches   BadgeType = "quality_matches_10"
	BadgeConversations10  BadgeType = "conversations_10"
	BadgeConversations50  BadgeType = "conversations_50"
	BadgeConversations100 BadgeType = "conversations_100"
	BadgeDates5           BadgeType = "dates_5"
	BadgeDates10          BadgeType = "dates_10"
	BadgeDates25          BadgeType = "dates_25"
	BadgeFirstGoal        BadgeType = "goal_first"
	BadgeGoals10          BadgeType = "goals_10"
	BadgeProfileComplete  BadgeType = "profile_complete"
	BadgeTopScore         BadgeType = "top_score"
)

// Badge is a catalog entry. The unlock rule lives with the badge engine.
type Badge struct {
	Type        BadgeType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tier        BadgeTier `json:"tier"`
	Points      int       `json:"points"`
}

type EarnedBadge struct {
	UserID    string    `db:"user_id" json:"userId"`
	BadgeType BadgeType `db:"badge_type" json:"badgeType"`
	EarnedAt  time.Time `db:"earned_at" json:"earnedAt"`
}

// BadgeStats is the snapshot badge rules are evaluated against.
type BadgeStats struct {
	CurrentStreak           int
	LongestStreak           int
	JourneyDay              int
	TotalLogins             int
	TasksCompleted          int
	Matches                 int
	QualityMatches          int
	Conversations           int
	MeaningfulConversations int
	Dates                   int
	GoalsCompleted          int
	ProfileScore            int
	OverallScore            int
}

// BadgeProgress is a badge together with how far the user is from it.
type BadgeProgress struct {
	Badge
	Current  int     `json:"current"`
	Target   int     `json:"target"`
	Fraction float64 `json:"fraction"`
	Earned   bool    `json:"earned"`
}
