package model

// EngagementState is derived from the activity log on demand.
type EngagementState struct {
	JourneyDay     int    `json:"journeyDay"`
	CurrentStreak  int    `json:"currentStreak"`
	LongestStreak  int    `json:"longestStreak"`
	TotalLogins    int    `json:"totalLogins"`
	WeeklyActive   bool   `json:"weeklyActive"`
	LastActiveDate string `json:"lastActiveDate,omitempty"`
}
