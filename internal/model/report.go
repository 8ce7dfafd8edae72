package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type PeriodType string

const (
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

func (p PeriodType) Valid() bool {
	return p == PeriodWeekly || p == PeriodMonthly || p == PeriodYearly
}

type PeriodReport struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"userId"`
	PeriodType  PeriodType     `db:"period_type" json:"periodType"`
	PeriodStart time.Time      `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time      `db:"period_end" json:"periodEnd"`
	Provisional bool           `db:"provisional" json:"provisional"`
	Metrics     types.JSONText `db:"metrics" json:"metrics"`
	Insights    types.JSONText `db:"insights" json:"insights"`
	Comparison  types.JSONText `db:"comparison" json:"comparison"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// ReportMetrics is the metric set of one period snapshot.
type ReportMetrics struct {
	TotalMatches            int `json:"totalMatches"`
	QualityMatches          int `json:"qualityMatches"`
	TotalConversations      int `json:"totalConversations"`
	MeaningfulConversations int `json:"meaningfulConversations"`
	TotalDates              int `json:"totalDates"`
	SecondDates             int `json:"secondDates"`
	Logins                  int `json:"logins"`
	DaysActive              int `json:"daysActive"`
	ConsistencyScore        int `json:"consistencyScore"`
	LongestStreak           int `json:"longestStreak"`
	TasksCompleted          int `json:"tasksCompleted"`
	TotalTasks              int `json:"totalTasks"`
	GoalsAchieved           int `json:"goalsAchieved"`
	TotalGoals              int `json:"totalGoals"`
	BadgesEarned            int `json:"badgesEarned"`
	PointsEarned            int `json:"pointsEarned"`

	Progress ProgressMetrics `json:"progress"`
}

// Numeric returns the comparable metrics keyed by their JSON name.
func (m ReportMetrics) Numeric() map[string]int {
	return map[string]int{
		"totalMatches":            m.TotalMatches,
		"qualityMatches":          m.QualityMatches,
		"totalConversations":      m.TotalConversations,
		"meaningfulConversations": m.MeaningfulConversations,
		"totalDates":              m.TotalDates,
		"secondDates":             m.SecondDates,
		"logins":                  m.Logins,
		"daysActive":              m.DaysActive,
		"consistencyScore":        m.ConsistencyScore,
		"longestStreak":           m.LongestStreak,
		"tasksCompleted":          m.TasksCompleted,
		"totalTasks":              m.TotalTasks,
		"goalsAchieved":           m.GoalsAchieved,
		"totalGoals":              m.TotalGoals,
		"badgesEarned":            m.BadgesEarned,
		"pointsEarned":            m.PointsEarned,
		"overallScore":            m.Progress.OverallScore,
	}
}

// Comparison holds signed percentage deltas against the previous period.
// A nil delta means the previous value was zero.
type Comparison struct {
	PreviousReportID string              `json:"previousReportId"`
	Deltas           map[string]*float64 `json:"deltas"`
}

// YearReview summarizes the monthly snapshots of one calendar year.
type YearReview struct {
	Year          int        `json:"year"`
	MonthsCovered int        `json:"monthsCovered"`
	Totals        YearTotals `json:"totals"`

	StartProfileScore  int `json:"startProfileScore"`
	EndProfileScore    int `json:"endProfileScore"`
	ProfileImprovement int `json:"profileImprovement"`

	TopMonths   []MonthHighlight `json:"topMonths"`
	GrowthAreas []GrowthArea     `json:"growthAreas"`
}

// YearTotals sums the monthly metrics. LongestStreak is the best month's
// and ConsistencyScore covers only the months with a snapshot.
type YearTotals struct {
	TotalMatches            int `json:"totalMatches"`
	QualityMatches          int `json:"qualityMatches"`
	TotalConversations      int `json:"totalConversations"`
	MeaningfulConversations int `json:"meaningfulConversations"`
	TotalDates              int `json:"totalDates"`
	SecondDates             int `json:"secondDates"`
	DaysActive              int `json:"daysActive"`
	ConsistencyScore        int `json:"consistencyScore"`
	LongestStreak           int `json:"longestStreak"`
	TasksCompleted          int `json:"tasksCompleted"`
	GoalsAchieved           int `json:"goalsAchieved"`
	BadgesEarned            int `json:"badgesEarned"`
	PointsEarned            int `json:"pointsEarned"`
	AverageScore            int `json:"averageScore"`
}

type MonthHighlight struct {
	Month     string `json:"month"` // YYYY-MM
	Score     int    `json:"score"`
	Highlight string `json:"highlight"`
}

type GrowthArea struct {
	Area  string `json:"area"`
	Value int    `json:"value"`
	Trend string `json:"trend"`
}

type InsightStatus string

const (
	InsightsAvailable   InsightStatus = "available"
	InsightsUnavailable InsightStatus = "unavailable"
)

type Insights struct {
	Status           InsightStatus `json:"status"`
	Headline         string        `json:"headline,omitempty"`
	Score            int           `json:"score,omitempty"`
	Strengths        []string      `json:"strengths,omitempty"`
	ImprovementAreas []string      `json:"improvementAreas,omitempty"`
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

type ReportJob struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"userId"`
	PeriodType  PeriodType `db:"period_type" json:"periodType"`
	PeriodStart time.Time  `db:"period_start" json:"periodStart"`
	Provisional bool       `db:"provisional" json:"provisional"`
	Status      JobStatus  `db:"status" json:"status"`
	ReportID    *string    `db:"report_id" json:"reportId,omitempty"`
	Error       *string    `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}
