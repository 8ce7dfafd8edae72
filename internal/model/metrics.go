package model

import "math"

type MetricsStatus string

const (
	MetricsComplete MetricsStatus = "complete"
	MetricsPartial  MetricsStatus = "partial"
)

// Sub-score names reported in ProgressMetrics.Unavailable.
const (
	SubScoreProfile      = "profileScore"
	SubScoreConversation = "conversationQuality"
	SubScoreConsistency  = "consistency"
)

type ProgressMetrics struct {
	ProfileScore        int           `json:"profileScore"`
	ConversationQuality int           `json:"conversationQuality"`
	Consistency         int           `json:"consistency"`
	OverallScore        int           `json:"overallScore"`
	Status              MetricsStatus `json:"status"`
	Unavailable         []string      `json:"unavailable,omitempty"`
}

type Weights struct {
	Profile      float64 `json:"profile"`
	Conversation float64 `json:"conversation"`
	Consistency  float64 `json:"consistency"`
}

// Overall combines the three sub-scores. The result stays in [0,100] for any
// weights that are non-negative and sum to one.
func (w Weights) Overall(profile, conversation, consistency int) int {
	v := w.Profile*float64(profile) +
		w.Conversation*float64(conversation) +
		w.Consistency*float64(consistency)
	return ClampScore(int(math.Round(v)))
}
