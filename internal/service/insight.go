package service

import (
	"context"

	"github.com/templui/heartline/internal/model"
)

// InsightGenerator summarizes a period's metrics. Implementations may call
// out to external services; the result is stored as returned.
type InsightGenerator interface {
	Generate(ctx context.Context, m model.ReportMetrics) (model.Insights, error)
}

// RuleInsights is the built-in generator: fixed thresholds, no NLG.
type RuleInsights struct{}

func (RuleInsights) Generate(_ context.Context, m model.ReportMetrics) (model.Insights, error) {
	in := model.Insights{
		Status: model.InsightsAvailable,
		Score:  m.Progress.OverallScore,
	}

	switch score := m.Progress.OverallScore; {
	case score >= 80:
		in.Headline = "An excellent period. Keep this rhythm going."
	case score >= 60:
		in.Headline = "Solid progress. A few habits will take you further."
	case score >= 40:
		in.Headline = "You are building momentum."
	default:
		in.Headline = "A quiet period. Small daily steps will get you moving."
	}

	if m.ConsistencyScore >= 70 {
		in.Strengths = append(in.Strengths, "You showed up on most days.")
	} else if m.ConsistencyScore < 40 {
		in.ImprovementAreas = append(in.ImprovementAreas, "Try to be active on more days, even briefly.")
	}

	if m.TotalConversations > 0 && m.Progress.ConversationQuality >= 60 {
		in.Strengths = append(in.Strengths, "Most of your conversations went deeper than small talk.")
	} else if m.TotalConversations == 0 {
		in.ImprovementAreas = append(in.ImprovementAreas, "Start a few conversations with your matches.")
	} else {
		in.ImprovementAreas = append(in.ImprovementAreas, "Ask more open questions to make conversations meaningful.")
	}

	if m.TotalTasks > 0 {
		if rate := model.Percent(m.TasksCompleted, m.TotalTasks); rate >= 70 {
			in.Strengths = append(in.Strengths, "You completed most of your daily tasks.")
		} else if rate < 50 {
			in.ImprovementAreas = append(in.ImprovementAreas, "Finish at least one daily task each day.")
		}
	}

	if m.QualityMatches > 0 {
		in.Strengths = append(in.Strengths, "You made quality matches.")
	}
	if m.SecondDates > 0 {
		in.Strengths = append(in.Strengths, "Your dates led to second dates.")
	} else if m.TotalMatches > 0 && m.TotalDates == 0 {
		in.ImprovementAreas = append(in.ImprovementAreas, "Turn a promising match into a date.")
	}
	if m.GoalsAchieved > 0 {
		in.Strengths = append(in.Strengths, "You achieved goals you set for yourself.")
	}

	return in, nil
}
