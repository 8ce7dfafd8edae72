package service

import "github.com/templui/heartline/internal/model"

// badgeRule pairs a catalog badge with its unlock rule. A rule is satisfied
// once current reaches target.
type badgeRule struct {
	badge    model.Badge
	progress func(st model.BadgeStats) (current, target int)
}

func atLeast(target int, stat func(st model.BadgeStats) int) func(model.BadgeStats) (int, int) {
	return func(st model.BadgeStats) (int, int) {
		return stat(st), target
	}
}

func currentStreakStat(st model.BadgeStats) int { return st.CurrentStreak }
func tasksStat(st model.BadgeStats) int         { return st.TasksCompleted }
func matchesStat(st model.BadgeStats) int       { return st.Matches }
func conversationsStat(st model.BadgeStats) int { return st.MeaningfulConversations }
func datesStat(st model.BadgeStats) int         { return st.Dates }
func goalsStat(st model.BadgeStats) int         { return st.GoalsCompleted }

// badgeCatalog is ordered bronze to platinum within each family. The order
// breaks ties when picking the next badge.
var badgeCatalog = []badgeRule{
	{model.Badge{Type: model.BadgeFirstLogin, Name: "First Step", Description: "Log in for the first time", Tier: model.TierBronze, Points: 10},
		atLeast(1, func(st model.BadgeStats) int { return st.TotalLogins })},

	{model.Badge{Type: model.BadgeStreak3, Name: "Starter Streak", Description: "Be active 3 days in a row", Tier: model.TierBronze, Points: 50},
		atLeast(3, currentStreakStat)},
	{model.Badge{Type: model.BadgeStreak7, Name: "Week Warrior", Description: "Be active 7 days in a row", Tier: model.TierSilver, Points: 100},
		atLeast(7, currentStreakStat)},
	{model.Badge{Type: model.BadgeStreak30, Name: "Month Master", Description: "Be active 30 days in a row", Tier: model.TierGold, Points: 500},
		atLeast(30, currentStreakStat)},
	{model.Badge{Type: model.BadgeStreak100, Name: "Consistency Champion", Description: "Be active 100 days in a row", Tier: model.TierPlatinum, Points: 2000},
		atLeast(100, currentStreakStat)},

	{model.Badge{Type: model.BadgeJourneyWeek, Name: "First Week", Description: "Complete seven journey days", Tier: model.TierBronze, Points: 75},
		atLeast(7, func(st model.BadgeStats) int { return st.JourneyDay })},

	{model.Badge{Type: model.BadgeTasks10, Name: "Getting Started", Description: "Complete 10 daily tasks", Tier: model.TierBronze, Points: 50},
		atLeast(10, tasksStat)},
	{model.Badge{Type: model.BadgeTasks50, Name: "Task Master", Description: "Complete 50 daily tasks", Tier: model.TierSilver, Points: 150},
		atLeast(50, tasksStat)},
	{model.Badge{Type: model.BadgeTasks100, Name: "Productivity Pro", Description: "Complete 100 daily tasks", Tier: model.TierGold, Points: 300},
		atLeast(100, tasksStat)},
	{model.Badge{Type: model.BadgeTasks500, Name: "Achievement Hunter", Description: "Complete 500 daily tasks", Tier: model.TierPlatinum, Points: 1500},
		atLeast(500, tasksStat)},

	{model.Badge{Type: model.BadgeMatches10, Name: "Match Maker", Description: "Get 10 matches", Tier: model.TierBronze, Points: 100},
		atLeast(10, matchesStat)},
	{model.Badge{Type: model.BadgeMatches50, Name: "Popular Player", Description: "Get 50 matches", Tier: model.TierSilver, Points: 300},
		atLeast(50, matchesStat)},
	{model.Badge{Type: model.BadgeMatches100, Name: "Match Magnet", Description: "Get 100 matches", Tier: model.TierGold, Points: 600},
		atLeast(100, matchesStat)},
	{model.Badge{Type: model.BadgeQualityMatches, Name: "Picky in a Good Way", Description: "Get 10 quality matches", Tier: model.TierSilver, Points: 200},
		atLeast(10, func(st model.BadgeStats) int { return st.QualityMatches })},

	{model.Badge{Type: model.BadgeConversations10, Name: "Great Conversationalist", Description: "Have 10 meaningful conversations", Tier: model.TierBronze, Points: 100},
		atLeast(10, conversationsStat)},
	{model.Badge{Type: model.BadgeConversations50, Name: "Social Butterfly", Description: "Have 50 meaningful conversations", Tier: model.TierSilver, Points: 300},
		atLeast(50, conversationsStat)},
	{model.Badge{Type: model.BadgeConversations100, Name: "Communication Expert", Description: "Have 100 meaningful conversations", Tier: model.TierGold, Points: 600},
		atLeast(100, conversationsStat)},

	{model.Badge{Type: model.BadgeDates5, Name: "Date Starter", Description: "Go on 5 dates", Tier: model.TierBronze, Points: 150},
		atLeast(5, datesStat)},
	{model.Badge{Type: model.BadgeDates10, Name: "Dating Pro", Description: "Go on 10 dates", Tier: model.TierSilver, Points: 300},
		atLeast(10, datesStat)},
	{model.Badge{Type: model.BadgeDates25, Name: "Date Master", Description: "Go on 25 dates", Tier: model.TierGold, Points: 750},
		atLeast(25, datesStat)},

	{model.Badge{Type: model.BadgeFirstGoal, Name: "Goal Getter", Description: "Complete your first goal", Tier: model.TierBronze, Points: 50},
		atLeast(1, goalsStat)},
	{model.Badge{Type: model.BadgeGoals10, Name: "Goal Crusher", Description: "Complete 10 goals", Tier: model.TierGold, Points: 500},
		atLeast(10, goalsStat)},

	{model.Badge{Type: model.BadgeProfileComplete, Name: "Profile Perfectionist", Description: "Reach a complete profile", Tier: model.TierSilver, Points: 200},
		atLeast(100, func(st model.BadgeStats) int { return st.ProfileScore })},
	{model.Badge{Type: model.BadgeTopScore, Name: "Top Form", Description: "Reach an overall progress score of 90", Tier: model.TierPlatinum, Points: 1000},
		atLeast(90, func(st model.BadgeStats) int { return st.OverallScore })},
}

// Catalog returns every badge in catalog order.
func Catalog() []model.Badge {
	badges := make([]model.Badge, len(badgeCatalog))
	for i, r := range badgeCatalog {
		badges[i] = r.badge
	}
	return badges
}

func catalogBadge(t model.BadgeType) (model.Badge, bool) {
	for _, r := range badgeCatalog {
		if r.badge.Type == t {
			return r.badge, true
		}
	}
	return model.Badge{}, false
}

// fraction is min(current/target, 1).
func fraction(current, target int) float64 {
	if target <= 0 || current >= target {
		return 1
	}
	if current <= 0 {
		return 0
	}
	return float64(current) / float64(target)
}
