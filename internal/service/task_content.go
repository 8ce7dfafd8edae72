package service

import "github.com/templui/heartline/internal/model"

// TaskTemplate is the content of one daily task.
type TaskTemplate struct {
	TaskType    string
	Title       string
	Description string
	Category    model.TaskCategory
	TargetValue int
	ToolLink    string
}

// TaskContentSource supplies daily task content.
type TaskContentSource interface {
	// Onboarding returns the fixed tasks of an onboarding journey day, or nil
	// when the day has none.
	Onboarding(journeyDay int) []TaskTemplate
	// Pool returns the rotating tasks of a category.
	Pool(category model.TaskCategory) []TaskTemplate
}

// OnboardingDays is the length of the onboarding journey.
const OnboardingDays = 7

type curatedContent struct{}

// CuratedContent is the built-in task catalog.
func CuratedContent() TaskContentSource { return curatedContent{} }

var onboardingTasks = map[int][]TaskTemplate{
	1: {
		{"complete_onboarding", "Finish your onboarding journey", "Complete the scan, your goals and the profile check", model.CategoryPractical, 1, "/onboarding"},
	},
	2: {
		{"review_profile", "Review your optimized profile", "Check your new bio and photo order", model.CategoryPractical, 1, "/profile"},
		{"read_tip", "Read one dating tip", "Pick a tip from your dashboard", model.CategoryMindset, 1, ""},
	},
	3: {
		{"quick_checkin", "Quick progress check", "How is it going? Share your experience in ten seconds", model.CategoryMindset, 1, ""},
		{"profile_action", "Do one profile action", "Update a photo or your bio, or add something new", model.CategoryPractical, 1, "/profile"},
	},
	4: {
		{"send_messages", "Send 3 messages", "Try your openers on your matches", model.CategorySocial, 3, ""},
		{"review_conversations", "Analyze one conversation", "Ask the coach for feedback on a chat", model.CategorySocial, 1, "/coach"},
		{"daily_practice", "Practice a micro-compliment", "In a chat or in real life", model.CategoryMindset, 1, ""},
	},
	5: {
		{"send_messages", "Send 3 messages", "Try your openers on your matches", model.CategorySocial, 3, ""},
		{"review_conversations", "Analyze one conversation", "Ask the coach for feedback on a chat", model.CategorySocial, 1, "/coach"},
		{"daily_practice", "Practice a micro-compliment", "In a chat or in real life", model.CategoryMindset, 1, ""},
	},
	6: {
		{"emoji_reflection", "How did this week go?", "Pick good, okay or tough", model.CategoryMindset, 1, ""},
		{"continue_practice", "Stay active", "At least one interaction today", model.CategorySocial, 1, ""},
	},
	7: {
		{"week_review", "Week one review", "Look back at your progress and set new goals", model.CategoryMindset, 1, "/goals"},
	},
}

var taskPool = map[model.TaskCategory][]TaskTemplate{
	model.CategorySocial: {
		{"daily_activity", "Stay active in dating", "Check your matches and conversations", model.CategorySocial, 1, ""},
		{"send_messages", "Send 3 messages", "Try your openers on your matches", model.CategorySocial, 3, ""},
		{"ask_open_question", "Ask 2 open questions", "Keep a conversation going with curiosity", model.CategorySocial, 2, ""},
		{"start_conversation", "Start a new conversation", "Open with something from their profile", model.CategorySocial, 1, ""},
		{"review_conversations", "Analyze one conversation", "Ask the coach for feedback on a chat", model.CategorySocial, 1, "/coach"},
		{"suggest_date", "Suggest a date", "Propose a concrete plan to a match you click with", model.CategorySocial, 1, ""},
	},
	model.CategoryPractical: {
		{"profile_action", "Do one profile action", "Update a photo or your bio, or add something new", model.CategoryPractical, 1, "/profile"},
		{"refresh_bio", "Refresh your bio", "Rewrite one line so it sounds like you today", model.CategoryPractical, 1, "/profile"},
		{"photo_check", "Check your photo order", "Put your clearest smiling photo first", model.CategoryPractical, 1, "/profile"},
		{"set_goal", "Review your goals", "Adjust one goal to fit this week", model.CategoryPractical, 1, "/goals"},
	},
	model.CategoryMindset: {
		{"read_tip", "Read one dating tip", "Pick a tip from your dashboard", model.CategoryMindset, 1, ""},
		{"quick_checkin", "Quick progress check", "How is it going? Share your experience in ten seconds", model.CategoryMindset, 1, ""},
		{"daily_practice", "Practice a micro-compliment", "In a chat or in real life", model.CategoryMindset, 1, ""},
		{"gratitude_note", "Write down one win", "Note something that went well today, however small", model.CategoryMindset, 1, ""},
	},
}

func (curatedContent) Onboarding(journeyDay int) []TaskTemplate {
	return onboardingTasks[journeyDay]
}

func (curatedContent) Pool(category model.TaskCategory) []TaskTemplate {
	return taskPool[category]
}

// selectTasks picks up to n templates for a journey day. Task types in
// exclude (yesterday's) are skipped while alternatives exist. With
// socialBias the rotation leans on social tasks.
func selectTasks(src TaskContentSource, journeyDay int, socialBias bool, exclude map[string]bool, n int) []TaskTemplate {
	if n <= 0 {
		return nil
	}

	if journeyDay <= OnboardingDays {
		var picked []TaskTemplate
		for _, t := range src.Onboarding(journeyDay) {
			if !exclude[t.TaskType] {
				picked = append(picked, t)
			}
		}
		if len(picked) > 0 {
			if len(picked) > n {
				picked = picked[:n]
			}
			return picked
		}
	}

	order := model.TaskCategories
	if socialBias {
		order = []model.TaskCategory{model.CategorySocial, model.CategorySocial, model.CategoryMindset}
	}

	used := make(map[string]bool)
	var picked []TaskTemplate
	for i := 0; len(picked) < n && i < n*len(order); i++ {
		category := order[i%len(order)]
		t, ok := pickFromPool(src, category, journeyDay, exclude, used)
		if !ok {
			for _, other := range model.TaskCategories {
				if t, ok = pickFromPool(src, other, journeyDay, exclude, used); ok {
					break
				}
			}
		}
		if !ok {
			break
		}
		used[t.TaskType] = true
		picked = append(picked, t)
	}
	return picked
}

// pickFromPool rotates through the category pool starting at an offset
// derived from the journey day.
func pickFromPool(src TaskContentSource, category model.TaskCategory, journeyDay int, exclude, used map[string]bool) (TaskTemplate, bool) {
	pool := src.Pool(category)
	for i := range pool {
		t := pool[(journeyDay+i)%len(pool)]
		if !exclude[t.TaskType] && !used[t.TaskType] {
			return t, true
		}
	}
	return TaskTemplate{}, false
}
