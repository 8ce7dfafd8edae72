package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

// BadgeSummary is what the badge endpoint returns.
type BadgeSummary struct {
	Earned []EarnedBadgeView    `json:"earned"`
	Next   *model.BadgeProgress `json:"next"`
	Points int                  `json:"points"`
	Total  int                  `json:"total"`
}

type EarnedBadgeView struct {
	model.Badge
	EarnedAt time.Time `json:"earnedAt"`
}

// BadgeService grants catalog badges. Each badge is granted at most once per
// user, also under concurrent evaluation.
type BadgeService struct {
	repo     repository.BadgeRepository
	activity *ActivityService
	streaks  *StreakService
	goals    *GoalService
	scorer   *ScorerService
	now      func() time.Time
}

func NewBadgeService(
	repo repository.BadgeRepository,
	activity *ActivityService,
	streaks *StreakService,
	goals *GoalService,
	scorer *ScorerService,
) *BadgeService {
	return &BadgeService{
		repo:     repo,
		activity: activity,
		streaks:  streaks,
		goals:    goals,
		scorer:   scorer,
		now:      time.Now,
	}
}

// Stats collects the snapshot the unlock rules read.
func (s *BadgeService) Stats(ctx context.Context, userID string) (model.BadgeStats, error) {
	state, err := s.streaks.EngagementState(ctx, userID)
	if err != nil {
		return model.BadgeStats{}, err
	}
	counts, err := s.activity.Counts(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return model.BadgeStats{}, err
	}
	goalsCompleted, err := s.goals.CountCompleted(ctx, userID)
	if err != nil {
		return model.BadgeStats{}, err
	}
	progress := s.scorer.ComputeMetrics(ctx, userID)

	return model.BadgeStats{
		CurrentStreak:           state.CurrentStreak,
		LongestStreak:           state.LongestStreak,
		JourneyDay:              state.JourneyDay,
		TotalLogins:             state.TotalLogins,
		TasksCompleted:          counts.TasksCompleted,
		Matches:                 counts.Matches,
		QualityMatches:          counts.QualityMatches,
		Conversations:           counts.Conversations,
		MeaningfulConversations: counts.MeaningfulConversations,
		Dates:                   counts.Dates,
		GoalsCompleted:          goalsCompleted,
		ProfileScore:            progress.ProfileScore,
		OverallScore:            progress.OverallScore,
	}, nil
}

// Evaluate grants every badge whose rule now holds and returns the ones this
// call granted.
func (s *BadgeService) Evaluate(ctx context.Context, userID string) ([]*model.EarnedBadge, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned, err := s.earnedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var granted []*model.EarnedBadge
	for _, rule := range badgeCatalog {
		if earned[rule.badge.Type] {
			continue
		}
		current, target := rule.progress(stats)
		if current < target {
			continue
		}

		ok, err := s.repo.Grant(ctx, userID, rule.badge.Type, now)
		if err != nil {
			return granted, err
		}
		if !ok {
			continue
		}

		metrics.BadgesGranted.WithLabelValues(string(rule.badge.Type)).Inc()
		slog.Info("badge granted", "user_id", userID, "badge", rule.badge.Type, "tier", rule.badge.Tier)
		granted = append(granted, &model.EarnedBadge{UserID: userID, BadgeType: rule.badge.Type, EarnedAt: now})
	}

	return granted, nil
}

// ActivityRecorded re-evaluates badges after every state change.
func (s *BadgeService) ActivityRecorded(ctx context.Context, userID string, t model.ActivityType) {
	if _, err := s.Evaluate(ctx, userID); err != nil {
		slog.Error("failed to evaluate badges", "error", err, "user_id", userID, "activity_type", t)
	}
}

func (s *BadgeService) Earned(ctx context.Context, userID string) ([]*model.EarnedBadge, error) {
	return s.repo.Earned(ctx, userID)
}

func (s *BadgeService) earnedSet(ctx context.Context, userID string) (map[model.BadgeType]bool, error) {
	badges, err := s.repo.Earned(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[model.BadgeType]bool, len(badges))
	for _, b := range badges {
		set[b.BadgeType] = true
	}
	return set, nil
}

// Progress lists every catalog badge with its satisfaction fraction, highest
// first. Equal fractions keep catalog order.
func (s *BadgeService) Progress(ctx context.Context, userID string) ([]model.BadgeProgress, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.earnedSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return badgeProgress(stats, earned), nil
}

func badgeProgress(stats model.BadgeStats, earned map[model.BadgeType]bool) []model.BadgeProgress {
	list := make([]model.BadgeProgress, 0, len(badgeCatalog))
	for _, rule := range badgeCatalog {
		current, target := rule.progress(stats)
		f := fraction(current, target)
		if earned[rule.badge.Type] {
			f = 1
		}
		list = append(list, model.BadgeProgress{
			Badge:    rule.badge,
			Current:  min(max(current, 0), target),
			Target:   target,
			Fraction: f,
			Earned:   earned[rule.badge.Type],
		})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Fraction > list[j].Fraction })
	return list
}

// nextBadge is the unearned badge closest to unlocking, nil when every badge
// is earned.
func nextBadge(list []model.BadgeProgress) *model.BadgeProgress {
	for i := range list {
		if !list[i].Earned {
			next := list[i]
			return &next
		}
	}
	return nil
}

func (s *BadgeService) NextBadge(ctx context.Context, userID string) (*model.BadgeProgress, error) {
	list, err := s.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nextBadge(list), nil
}

func (s *BadgeService) Points(ctx context.Context, userID string) (int, error) {
	badges, err := s.repo.Earned(ctx, userID)
	if err != nil {
		return 0, err
	}
	return pointsFor(badges), nil
}

func pointsFor(badges []*model.EarnedBadge) int {
	total := 0
	for _, b := range badges {
		if badge, ok := catalogBadge(b.BadgeType); ok {
			total += badge.Points
		}
	}
	return total
}

func (s *BadgeService) Summary(ctx context.Context, userID string) (*BadgeSummary, error) {
	badges, err := s.repo.Earned(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned := make(map[model.BadgeType]bool, len(badges))
	views := make([]EarnedBadgeView, 0, len(badges))
	for _, b := range badges {
		earned[b.BadgeType] = true
		badge, ok := catalogBadge(b.BadgeType)
		if !ok {
			continue
		}
		views = append(views, EarnedBadgeView{Badge: badge, EarnedAt: b.EarnedAt})
	}

	return &BadgeSummary{
		Earned: views,
		Next:   nextBadge(badgeProgress(stats, earned)),
		Points: pointsFor(badges),
		Total:  len(badgeCatalog),
	}, nil
}

// EarnedBetween returns badges granted in [from, to) and their points.
func (s *BadgeService) EarnedBetween(ctx context.Context, userID string, from, to time.Time) (int, int, error) {
	badges, err := s.repo.EarnedBetween(ctx, userID, from, to)
	if err != nil {
		return 0, 0, err
	}
	return len(badges), pointsFor(badges), nil
}
