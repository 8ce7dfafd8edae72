package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

// PointsService keeps the ledger of points earned by actions. Badge points
// are derived from the badge catalog and are not stored here.
type PointsService struct {
	repo repository.PointsRepository
	now  func() time.Time
}

func NewPointsService(repo repository.PointsRepository) *PointsService {
	return &PointsService{repo: repo, now: time.Now}
}

// Award credits an action. Repeated awards for the same source are ignored.
func (s *PointsService) Award(ctx context.Context, userID string, source model.PointSource, sourceID string, points int) (bool, error) {
	awarded, err := s.repo.Award(ctx, &model.PointAward{
		UserID:    userID,
		Source:    source,
		SourceID:  sourceID,
		Points:    points,
		AwardedAt: s.now(),
	})
	if err != nil {
		return false, err
	}
	if awarded {
		slog.Debug("points awarded", "user_id", userID, "source", source, "source_id", sourceID, "points", points)
	}
	return awarded, nil
}

// Total sums every action award of the user.
func (s *PointsService) Total(ctx context.Context, userID string) (int, error) {
	return s.repo.Sum(ctx, userID, time.Time{}, time.Time{})
}

// EarnedBetween sums action awards in [from, to).
func (s *PointsService) EarnedBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	return s.repo.Sum(ctx, userID, from, to)
}
