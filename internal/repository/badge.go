package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

type BadgeRepository interface {
	Grant(ctx context.Context, userID string, badge model.BadgeType, at time.Time) (bool, error)
	Earned(ctx context.Context, userID string) ([]*model.EarnedBadge, error)
	EarnedBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.EarnedBadge, error)
}

type badgeRepository struct {
	db *sqlx.DB
}

func NewBadgeRepository(db *sqlx.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

// Grant records a badge unless the user already holds it. It reports
// whether this call was the one that granted it.
func (r *badgeRepository) Grant(ctx context.Context, userID string, badge model.BadgeType, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO earned_badges (user_id, badge_type, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_type) DO NOTHING
	`, userID, badge, utc(at))
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows == 1, err
}

func (r *badgeRepository) Earned(ctx context.Context, userID string) ([]*model.EarnedBadge, error) {
	var badges []*model.EarnedBadge
	query := `SELECT * FROM earned_badges WHERE user_id = $1 ORDER BY earned_at ASC, badge_type ASC`

	err := read(ctx, func(ctx context.Context) error {
		badges = nil
		return r.db.SelectContext(ctx, &badges, query, userID)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return badges, nil
}

func (r *badgeRepository) EarnedBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.EarnedBadge, error) {
	var badges []*model.EarnedBadge
	query := `SELECT * FROM earned_badges
	          WHERE user_id = $1 AND earned_at >= $2 AND earned_at < $3
	          ORDER BY earned_at ASC, badge_type ASC`

	err := read(ctx, func(ctx context.Context) error {
		badges = nil
		return r.db.SelectContext(ctx, &badges, query, userID, utc(from), utc(to))
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return badges, nil
}
