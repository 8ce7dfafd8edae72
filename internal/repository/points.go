package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

type PointsRepository interface {
	Award(ctx context.Context, a *model.PointAward) (bool, error)
	Sum(ctx context.Context, userID string, from, to time.Time) (int, error)
}

type pointsRepository struct {
	db *sqlx.DB
}

func NewPointsRepository(db *sqlx.DB) PointsRepository {
	return &pointsRepository{db: db}
}

// Award credits an action once. False means the action was already paid.
func (r *pointsRepository) Award(ctx context.Context, a *model.PointAward) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO point_awards (user_id, source, source_id, points, awarded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, source, source_id) DO NOTHING
	`, a.UserID, a.Source, a.SourceID, a.Points, utc(a.AwardedAt))
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	return rows == 1, err
}

// Sum totals awards in [from, to). A zero bound leaves that side open.
func (r *pointsRepository) Sum(ctx context.Context, userID string, from, to time.Time) (int, error) {
	query := `SELECT COALESCE(SUM(points), 0) FROM point_awards WHERE user_id = $1`
	args := []any{userID}
	if !from.IsZero() {
		args = append(args, utc(from))
		query += ` AND awarded_at >= ` + placeholder(len(args))
	}
	if !to.IsZero() {
		args = append(args, utc(to))
		query += ` AND awarded_at < ` + placeholder(len(args))
	}

	var total int
	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &total, query, args...)
	})
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return total, nil
}
