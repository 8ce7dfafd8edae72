package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

var (
	ErrCheckinNotFound = apperr.NotFound("checkin_not_found", "no check-in for this day")
)

type CheckinRepository interface {
	Upsert(ctx context.Context, c *model.DailyCheckin) (bool, error)
	ByDate(ctx context.Context, userID, date string) (*model.DailyCheckin, error)
	Recent(ctx context.Context, userID string, limit int) ([]*model.DailyCheckin, error)
}

type checkinRepository struct {
	db *sqlx.DB
}

func NewCheckinRepository(db *sqlx.DB) CheckinRepository {
	return &checkinRepository{db: db}
}

// Upsert stores the check-in of (user, date), replacing ratings and notes
// of an existing one. ID and CreatedAt of the first submission are kept. It
// reports whether a new row was created.
func (r *checkinRepository) Upsert(ctx context.Context, c *model.DailyCheckin) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperr.Storage(err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO daily_checkins (id, user_id, checkin_date, journey_day, mood_rating, progress_rating,
		                            wins, challenges, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, checkin_date) DO NOTHING
	`, c.ID, c.UserID, c.CheckinDate, c.JourneyDay, c.MoodRating, c.ProgressRating,
		c.Wins, c.Challenges, c.Notes, utc(c.CreatedAt), utc(c.UpdatedAt))
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	if err != nil {
		return false, err
	}
	created := rows == 1

	if !created {
		_, err = tx.ExecContext(ctx, `
			UPDATE daily_checkins
			SET mood_rating = $1, progress_rating = $2, wins = $3, challenges = $4, notes = $5, updated_at = $6
			WHERE user_id = $7 AND checkin_date = $8
		`, c.MoodRating, c.ProgressRating, c.Wins, c.Challenges, c.Notes, utc(c.UpdatedAt), c.UserID, c.CheckinDate)
		if err != nil {
			return false, apperr.Storage(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, apperr.Storage(err)
	}
	return created, nil
}

func (r *checkinRepository) ByDate(ctx context.Context, userID, date string) (*model.DailyCheckin, error) {
	c := &model.DailyCheckin{}
	query := `SELECT * FROM daily_checkins WHERE user_id = $1 AND checkin_date = $2`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, c, query, userID, date)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCheckinNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return c, nil
}

// Recent returns the latest check-ins, newest day first.
func (r *checkinRepository) Recent(ctx context.Context, userID string, limit int) ([]*model.DailyCheckin, error) {
	var checkins []*model.DailyCheckin
	query := `SELECT * FROM daily_checkins WHERE user_id = $1 ORDER BY checkin_date DESC LIMIT $2`

	err := read(ctx, func(ctx context.Context) error {
		checkins = nil
		return r.db.SelectContext(ctx, &checkins, query, userID, limit)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return checkins, nil
}
