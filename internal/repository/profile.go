package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

var (
	ErrProfileNotFound = apperr.NotFound("profile_not_found", "profile not found")
)

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	UpdateName(ctx context.Context, userID, name string) error
	UpdateCompleteness(ctx context.Context, userID string, pct int) error
	MarkOnboardingSeen(ctx context.Context, userID string, at time.Time) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}

	return &profile, nil
}

// Create inserts the profile unless the user already has one.
func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, name, completeness, onboarding_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`, profile.ID, profile.UserID, profile.Name, profile.Completeness,
		utcPtr(profile.OnboardingSeenAt), utc(profile.CreatedAt), utc(profile.UpdatedAt))

	return apperr.Storage(err)
}

func (r *profileRepository) UpdateName(ctx context.Context, userID, name string) error {
	return r.update(ctx, `UPDATE profiles SET name = $1, updated_at = $2 WHERE user_id = $3`,
		name, utc(time.Now()), userID)
}

func (r *profileRepository) UpdateCompleteness(ctx context.Context, userID string, pct int) error {
	return r.update(ctx, `UPDATE profiles SET completeness = $1, updated_at = $2 WHERE user_id = $3`,
		pct, utc(time.Now()), userID)
}

// MarkOnboardingSeen keeps the first time the user saw onboarding.
func (r *profileRepository) MarkOnboardingSeen(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, `UPDATE profiles SET onboarding_seen_at = COALESCE(onboarding_seen_at, $1), updated_at = $1 WHERE user_id = $2`,
		utc(at), userID)
}

func (r *profileRepository) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Storage(err)
	}

	rows, err := affected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}
