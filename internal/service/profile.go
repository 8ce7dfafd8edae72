package service

import (
	"context"
	"errors"
	"time"

	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/validation"
)

// ProfileService keeps the per-user preference record.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	now         func() time.Time
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		now:         time.Now,
	}
}

// Profile returns the user's record, creating the default one on first use.
func (s *ProfileService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	now := s.now()
	err = s.profileRepo.Create(ctx, &model.Profile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return s.profileRepo.ByUserID(ctx, userID)
}

func (s *ProfileService) UpdateName(ctx context.Context, userID, name string) (*model.Profile, error) {
	name, err := validation.Name(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profileRepo.UpdateName(ctx, userID, name); err != nil {
		return nil, err
	}
	return s.profileRepo.ByUserID(ctx, userID)
}

// UpdateCompleteness stores the externally computed profile completeness.
func (s *ProfileService) UpdateCompleteness(ctx context.Context, userID string, pct int) (*model.Profile, error) {
	if err := validation.Between("completeness", "invalid_completeness", pct, 0, 100); err != nil {
		return nil, err
	}
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profileRepo.UpdateCompleteness(ctx, userID, pct); err != nil {
		return nil, err
	}
	return s.profileRepo.ByUserID(ctx, userID)
}

func (s *ProfileService) MarkOnboardingSeen(ctx context.Context, userID string) (*model.Profile, error) {
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profileRepo.MarkOnboardingSeen(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	return s.profileRepo.ByUserID(ctx, userID)
}

// Completeness is the profile signal used by the progress scorer. Users
// without a record score 0.
func (s *ProfileService) Completeness(ctx context.Context, userID string) (int, error) {
	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return model.ClampScore(profile.Completeness), nil
}
