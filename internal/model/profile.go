package model

import "time"

// Profile is the per-user preference record kept by the backend.
type Profile struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"userId"`
	Name             string     `db:"name" json:"name"`
	Completeness     int        `db:"completeness" json:"completeness"`
	OnboardingSeenAt *time.Time `db:"onboarding_seen_at" json:"onboardingSeenAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}
