package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidWeights(t *testing.T) {
	assert.True(t, ValidWeights(0.3, 0.3, 0.4))
	assert.True(t, ValidWeights(1, 0, 0))
	assert.False(t, ValidWeights(0.5, 0.5, 0.5))
	assert.False(t, ValidWeights(-0.2, 0.6, 0.6))
}

func TestLoad_NormalizesEngagementSettings(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SCORE_WEIGHT_PROFILE", "0.9")
	t.Setenv("SCORE_WEIGHT_CONVERSATION", "0.9")
	t.Setenv("DAILY_TASK_COUNT", "0")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	t.Setenv("PROVISIONAL_REPORT_TTL", "30m")

	cfg := Load()

	assert.Equal(t, DefaultWeightProfile, cfg.WeightProfile)
	assert.Equal(t, DefaultWeightConversation, cfg.WeightConversation)
	assert.Equal(t, DefaultWeightConsistency, cfg.WeightConsistency)
	assert.Equal(t, 3, cfg.DailyTaskCount)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 30*time.Minute, cfg.ProvisionalReportTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{AppName: "Heartline", JWTSecret: "s3cret", S3SecretKey: "key", Timezone: "Europe/Amsterdam"}

	safe := cfg.Sanitized()
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.S3SecretKey)
	assert.Equal(t, "Europe/Amsterdam", safe.Timezone)
}
