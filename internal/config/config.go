package config

import (
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default score weights. They must sum to 1.0.
const (
	DefaultWeightProfile      = 0.3
	DefaultWeightConversation = 0.3
	DefaultWeightConsistency  = 0.4
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver      string
	DBConnection  string
	DBAutoMigrate bool

	// Security (tokens are issued by the external auth service)
	JWTSecret          string
	RateLimitPerMinute int // per client, 0 disables

	// Observability (optional)
	SentryDSN string

	// Engagement
	Timezone             string // IANA name; every calendar day is computed in this location
	DailyTaskCount       int
	ScoreWindowDays      int
	WeightProfile        float64
	WeightConversation   float64
	WeightConsistency    float64
	ProvisionalReportTTL time.Duration
	ReportWorkers        int

	// Cache (optional)
	RedisAddr          string
	EngagementCacheTTL time.Duration

	// Storage for report snapshots (optional, S3-compatible)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Heartline"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:      envString("DB_DRIVER", "sqlite"),
		DBConnection:  envString("DB_CONNECTION", "./data/heartline.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", true),

		// Security
		JWTSecret:          envRequired("JWT_SECRET"),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Engagement
		Timezone:             envString("TIMEZONE", "UTC"),
		DailyTaskCount:       envInt("DAILY_TASK_COUNT", 3),
		ScoreWindowDays:      envInt("SCORE_WINDOW_DAYS", 30),
		WeightProfile:        envFloat("SCORE_WEIGHT_PROFILE", DefaultWeightProfile),
		WeightConversation:   envFloat("SCORE_WEIGHT_CONVERSATION", DefaultWeightConversation),
		WeightConsistency:    envFloat("SCORE_WEIGHT_CONSISTENCY", DefaultWeightConsistency),
		ProvisionalReportTTL: envDuration("PROVISIONAL_REPORT_TTL", time.Hour),
		ReportWorkers:        envInt("REPORT_WORKERS", 4),

		// Cache
		RedisAddr:          envString("REDIS_ADDR", ""),
		EngagementCacheTTL: envDuration("ENGAGEMENT_CACHE_TTL", 10*time.Minute),

		// Storage
		S3Region:    envString("S3_REGION", ""),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	cfg.normalize()

	return cfg
}

// normalize replaces out-of-range engagement settings with defaults.
func (c *Config) normalize() {
	if !ValidWeights(c.WeightProfile, c.WeightConversation, c.WeightConsistency) {
		slog.Warn("config score weights must be non-negative and sum to 1.0, using defaults",
			"profile", c.WeightProfile,
			"conversation", c.WeightConversation,
			"consistency", c.WeightConsistency,
		)
		c.WeightProfile = DefaultWeightProfile
		c.WeightConversation = DefaultWeightConversation
		c.WeightConsistency = DefaultWeightConsistency
	}

	if c.DailyTaskCount < 1 || c.DailyTaskCount > 9 {
		slog.Warn("config invalid daily task count, using default", "value", c.DailyTaskCount, "default", 3)
		c.DailyTaskCount = 3
	}

	if c.ScoreWindowDays < 1 {
		slog.Warn("config invalid score window, using default", "value", c.ScoreWindowDays, "default", 30)
		c.ScoreWindowDays = 30
	}

	if c.ReportWorkers < 1 {
		c.ReportWorkers = 1
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		slog.Warn("config invalid timezone, using UTC", "value", c.Timezone, "error", err)
		c.Timezone = "UTC"
	}
}

// ValidWeights reports whether the three score weights are usable.
func ValidWeights(profile, conversation, consistency float64) bool {
	if profile < 0 || conversation < 0 || consistency < 0 {
		return false
	}
	return math.Abs(profile+conversation+consistency-1.0) < 1e-9
}

// Location returns the configured time zone. Falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasS3 reports whether report snapshots should be archived to object storage.
func (c *Config) HasS3() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:         c.AppName,
		AppEnv:          c.AppEnv,
		Port:            c.Port,
		Timezone:        c.Timezone,
		DailyTaskCount:  c.DailyTaskCount,
		ScoreWindowDays: c.ScoreWindowDays,
		S3Endpoint:      c.S3Endpoint,
	}
}
