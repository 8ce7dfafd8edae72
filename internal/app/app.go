package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/cache"
	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/config"
	"github.com/templui/heartline/internal/db"
	"github.com/templui/heartline/internal/middleware"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/service"
	"github.com/templui/heartline/internal/storage"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Calendar         *calendar.Calendar
	RateLimiter      *middleware.RateLimiter
	AuthService      *service.AuthService
	ProfileService   *service.ProfileService
	ActivityService  *service.ActivityService
	StreakService    *service.StreakService
	GoalService      *service.GoalService
	DailyTaskService *service.DailyTaskService
	PointsService    *service.PointsService
	CheckinService   *service.CheckinService
	ScorerService    *service.ScorerService
	BadgeService     *service.BadgeService
	ReportService    *service.ReportService
	ReportJobService *service.ReportJobService

	closeCache func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Open(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.DBAutoMigrate {
		err = db.Migrate(ctx, database.DB, cfg.DBDriver)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a := &App{
		Cfg:      cfg,
		DB:       database,
		Calendar: calendar.New(cfg.Location()),
	}

	// Cache for derived engagement state
	engagementCache := cache.Nop()
	if cfg.RedisAddr != "" {
		c, closeFn, err := cache.NewRedis(ctx, cfg.RedisAddr, "heartline:")
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		engagementCache = c
		a.closeCache = closeFn
	}

	// Repositories
	activityRepository := repository.NewActivityRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	dailyTaskRepository := repository.NewDailyTaskRepository(database)
	badgeRepository := repository.NewBadgeRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	reportRepository := repository.NewReportRepository(database)
	reportJobRepository := repository.NewReportJobRepository(database)
	checkinRepository := repository.NewCheckinRepository(database)
	pointsRepository := repository.NewPointsRepository(database)

	// Services
	weights := model.Weights{
		Profile:      cfg.WeightProfile,
		Conversation: cfg.WeightConversation,
		Consistency:  cfg.WeightConsistency,
	}

	a.AuthService = service.NewAuthService(cfg.JWTSecret, 24*time.Hour)
	a.ProfileService = service.NewProfileService(profileRepository)
	a.ActivityService = service.NewActivityService(activityRepository)
	a.StreakService = service.NewStreakService(a.ActivityService, a.Calendar, engagementCache, cfg.EngagementCacheTTL)
	a.GoalService = service.NewGoalService(goalRepository, a.ActivityService)
	a.PointsService = service.NewPointsService(pointsRepository)
	a.DailyTaskService = service.NewDailyTaskService(dailyTaskRepository, a.ActivityService, a.GoalService, a.PointsService, nil, a.Calendar, cfg.DailyTaskCount)
	a.CheckinService = service.NewCheckinService(checkinRepository, a.DailyTaskService, a.PointsService)
	a.ScorerService = service.NewScorerService(a.ActivityService, a.ProfileService, a.Calendar, weights, cfg.ScoreWindowDays)
	a.BadgeService = service.NewBadgeService(badgeRepository, a.ActivityService, a.StreakService, a.GoalService, a.ScorerService)
	a.ReportService = service.NewReportService(
		reportRepository,
		a.ActivityService,
		a.GoalService,
		a.DailyTaskService,
		a.BadgeService,
		a.PointsService,
		a.ScorerService,
		nil,
		a.Calendar,
		cfg.ProvisionalReportTTL,
	)
	a.ReportJobService = service.NewReportJobService(reportJobRepository, a.ReportService, cfg.ReportWorkers)

	// Streak cache must be invalidated before badges read it.
	a.ActivityService.AddListener(a.StreakService)
	a.ActivityService.AddListener(a.BadgeService)

	// Report archive (optional)
	if cfg.HasS3() {
		archive, err := storage.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.ReportService.SetArchive(archive)
	}

	if cfg.RateLimitPerMinute > 0 {
		a.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	return a, nil
}

// Run drives the background work until ctx is cancelled: the report job
// workers and the rate limiter sweep.
func (a *App) Run(ctx context.Context) error {
	if a.RateLimiter != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.RateLimiter.Cleanup()
				}
			}
		}()
	}

	err := a.ReportJobService.Run(ctx)
	if err != nil && ctx.Err() == nil {
		slog.Error("report workers stopped", "error", err)
		return err
	}
	return nil
}

func (a *App) Close() error {
	if a.closeCache != nil {
		if err := a.closeCache(); err != nil {
			slog.Error("failed to close cache", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
