package routes

import (
	"net/http"

	"github.com/templui/heartline/internal/app"
	"github.com/templui/heartline/internal/handler"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/middleware"
	"github.com/templui/heartline/internal/render"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	activity := handler.NewActivityHandler(app.ActivityService)
	goal := handler.NewGoalHandler(app.GoalService)
	tasks := handler.NewDailyTaskHandler(app.DailyTaskService, app.Calendar)
	progress := handler.NewProgressHandler(app.ScorerService)
	profile := handler.NewProfileHandler(app.ProfileService)
	checkin := handler.NewCheckinHandler(app.CheckinService)
	engagement := handler.NewEngagementHandler(
		app.ActivityService,
		app.StreakService,
		app.BadgeService,
		app.ScorerService,
		app.DailyTaskService,
		app.PointsService,
		app.CheckinService,
		app.ReportService,
		app.ReportJobService,
		app.Calendar,
	)

	mux := http.NewServeMux()

	// protected registers an authenticated route instrumented under its pattern.
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Instrument(pattern, middleware.RequireAuth(h)))
	}

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Check)
	mux.Handle("GET /metrics", metrics.Handler())

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Activity log
	protected("POST /activity", activity.Record)
	protected("GET /activity", activity.List)

	// Goals
	protected("GET /goals", goal.List)
	protected("POST /goals", goal.Create)
	protected("GET /goals/{id}", goal.Get)
	protected("PATCH /goals/{id}", goal.Update)
	protected("POST /goals/{id}/progress", goal.UpdateProgress)
	protected("POST /goals/{id}/reopen", goal.Reopen)
	protected("POST /goals/{id}/archive", goal.Archive)

	// Daily tasks
	protected("POST /daily-tasks/generate", tasks.Generate)
	protected("GET /daily-tasks", tasks.List)
	protected("POST /daily-tasks/{id}/skip", tasks.Skip)
	protected("POST /engagement/task-progress", tasks.UpdateProgress)

	// Engagement
	protected("GET /engagement/dashboard", engagement.Dashboard)
	protected("GET /engagement/badges", engagement.Badges)
	protected("GET /engagement/monthly-report", engagement.MonthlyReport)
	protected("GET /engagement/reports", engagement.Reports)
	protected("POST /engagement/reports", engagement.RequestReport)
	protected("GET /engagement/reports/yearly", engagement.YearReview)
	protected("GET /engagement/reports/{id}", engagement.Report)
	protected("GET /engagement/reports/{id}/archive", engagement.ReportArchive)
	protected("GET /engagement/report-jobs/{id}", engagement.ReportJob)

	// Daily check-in
	protected("POST /engagement/checkin", checkin.Submit)
	protected("GET /engagement/checkin", checkin.Get)
	protected("GET /engagement/checkins", checkin.List)

	// Progress and profile
	protected("GET /progress/current", progress.Current)
	protected("GET /profile", profile.Get)
	protected("PATCH /profile", profile.Update)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, r, http.StatusNotFound, "not_found", "", "route not found")
	})

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Config(app.Cfg),
		middleware.AuthMiddleware(app.AuthService),
		middleware.CSRFProtection, // only cookie-authenticated requests are checked
		middleware.RateLimit(app.RateLimiter),
	)

	return handler
}
