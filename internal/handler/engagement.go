package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/service"
)

type EngagementHandler struct {
	activityService  *service.ActivityService
	streakService    *service.StreakService
	badgeService     *service.BadgeService
	scorerService    *service.ScorerService
	taskService      *service.DailyTaskService
	pointsService    *service.PointsService
	checkinService   *service.CheckinService
	reportService    *service.ReportService
	reportJobService *service.ReportJobService
	cal              *calendar.Calendar
}

func NewEngagementHandler(
	activityService *service.ActivityService,
	streakService *service.StreakService,
	badgeService *service.BadgeService,
	scorerService *service.ScorerService,
	taskService *service.DailyTaskService,
	pointsService *service.PointsService,
	checkinService *service.CheckinService,
	reportService *service.ReportService,
	reportJobService *service.ReportJobService,
	cal *calendar.Calendar,
) *EngagementHandler {
	return &EngagementHandler{
		activityService:  activityService,
		streakService:    streakService,
		badgeService:     badgeService,
		scorerService:    scorerService,
		taskService:      taskService,
		pointsService:    pointsService,
		checkinService:   checkinService,
		reportService:    reportService,
		reportJobService: reportJobService,
		cal:              cal,
	}
}

// recentActivityLimit is the number of events on the dashboard.
const recentActivityLimit = 10

type dashboardResponse struct {
	Engagement     *model.EngagementState `json:"engagement"`
	Totals         model.ActivityCounts   `json:"totals"`
	Points         int                    `json:"points"`
	BadgePoints    int                    `json:"badgePoints"`
	ActionPoints   int                    `json:"actionPoints"`
	Progress       model.ProgressMetrics  `json:"progress"`
	TodayTasks     []*model.DailyTask     `json:"todayTasks"`
	TodayCheckin   *model.DailyCheckin    `json:"todayCheckin"`
	RecentActivity []*model.ActivityEvent `json:"recentActivity"`
}

// Dashboard gathers the home screen state. The parts are independent reads
// and are loaded concurrently.
func (h *EngagementHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var resp dashboardResponse
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		state, err := h.streakService.EngagementState(ctx, userID)
		resp.Engagement = state
		return err
	})
	g.Go(func() error {
		totals, err := h.activityService.Counts(ctx, userID, time.Time{}, time.Time{})
		resp.Totals = totals
		return err
	})
	g.Go(func() error {
		points, err := h.badgeService.Points(ctx, userID)
		resp.BadgePoints = points
		return err
	})
	g.Go(func() error {
		points, err := h.pointsService.Total(ctx, userID)
		resp.ActionPoints = points
		return err
	})
	g.Go(func() error {
		checkin, err := h.checkinService.ForDay(ctx, userID, "")
		if errors.Is(err, repository.ErrCheckinNotFound) {
			return nil
		}
		resp.TodayCheckin = checkin
		return err
	})
	g.Go(func() error {
		events, err := h.activityService.Query(ctx, userID, repository.ActivityFilter{Newest: true, Limit: recentActivityLimit})
		resp.RecentActivity = events
		return err
	})
	g.Go(func() error {
		resp.Progress = h.scorerService.ComputeMetrics(ctx, userID)
		return nil
	})
	g.Go(func() error {
		tasks, err := h.taskService.TasksForDay(ctx, userID, h.taskService.Today())
		resp.TodayTasks = tasks
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("failed to load dashboard", "error", err, "user_id", userID)
		render.Fail(w, r, err)
		return
	}
	if resp.TodayTasks == nil {
		resp.TodayTasks = []*model.DailyTask{}
	}
	if resp.RecentActivity == nil {
		resp.RecentActivity = []*model.ActivityEvent{}
	}
	resp.Points = resp.BadgePoints + resp.ActionPoints

	render.JSON(w, r, http.StatusOK, resp)
}

func (h *EngagementHandler) Badges(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	summary, err := h.badgeService.Summary(r.Context(), userID)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, summary)
}

// MonthlyReport defaults to the running month.
func (h *EngagementHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	now := time.Now().In(h.cal.Location())
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	report, err := h.reportService.FetchOrGenerateMonthly(r.Context(), userID, year, time.Month(month))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, report)
}

func (h *EngagementHandler) Reports(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", 12)
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	reports, err := h.reportService.History(r.Context(), userID, model.PeriodType(r.URL.Query().Get("periodType")), limit)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, map[string]any{"reports": reports})
}

// YearReview defaults to the running year.
func (h *EngagementHandler) YearReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	year, err := queryInt(r, "year", time.Now().In(h.cal.Location()).Year())
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	review, err := h.reportService.YearInReview(r.Context(), userID, year)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, review)
}

func (h *EngagementHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	report, err := h.reportService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, report)
}

func (h *EngagementHandler) ReportArchive(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	url, err := h.reportService.ArchiveURL(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, map[string]string{"url": url})
}

type reportJobRequest struct {
	PeriodType  model.PeriodType `json:"periodType"`
	PeriodStart string           `json:"periodStart"`
	Provisional bool             `json:"provisional"`
}

// RequestReport queues a report generation and answers 202 with the job.
func (h *EngagementHandler) RequestReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req reportJobRequest
	if err := render.Decode(r, &req); err != nil {
		render.Fail(w, r, err)
		return
	}

	var start time.Time
	if req.PeriodStart != "" {
		d, err := h.cal.Parse(req.PeriodStart)
		if err != nil {
			render.Fail(w, r, invalidDate("periodStart"))
			return
		}
		start = d
	}

	job, err := h.reportJobService.Enqueue(r.Context(), userID, req.PeriodType, start, req.Provisional)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusAccepted, job)
}

func (h *EngagementHandler) ReportJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	job, err := h.reportJobService.Job(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, job)
}
