package handler

import (
	"net/http"

	"github.com/templui/heartline/internal/calendar"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/service"
)

type DailyTaskHandler struct {
	taskService *service.DailyTaskService
	cal         *calendar.Calendar
}

func NewDailyTaskHandler(taskService *service.DailyTaskService, cal *calendar.Calendar) *DailyTaskHandler {
	return &DailyTaskHandler{
		taskService: taskService,
		cal:         cal,
	}
}

// date returns the requested day key, defaulting to today.
func (h *DailyTaskHandler) date(raw string) (string, error) {
	if raw == "" {
		return h.taskService.Today(), nil
	}
	d, err := h.cal.Parse(raw)
	if err != nil {
		return "", invalidDate("date")
	}
	return h.cal.Key(d), nil
}

func (h *DailyTaskHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Date string `json:"date,omitempty"`
	}
	if err := render.DecodeOptional(r, &req); err != nil {
		render.Fail(w, r, err)
		return
	}

	date, err := h.date(req.Date)
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	tasks, err := h.taskService.GenerateForDay(r.Context(), userID, date)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, tasksResponse(date, tasks))
}

func (h *DailyTaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	date, err := h.date(r.URL.Query().Get("date"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	tasks, err := h.taskService.TasksForDay(r.Context(), userID, date)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, tasksResponse(date, tasks))
}

func (h *DailyTaskHandler) Skip(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Skip(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, task)
}

func (h *DailyTaskHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if err := render.Decode(r, &req); err != nil {
		render.Fail(w, r, err)
		return
	}
	value, err := req.value()
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	if req.TaskID == "" {
		render.Error(w, r, http.StatusBadRequest, "required", "taskId", "taskId is required")
		return
	}

	task, err := h.taskService.UpdateTaskProgress(r.Context(), userID, req.TaskID, value)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, task)
}

func tasksResponse(date string, tasks []*model.DailyTask) map[string]any {
	if tasks == nil {
		tasks = []*model.DailyTask{}
	}
	return map[string]any{"date": date, "tasks": tasks}
}
