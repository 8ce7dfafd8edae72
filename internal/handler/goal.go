package handler

import (
	"net/http"

	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

type goalResponse struct {
	*model.Goal
	ProgressPercentage int `json:"progressPercentage"`
}

func newGoalResponse(g *model.Goal) goalResponse {
	return goalResponse{Goal: g, ProgressPercentage: g.ProgressPercentage()}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	includeArchived, err := queryBool(r, "includeArchived")
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	goals, err := h.goalService.Goals(r.Context(), userID, repository.GoalFilter{
		GoalType:        model.GoalType(r.URL.Query().Get("goalType")),
		Status:          model.GoalStatus(r.URL.Query().Get("status")),
		IncludeArchived: includeArchived,
	})
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	render.JSON(w, r, http.StatusOK, map[string]any{"goals": out})
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in service.GoalInput
	if err := render.Decode(r, &in); err != nil {
		render.Fail(w, r, err)
		return
	}

	goal, err := h.goalService.Create(r.Context(), userID, in)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusCreated, newGoalResponse(goal))
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, newGoalResponse(goal))
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var changes service.GoalChanges
	if err := render.Decode(r, &changes); err != nil {
		render.Fail(w, r, err)
		return
	}

	goal, err := h.goalService.Update(r.Context(), userID, r.PathValue("id"), changes)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, newGoalResponse(goal))
}

func (h *GoalHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
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

	goal, err := h.goalService.UpdateProgress(r.Context(), userID, r.PathValue("id"), value)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, newGoalResponse(goal))
}

func (h *GoalHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.Reopen(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, newGoalResponse(goal))
}

func (h *GoalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.Archive(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, newGoalResponse(goal))
}
