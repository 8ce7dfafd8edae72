package handler

import (
	"net/http"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/service"
)

type CheckinHandler struct {
	checkinService *service.CheckinService
}

func NewCheckinHandler(checkinService *service.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		checkinService: checkinService,
	}
}

type checkinRequest struct {
	MoodRating     *int   `json:"moodRating"`
	ProgressRating *int   `json:"progressRating"`
	Wins           string `json:"wins,omitempty"`
	Challenges     string `json:"challenges,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Submit answers 201 for the first check-in of the day and 200 when it
// replaces one.
func (h *CheckinHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req checkinRequest
	if err := render.Decode(r, &req); err != nil {
		render.Fail(w, r, err)
		return
	}
	if req.MoodRating == nil {
		render.Fail(w, r, apperr.Validation("moodRating", "required", "moodRating is required"))
		return
	}
	if req.ProgressRating == nil {
		render.Fail(w, r, apperr.Validation("progressRating", "required", "progressRating is required"))
		return
	}

	checkin, created, err := h.checkinService.Submit(r.Context(), userID, service.CheckinInput{
		MoodRating:     *req.MoodRating,
		ProgressRating: *req.ProgressRating,
		Wins:           req.Wins,
		Challenges:     req.Challenges,
		Notes:          req.Notes,
	})
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	render.JSON(w, r, status, checkin)
}

func (h *CheckinHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	checkin, err := h.checkinService.ForDay(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, checkin)
}

func (h *CheckinHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", 30)
	if err != nil {
		render.Fail(w, r, err)
		return
	}

	checkins, err := h.checkinService.Recent(r.Context(), userID, limit)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, map[string]any{"checkins": checkins})
}
