package handler

import (
	"net/http"

	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/service"
)

type ProgressHandler struct {
	scorerService *service.ScorerService
}

func NewProgressHandler(scorerService *service.ScorerService) *ProgressHandler {
	return &ProgressHandler{
		scorerService: scorerService,
	}
}

// Current never fails; a signal that cannot be read scores 0 and is listed
// in the response.
func (h *ProgressHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	render.JSON(w, r, http.StatusOK, h.scorerService.ComputeMetrics(r.Context(), userID))
}
