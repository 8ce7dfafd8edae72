package handler

import (
	"net/http"

	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.Profile(r.Context(), userID)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, profile)
}

type profileRequest struct {
	Name           *string `json:"name,omitempty"`
	Completeness   *int    `json:"completeness,omitempty"`
	OnboardingSeen bool    `json:"onboardingSeen,omitempty"`
}

// Update applies the fields present in the body in order; the first invalid
// field stops the update.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if err := render.Decode(r, &req); err != nil {
		render.Fail(w, r, err)
		return
	}

	ctx := r.Context()
	var (
		profile *model.Profile
		err     error
	)
	if req.Name != nil {
		if profile, err = h.profileService.UpdateName(ctx, userID, *req.Name); err != nil {
			render.Fail(w, r, err)
			return
		}
	}
	if req.Completeness != nil {
		if profile, err = h.profileService.UpdateCompleteness(ctx, userID, *req.Completeness); err != nil {
			render.Fail(w, r, err)
			return
		}
	}
	if req.OnboardingSeen {
		if profile, err = h.profileService.MarkOnboardingSeen(ctx, userID); err != nil {
			render.Fail(w, r, err)
			return
		}
	}
	if profile == nil {
		if profile, err = h.profileService.Profile(ctx, userID); err != nil {
			render.Fail(w, r, err)
			return
		}
	}

	render.JSON(w, r, http.StatusOK, profile)
}
