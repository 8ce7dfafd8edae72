package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/repository"
	"github.com/templui/heartline/internal/service"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

type recordRequest struct {
	Type      model.ActivityType `json:"type"`
	Payload   json.RawMessage    `json:"payload,omitempty"`
	Timestamp *time.Time         `json:"timestamp,omitempty"`
}

func (h *ActivityHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req recordRequest
	if err := render.Decode(r, &req); err != nil {
		render.Fail(w, r, err)
		return
	}

	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	event, err := h.activityService.Record(r.Context(), userID, req.Type, req.Payload, at)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusCreated, event)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := repository.ActivityFilter{
		Type:    model.ActivityType(q.Get("type")),
		AfterID: q.Get("after"),
	}

	var err error
	if f.From, err = queryTime(r, "from"); err != nil {
		render.Fail(w, r, err)
		return
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		render.Fail(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit", repository.DefaultActivityLimit); err != nil {
		render.Fail(w, r, err)
		return
	}
	if f.Limit <= 0 {
		f.Limit = repository.DefaultActivityLimit
	}
	f.Limit = min(f.Limit, repository.MaxActivityLimit)

	events, err := h.activityService.Query(r.Context(), userID, f)
	if err != nil {
		render.Fail(w, r, err)
		return
	}
	if events == nil {
		events = []*model.ActivityEvent{}
	}

	resp := map[string]any{"events": events}
	if len(events) > 0 && len(events) == f.Limit {
		resp["nextCursor"] = events[len(events)-1].ID
	}
	render.JSON(w, r, http.StatusOK, resp)
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperr.Validation(name, "invalid_timestamp", name+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}
