package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

// RecordListener is notified after an event is stored for a user.
type RecordListener interface {
	ActivityRecorded(ctx context.Context, userID string, t model.ActivityType)
}

// ActivityService is the append-only activity log.
type ActivityService struct {
	repo      repository.ActivityRepository
	listeners []RecordListener
	now       func() time.Time
}

func NewActivityService(repo repository.ActivityRepository) *ActivityService {
	return &ActivityService{
		repo: repo,
		now:  time.Now,
	}
}

// AddListener registers l. Listeners run in registration order.
func (s *ActivityService) AddListener(l RecordListener) {
	s.listeners = append(s.listeners, l)
}

var activityTypeList = func() string {
	names := make([]string, len(model.ActivityTypes))
	for i, t := range model.ActivityTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}()

// Record appends an event. A zero at means now. The payload must match the
// variant of t; it is stored in canonical form.
func (s *ActivityService) Record(ctx context.Context, userID string, t model.ActivityType, payload json.RawMessage, at time.Time) (*model.ActivityEvent, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId", "required", "userId is required")
	}
	if !t.Valid() {
		return nil, apperr.Validation("type", "invalid_activity_type", fmt.Sprintf("unknown activity type %q, want one of %s", t, activityTypeList))
	}

	variant, err := model.DecodePayload(t, payload)
	if err != nil {
		return nil, apperr.Validation("payload", "invalid_payload", err.Error())
	}
	canonical, err := json.Marshal(variant)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	now := s.now()
	if at.IsZero() {
		at = now
	}

	event := &model.ActivityEvent{
		ID:         id.String(),
		UserID:     userID,
		Type:       t,
		OccurredAt: at.UTC(),
		Payload:    types.JSONText(canonical),
		CreatedAt:  now.UTC(),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("record %s: %w", t, err)
	}

	metrics.ActivityRecorded.WithLabelValues(string(t)).Inc()

	for _, l := range s.listeners {
		l.ActivityRecorded(ctx, userID, t)
	}

	return event, nil
}

// record appends an event built by the engine itself.
func (s *ActivityService) record(ctx context.Context, userID string, t model.ActivityType, payload any) (*model.ActivityEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return s.Record(ctx, userID, t, raw, time.Time{})
}

// Query returns events in (occurred_at, id) order, newest first when
// f.Newest is set.
func (s *ActivityService) Query(ctx context.Context, userID string, f repository.ActivityFilter) ([]*model.ActivityEvent, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("type", "invalid_activity_type", fmt.Sprintf("unknown activity type %q", f.Type))
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return nil, apperr.Validation("to", "invalid_range", "to must be after from")
	}

	events, err := s.repo.Query(ctx, userID, f)
	if err != nil {
		slog.Error("failed to query activity", "error", err, "user_id", userID)
		return nil, err
	}
	return events, nil
}

// Counts aggregates events in [from, to); zero bounds are open.
func (s *ActivityService) Counts(ctx context.Context, userID string, from, to time.Time) (model.ActivityCounts, error) {
	return s.repo.Counts(ctx, userID, from, to)
}

func (s *ActivityService) OccurredTimes(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	return s.repo.OccurredTimes(ctx, userID, from, to)
}

func (s *ActivityService) UserIDs(ctx context.Context) ([]string, error) {
	return s.repo.UserIDs(ctx)
}
