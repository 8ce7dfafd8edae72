package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

const (
	DefaultActivityLimit = 100
	MaxActivityLimit     = 1000
)

// ActivityFilter narrows an event query. From is inclusive, To exclusive.
// AfterID resumes a previous query after the event with that ID.
type ActivityFilter struct {
	Type    model.ActivityType
	From    *time.Time
	To      *time.Time
	AfterID string
	Limit   int
	// Newest reverses the order; AfterID then pages toward older events.
	Newest bool
}

type ActivityRepository interface {
	Create(ctx context.Context, e *model.ActivityEvent) error
	Query(ctx context.Context, userID string, f ActivityFilter) ([]*model.ActivityEvent, error)
	Counts(ctx context.Context, userID string, from, to time.Time) (model.ActivityCounts, error)
	OccurredTimes(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error)
	UserIDs(ctx context.Context) ([]string, error)
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, e *model.ActivityEvent) error {
	query := `INSERT INTO activity_events (id, user_id, type, occurred_at, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.Type,
		utc(e.OccurredAt),
		e.Payload,
		utc(e.CreatedAt),
	)
	return apperr.Storage(err)
}

func (r *activityRepository) Query(ctx context.Context, userID string, f ActivityFilter) ([]*model.ActivityEvent, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Type != "" {
		where = append(where, "type = "+arg(f.Type))
	}
	if f.From != nil {
		where = append(where, "occurred_at >= "+arg(utc(*f.From)))
	}
	if f.To != nil {
		where = append(where, "occurred_at < "+arg(utc(*f.To)))
	}
	cmp, order := ">", "ASC"
	if f.Newest {
		cmp, order = "<", "DESC"
	}
	if f.AfterID != "" {
		p := arg(f.AfterID)
		where = append(where, fmt.Sprintf(
			"(occurred_at, id) %s (SELECT occurred_at, id FROM activity_events WHERE id = %s AND user_id = $1)", cmp, p))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	query := `SELECT * FROM activity_events WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY occurred_at ` + order + `, id ` + order + ` LIMIT ` + arg(limit)

	var events []*model.ActivityEvent
	err := read(ctx, func(ctx context.Context) error {
		events = nil
		return r.db.SelectContext(ctx, &events, query, args...)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return events, nil
}

// Counts aggregates events in [from, to). A zero bound leaves that side open.
func (r *activityRepository) Counts(ctx context.Context, userID string, from, to time.Time) (model.ActivityCounts, error) {
	query, args := windowQuery(`SELECT type, payload FROM activity_events WHERE user_id = $1`, userID, from, to)

	var counts model.ActivityCounts
	err := read(ctx, func(ctx context.Context) error {
		counts = model.ActivityCounts{}
		rows, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e model.ActivityEvent
			if err := rows.Scan(&e.Type, &e.Payload); err != nil {
				return err
			}
			counts.Add(&e)
		}
		return rows.Err()
	})
	if err != nil {
		return model.ActivityCounts{}, apperr.Storage(err)
	}
	return counts, nil
}

// OccurredTimes returns event instants in [from, to), oldest first.
func (r *activityRepository) OccurredTimes(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	query, args := windowQuery(`SELECT occurred_at FROM activity_events WHERE user_id = $1`, userID, from, to)
	query += ` ORDER BY occurred_at ASC`

	var times []time.Time
	err := read(ctx, func(ctx context.Context) error {
		times = nil
		return r.db.SelectContext(ctx, &times, query, args...)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return times, nil
}

// UserIDs lists every user with at least one event.
func (r *activityRepository) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := read(ctx, func(ctx context.Context) error {
		ids = nil
		return r.db.SelectContext(ctx, &ids, `SELECT DISTINCT user_id FROM activity_events ORDER BY user_id`)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return ids, nil
}

func windowQuery(base, userID string, from, to time.Time) (string, []any) {
	args := []any{userID}
	if !from.IsZero() {
		args = append(args, utc(from))
		base += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, utc(to))
		base += fmt.Sprintf(" AND occurred_at < $%d", len(args))
	}
	return base, args
}
