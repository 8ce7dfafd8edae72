package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/model"
)

var (
	ErrReportNotFound = apperr.NotFound("report_not_found", "report not found")
)

// ReportRepository stores period snapshots. Rows are inserted, never updated.
type ReportRepository interface {
	Create(ctx context.Context, report *model.PeriodReport) error
	ByID(ctx context.Context, userID, reportID string) (*model.PeriodReport, error)
	Latest(ctx context.Context, userID string, pt model.PeriodType, start time.Time, includeProvisional bool) (*model.PeriodReport, error)
	History(ctx context.Context, userID string, pt model.PeriodType, limit int) ([]*model.PeriodReport, error)
}

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.PeriodReport) error {
	query := `INSERT INTO period_reports (id, user_id, period_type, period_start, period_end, provisional,
	              metrics, insights, comparison, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.PeriodType,
		utc(report.PeriodStart),
		utc(report.PeriodEnd),
		report.Provisional,
		report.Metrics,
		report.Insights,
		report.Comparison,
		utc(report.CreatedAt),
	)
	return apperr.Storage(err)
}

func (r *reportRepository) ByID(ctx context.Context, userID, reportID string) (*model.PeriodReport, error) {
	report := &model.PeriodReport{}
	query := `SELECT * FROM period_reports WHERE id = $1 AND user_id = $2`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, report, query, reportID, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return report, nil
}

// Latest returns the newest snapshot for the period starting at start.
// Provisional snapshots are only considered when includeProvisional is set.
func (r *reportRepository) Latest(ctx context.Context, userID string, pt model.PeriodType, start time.Time, includeProvisional bool) (*model.PeriodReport, error) {
	query := `SELECT * FROM period_reports
	          WHERE user_id = $1 AND period_type = $2 AND period_start = $3`
	if !includeProvisional {
		query += ` AND provisional = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	report := &model.PeriodReport{}
	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, report, query, userID, pt, utc(start))
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return report, nil
}

// History lists snapshots newest period first. An empty pt lists every type.
func (r *reportRepository) History(ctx context.Context, userID string, pt model.PeriodType, limit int) ([]*model.PeriodReport, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT * FROM period_reports WHERE user_id = $1`
	args := []any{userID}
	if pt != "" {
		query += ` AND period_type = $2`
		args = append(args, pt)
	}
	query += ` ORDER BY period_start DESC, created_at DESC, id DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	var reports []*model.PeriodReport
	err := read(ctx, func(ctx context.Context) error {
		reports = nil
		return r.db.SelectContext(ctx, &reports, query, args...)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return reports, nil
}
