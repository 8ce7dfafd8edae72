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
	ErrReportJobNotFound = apperr.NotFound("report_job_not_found", "report job not found")
)

type ReportJobRepository interface {
	Create(ctx context.Context, job *model.ReportJob) error
	ByID(ctx context.Context, userID, jobID string) (*model.ReportJob, error)
	Pending(ctx context.Context) ([]*model.ReportJob, error)
	Requeue(ctx context.Context, at time.Time) (int, error)
	Claim(ctx context.Context, jobID string, at time.Time) (bool, error)
	MarkDone(ctx context.Context, jobID, reportID string, at time.Time) error
	MarkFailed(ctx context.Context, jobID, msg string, at time.Time) error
}

type reportJobRepository struct {
	db *sqlx.DB
}

func NewReportJobRepository(db *sqlx.DB) ReportJobRepository {
	return &reportJobRepository{db: db}
}

func (r *reportJobRepository) Create(ctx context.Context, job *model.ReportJob) error {
	query := `INSERT INTO report_jobs (id, user_id, period_type, period_start, provisional, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.PeriodType,
		utc(job.PeriodStart),
		job.Provisional,
		job.Status,
		utc(job.CreatedAt),
		utc(job.UpdatedAt),
	)
	return apperr.Storage(err)
}

func (r *reportJobRepository) ByID(ctx context.Context, userID, jobID string) (*model.ReportJob, error) {
	job := &model.ReportJob{}
	query := `SELECT * FROM report_jobs WHERE id = $1 AND user_id = $2`

	err := read(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, job, query, jobID, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportJobNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return job, nil
}

// Pending returns jobs waiting for a worker, oldest first.
func (r *reportJobRepository) Pending(ctx context.Context) ([]*model.ReportJob, error) {
	var jobs []*model.ReportJob
	query := `SELECT * FROM report_jobs WHERE status = 'pending' ORDER BY created_at ASC, id ASC`

	err := read(ctx, func(ctx context.Context) error {
		jobs = nil
		return r.db.SelectContext(ctx, &jobs, query)
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return jobs, nil
}

// Requeue puts jobs left running by a stopped process back to pending.
func (r *reportJobRepository) Requeue(ctx context.Context, at time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE report_jobs SET status = 'pending', updated_at = $1 WHERE status = 'running'`, utc(at))
	if err != nil {
		return 0, apperr.Storage(err)
	}
	rows, err := affected(result)
	return int(rows), err
}

// Claim moves a pending job to running. Only one caller wins; false means
// the job was already claimed or finished.
func (r *reportJobRepository) Claim(ctx context.Context, jobID string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE report_jobs SET status = 'running', updated_at = $1 WHERE id = $2 AND status = 'pending'`,
		utc(at), jobID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := affected(result)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *reportJobRepository) MarkDone(ctx context.Context, jobID, reportID string, at time.Time) error {
	return r.mark(ctx, `UPDATE report_jobs SET status = 'done', report_id = $1, error = NULL, updated_at = $2 WHERE id = $3`,
		reportID, utc(at), jobID)
}

func (r *reportJobRepository) MarkFailed(ctx context.Context, jobID, msg string, at time.Time) error {
	return r.mark(ctx, `UPDATE report_jobs SET status = 'failed', error = $1, updated_at = $2 WHERE id = $3`,
		msg, utc(at), jobID)
}

func (r *reportJobRepository) mark(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Storage(err)
	}
	rows, err := affected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrReportJobNotFound
	}
	return nil
}
