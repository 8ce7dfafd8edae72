package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/model"
	"github.com/templui/heartline/internal/repository"
)

const (
	DefaultReportWorkers = 2
	reportQueueSize      = 256

	// DefaultJobSweepInterval is how often stored pending jobs are handed to
	// the pool again, covering jobs dropped by a full queue.
	DefaultJobSweepInterval = 30 * time.Second
)

// ReportJobService runs report generation requested over HTTP on a bounded
// pool of workers. Jobs are persisted and swept periodically, so neither a
// full queue nor a restart loses them. A job is generated at most once: the
// worker must claim it in storage first.
type ReportJobService struct {
	repo    repository.ReportJobRepository
	reports *ReportService
	queue   chan *model.ReportJob
	workers int
	now     func() time.Time

	sweepInterval time.Duration

	mu     sync.Mutex
	queued map[string]bool
}

func NewReportJobService(repo repository.ReportJobRepository, reports *ReportService, workers int) *ReportJobService {
	if workers < 1 {
		workers = DefaultReportWorkers
	}
	return &ReportJobService{
		repo:          repo,
		reports:       reports,
		queue:         make(chan *model.ReportJob, reportQueueSize),
		workers:       workers,
		now:           time.Now,
		sweepInterval: DefaultJobSweepInterval,
		queued:        make(map[string]bool),
	}
}

// Enqueue validates the request, stores a pending job and hands it to the
// pool. The period checks run up front so callers get a 400 instead of a
// failed job.
func (s *ReportJobService) Enqueue(ctx context.Context, userID string, pt model.PeriodType, periodStart time.Time, provisional bool) (*model.ReportJob, error) {
	start, _, provisional, err := s.reports.normalize(pt, periodStart, provisional)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &model.ReportJob{
		ID:          id.String(),
		UserID:      userID,
		PeriodType:  pt,
		PeriodStart: start.UTC(),
		Provisional: provisional,
		Status:      model.JobPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	s.submit(job)
	return job, nil
}

// submit queues job unless it already waits in the queue. A full queue
// leaves the job to the next sweep.
func (s *ReportJobService) submit(job *model.ReportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queued[job.ID] {
		return
	}
	select {
	case s.queue <- job:
		s.queued[job.ID] = true
	default:
		slog.Warn("report queue full, job waits for the next sweep", "job_id", job.ID, "user_id", job.UserID)
	}
}

func (s *ReportJobService) dequeued(jobID string) {
	s.mu.Lock()
	delete(s.queued, jobID)
	s.mu.Unlock()
}

func (s *ReportJobService) Job(ctx context.Context, userID, jobID string) (*model.ReportJob, error) {
	return s.repo.ByID(ctx, userID, jobID)
}

// Run requeues jobs a previous process left running, then processes the
// queue and sweeps pending jobs until ctx is done.
func (s *ReportJobService) Run(ctx context.Context) error {
	n, err := s.repo.Requeue(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("requeued interrupted report jobs", "count", n)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			s.work(ctx)
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			s.sweep(ctx)
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}

// sweep hands every stored pending job to the pool.
func (s *ReportJobService) sweep(ctx context.Context) {
	pending, err := s.repo.Pending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("failed to load pending report jobs", "error", err)
		}
		return
	}
	for _, job := range pending {
		s.submit(job)
	}
}

func (s *ReportJobService) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.dequeued(job.ID)
			s.process(ctx, job)
		}
	}
}

func (s *ReportJobService) process(ctx context.Context, job *model.ReportJob) {
	log := slog.With("job_id", job.ID, "user_id", job.UserID, "period_type", job.PeriodType)

	claimed, err := s.repo.Claim(ctx, job.ID, s.now())
	if err != nil {
		log.Error("failed to claim report job", "error", err)
		return
	}
	if !claimed {
		log.Debug("report job already claimed")
		return
	}

	report, err := s.reports.GeneratePeriodReport(ctx, job.UserID, job.PeriodType, job.PeriodStart, job.Provisional)
	if err != nil {
		log.Error("report job failed", "error", err)
		metrics.ReportJobs.WithLabelValues(string(model.JobFailed)).Inc()
		if err := s.repo.MarkFailed(context.WithoutCancel(ctx), job.ID, err.Error(), s.now()); err != nil {
			log.Error("failed to mark report job failed", "error", err)
		}
		return
	}

	metrics.ReportJobs.WithLabelValues(string(model.JobDone)).Inc()
	if err := s.repo.MarkDone(ctx, job.ID, report.ID, s.now()); err != nil {
		log.Error("failed to mark report job done", "error", err)
	}
}
