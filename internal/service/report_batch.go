package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/templui/heartline/internal/model"
)

// BatchResult summarizes one scheduled report run.
type BatchResult struct {
	Users     int      `json:"users"`
	Generated int      `json:"generated"`
	Failed    []string `json:"failed,omitempty"`
}

// RunBatch generates the report of one period for many users. A failing
// user does not stop the others; every failure is folded into the returned
// error. Nil userIDs means every user with recorded activity.
func (s *ReportService) RunBatch(ctx context.Context, pt model.PeriodType, periodStart time.Time, userIDs []string, concurrency int) (*BatchResult, error) {
	if _, _, _, err := s.normalize(pt, periodStart, false); err != nil {
		return nil, err
	}

	if userIDs == nil {
		ids, err := s.activity.UserIDs(ctx)
		if err != nil {
			return nil, err
		}
		userIDs = ids
	}
	if concurrency < 1 {
		concurrency = DefaultReportWorkers
	}

	var (
		mu     sync.Mutex
		result = &BatchResult{Users: len(userIDs)}
		errs   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			_, err := s.GeneratePeriodReport(gctx, userID, pt, periodStart, false)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, userID)
				errs = multierr.Append(errs, fmt.Errorf("user %s: %w", userID, err))
				return nil
			}
			result.Generated++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}

	slog.Info("report batch finished",
		"period_type", pt,
		"period_start", s.cal.Key(periodStart),
		"users", result.Users,
		"generated", result.Generated,
		"failed", len(result.Failed),
	)
	return result, errs
}
