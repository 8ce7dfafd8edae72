package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/templui/heartline/internal/apperr"
)

var readBackoff = 50 * time.Millisecond

// read runs an idempotent query, retrying it once on a storage failure.
// Missing rows and context cancellation are returned as-is.
func read(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(1, retry.NewConstant(readBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
			return err
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return retry.RetryableError(err)
	})
	return err
}

// utc normalizes instants before they reach the database so that stored
// values compare consistently on every driver.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := utc(*t)
	return &v
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
