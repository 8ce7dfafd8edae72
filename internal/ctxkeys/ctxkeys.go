// Package ctxkeys stores per-request values on the context. Every accessor
// returns the zero value when the middleware that sets it did not run.
package ctxkeys

import (
	"context"

	"github.com/templui/heartline/internal/config"
)

type (
	userIDKey    struct{}
	requestIDKey struct{}
	configKey    struct{}
)

// UserID returns the authenticated user, empty for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// RequestID correlates log lines of one HTTP request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Config is the sanitized configuration; secrets are blank.
func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}
