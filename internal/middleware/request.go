package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/templui/heartline/internal/config"
	"github.com/templui/heartline/internal/ctxkeys"
)

const RequestIDHeader = "X-Request-ID"

// Upstream IDs are echoed only when they look like an opaque token.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags each request with an ID, reusing a well-formed one from a
// proxy. The ID is echoed in the response and attached to request logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxkeys.WithRequestID(r.Context(), id)))
	})
}

// Config exposes the sanitized configuration to handlers. JWTSecret and the
// S3 credentials are blanked.
func Config(cfg *config.Config) Middleware {
	sanitized := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ctxkeys.WithConfig(r.Context(), sanitized)))
		})
	}
}
