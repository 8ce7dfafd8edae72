package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/heartline/internal/ctxkeys"
	"github.com/templui/heartline/internal/render"
	"github.com/templui/heartline/internal/service"
)

// AuthMiddleware resolves the caller from a Bearer token or the auth_token
// cookie and adds the user ID to the context. Requests without a valid token
// continue anonymously.
func AuthMiddleware(authService *service.AuthService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie("auth_token"); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authService.UserID(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.UserID(r.Context()) == "" {
			render.Error(w, r, http.StatusUnauthorized, "unauthorized", "", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}
