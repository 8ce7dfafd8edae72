// Package handler exposes the engagement engine as a JSON API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/ctxkeys"
	"github.com/templui/heartline/internal/render"
)

// currentUser returns the authenticated user. A userId query parameter must
// name the same user; anything else is answered with 403 and ok=false.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := ctxkeys.UserID(r.Context())
	if userID == "" {
		render.Error(w, r, http.StatusUnauthorized, "unauthorized", "", "authentication required")
		return "", false
	}

	if q := r.URL.Query().Get("userId"); q != "" && q != userID {
		render.Error(w, r, http.StatusForbidden, "forbidden", "userId", "userId does not match the authenticated user")
		return "", false
	}

	return userID, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation(name, "invalid_integer", name+" must be an integer")
	}
	return i, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.Validation(name, "invalid_boolean", name+" must be true or false")
	}
	return b, nil
}

// progressRequest is the body of both progress endpoints.
type progressRequest struct {
	TaskID   string `json:"taskId,omitempty"`
	NewValue *int   `json:"newValue"`
}

func (p progressRequest) value() (int, error) {
	if p.NewValue == nil {
		return 0, apperr.Validation("newValue", "required", "newValue is required")
	}
	return *p.NewValue, nil
}

func invalidDate(field string) error {
	return apperr.Validation(field, "invalid_date", field+" must be a YYYY-MM-DD date")
}
