package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("targetValue", "invalid_goal_target", "must be at least 1"), KindValidation},
		{"not found", NotFound("goal_not_found", "goal not found"), KindNotFound},
		{"conflict", Conflict("duplicate", errors.New("dup")), KindConflict},
		{"storage", Storage(sql.ErrConnDone), KindStorage},
		{"wrapped", fmt.Errorf("update goal: %w", NotFound("goal_not_found", "goal not found")), KindNotFound},
		{"plain", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStorage_KeepsTypedErrors(t *testing.T) {
	nf := NotFound("task_not_found", "daily task not found")

	assert.Same(t, nf, Storage(nf))
	assert.Nil(t, Storage(nil))
	assert.ErrorIs(t, Storage(sql.ErrConnDone), sql.ErrConnDone)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("title", "required", "title is required")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("goal_not_found", "goal not found")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("duplicate", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Storage(errors.New("db down"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestError_MessageIncludesField(t *testing.T) {
	err := Validation("targetValue", "invalid_goal_target", "must be at least 1")
	assert.Equal(t, "targetValue: must be at least 1", err.Error())
}
