package render

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/apperr"
)

func TestFail(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			"validation",
			apperr.Validation("targetValue", "invalid_goal_target", "must be at least 1"),
			http.StatusBadRequest,
			`{"error":{"message":"must be at least 1","code":"invalid_goal_target","field":"targetValue"}}`,
		},
		{
			"not found",
			apperr.NotFound("goal_not_found", "goal not found"),
			http.StatusNotFound,
			`{"error":{"message":"goal not found","code":"goal_not_found"}}`,
		},
		{
			"storage hides details",
			apperr.Storage(errors.New("pq: connection refused")),
			http.StatusInternalServerError,
			`{"error":{"message":"internal server error","code":"internal_error"}}`,
		},
		{
			"plain error",
			errors.New("boom"),
			http.StatusInternalServerError,
			`{"error":{"message":"internal server error","code":"internal_error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Sam"}`))
	require.NoError(t, Decode(req, &dst))
	assert.Equal(t, "Sam", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Sam","age":30}`))
	err := Decode(req, &dst)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Error(t, Decode(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, DecodeOptional(req, &dst))
}
