// Package render writes JSON responses and the error envelope shared by
// every endpoint.
package render

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/heartline/internal/apperr"
	"github.com/templui/heartline/internal/ctxkeys"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

type envelope struct {
	Error errorBody `json:"error"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("render json failed", "error", err, "path", r.URL.Path)
	}
}

// Error writes {"error":{"message","code","field"}}.
func Error(w http.ResponseWriter, r *http.Request, status int, code, field, message string) {
	JSON(w, r, status, envelope{Error: errorBody{Message: message, Code: code, Field: field}})
}

// Fail maps err to its status and envelope. Storage and unknown failures are
// logged and reported without internals.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)

	var ae *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &ae) {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		Error(w, r, http.StatusInternalServerError, "internal_error", "", "internal server error")
		return
	}

	message := ae.Code
	if ae.Err != nil {
		message = ae.Err.Error()
	}
	Error(w, r, status, ae.Code, ae.Field, message)
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	return decode(r, dst, false)
}

// DecodeOptional is Decode for endpoints whose body may be empty.
func DecodeOptional(r *http.Request, dst any) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return apperr.Validation("body", "invalid_body", "request body must be valid JSON: "+err.Error())
	}
	return nil
}
