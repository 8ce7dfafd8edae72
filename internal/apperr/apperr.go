// Package apperr is the error taxonomy shared by repositories, services and
// handlers. Every failure the engine reports falls into one Kind.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind  Kind
	Code  string
	Field string // offending input field, validation errors only
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Code
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if msg == "" {
		return e.Kind.String() + " error"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports bad input for field. Rejected before any write.
func Validation(field, code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Err: errors.New(msg)}
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Err: errors.New(msg)}
}

func Conflict(code string, err error) *Error {
	return &Error{Kind: KindConflict, Code: code, Err: err}
}

// Storage wraps a backend failure. nil stays nil.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Code: "storage_error", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
