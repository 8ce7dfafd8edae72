// Package validation checks request input and reports failures as
// validation errors carrying the offending field.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/templui/heartline/internal/apperr"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxNameLength        = 100
)

// Text trims value and checks it is present and at most max characters.
func Text(field, value string, max int) (string, error) {
	trimmed := strings.TrimSpace(value)

	if trimmed == "" {
		return "", apperr.Validation(field, "required", field+" is required")
	}

	if utf8.RuneCountInString(trimmed) > max {
		return "", apperr.Validation(field, "too_long", fmt.Sprintf("%s is too long (max %d characters)", field, max))
	}

	return trimmed, nil
}

// OptionalText is Text that accepts an empty value.
func OptionalText(field, value string, max int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) > max {
		return "", apperr.Validation(field, "too_long", fmt.Sprintf("%s is too long (max %d characters)", field, max))
	}
	return trimmed, nil
}

// Name validates a profile display name.
func Name(name string) (string, error) {
	return Text("name", name, MaxNameLength)
}

// Between checks min <= v <= max.
func Between(field, code string, v, min, max int) error {
	if v < min || v > max {
		return apperr.Validation(field, code, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return nil
}
