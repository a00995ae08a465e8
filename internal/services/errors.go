package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("invalid credentials")
)

// ValidationError names the offending field. errors.Is(err, ErrValidationFailed)
// holds for every ValidationError.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, invalidField(field, "must be a valid UUID")
	}
	return id, nil
}

// parseOptionalID treats "" as the anonymous viewer.
func parseOptionalID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return parseID(field, value)
}
